package pfbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/insatiatedsoulcode/portfolio/internal/models/pfconfig"
	"github.com/rs/zerolog/log"
)

// Client parle au backend d'API distant qui porte l'envoi d'emails et la
// génération IA. Toutes les méthodes sont best-effort du point de vue du
// site: un backend injoignable ne doit jamais casser le chemin local.
type Client struct {
	baseURL string
	http    *http.Client
}

// ContactPayload est le corps envoyé à POST /api/contact/submit
type ContactPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// GeneratePayload est le corps envoyé aux endpoints de génération IA
type GeneratePayload struct {
	Prompt      string `json:"prompt"`
	Provider    string `json:"provider,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// GenerateResult est la réponse des endpoints de génération
type GenerateResult struct {
	Content  string `json:"content"`
	Provider string `json:"provider,omitempty"`
}

// BlogPayload est le corps envoyé à POST /api/ai/blog
type BlogPayload struct {
	Topic          string   `json:"topic"`
	Style          string   `json:"style,omitempty"`
	Length         string   `json:"length,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	TargetAudience string   `json:"target_audience,omitempty"`
}

// BlogResult est la réponse de la génération de billet
type BlogResult struct {
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	MetaDescription string   `json:"meta_description"`
	Tags            []string `json:"tags"`
	WordCount       int      `json:"word_count"`
	ReadingTime     int      `json:"reading_time"`
}

func New(cfg pfconfig.BackendConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: cfg.URL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Enabled indique si un backend distant est configuré
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// SubmitContact transmet une soumission du formulaire au backend
func (c *Client) SubmitContact(ctx context.Context, payload ContactPayload) error {
	return c.postJSON(ctx, "/api/contact/submit", payload, nil)
}

// GenerateContent demande une génération de contenu IA
func (c *Client) GenerateContent(ctx context.Context, payload GeneratePayload) (GenerateResult, error) {
	var result GenerateResult
	err := c.postJSON(ctx, "/api/ai/generate", payload, &result)
	return result, err
}

// GenerateBlogPost demande une génération de billet de blog
func (c *Client) GenerateBlogPost(ctx context.Context, payload BlogPayload) (BlogResult, error) {
	var result BlogResult
	err := c.postJSON(ctx, "/api/ai/blog", payload, &result)
	return result, err
}

// Providers liste les fournisseurs IA disponibles côté backend
func (c *Client) Providers(ctx context.Context) (json.RawMessage, error) {
	return c.getJSON(ctx, "/api/ai/providers")
}

// Health interroge l'état général du backend
func (c *Client) Health(ctx context.Context) (json.RawMessage, error) {
	return c.getJSON(ctx, "/health")
}

// AIHealth interroge l'état du sous-système IA du backend
func (c *Client) AIHealth(ctx context.Context) (json.RawMessage, error) {
	return c.getJSON(ctx, "/api/ai/health")
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend injoignable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Warn().Int("status", resp.StatusCode).Str("path", path).
			Str("body", string(data)).Msg("réponse backend en erreur")
		return fmt.Errorf("backend %s: statut %d", path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) getJSON(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend injoignable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend %s: statut %d", path, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
