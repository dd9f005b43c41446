package handlers_ai

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfadmin"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfbackend"
	"github.com/rs/zerolog/log"
)

// AIHandler relaie les demandes de génération vers le backend et
// journalise chaque requête localement pour le dashboard admin
type AIHandler struct {
	backend *pfbackend.Client
	admin   *pfadmin.Service
}

func NewAIHandler(backend *pfbackend.Client, admin *pfadmin.Service) *AIHandler {
	return &AIHandler{
		backend: backend,
		admin:   admin,
	}
}

type generateRequest struct {
	Prompt      string `json:"prompt" binding:"required"`
	Provider    string `json:"provider"`
	ContentType string `json:"content_type"`
}

type blogRequest struct {
	Topic          string   `json:"topic" binding:"required"`
	Style          string   `json:"style"`
	Length         string   `json:"length"`
	Keywords       []string `json:"keywords"`
	TargetAudience string   `json:"target_audience"`
}

// Generate relaie une demande de génération de contenu
func (ah *AIHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt manquant"})
		return
	}

	result, err := ah.backend.GenerateContent(c.Request.Context(), pfbackend.GeneratePayload{
		Prompt:      req.Prompt,
		Provider:    req.Provider,
		ContentType: req.ContentType,
	})
	if err != nil {
		log.Warn().Err(err).Msg("génération IA échouée")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Backend IA indisponible"})
		return
	}

	ah.logQuery(c, req.Prompt, result.Provider, "generate")

	c.JSON(http.StatusOK, gin.H{
		"content":  result.Content,
		"provider": result.Provider,
	})
}

// GenerateBlog relaie une demande de génération de billet. Le contrat de
// /api/ai/blog diffère de celui de /api/ai/generate: sujet en entrée,
// billet structuré (titre, tags, méta-description) en sortie.
func (ah *AIHandler) GenerateBlog(c *gin.Context) {
	var req blogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Sujet manquant"})
		return
	}

	result, err := ah.backend.GenerateBlogPost(c.Request.Context(), pfbackend.BlogPayload{
		Topic:          req.Topic,
		Style:          req.Style,
		Length:         req.Length,
		Keywords:       req.Keywords,
		TargetAudience: req.TargetAudience,
	})
	if err != nil {
		log.Warn().Err(err).Msg("génération de billet échouée")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Backend IA indisponible"})
		return
	}

	ah.logQuery(c, req.Topic, "", "blog")

	c.JSON(http.StatusOK, result)
}

// logQuery journalise la requête pour le dashboard, best-effort
func (ah *AIHandler) logQuery(c *gin.Context, prompt, provider, contentType string) {
	query := pfadmin.AIQuery{
		ID:          fmt.Sprintf("%d", time.Now().UnixNano()),
		Prompt:      prompt,
		Provider:    provider,
		ContentType: contentType,
		Timestamp:   time.Now(),
	}
	if err := ah.admin.AppendQuery(c.Request.Context(), query); err != nil {
		log.Warn().Err(err).Msg("journalisation de la requête IA impossible")
	}
}

// Providers liste les fournisseurs IA du backend
func (ah *AIHandler) Providers(c *gin.Context) {
	data, err := ah.backend.Providers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Backend IA indisponible"})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// Health relaie l'état du sous-système IA
func (ah *AIHandler) Health(c *gin.Context) {
	data, err := ah.backend.AIHealth(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Backend IA indisponible"})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}
