package pfadmin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/insatiatedsoulcode/portfolio/internal/models/pfstore"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pftracker"
	"github.com/rs/zerolog/log"
)

// Clés des blobs persistés dans le store
const (
	submissionsKey = "contact_submissions"
	queriesKey     = "ai_queries"
)

// FormSubmission est un message reçu via le formulaire de contact,
// journalisé localement avant tout envoi au backend distant
type FormSubmission struct {
	ID         string    `json:"submission_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Subject    string    `json:"subject"`
	Message    string    `json:"message"`
	AIResponse string    `json:"ai_response,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
}

// AIQuery est une requête de génération IA journalisée localement
type AIQuery struct {
	ID          string    `json:"id"`
	Prompt      string    `json:"prompt"`
	Provider    string    `json:"provider,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// VisitorStats est la vue agrégée du tracker pour le dashboard
type VisitorStats struct {
	TotalVisits    int                    `json:"total_visits"`
	UniqueVisitors int                    `json:"unique_visitors"`
	TodayVisits    int                    `json:"today_visits"`
	HomeVisits     int                    `json:"home_visits"`
	BlogVisits     int                    `json:"blog_visits"`
	PageStats      []pftracker.PageStat   `json:"page_stats"`
	RecentVisits   []pftracker.VisitEvent `json:"recent_visits"`
}

// Dashboard assemble les trois collections lues indépendamment.
// Aucune garantie transactionnelle entre elles.
type Dashboard struct {
	Submissions  []FormSubmission `json:"submissions"`
	Queries      []AIQuery        `json:"queries"`
	VisitorStats VisitorStats     `json:"visitor_stats"`
}

// Service porte le chemin de lecture admin: agrégats du tracker plus les
// journaux de soumissions et de requêtes IA. Seuls ces deux journaux sont
// mutables (suppression par id), jamais le journal de visites.
type Service struct {
	store   pfstore.Store
	tracker *pftracker.Tracker
	mu      sync.Mutex
}

func New(store pfstore.Store, tracker *pftracker.Tracker) *Service {
	return &Service{
		store:   store,
		tracker: tracker,
	}
}

// AppendSubmission journalise une soumission du formulaire de contact
func (s *Service) AppendSubmission(ctx context.Context, sub FormSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.Submissions(ctx)
	subs = append(subs, sub)
	return s.writeJSON(ctx, submissionsKey, subs)
}

// AppendQuery journalise une requête de génération IA
func (s *Service) AppendQuery(ctx context.Context, q AIQuery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	queries := s.Queries(ctx)
	queries = append(queries, q)
	return s.writeJSON(ctx, queriesKey, queries)
}

// Submissions lit le journal des soumissions; absent ou corrompu vaut vide
func (s *Service) Submissions(ctx context.Context) []FormSubmission {
	var subs []FormSubmission
	s.readJSON(ctx, submissionsKey, &subs)
	return subs
}

// Queries lit le journal des requêtes IA
func (s *Service) Queries(ctx context.Context) []AIQuery {
	var queries []AIQuery
	s.readJSON(ctx, queriesKey, &queries)
	return queries
}

// LoadDashboard lit les trois collections et les statistiques visiteurs
func (s *Service) LoadDashboard(ctx context.Context) Dashboard {
	return Dashboard{
		Submissions: s.Submissions(ctx),
		Queries:     s.Queries(ctx),
		VisitorStats: VisitorStats{
			TotalVisits:    s.tracker.TotalVisits(ctx),
			UniqueVisitors: s.tracker.UniqueVisitors(ctx),
			TodayVisits:    s.tracker.TodayVisits(ctx),
			HomeVisits:     s.tracker.HomeVisits(ctx),
			BlogVisits:     s.tracker.BlogVisits(ctx),
			PageStats:      s.tracker.PageStats(ctx),
			RecentVisits:   s.tracker.RecentVisits(ctx, 20),
		},
	}
}

// DeleteSubmission retire la soumission par id. Id inconnu: no-op silencieux,
// le résultat filtré est persisté dans tous les cas.
func (s *Service) DeleteSubmission(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.Submissions(ctx)
	kept := make([]FormSubmission, 0, len(subs))
	for _, sub := range subs {
		if sub.ID != id {
			kept = append(kept, sub)
		}
	}
	return s.writeJSON(ctx, submissionsKey, kept)
}

// DeleteQuery retire la requête IA par id, mêmes règles que DeleteSubmission
func (s *Service) DeleteQuery(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	queries := s.Queries(ctx)
	kept := make([]AIQuery, 0, len(queries))
	for _, q := range queries {
		if q.ID != id {
			kept = append(kept, q)
		}
	}
	return s.writeJSON(ctx, queriesKey, kept)
}

func (s *Service) readJSON(ctx context.Context, key string, out any) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, pfstore.ErrNotFound) {
			log.Warn().Err(err).Str("key", key).Msg("lecture du journal impossible")
		}
		return
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("journal corrompu, traité comme vide")
	}
}

func (s *Service) writeJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("écriture du journal %s: %w", key, err)
	}
	return nil
}
