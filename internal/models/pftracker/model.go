package pftracker

import "time"

// Clés des blobs persistés dans le store
const (
	visitsKey = "page_visits"
	statsKey  = "page_stats"
)

// VisitEvent représente une vue de page. Immuable une fois enregistrée,
// le journal est append-only.
type VisitEvent struct {
	ID           string    `json:"id"`
	Page         string    `json:"page"`
	Timestamp    time.Time `json:"timestamp"`
	UserAgent    string    `json:"user_agent"`
	Referrer     string    `json:"referrer"`
	IPAddress    string    `json:"ip_address,omitempty"`
	Country      string    `json:"country,omitempty"`
	SessionID    string    `json:"session_id"`
	IsNewVisitor bool      `json:"is_new_visitor"`
}

// PageStat est l'agrégat dérivé pour une page
type PageStat struct {
	Page           string    `json:"page"`
	Visits         int       `json:"visits"`
	UniqueVisitors int       `json:"unique_visitors"`
	LastVisit      time.Time `json:"last_visit"`
}

// Session identifie un profil navigateur: l'id est frappé une seule fois
// par profil et IsNew n'est vrai que pour la toute première visite.
type Session struct {
	ID    string
	IsNew bool
}
