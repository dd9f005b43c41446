package pftracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"
	"sort"
	"sync"
	"time"

	"github.com/insatiatedsoulcode/portfolio/internal/models/pfstore"
	"github.com/oschwald/geoip2-golang/v2"
	"github.com/rs/zerolog/log"
)

// Tracker maintient le journal de visites et les statistiques par page.
// Une seule instance par processus: le mutex sérialise les cycles
// lecture-modification-écriture sur le store partagé.
type Tracker struct {
	store pfstore.Store
	mu    sync.Mutex
	geo   *geoip2.Reader
	now   func() time.Time
}

func New(store pfstore.Store) *Tracker {
	return &Tracker{
		store: store,
		now:   time.Now,
	}
}

// OpenGeoIP active l'enrichissement pays depuis une base GeoLite2-Country
func (t *Tracker) OpenGeoIP(path string) error {
	reader, err := geoip2.Open(path)
	if err != nil {
		return fmt.Errorf("ouverture base GeoIP: %w", err)
	}
	t.geo = reader
	return nil
}

func (t *Tracker) Close() {
	if t.geo != nil {
		t.geo.Close()
	}
}

// TrackPageVisit enregistre une vue de page puis recalcule l'agrégat de la
// page. Toute chaîne est acceptée comme page, aucune validation de route.
func (t *Tracker) TrackPageVisit(ctx context.Context, page string, sess Session, userAgent, referrer, ipAddress string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	event := VisitEvent{
		ID:           fmt.Sprintf("%d", now.UnixNano()),
		Page:         page,
		Timestamp:    now,
		UserAgent:    userAgent,
		Referrer:     referrer,
		IPAddress:    ipAddress,
		Country:      t.lookupCountry(ipAddress),
		SessionID:    sess.ID,
		IsNewVisitor: sess.IsNew,
	}

	visits := t.readVisits(ctx)
	visits = append(visits, event)
	if err := t.writeJSON(ctx, visitsKey, visits); err != nil {
		return fmt.Errorf("écriture journal de visites: %w", err)
	}

	return t.updatePageStats(ctx, page, visits, now)
}

// updatePageStats recalcule l'entrée de la page: le compteur de visites est
// incrémenté, la cardinalité des sessions est recomptée en rebalayant tout
// le journal de cette page. O(n) par visite, assumé pour un site personnel.
func (t *Tracker) updatePageStats(ctx context.Context, page string, visits []VisitEvent, now time.Time) error {
	stats := t.readStats(ctx)

	stat, ok := stats[page]
	if !ok {
		stat = PageStat{Page: page}
	}
	stat.Visits++
	stat.LastVisit = now

	sessions := make(map[string]struct{})
	for _, v := range visits {
		if v.Page == page {
			sessions[v.SessionID] = struct{}{}
		}
	}
	stat.UniqueVisitors = len(sessions)

	stats[page] = stat
	if err := t.writeJSON(ctx, statsKey, stats); err != nil {
		return fmt.Errorf("écriture statistiques de pages: %w", err)
	}
	return nil
}

// TotalVisits retourne le nombre total de vues enregistrées
func (t *Tracker) TotalVisits(ctx context.Context) int {
	return len(t.readVisits(ctx))
}

// UniqueVisitors retourne la cardinalité globale des sessions
func (t *Tracker) UniqueVisitors(ctx context.Context) int {
	sessions := make(map[string]struct{})
	for _, v := range t.readVisits(ctx) {
		sessions[v.SessionID] = struct{}{}
	}
	return len(sessions)
}

// TodayVisits compte les vues du jour calendaire courant, fuseau local
func (t *Tracker) TodayVisits(ctx context.Context) int {
	today := t.now().Local().Format("2006-01-02")
	count := 0
	for _, v := range t.readVisits(ctx) {
		if v.Timestamp.Local().Format("2006-01-02") == today {
			count++
		}
	}
	return count
}

// PageVisits retourne le compteur d'une page, 0 si jamais visitée
func (t *Tracker) PageVisits(ctx context.Context, page string) int {
	stats := t.readStats(ctx)
	return stats[page].Visits
}

func (t *Tracker) BlogVisits(ctx context.Context) int {
	return t.PageVisits(ctx, "/blog")
}

func (t *Tracker) HomeVisits(ctx context.Context) int {
	return t.PageVisits(ctx, "/")
}

// RecentVisits retourne les dernières vues, plus récentes en premier
func (t *Tracker) RecentVisits(ctx context.Context, limit int) []VisitEvent {
	visits := t.readVisits(ctx)
	sort.SliceStable(visits, func(i, j int) bool {
		return visits[i].Timestamp.After(visits[j].Timestamp)
	})
	if limit >= 0 && len(visits) > limit {
		visits = visits[:limit]
	}
	return visits
}

// PageStats retourne une entrée par page visitée, triée par chemin
func (t *Tracker) PageStats(ctx context.Context) []PageStat {
	stats := t.readStats(ctx)
	out := make([]PageStat, 0, len(stats))
	for _, stat := range stats {
		out = append(out, stat)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Page < out[j].Page
	})
	return out
}

// readVisits lit le journal; blob absent ou corrompu vaut journal vide
func (t *Tracker) readVisits(ctx context.Context) []VisitEvent {
	data, err := t.store.Get(ctx, visitsKey)
	if err != nil {
		if !errors.Is(err, pfstore.ErrNotFound) {
			log.Warn().Err(err).Str("key", visitsKey).Msg("lecture du journal de visites impossible")
		}
		return nil
	}

	var visits []VisitEvent
	if err := json.Unmarshal(data, &visits); err != nil {
		log.Warn().Err(err).Str("key", visitsKey).Msg("journal de visites corrompu, repart de zéro")
		return nil
	}
	return visits
}

func (t *Tracker) readStats(ctx context.Context) map[string]PageStat {
	data, err := t.store.Get(ctx, statsKey)
	if err != nil {
		if !errors.Is(err, pfstore.ErrNotFound) {
			log.Warn().Err(err).Str("key", statsKey).Msg("lecture des statistiques impossible")
		}
		return make(map[string]PageStat)
	}

	var stats map[string]PageStat
	if err := json.Unmarshal(data, &stats); err != nil {
		log.Warn().Err(err).Str("key", statsKey).Msg("statistiques corrompues, repart de zéro")
		return make(map[string]PageStat)
	}
	if stats == nil {
		stats = make(map[string]PageStat)
	}
	return stats
}

func (t *Tracker) writeJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return t.store.Put(ctx, key, data)
}

func (t *Tracker) lookupCountry(ipAddress string) string {
	if t.geo == nil || ipAddress == "" {
		return ""
	}
	addr, err := netip.ParseAddr(ipAddress)
	if err != nil {
		return ""
	}
	record, err := t.geo.Country(addr)
	if err != nil {
		return ""
	}
	return record.Country.ISOCode
}
