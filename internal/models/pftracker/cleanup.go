package pftracker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// CleanupBefore supprime les visites antérieures à cutoff et reconstruit
// les statistiques de pages depuis le journal restant. C'est la seule
// opération qui fait décroître les compteurs, jamais déclenchée par défaut.
func (t *Tracker) CleanupBefore(ctx context.Context, cutoff time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	visits := t.readVisits(ctx)
	kept := visits[:0]
	for _, v := range visits {
		if !v.Timestamp.Before(cutoff) {
			kept = append(kept, v)
		}
	}

	removed := len(visits) - len(kept)
	if removed == 0 {
		return nil
	}

	if err := t.writeJSON(ctx, visitsKey, kept); err != nil {
		return err
	}

	// Reconstruction complète des agrégats
	stats := make(map[string]PageStat)
	sessions := make(map[string]map[string]struct{})
	for _, v := range kept {
		stat := stats[v.Page]
		stat.Page = v.Page
		stat.Visits++
		if v.Timestamp.After(stat.LastVisit) {
			stat.LastVisit = v.Timestamp
		}
		if sessions[v.Page] == nil {
			sessions[v.Page] = make(map[string]struct{})
		}
		sessions[v.Page][v.SessionID] = struct{}{}
		stat.UniqueVisitors = len(sessions[v.Page])
		stats[v.Page] = stat
	}
	if err := t.writeJSON(ctx, statsKey, stats); err != nil {
		return err
	}

	log.Info().Int("removed", removed).Time("cutoff", cutoff).Msg("anciennes visites purgées")
	return nil
}

// StartRetentionCron purge chaque nuit les visites plus vieilles que
// retentionDays. Opt-in: appelé seulement si la rétention est configurée.
func (t *Tracker) StartRetentionCron(retentionDays int) *cron.Cron {
	c := cron.New()

	// Tous les jours à 2h du matin
	c.AddFunc("0 2 * * *", func() {
		cutoff := t.now().AddDate(0, 0, -retentionDays)
		if err := t.CleanupBefore(context.Background(), cutoff); err != nil {
			log.Error().Err(err).Msg("échec purge des visites")
		}
	})

	c.Start()
	return c
}
