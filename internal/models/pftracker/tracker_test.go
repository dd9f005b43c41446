package pftracker

import (
	"context"
	"testing"
	"time"

	"github.com/insatiatedsoulcode/portfolio/internal/models/pfstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker() (*Tracker, pfstore.Store) {
	store := pfstore.NewMemoryStore()
	return New(store), store
}

func track(t *testing.T, tr *Tracker, page string, sess Session) {
	t.Helper()
	err := tr.TrackPageVisit(context.Background(), page, sess, "test-agent", "direct", "")
	require.NoError(t, err)
}

// ============= Scénario visiteur frais, deux pages =============

func TestFreshVisitorTwoPages(t *testing.T) {
	tr, _ := newTestTracker()
	ctx := context.Background()

	sess := Session{ID: "session_abc", IsNew: true}
	track(t, tr, "/", sess)
	sess.IsNew = false
	track(t, tr, "/blog", sess)

	assert.Equal(t, 2, tr.TotalVisits(ctx))
	assert.Equal(t, 1, tr.UniqueVisitors(ctx))
	assert.Equal(t, 1, tr.HomeVisits(ctx))
	assert.Equal(t, 1, tr.BlogVisits(ctx))

	// Exactement un événement marqué nouveau visiteur, le premier
	events := tr.RecentVisits(ctx, -1)
	newCount := 0
	for _, e := range events {
		if e.IsNewVisitor {
			newCount++
		}
	}
	assert.Equal(t, 1, newCount)
}

func TestSessionIdentityStable(t *testing.T) {
	tr, _ := newTestTracker()
	ctx := context.Background()

	sess := Session{ID: "session_xyz", IsNew: true}
	track(t, tr, "/", sess)
	sess.IsNew = false
	track(t, tr, "/poetry", sess)
	track(t, tr, "/", sess)

	for _, e := range tr.RecentVisits(ctx, -1) {
		assert.Equal(t, "session_xyz", e.SessionID)
	}
}

// ============= Cohérence des agrégats =============

func TestAggregateConsistency(t *testing.T) {
	tr, _ := newTestTracker()
	ctx := context.Background()

	s1 := Session{ID: "s1", IsNew: true}
	s2 := Session{ID: "s2", IsNew: true}
	track(t, tr, "/", s1)
	track(t, tr, "/", s1)
	track(t, tr, "/", s2)
	track(t, tr, "/blog", s2)

	stats := tr.PageStats(ctx)
	require.Len(t, stats, 2)

	byPage := make(map[string]PageStat)
	for _, s := range stats {
		byPage[s.Page] = s
	}

	assert.Equal(t, 3, byPage["/"].Visits)
	assert.Equal(t, 2, byPage["/"].UniqueVisitors)
	assert.Equal(t, 1, byPage["/blog"].Visits)
	assert.Equal(t, 1, byPage["/blog"].UniqueVisitors)

	assert.Equal(t, 4, tr.TotalVisits(ctx))
	assert.Equal(t, 2, tr.UniqueVisitors(ctx))
}

func TestMonotonicity(t *testing.T) {
	tr, _ := newTestTracker()
	ctx := context.Background()

	sess := Session{ID: "s1", IsNew: true}
	previous := 0
	for i := 0; i < 10; i++ {
		track(t, tr, "/", sess)
		sess.IsNew = false
		total := tr.TotalVisits(ctx)
		assert.Greater(t, total, previous)
		previous = total
	}
}

func TestPageVisitsUnknownPage(t *testing.T) {
	tr, _ := newTestTracker()
	assert.Equal(t, 0, tr.PageVisits(context.Background(), "/jamais-visitee"))
	assert.Equal(t, 0, tr.BlogVisits(context.Background()))
}

// ============= Visites du jour =============

func TestTodayVisits(t *testing.T) {
	tr, _ := newTestTracker()
	ctx := context.Background()

	base := time.Now()
	tr.now = func() time.Time { return base.AddDate(0, 0, -2) }
	track(t, tr, "/", Session{ID: "s1", IsNew: true})

	tr.now = func() time.Time { return base }
	track(t, tr, "/", Session{ID: "s1"})
	track(t, tr, "/blog", Session{ID: "s1"})

	assert.Equal(t, 3, tr.TotalVisits(ctx))
	assert.Equal(t, 2, tr.TodayVisits(ctx))
}

// ============= Visites récentes =============

func TestRecentVisitsOrderAndLimit(t *testing.T) {
	tr, _ := newTestTracker()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		offset := i
		tr.now = func() time.Time { return base.Add(time.Duration(offset) * time.Minute) }
		track(t, tr, "/", Session{ID: "s1"})
	}

	recent := tr.RecentVisits(ctx, 3)
	require.Len(t, recent, 3)
	assert.True(t, recent[0].Timestamp.After(recent[1].Timestamp))
	assert.True(t, recent[1].Timestamp.After(recent[2].Timestamp))
	assert.Equal(t, base.Add(4*time.Minute), recent[0].Timestamp)
}

// ============= Robustesse du store =============

func TestCorruptedBlobTreatedAsEmpty(t *testing.T) {
	tr, store := newTestTracker()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "page_visits", []byte("{pas du json")))
	require.NoError(t, store.Put(ctx, "page_stats", []byte("[42]")))

	assert.Equal(t, 0, tr.TotalVisits(ctx))
	assert.Empty(t, tr.PageStats(ctx))

	// Un blob corrompu n'empêche pas d'enregistrer de nouvelles visites
	track(t, tr, "/", Session{ID: "s1", IsNew: true})
	assert.Equal(t, 1, tr.TotalVisits(ctx))
}

// ============= Rétention =============

func TestCleanupBefore(t *testing.T) {
	tr, _ := newTestTracker()
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return base.AddDate(0, 0, -40) }
	track(t, tr, "/", Session{ID: "old", IsNew: true})

	tr.now = func() time.Time { return base }
	track(t, tr, "/", Session{ID: "recent", IsNew: true})
	track(t, tr, "/blog", Session{ID: "recent"})

	err := tr.CleanupBefore(ctx, base.AddDate(0, 0, -30))
	require.NoError(t, err)

	assert.Equal(t, 2, tr.TotalVisits(ctx))
	assert.Equal(t, 1, tr.UniqueVisitors(ctx))
	assert.Equal(t, 1, tr.HomeVisits(ctx))
	assert.Equal(t, 1, tr.BlogVisits(ctx))
}

func TestCleanupNothingToRemove(t *testing.T) {
	tr, _ := newTestTracker()
	ctx := context.Background()

	track(t, tr, "/", Session{ID: "s1", IsNew: true})
	before := tr.TotalVisits(ctx)

	err := tr.CleanupBefore(ctx, time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, before, tr.TotalVisits(ctx))
}
