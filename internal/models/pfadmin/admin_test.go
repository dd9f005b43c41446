package pfadmin

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/insatiatedsoulcode/portfolio/internal/models/pfstore"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pftracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() (*Service, *pftracker.Tracker) {
	store := pfstore.NewMemoryStore()
	tracker := pftracker.New(store)
	return New(store, tracker), tracker
}

func submission(id string) FormSubmission {
	return FormSubmission{
		ID:        id,
		Name:      "Jean Test",
		Email:     "jean@example.com",
		Subject:   "Bonjour",
		Message:   "Un message",
		Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

// ============= Journaux =============

func TestAppendAndReadSubmissions(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	assert.Empty(t, svc.Submissions(ctx))

	require.NoError(t, svc.AppendSubmission(ctx, submission("a")))
	require.NoError(t, svc.AppendSubmission(ctx, submission("b")))

	subs := svc.Submissions(ctx)
	require.Len(t, subs, 2)
	assert.Equal(t, "a", subs[0].ID)
	assert.Equal(t, "b", subs[1].ID)
}

func TestAppendAndReadQueries(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.AppendQuery(ctx, AIQuery{
		ID:        "q1",
		Prompt:    "écris un poème",
		Provider:  "openai",
		Timestamp: time.Now(),
	}))

	queries := svc.Queries(ctx)
	require.Len(t, queries, 1)
	assert.Equal(t, "écris un poème", queries[0].Prompt)
}

// ============= Suppressions =============

func TestDeleteSubmission(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.AppendSubmission(ctx, submission("a")))
	require.NoError(t, svc.AppendSubmission(ctx, submission("b")))

	require.NoError(t, svc.DeleteSubmission(ctx, "a"))
	subs := svc.Submissions(ctx)
	require.Len(t, subs, 1)
	assert.Equal(t, "b", subs[0].ID)

	// Id inconnu: no-op silencieux
	require.NoError(t, svc.DeleteSubmission(ctx, "inexistant"))
	assert.Len(t, svc.Submissions(ctx), 1)
}

func TestDeleteQuery(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.AppendQuery(ctx, AIQuery{ID: "q1"}))
	require.NoError(t, svc.AppendQuery(ctx, AIQuery{ID: "q2"}))

	require.NoError(t, svc.DeleteQuery(ctx, "q2"))
	queries := svc.Queries(ctx)
	require.Len(t, queries, 1)
	assert.Equal(t, "q1", queries[0].ID)
}

// ============= Dashboard =============

func TestLoadDashboard(t *testing.T) {
	svc, tracker := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.AppendSubmission(ctx, submission("a")))
	require.NoError(t, svc.AppendQuery(ctx, AIQuery{ID: "q1"}))
	require.NoError(t, tracker.TrackPageVisit(ctx, "/",
		pftracker.Session{ID: "s1", IsNew: true}, "agent", "", ""))
	require.NoError(t, tracker.TrackPageVisit(ctx, "/blog",
		pftracker.Session{ID: "s1"}, "agent", "", ""))

	dash := svc.LoadDashboard(ctx)
	assert.Len(t, dash.Submissions, 1)
	assert.Len(t, dash.Queries, 1)
	assert.Equal(t, 2, dash.VisitorStats.TotalVisits)
	assert.Equal(t, 1, dash.VisitorStats.UniqueVisitors)
	assert.Equal(t, 1, dash.VisitorStats.HomeVisits)
	assert.Equal(t, 1, dash.VisitorStats.BlogVisits)
	assert.Len(t, dash.VisitorStats.RecentVisits, 2)
}

// ============= Export CSV =============

func TestExportCSVSubmissions(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.AppendSubmission(ctx, submission("a")))

	data, err := svc.ExportCSV(ctx, "submissions")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "email")
	assert.Contains(t, lines[1], "jean@example.com")
}

func TestExportCSVUnknownKind(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ExportCSV(context.Background(), "autre")
	assert.Error(t, err)
}
