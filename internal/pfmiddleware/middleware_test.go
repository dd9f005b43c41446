package pfmiddleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfstore"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pftracker"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTrackedRouter(tracker *pftracker.Tracker) *gin.Engine {
	r := gin.New()
	r.Use(Tracking(tracker, false))
	handler := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r.GET("/", handler)
	r.GET("/blog", handler)
	r.GET("/static/style.css", handler)
	r.GET("/api/captcha", handler)
	r.GET("/admin", handler)
	return r
}

func get(r *gin.Engine, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func waitForVisits(t *testing.T, tracker *pftracker.Tracker, want int) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return tracker.TotalVisits(context.Background()) == want
	}, 2*time.Second, 10*time.Millisecond)
}

// ============= Tracking =============

func TestTrackingRecordsVisit(t *testing.T) {
	tracker := pftracker.New(pfstore.NewMemoryStore())
	r := newTrackedRouter(tracker)

	w := get(r, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	waitForVisits(t, tracker, 1)

	// Le cookie visiteur est posé à la première visite
	var visitorCk *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "_visitor_id" {
			visitorCk = ck
		}
	}
	require.NotNil(t, visitorCk)
	assert.NotEmpty(t, visitorCk.Value)

	events := tracker.RecentVisits(context.Background(), -1)
	require.Len(t, events, 1)
	assert.True(t, events[0].IsNewVisitor)
	assert.Equal(t, visitorCk.Value, events[0].SessionID)
}

func TestTrackingReturningVisitor(t *testing.T) {
	tracker := pftracker.New(pfstore.NewMemoryStore())
	r := newTrackedRouter(tracker)

	w := get(r, "/")
	waitForVisits(t, tracker, 1)

	var cookie *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "_visitor_id" {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)

	get(r, "/blog", cookie)
	waitForVisits(t, tracker, 2)

	ctx := context.Background()
	assert.Equal(t, 1, tracker.UniqueVisitors(ctx))

	// Un seul événement marqué nouveau visiteur
	newCount := 0
	for _, e := range tracker.RecentVisits(ctx, -1) {
		if e.IsNewVisitor {
			newCount++
		}
	}
	assert.Equal(t, 1, newCount)
}

func TestTrackingSkipsInfrastructurePaths(t *testing.T) {
	tracker := pftracker.New(pfstore.NewMemoryStore())
	r := newTrackedRouter(tracker)

	get(r, "/static/style.css")
	get(r, "/api/captcha")
	get(r, "/admin")

	// Laisser le temps à un éventuel enregistrement parasite
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, tracker.TotalVisits(context.Background()))
}

// brokenStore refuse toute écriture
type brokenStore struct{}

func (brokenStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, pfstore.ErrNotFound
}

func (brokenStore) Put(ctx context.Context, key string, value []byte) error {
	return errors.New("disque plein")
}

func (brokenStore) Delete(ctx context.Context, key string) error { return nil }

// syncBuffer sérialise les accès: l'écriture vient d'une goroutine
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestTrackingLogsFailedWrite(t *testing.T) {
	var out syncBuffer
	prev := log.Logger
	log.Logger = zerolog.New(&out)
	defer func() { log.Logger = prev }()

	tracker := pftracker.New(brokenStore{})
	r := newTrackedRouter(tracker)

	w := get(r, "/")
	assert.Equal(t, http.StatusOK, w.Code)

	// La page répond, mais l'échec d'écriture laisse une trace
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "enregistrement de la visite impossible")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTrackingCookielessIdentityStable(t *testing.T) {
	tracker := pftracker.New(pfstore.NewMemoryStore())
	r := newTrackedRouter(tracker)

	// Deux requêtes sans jamais renvoyer le cookie: même hash, même session
	get(r, "/")
	get(r, "/blog")
	waitForVisits(t, tracker, 2)

	assert.Equal(t, 1, tracker.UniqueVisitors(context.Background()))
}

// ============= Divers =============

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "500µs", formatDuration(500*time.Microsecond))
	assert.Equal(t, "20ms", formatDuration(20*time.Millisecond))
	assert.Equal(t, "1.50s", formatDuration(1500*time.Millisecond))
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	r := gin.New()
	r.Use(CORS)
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, 204, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
