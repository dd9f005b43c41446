package handlers_contact

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfadmin"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfbackend"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfcaptchas"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfconfig"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfstore"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pftracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestHandler(t *testing.T, backendURL string) (*gin.Engine, *pfadmin.Service, *pfcaptchas.Captchas) {
	t.Helper()

	store := pfstore.NewMemoryStore()
	admin := pfadmin.New(store, pftracker.New(store))
	captcha := pfcaptchas.New("", 0)
	backend := pfbackend.New(pfconfig.BackendConfig{URL: backendURL, TimeoutSeconds: 2})

	handler := NewContactHandler(backend, admin, captcha, false)

	r := gin.New()
	r.GET("/api/captcha", handler.Captcha)
	r.POST("/api/contact/submit", handler.Submit)
	return r, admin, captcha
}

// solveCaptcha génère un CAPTCHA et retourne le couple id/réponse.
// Hors production la réponse est exposée dans le payload.
func solveCaptcha(t *testing.T, captcha *pfcaptchas.Captchas) (string, string) {
	t.Helper()
	data, err := captcha.GenerateCaptcha(false)
	require.NoError(t, err)
	return data["captcha_id"].(string), data["answer"].(string)
}

func submit(r *gin.Engine, body gin.H) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, "/api/contact/submit", &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ============= Soumission =============

func TestSubmitRecordsLocallyAndForwards(t *testing.T) {
	var forwarded atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/contact/submit", r.URL.Path)
		forwarded.Add(1)
	}))
	defer backend.Close()

	r, admin, captcha := newTestHandler(t, backend.URL)
	id, answer := solveCaptcha(t, captcha)

	w := submit(r, gin.H{
		"name": "Jean", "email": "jean@example.com",
		"subject": "Sujet", "message": "Bonjour",
		"captcha_id": id, "captcha_answer": answer,
	})
	require.Equal(t, http.StatusOK, w.Code)

	subs := admin.Submissions(context.Background())
	require.Len(t, subs, 1)
	assert.Equal(t, "jean@example.com", subs[0].Email)

	assert.Eventually(t, func() bool {
		return forwarded.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSubmitSucceedsWhenBackendDown(t *testing.T) {
	r, admin, captcha := newTestHandler(t, "http://127.0.0.1:1")
	id, answer := solveCaptcha(t, captcha)

	w := submit(r, gin.H{
		"name": "Jean", "email": "jean@example.com",
		"message":    "Bonjour",
		"captcha_id": id, "captcha_answer": answer,
	})

	// Le journal local fait foi
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, admin.Submissions(context.Background()), 1)
}

func TestSubmitRejectsBadCaptcha(t *testing.T) {
	r, admin, captcha := newTestHandler(t, "")
	id, _ := solveCaptcha(t, captcha)

	w := submit(r, gin.H{
		"name": "Jean", "email": "jean@example.com", "message": "Bonjour",
		"captcha_id": id, "captcha_answer": "faux",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, admin.Submissions(context.Background()))
}

func TestSubmitRejectsIncompleteForm(t *testing.T) {
	r, _, _ := newTestHandler(t, "")

	w := submit(r, gin.H{"name": "Jean"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = submit(r, gin.H{"name": "Jean", "email": "pas-un-email", "message": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCaptchaEndpoint(t *testing.T) {
	r, _, _ := newTestHandler(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/captcha", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var data map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &data))
	assert.NotEmpty(t, data["captcha_id"])
	assert.NotEmpty(t, data["image"])
}
