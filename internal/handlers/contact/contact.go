package handlers_contact

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfadmin"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfbackend"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfcaptchas"
	"github.com/rs/zerolog/log"
)

// ContactHandler reçoit les soumissions du formulaire de contact. La
// soumission est d'abord journalisée localement, puis transmise au backend
// en best-effort: un backend injoignable ne fait pas échouer la soumission.
type ContactHandler struct {
	service    *pfbackend.Client
	admin      *pfadmin.Service
	captcha    *pfcaptchas.Captchas
	production bool
}

func NewContactHandler(backend *pfbackend.Client, admin *pfadmin.Service,
	captcha *pfcaptchas.Captchas, production bool) *ContactHandler {
	return &ContactHandler{
		service:    backend,
		admin:      admin,
		captcha:    captcha,
		production: production,
	}
}

type contactRequest struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Subject       string `json:"subject"`
	Message       string `json:"message" binding:"required"`
	CaptchaID     string `json:"captcha_id"`
	CaptchaAnswer string `json:"captcha_answer"`
}

// Submit traite une soumission du formulaire
func (ch *ContactHandler) Submit(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Formulaire incomplet"})
		return
	}

	if err := ch.captcha.VerifyCaptcha(req.CaptchaID, req.CaptchaAnswer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub := pfadmin.FormSubmission{
		ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		Name:      req.Name,
		Email:     req.Email,
		Subject:   req.Subject,
		Message:   req.Message,
		Timestamp: time.Now(),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}

	// Le journal local fait foi: la soumission réussit dès qu'il est écrit
	if err := ch.admin.AppendSubmission(c.Request.Context(), sub); err != nil {
		log.Error().Err(err).Msg("journalisation de la soumission impossible")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Enregistrement impossible"})
		return
	}

	if ch.service.Enabled() {
		go ch.forward(sub)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "submission_id": sub.ID})
}

func (ch *ContactHandler) forward(sub pfadmin.FormSubmission) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	err := ch.service.SubmitContact(ctx, pfbackend.ContactPayload{
		Name:    sub.Name,
		Email:   sub.Email,
		Subject: sub.Subject,
		Message: sub.Message,
	})
	if err != nil {
		log.Warn().Err(err).Str("submission_id", sub.ID).
			Msg("transmission au backend échouée, soumission conservée localement")
	}
}

// Captcha génère un nouveau CAPTCHA pour le formulaire
func (ch *ContactHandler) Captcha(c *gin.Context) {
	ch.captcha.CaptchaHandler(c, ch.production)
}
