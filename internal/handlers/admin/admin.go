package handlers_admin

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfadmin"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfauth"
	"github.com/rs/zerolog/log"
)

const sessionTokenKey = "admin_token"

// AdminHandler expose la surface d'administration: login, dashboard,
// suppressions et exports. Tout sauf le login passe par RequireAuth.
type AdminHandler struct {
	auth    *pfauth.Auth
	service *pfadmin.Service
}

func NewAdminHandler(auth *pfauth.Auth, service *pfadmin.Service) *AdminHandler {
	return &AdminHandler{
		auth:    auth,
		service: service,
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login vérifie les identifiants et pose le token en session
func (ah *AdminHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiants manquants"})
		return
	}

	token, ok, err := ah.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
		return
	}
	if !ok {
		log.Warn().Str("ip", c.ClientIP()).Msg("tentative de connexion admin refusée")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants invalides"})
		return
	}

	session := sessions.Default(c)
	session.Set(sessionTokenKey, token)
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur de session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Logout efface le token côté store et côté session
func (ah *AdminHandler) Logout(c *gin.Context) {
	ah.auth.Logout(c.Request.Context())

	session := sessions.Default(c)
	session.Delete(sessionTokenKey)
	session.Save()

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RequireAuth garde les routes admin: le token de session doit correspondre
// au token stocké et non expiré
func (ah *AdminHandler) RequireAuth(c *gin.Context) {
	session := sessions.Default(c)
	token, _ := session.Get(sessionTokenKey).(string)

	if !ah.auth.ValidToken(c.Request.Context(), token) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}
	c.Next()
}

// Dashboard retourne soumissions, requêtes IA et statistiques visiteurs
func (ah *AdminHandler) Dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, ah.service.LoadDashboard(c.Request.Context()))
}

// DeleteSubmission supprime une soumission; id inconnu répond aussi 200
func (ah *AdminHandler) DeleteSubmission(c *gin.Context) {
	if err := ah.service.DeleteSubmission(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Suppression impossible"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteQuery supprime une requête IA journalisée
func (ah *AdminHandler) DeleteQuery(c *gin.Context) {
	if err := ah.service.DeleteQuery(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Suppression impossible"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Export renvoie une collection en CSV téléchargeable
func (ah *AdminHandler) Export(c *gin.Context) {
	kind := c.Param("kind")
	data, err := ah.service.ExportCSV(c.Request.Context(), kind)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+kind+".csv")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
