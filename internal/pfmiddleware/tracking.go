package pfmiddleware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pftracker"
	"github.com/rs/zerolog/log"
)

const visitorCookie = "_visitor_id"

// Tracking enregistre chaque vue de page dans le tracker. Les assets
// statiques, l'admin et les endpoints API ne sont jamais trackés.
func Tracking(tracker *pftracker.Tracker, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/static/") ||
			strings.HasPrefix(path, "/files/") ||
			strings.HasPrefix(path, "/admin") ||
			strings.HasPrefix(path, "/api/") ||
			path == "/metrics" {
			c.Next()
			return
		}

		sess := resolveSession(c, production)

		referrer := c.Request.Referer()
		userAgent := c.Request.UserAgent()
		ipAddress := getClientIP(c)

		// Enregistrer de manière asynchrone pour ne pas bloquer la requête.
		// Une écriture ratée est perdue mais jamais silencieuse.
		go func(ctx *gin.Context) {
			if err := tracker.TrackPageVisit(ctx, path, sess, userAgent, referrer, ipAddress); err != nil {
				log.Warn().Err(err).Str("page", path).Msg("enregistrement de la visite impossible")
			}
		}(c.Copy())

		c.Next()
	}
}

// resolveSession identifie le visiteur par cookie. Sans cookie à l'arrivée,
// le visiteur est nouveau: l'ID dérive d'un hash IP + langue + User-Agent,
// posé en cookie pour deux ans. Le même hash se recalcule à l'identique si
// les cookies sont refusés, l'identité reste donc stable dans les deux cas.
func resolveSession(c *gin.Context, production bool) pftracker.Session {
	visitorID, err := c.Cookie(visitorCookie)
	if err == nil && visitorID != "" {
		return pftracker.Session{ID: visitorID, IsNew: false}
	}

	hash := sha256.Sum256([]byte(fmt.Sprintf("%s%s%s",
		getClientIP(c), extractLanguage(c), c.Request.UserAgent())))
	visitorID = hex.EncodeToString(hash[:])[:32]

	// Essayer de définir le cookie (peut échouer si désactivés)
	c.SetCookie(
		visitorCookie,
		visitorID,
		365*24*60*60*2, // 2 ans
		"/",
		"",
		production, // secure (true si HTTPS)
		true,       // httpOnly
	)

	return pftracker.Session{ID: visitorID, IsNew: true}
}

// getClientIP récupère l'IP réelle du client
func getClientIP(c *gin.Context) string {
	ip := c.GetHeader("X-Real-IP")
	if ip == "" {
		ip = c.GetHeader("X-Forwarded-For")
		if ip != "" {
			// Prendre la première IP si plusieurs
			ips := strings.Split(ip, ",")
			ip = strings.TrimSpace(ips[0])
		}
	}
	if ip == "" {
		ip = c.ClientIP()
	}
	return ip
}

// extractLanguage extrait la langue préférée du visiteur
func extractLanguage(c *gin.Context) string {
	acceptLang := c.GetHeader("Accept-Language")
	if acceptLang == "" {
		return "unknown"
	}

	// Extraire la première langue (ex: "fr-FR,fr;q=0.9,en-US;q=0.8" -> "fr")
	parts := strings.Split(acceptLang, ",")
	if len(parts) > 0 {
		lang := strings.Split(parts[0], ";")[0]
		lang = strings.Split(lang, "-")[0]
		return strings.ToLower(strings.TrimSpace(lang))
	}

	return "unknown"
}
