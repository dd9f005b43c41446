package main

import (
	"crypto/sha256"
	"embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	handlers_admin "github.com/insatiatedsoulcode/portfolio/internal/handlers/admin"
	handlers_ai "github.com/insatiatedsoulcode/portfolio/internal/handlers/ai"
	handlers_contact "github.com/insatiatedsoulcode/portfolio/internal/handlers/contact"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfadmin"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfauth"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfbackend"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfcaptchas"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfconfig"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfcontent"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pflog"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfmarkdown"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfstore"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pftracker"
	"github.com/insatiatedsoulcode/portfolio/internal/pfmiddleware"
	"github.com/penglongli/gin-metrics/ginmetrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	htmlmin "github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

const VERSION string = "1.0.0"

// global instance
var (
	configuration *pfconfig.Config
	library       *pfcontent.Library
	tracker       *pftracker.Tracker
	adminService  *pfadmin.Service
	backendClient *pfbackend.Client
	adminHandler  *handlers_admin.AdminHandler
	aiHandler     *handlers_ai.AIHandler
	contactHdl    *handlers_contact.ContactHandler
	BuildID       string
)

//go:embed templates/**/*.html
var templatesFS embed.FS

//go:embed ressources/js
//go:embed ressources/css
var staticFS embed.FS

func parseCommandLineArgs() (configFile string, shouldCreateExample bool, versionDisplay bool, err error) {
	var config = flag.String("config", "", "Fichier de configuration YAML")
	var example = flag.Bool("example", false, "Créer un fichier de configuration exemple")
	var version = flag.Bool("version", false, "version du produit")
	flag.Parse()

	if *version {
		return "", false, true, nil
	}

	if *example {
		return "", true, false, nil
	}

	if *config == "" {
		return "", false, false, fmt.Errorf("fichier de configuration requis")
	}

	return *config, false, false, nil
}

func initConfiguration() {
	configFile, shouldCreateExample, versionDisplay, err := parseCommandLineArgs()
	if err != nil {
		fmt.Println("Usage:")
		fmt.Println("  portfolio -config portfolio.yaml")
		fmt.Println("  portfolio -example  (pour créer un fichier exemple)")
		fmt.Println("  portfolio -version  (affiche la version)")
		os.Exit(1)
	}

	if versionDisplay {
		println(VERSION)
		os.Exit(0)
	}

	pfconfig.CreateExample(shouldCreateExample, configFile)

	conf, err := pfconfig.Load(configFile)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	configuration = conf
}

func initContent() {
	contentPath := configuration.ContentPath
	if contentPath == "" {
		contentPath = "./content"
	}

	lib, err := pfcontent.Load(contentPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Fatal().Err(err).Msg("chargement du contenu impossible")
		}
		log.Warn().Str("path", contentPath).Msg("répertoire de contenu absent, site vide")
		lib = &pfcontent.Library{Pages: map[string]pfcontent.Page{}}
	}
	library = lib
}

func initServices() {
	gormLevel := "warn"
	if configuration.Logger.Level == "debug" || !configuration.Production {
		gormLevel = "trace"
	}

	store, err := pfstore.New(configuration.Storage, gormLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("initialisation du storage impossible")
	}

	tracker = pftracker.New(store)
	if configuration.Analytics.GeoIPPath != "" {
		if err := tracker.OpenGeoIP(configuration.Analytics.GeoIPPath); err != nil {
			log.Warn().Err(err).Msg("base GeoIP inutilisable, pays désactivé")
		}
	}
	if configuration.Analytics.RetentionDays > 0 {
		tracker.StartRetentionCron(configuration.Analytics.RetentionDays)
	}

	adminService = pfadmin.New(store, tracker)
	auth := pfauth.New(store, configuration.User, configuration.Auth)
	backendClient = pfbackend.New(configuration.Backend)
	captcha := pfcaptchas.New(configuration.Storage.Redis.Addr, configuration.Storage.Redis.Db)

	adminHandler = handlers_admin.NewAdminHandler(auth, adminService)
	aiHandler = handlers_ai.NewAIHandler(backendClient, adminService)
	contactHdl = handlers_contact.NewContactHandler(backendClient, adminService, captcha, configuration.Production)
}

func getTemplates(production bool) *template.Template {
	m := minify.New()

	if production {
		m.AddFunc("text/html", htmlmin.Minify)
	}

	tmpl := template.New("").Funcs(template.FuncMap{
		"safeCSS":  safeCSS,
		"escapeJS": escapeJS,
	})

	// Lire tous les fichiers HTML
	fs.WalkDir(templatesFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".html" {
			return err
		}

		content, _ := fs.ReadFile(templatesFS, path)
		minified, err := m.Bytes("text/html", content)
		if err != nil {
			minified = content
		}

		tmpl.New(path).Parse(string(minified))
		return nil
	})

	return tmpl
}

func safeCSS(css string) template.CSS {
	return template.CSS(css)
}

func escapeJS(s string) template.JS {
	return template.JS(template.JSEscapeString(s))
}

func ServeMinifiedStatic(m *minify.M) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := strings.TrimPrefix(c.Request.URL.Path, "/files/")
		content, err := fs.ReadFile(staticFS, "ressources/"+path)
		if err != nil {
			pageNotFound(c, "Fichier non trouvé")
			return
		}

		ext := filepath.Ext(path)
		var contentType string
		var minified []byte

		switch ext {
		case ".css":
			contentType = "text/css"
			minified, err = m.Bytes("text/css", content)
		case ".js":
			contentType = "application/javascript"
			minified, err = m.Bytes("application/javascript", content)
		case ".svg":
			// En-têtes de cache pour SVG
			c.Header("Cache-Control", "public, max-age=31536000, immutable")
			c.Header("ETag", generateETag(content))
			c.Data(http.StatusOK, "image/svg+xml", content)
			return
		default:
			c.Data(http.StatusOK, "application/octet-stream", content)
			return
		}

		if err != nil {
			minified = content
		}

		// En-têtes de cache pour CSS et JS
		c.Header("Cache-Control", "public, max-age=31536000, immutable")
		c.Header("ETag", generateETag(minified))

		c.Data(http.StatusOK, contentType, minified)
	}
}

// Fonction helper pour générer un ETag
func generateETag(content []byte) string {
	hash := sha256.Sum256(content)
	return fmt.Sprintf(`"%x"`, hash[:16])
}

func newServer() *gin.Engine {
	if configuration.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	if configuration.TrustedProxies != nil {
		r.SetTrustedProxies(configuration.TrustedProxies)
	}
	if configuration.TrustedPlatform != "" {
		switch configuration.TrustedPlatform {
		case "cloudflare":
			r.TrustedPlatform = gin.PlatformCloudflare
		case "google":
			r.TrustedPlatform = gin.PlatformGoogleAppEngine
		case "flyio":
			r.TrustedPlatform = gin.PlatformFlyIO
		default:
			r.TrustedPlatform = configuration.TrustedPlatform
		}
	}

	// parser les templates
	r.SetHTMLTemplate(getTemplates(configuration.Production))

	return r
}

func setMiddleware(r *gin.Engine) {
	pfmiddleware.InitMiddleware(r, configuration.Production)
	r.Use(pfmiddleware.Tracking(tracker, configuration.Production))
}

func setRoutes(r *gin.Engine) {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("application/javascript", js.Minify)

	// middleware rate limiter
	middlewareLimiter := pfmiddleware.NewLimiter()

	// metrics routes (port 8090)
	metrics := ginmetrics.GetMonitor()
	metrics.Use(r)

	//default
	r.NoRoute(func(c *gin.Context) {
		pageNotFound(c, "Page non trouvée")
	})

	// Routes statiques
	if configuration.StaticPath != "" {
		r.Static("/static/", configuration.StaticPath)
	}
	r.GET("/files/css/*.css", ServeMinifiedStatic(m))
	r.GET("/files/js/*.js", ServeMinifiedStatic(m))

	// Pages publiques
	r.GET("/", indexHandler)
	r.GET("/blog", blogHandler)
	r.GET("/blog/:slug", postHandler)
	r.GET("/poetry", pageHandler("poetry", "page", "Poésie"))
	r.GET("/ai", aiPageHandler)
	r.GET("/contact", pageHandler("contact", "contact", "Contact"))
	r.GET("/admin", adminPageHandler)
	r.GET("/health", healthHandler)

	// API publiques
	api := r.Group("/api")
	{
		api.GET("/captcha", contactHdl.Captcha)
		api.POST("/contact/submit", middlewareLimiter, contactHdl.Submit)
		api.POST("/ai/generate", middlewareLimiter, aiHandler.Generate)
		api.POST("/ai/blog", middlewareLimiter, aiHandler.GenerateBlog)
		api.GET("/ai/providers", aiHandler.Providers)
		api.GET("/ai/health", aiHandler.Health)
	}

	// API d'administration
	r.POST("/api/admin/login", middlewareLimiter, adminHandler.Login)
	admin := r.Group("/api/admin", adminHandler.RequireAuth)
	{
		admin.POST("/logout", adminHandler.Logout)
		admin.GET("/dashboard", adminHandler.Dashboard)
		admin.DELETE("/submissions/:id", adminHandler.DeleteSubmission)
		admin.DELETE("/queries/:id", adminHandler.DeleteQuery)
		admin.GET("/export/:kind", adminHandler.Export)
	}
}

func startServer(r *gin.Engine) {
	if configuration.Listen.Metrics != "" {
		log.Info().Msgf("Metrics disponible sur http://%s/metrics", configuration.Listen.Metrics)
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			http.ListenAndServe(configuration.Listen.Metrics, nil)
		}()
	}

	log.Info().Msgf("Website démarré sur http://%s", configuration.Listen.Website)
	log.Info().Msgf("Admin: http://%s/admin", configuration.Listen.Website)
	r.Run(configuration.Listen.Website)
}

func main() {
	if BuildID == "" {
		BuildID = VERSION
	}

	initConfiguration()
	pflog.InitLogger(configuration.Logger, configuration.Production)
	pfmarkdown.InitMarkdown()
	initContent()
	initServices()

	r := newServer()

	setMiddleware(r)
	setRoutes(r)

	startServer(r)
}

// ============= HANDLERS PUBLICS =============

func pageData(c *gin.Context, title string) gin.H {
	return gin.H{
		"title":       title,
		"siteName":    configuration.SiteName,
		"description": configuration.Description,
		"currentYear": time.Now().Year(),
		"ogType":      "website",
		"version":     VERSION,
		"BuildID":     BuildID,
		"renderTime":  pfmiddleware.GetRenderTime(c),
	}
}

func indexHandler(c *gin.Context) {
	data := pageData(c, configuration.SiteName)

	if page, ok := library.Pages["home"]; ok {
		data["content"] = page.ContentHTML
		if page.MetaDesc != "" {
			data["description"] = page.MetaDesc
		}
	}

	posts := library.Posts
	if len(posts) > 3 {
		posts = posts[:3]
	}
	data["posts"] = posts

	c.HTML(http.StatusOK, "index", data)
}

func blogHandler(c *gin.Context) {
	data := pageData(c, "Blog")
	data["posts"] = library.Posts
	c.HTML(http.StatusOK, "blog", data)
}

func postHandler(c *gin.Context) {
	slug := pfcontent.Slugify(c.Param("slug"))
	post, ok := library.PostBySlug(slug)
	if !ok {
		pageNotFound(c, "Article non trouvé")
		return
	}

	data := pageData(c, post.Title)
	data["description"] = pfcontent.MetaDescription(post.Content)
	data["ogType"] = "article"
	data["post"] = post
	c.HTML(http.StatusOK, "post", data)
}

// pageHandler rend une page statique depuis la bibliothèque de contenu
func pageHandler(slug, templateName, fallbackTitle string) gin.HandlerFunc {
	return func(c *gin.Context) {
		data := pageData(c, fallbackTitle)

		if page, ok := library.Pages[slug]; ok {
			if page.Title != "" {
				data["title"] = page.Title
			}
			data["content"] = page.ContentHTML
			if page.MetaDesc != "" {
				data["description"] = page.MetaDesc
			}
		}

		c.HTML(http.StatusOK, templateName, data)
	}
}

func aiPageHandler(c *gin.Context) {
	data := pageData(c, "Démo IA")

	if page, ok := library.Pages["ai"]; ok {
		if page.Title != "" {
			data["title"] = page.Title
		}
		data["content"] = page.ContentHTML
	}

	c.HTML(http.StatusOK, "ai", data)
}

func adminPageHandler(c *gin.Context) {
	c.HTML(http.StatusOK, "admin", pageData(c, "Administration"))
}

func healthHandler(c *gin.Context) {
	payload := gin.H{
		"status":  "ok",
		"version": VERSION,
		"build":   BuildID,
	}

	// État du backend distant quand il est configuré
	if backendClient != nil && backendClient.Enabled() {
		if data, err := backendClient.Health(c.Request.Context()); err != nil {
			payload["backend"] = gin.H{"status": "unreachable"}
		} else {
			payload["backend"] = json.RawMessage(data)
		}
	}

	c.JSON(http.StatusOK, payload)
}

func pageNotFound(c *gin.Context, title string) {
	data := pageData(c, title)
	c.HTML(http.StatusNotFound, "404_not_found", data)
}
