package pfcontent

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/insatiatedsoulcode/portfolio/internal/models/pfmarkdown"
	"github.com/rs/zerolog/log"
)

// Page est une page statique du site rendue depuis un fichier Markdown
type Page struct {
	Slug        string
	Title       string
	ContentHTML template.HTML
	MetaDesc    string
}

// Post est un billet de blog, chargé depuis content/blog/<slug>.md
type Post struct {
	Slug        string
	Title       string
	Content     string
	ContentHTML template.HTML
	Excerpt     string
	CreatedAt   time.Time
}

// Library tient le contenu du site, chargé une fois au démarrage.
// Lecture seule après Load, aucun verrou nécessaire.
type Library struct {
	Pages map[string]Page
	Posts []Post
}

// Load parcourt contentPath: les .md à la racine deviennent des pages,
// ceux sous blog/ des billets triés du plus récent au plus ancien.
func Load(contentPath string) (*Library, error) {
	lib := &Library{
		Pages: make(map[string]Page),
	}

	entries, err := os.ReadDir(contentPath)
	if err != nil {
		return nil, fmt.Errorf("lecture du contenu %s: %w", contentPath, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		page, err := loadPage(filepath.Join(contentPath, entry.Name()))
		if err != nil {
			return nil, err
		}
		lib.Pages[page.Slug] = page
	}

	blogDir := filepath.Join(contentPath, "blog")
	blogEntries, err := os.ReadDir(blogDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("lecture du blog %s: %w", blogDir, err)
		}
		log.Debug().Str("dir", blogDir).Msg("pas de répertoire blog")
		return lib, nil
	}

	for _, entry := range blogEntries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		post, err := loadPost(filepath.Join(blogDir, entry.Name()))
		if err != nil {
			return nil, err
		}
		lib.Posts = append(lib.Posts, post)
	}

	sort.Slice(lib.Posts, func(i, j int) bool {
		return lib.Posts[i].CreatedAt.After(lib.Posts[j].CreatedAt)
	})

	log.Info().Int("pages", len(lib.Pages)).Int("posts", len(lib.Posts)).
		Msg("contenu chargé")
	return lib, nil
}

// PostBySlug retourne le billet demandé, false si inconnu
func (l *Library) PostBySlug(slug string) (Post, bool) {
	for _, p := range l.Posts {
		if p.Slug == slug {
			return p, true
		}
	}
	return Post{}, false
}

func loadPage(path string) (Page, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Page{}, err
	}

	content := string(raw)
	title, body := splitTitle(content)

	return Page{
		Slug:        strings.TrimSuffix(filepath.Base(path), ".md"),
		Title:       title,
		ContentHTML: pfmarkdown.ConvertMarkdownToHTML(body),
		MetaDesc:    MetaDescription(body),
	}, nil
}

func loadPost(path string) (Post, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Post{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return Post{}, err
	}

	content := string(raw)
	title, body := splitTitle(content)

	return Post{
		Slug:        Slugify(strings.TrimSuffix(filepath.Base(path), ".md")),
		Title:       title,
		Content:     body,
		ContentHTML: pfmarkdown.ConvertMarkdownToHTML(body),
		Excerpt:     Excerpt(body, 500),
		CreatedAt:   info.ModTime(),
	}, nil
}

// splitTitle extrait le premier titre de niveau 1, le reste devient le corps
func splitTitle(content string) (title, body string) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			title = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
			body = strings.Join(append(lines[:i:i], lines[i+1:]...), "\n")
			return title, body
		}
		if trimmed != "" {
			break
		}
	}
	return "", content
}

func Slugify(s string) string {
	var result strings.Builder

	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		} else if unicode.IsSpace(r) {
			result.WriteRune('-')
		} else if r == '-' {
			result.WriteRune(r)
		}
	}

	return result.String()
}
