package web

import (
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/oprema/internal/auth"
	"github.com/erazemk/oprema/internal/model"
	webembed "github.com/erazemk/oprema/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

var kindNames = map[model.Kind]string{
	model.KindIssue:       "Issue",
	model.KindReturn:      "Return",
	model.KindStoreIssue:  "Store issue",
	model.KindStoreReturn: "Store return",
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"roleAtLeast": model.RoleAtLeast,
		"roleName": func(role string) string {
			switch role {
			case model.RoleAdmin:
				return "Administrator"
			case model.RoleStorekeeper:
				return "Storekeeper"
			case model.RoleUser:
				return "Volunteer"
			default:
				return role
			}
		},
		"kindName": func(k model.Kind) string {
			if name, ok := kindNames[k]; ok {
				return name
			}
			return string(k)
		},
		"formatTime": func(t *time.Time) string {
			if t == nil {
				return model.UnknownLabel
			}
			return t.Local().Format("2006-01-02 15:04")
		},
		"idOf": func(id *int64) int64 {
			if id == nil {
				return 0
			}
			return *id
		},
		"contains": func(ids []int64, id int64) bool {
			for _, v := range ids {
				if v == id {
					return true
				}
			}
			return false
		},
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"login.html",
		"dashboard.html",
		"ledger.html",
		"report.html",
		"reconciliation.html",
		"equipment.html",
		"reference.html",
		"record_edit.html",
		"users.html",
		"settings.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	User    *auth.Claims
	Error   string
	Success string
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB        *sql.DB
	Templates *Templates
	JWTSecret string
}

// page returns the base page data for an authenticated request, picking up
// the notice left by a previous redirect.
func (s *Server) page(r *http.Request, title string) PageData {
	return PageData{
		Title:   title,
		User:    GetWebClaims(r.Context()),
		Error:   r.URL.Query().Get("error"),
		Success: r.URL.Query().Get("notice"),
	}
}
