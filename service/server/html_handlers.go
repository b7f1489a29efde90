package server

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	natspkg "github.com/brojonat/minisolscan/service/nats"
	"github.com/brojonat/minisolscan/service/network"
	"github.com/brojonat/minisolscan/service/session"
	"github.com/brojonat/minisolscan/service/solana"
)

//go:embed templates/*.html
var templatesFS embed.FS

// TemplateRenderer holds parsed HTML templates
type TemplateRenderer struct {
	templates *template.Template
	logger    *slog.Logger
}

// NewTemplateRenderer creates a new template renderer from embedded files
func NewTemplateRenderer(logger *slog.Logger) (*TemplateRenderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"truncate":  solana.TruncateAddress,
		"formatSol": solana.FormatSol,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &TemplateRenderer{
		templates: tmpl,
		logger:    logger,
	}, nil
}

// Render renders a template with the given data
func (tr *TemplateRenderer) Render(w http.ResponseWriter, name string, data interface{}) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return tr.templates.ExecuteTemplate(w, name, data)
}

// pageData feeds templates/index.html.
type pageData struct {
	Presets     []network.Config
	AllowCustom bool // shows the custom URL field
	Active      network.Config
	Theme       session.Theme
	Signature   string
	Result      *solana.TransactionView
	Error       string
}

// handleIndexPage renders the lookup page. With ?signature= it looks the
// transaction up on the session's network and renders the result or error.
// GET /
func handleIndexPage(renderer *TemplateRenderer, sessions *Sessions, policy network.EndpointPolicy, fetcher Fetcher, history History, publisher natspkg.Publisher, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := openSession(w, r, sessions, logger)
		if !ok {
			return
		}

		data := pageData{
			Presets:     policy.Presets(),
			AllowCustom: policy.AllowCustom,
			Active:      sess.Network(),
			Theme:       sess.Theme(),
			Signature:   strings.TrimSpace(r.URL.Query().Get("signature")),
		}

		if _, submitted := r.URL.Query()["signature"]; submitted {
			if err := policy.Check(data.Active); err != nil {
				data.Error = err.Error()
			} else if done, ok := sess.TryBeginLookup(); !ok {
				data.Error = "A lookup is already in progress."
			} else {
				start := time.Now()
				view, err := fetcher.Fetch(r.Context(), data.Signature, data.Active)
				done()
				if err != nil {
					if solana.KindOf(err) == solana.KindFetch {
						logger.WarnContext(r.Context(), "transaction lookup failed", "network", data.Active.Type, "error", err)
					}
					data.Error = lookupErrorMessage(err)
				} else {
					data.Result = view
					recordLookup(context.WithoutCancel(r.Context()), history, publisher, view, data.Active, start, logger)
				}
			}
		}

		if err := renderer.Render(w, "index.html", data); err != nil {
			renderer.logger.Error("failed to render template", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}
}

// handleNetworkForm applies the network selector form and redirects home.
// POST /network
func handleNetworkForm(sessions *Sessions, policy network.EndpointPolicy, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := openSession(w, r, sessions, logger)
		if !ok {
			return
		}

		t, err := network.ParseType(r.FormValue("network"))
		if err == nil {
			_, err = selectNetwork(r.Context(), sess, policy, t, r.FormValue("custom_url"))
		}
		if err != nil {
			logger.InfoContext(r.Context(), "network selection rejected", "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// handleThemeForm toggles the theme and redirects home.
// POST /theme
func handleThemeForm(sessions *Sessions, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := openSession(w, r, sessions, logger)
		if !ok {
			return
		}
		if _, err := sess.ToggleTheme(r.Context()); err != nil {
			logger.ErrorContext(r.Context(), "failed to toggle theme", "error", err)
			http.Error(w, "failed to save theme", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}
