// Package web implements the server-rendered web interface.
//
// Every request drives its own [controller.Controller] to completion and renders the final [controller.Screen]
// into a single page holding all four regions (welcome, loading, results and error) with exactly one visible.
// The loading region is revealed client side while the form submission is in flight.
//
// Routes
//
//	GET  /                    → welcome screen with suggestion chips
//	POST /search              → submit form field "prompt", render results or error
//	GET  /reset               → redirect to /
//	GET  /api/playlist?prompt → playlist view model as JSON
//	GET  /health              → {"status":"ok"}
//
// Titles, artists and prompts reach the page through html/template, so markup returned by the service is
// always rendered as text.
package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/controller"
	"github.com/desertthunder/mixtape/internal/playlist"
	"github.com/desertthunder/mixtape/internal/server"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
)

//go:embed templates/index.html
var templates embed.FS

var pageTmpl = template.Must(template.ParseFS(templates, "templates/index.html"))

const maxFormBytes = 1 << 16

// Page is the data handed to the page template.
type Page struct {
	State       string
	Prompt      string
	View        *playlist.View
	Message     string
	Notice      string
	Suggestions []shared.Suggestion
}

// ErrorResponse is the JSON body of a failed API request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Handler serves the web UI.
type Handler struct {
	recommender services.Recommender
	suggestions []shared.Suggestion
	logger      *log.Logger
}

// Opts configures a [Handler].
type Opts struct {
	Recommender services.Recommender
	Suggestions []shared.Suggestion
	Logger      *log.Logger
}

// NewHandler creates the web UI handler.
func NewHandler(opts Opts) *Handler {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	return &Handler{
		recommender: opts.Recommender,
		suggestions: opts.Suggestions,
		logger:      opts.Logger,
	}
}

// Register adds the web routes to r.
func (h *Handler) Register(r server.Router) {
	r.Get("/", h.Index)
	r.Post("/search", h.Search)
	r.Get("/reset", h.Reset)
	r.Get("/api/playlist", h.Playlist)
	r.Get("/health", h.Health)
}

// NewRouter returns a [server.BasicRouter] with the default middleware and every web route registered.
func NewRouter(h *Handler) *server.BasicRouter {
	r := server.NewBasicRouter()
	r.Use(server.Defaults(h.logger)...)
	h.Register(r)
	return r
}

// Index renders the welcome screen.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	c := h.newController()
	h.render(w, http.StatusOK, h.page(c.Snapshot(), ""))
}

// Search submits the "prompt" form field and renders the outcome.
//
// A blank prompt re-renders the welcome screen with a notice and status 400; nothing is sent upstream.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	c := h.newController()
	err := c.Submit(r.Context(), r.PostForm.Get("prompt"))
	if errors.Is(err, shared.ErrEmptyPrompt) {
		h.render(w, http.StatusBadRequest, h.page(c.Snapshot(), "Please enter a prompt"))
		return
	}

	h.render(w, http.StatusOK, h.page(c.Snapshot(), ""))
}

// Reset returns the browser to the welcome screen.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Playlist returns the playlist view model for the "prompt" query parameter as JSON.
func (h *Handler) Playlist(w http.ResponseWriter, r *http.Request) {
	c := h.newController()
	err := c.Submit(r.Context(), r.URL.Query().Get("prompt"))

	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, c.Snapshot().View)
	case errors.Is(err, shared.ErrEmptyPrompt):
		h.writeError(w, http.StatusBadRequest, "invalid_prompt", "Please enter a prompt")
	case services.IsServiceError(err):
		h.writeError(w, http.StatusBadGateway, "service_error", services.UserMessage(err))
	default:
		h.writeError(w, http.StatusBadGateway, "transport_error", services.UserMessage(err))
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) newController() *controller.Controller {
	return controller.New(controller.Opts{
		Recommender: h.recommender,
		Logger:      h.logger,
	})
}

func (h *Handler) page(s controller.Screen, notice string) Page {
	return Page{
		State:       s.State.String(),
		Prompt:      s.Prompt,
		View:        s.View,
		Message:     s.Message,
		Notice:      notice,
		Suggestions: h.suggestions,
	}
}

// render executes the page into a buffer first so a template failure never leaves a half written 200.
func (h *Handler) render(w http.ResponseWriter, status int, page Page) {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, page); err != nil {
		h.logger.Error("failed to render page", "state", page.State, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("failed to write page", "state", page.State, "error", err)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to write JSON response", "status", status, "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, ErrorResponse{Error: code, Message: strings.TrimSpace(message)})
}
