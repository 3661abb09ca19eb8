package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackline/internal/session"
	"github.com/desertthunder/trackline/internal/shared"
	"github.com/desertthunder/trackline/internal/spotify"
	"github.com/desertthunder/trackline/internal/tasks"
	"github.com/desertthunder/trackline/internal/web"
	"golang.org/x/oauth2"
)

// AuthFlow is the slice of [spotify.Authenticator] the handlers need.
type AuthFlow interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// Engine is the slice of [tasks.TimelineEngine] the handlers need.
type Engine interface {
	Collections(ctx context.Context) ([]spotify.Collection, error)
	Timeline(ctx context.Context, id string) (*tasks.TimelineView, error)
}

// AppHandler serves the application's five routes: login entry, OAuth
// callback, home, playlist list, and the collection timeline view.
// Implements the [Handler] interface for registration with a [Router].
type AppHandler struct {
	session *session.Session
	auth    AuthFlow
	engine  Engine
	views   *web.Views
	logger  *log.Logger
}

// NewAppHandler creates an AppHandler wired to the given collaborators.
func NewAppHandler(sess *session.Session, auth AuthFlow, engine Engine, views *web.Views, logger *log.Logger) *AppHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &AppHandler{session: sess, auth: auth, engine: engine, views: views, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *AppHandler) Routes() []string {
	return []string{"/login", "/callback", "/home", "/list", "/display"}
}

// ServeHTTP dispatches to the route-specific handlers.
func (h *AppHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/login":
		h.Login(w, r)
	case "/callback":
		h.Callback(w, r)
	case "/home":
		http.Redirect(w, r, "/list", http.StatusFound)
	case "/list":
		h.List(w, r)
	case "/display":
		h.Display(w, r)
	default:
		http.NotFound(w, r)
	}
}

// Login issues a fresh state nonce and redirects the browser to the
// provider's login page.
func (h *AppHandler) Login(w http.ResponseWriter, r *http.Request) {
	state := h.session.BeginLogin()
	h.logger.Info("starting login", "state", state)
	http.Redirect(w, r, h.auth.AuthCodeURL(state), http.StatusFound)
}

// Callback completes the authorization-code flow: verifies the state nonce,
// exchanges the code for a credential set, applies it to the session, and
// sends the user home.
func (h *AppHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if err := h.session.CompleteLogin(query.Get("state")); err != nil {
		h.logger.Warn("callback state mismatch")
		http.Error(w, "Authentication failed: states did not match", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		reason := query.Get("error")
		h.logger.Warn("authorization denied", "reason", reason)
		http.Error(w, fmt.Sprintf("Authentication failed: %s", reason), http.StatusBadRequest)
		return
	}

	token, err := h.auth.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("token exchange failed", "err", err)
		http.Error(w, "Failed to get access token", http.StatusBadGateway)
		return
	}

	h.session.Apply(token)
	h.logger.Info("login complete")
	http.Redirect(w, r, "/home", http.StatusFound)
}

// List renders the user's playlists plus the saved-tracks entry.
func (h *AppHandler) List(w http.ResponseWriter, r *http.Request) {
	collections, err := h.engine.Collections(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.views.List(w, web.ListData{Collections: collections}); err != nil {
		h.logger.Error("failed to render list", "err", err)
	}
}

// Display renders the timeline view for the collection named by the id
// query parameter.
func (h *AppHandler) Display(w http.ResponseWriter, r *http.Request) {
	view, err := h.engine.Timeline(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.views.Display(w, view); err != nil {
		h.logger.Error("failed to render display", "err", err)
	}
}

// fail maps pipeline errors to responses: unusable sessions redirect to
// login, structured provider errors keep their status category, and
// everything else is a bad-gateway page.
func (h *AppHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shared.ErrSessionInvalid):
		http.Redirect(w, r, "/login", http.StatusFound)
	case errors.Is(err, shared.ErrRefreshFailed):
		h.logger.Error("session refresh failed", "err", err)
		http.Redirect(w, r, "/login", http.StatusFound)
	case errors.Is(err, shared.ErrNoCollectionID):
		http.Error(w, "No playlist selected.", http.StatusBadRequest)
	case errors.Is(err, shared.ErrEmptyCollection):
		fmt.Fprintln(w, "This playlist has no tracks.")
	default:
		var apiErr *spotify.APIError
		if errors.As(err, &apiErr) {
			h.logger.Warn("provider error", "status", apiErr.Status, "message", apiErr.Message)
			status := apiErr.Status
			if status < 400 || status > 599 {
				status = http.StatusBadGateway
			}
			http.Error(w, fmt.Sprintf("Provider error: %s", apiErr.Message), status)
			return
		}
		h.logger.Error("request failed", "err", err)
		http.Error(w, "Something went wrong talking to the provider.", http.StatusBadGateway)
	}
}
