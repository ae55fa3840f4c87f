package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"worshipsongs/internal/app"
	"worshipsongs/internal/app/setlists"
	"worshipsongs/internal/app/songs"
	"worshipsongs/internal/auth"
	"worshipsongs/internal/http/middleware"
	"worshipsongs/internal/logging"
	"worshipsongs/internal/models"
	"worshipsongs/internal/store"
)

// SongService describes the song library workflows.
type SongService interface {
	List(ctx context.Context, query songs.Query) ([]*models.Song, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Song, error)
	Create(ctx context.Context, fields songs.Fields) (*models.Song, error)
	Update(ctx context.Context, id uuid.UUID, fields songs.Fields) (*models.Song, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ToggleFavorite(ctx context.Context, id uuid.UUID) (*models.Song, error)
}

// SetlistService describes setlist and membership workflows.
type SetlistService interface {
	List(ctx context.Context, search string) ([]*models.Setlist, error)
	Get(ctx context.Context, id uuid.UUID) (*setlists.View, error)
	Create(ctx context.Context, info setlists.Info) (*models.Setlist, error)
	Update(ctx context.Context, id uuid.UUID, info setlists.Info) (*models.Setlist, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Candidates(ctx context.Context, id uuid.UUID, search string) ([]*models.Song, error)
	AddSongs(ctx context.Context, id uuid.UUID, songIDs []uuid.UUID) (*setlists.View, error)
	RemoveItem(ctx context.Context, id, itemID uuid.UUID) (*setlists.View, error)
	Reorder(ctx context.Context, id uuid.UUID, from []int, to int) (*setlists.View, error)
	Export(ctx context.Context, id uuid.UUID, w io.Writer) error
}

// Authenticator issues and checks bearer tokens.
type Authenticator interface {
	Login(password string) (string, time.Time, error)
	Verify(token string) error
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	songs    SongService
	setlists SetlistService
	auth     Authenticator
	ready    Pinger
}

// New configures a Server. A nil Authenticator leaves every route open.
func New(songs SongService, setlists SetlistService, auth Authenticator) *Server {
	return &Server{songs: songs, setlists: setlists, auth: auth}
}

// WithReadiness enables GET /ready backed by p.
func (s *Server) WithReadiness(p Pinger) *Server {
	s.ready = p
	return s
}

// Routes exposes the HTTP handlers.
func (s *Server) Routes() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	if s.ready != nil {
		router.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet)
	}

	router.HandleFunc("/api/v1/auth/login", s.handleLogin).Methods(http.MethodPost)

	api := router.PathPrefix("/api/v1").Subrouter()
	if s.auth != nil {
		api.Use(middleware.RequireToken(s.auth))
	}

	api.HandleFunc("/songs", s.listSongs).Methods(http.MethodGet)
	api.HandleFunc("/songs", s.createSong).Methods(http.MethodPost)
	api.HandleFunc("/songs/{id}", s.getSong).Methods(http.MethodGet)
	api.HandleFunc("/songs/{id}", s.updateSong).Methods(http.MethodPut)
	api.HandleFunc("/songs/{id}", s.deleteSong).Methods(http.MethodDelete)
	api.HandleFunc("/songs/{id}/favorite", s.toggleFavorite).Methods(http.MethodPost)

	api.HandleFunc("/setlists", s.listSetlists).Methods(http.MethodGet)
	api.HandleFunc("/setlists", s.createSetlist).Methods(http.MethodPost)
	api.HandleFunc("/setlists/{id}", s.getSetlist).Methods(http.MethodGet)
	api.HandleFunc("/setlists/{id}", s.updateSetlist).Methods(http.MethodPut)
	api.HandleFunc("/setlists/{id}", s.deleteSetlist).Methods(http.MethodDelete)
	api.HandleFunc("/setlists/{id}/candidates", s.listCandidates).Methods(http.MethodGet)
	api.HandleFunc("/setlists/{id}/songs", s.addSetlistSongs).Methods(http.MethodPost)
	api.HandleFunc("/setlists/{id}/songs/{itemID}", s.removeSetlistSong).Methods(http.MethodDelete)
	api.HandleFunc("/setlists/{id}/order", s.reorderSetlist).Methods(http.MethodPut)
	api.HandleFunc("/setlists/{id}/export", s.exportSetlist).Methods(http.MethodGet)

	return router
}

type errorResponse struct {
	Error string `json:"error"`
}

type validationResponse struct {
	Errors []string `json:"errors"`
}

type loginRequest struct {
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ready.Ping(ctx); err != nil {
		logging.WithContext(r.Context()).Warn().Err(err).Msg("readiness check failed")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "authentication is not configured"})
		return
	}

	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, expires, err := s.auth.Login(req.Password)
	if err != nil {
		status := http.StatusUnauthorized
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expires})
}

// writeError maps domain and store errors onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *songs.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: verr.Messages})
	case errors.Is(err, setlists.ErrNameRequired):
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: []string{"Setlist name is required"}})
	case errors.Is(err, setlists.ErrNothingSelected):
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: []string{"No songs selected"}})
	case errors.Is(err, app.ErrInvalidOffset):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, app.ErrStaleReference),
		errors.Is(err, app.ErrBusy),
		errors.Is(err, store.ErrDuplicateSong),
		errors.Is(err, store.ErrOrderMismatch):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrSongNotFound),
		errors.Is(err, store.ErrSetlistNotFound),
		errors.Is(err, store.ErrSetlistItemNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "request cancelled"})
	default:
		logging.WithContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
