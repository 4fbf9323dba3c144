// Package api exposes the application wizard and the application records over
// HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"fishery-permit/internal/common/errors"
	"fishery-permit/internal/common/logger"
	"fishery-permit/internal/models"
	"fishery-permit/internal/permit/session"
	"fishery-permit/internal/store"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/go-playground/validator.v9"
)

const (
	ModeDatabase = "database"
	ModeMock     = "mock"
)

// Sessions is the part of the session manager the handlers use.
type Sessions interface {
	Create(prefill bool) (*session.Session, error)
	Get(id string) (*session.Session, error)
	Delete(id string) error
	Len() int
}

// Snapshotter serves the application list from memory when it has loaded.
type Snapshotter interface {
	Snapshot() ([]models.FisheryApplication, bool)
}

type Options struct {
	Sessions Sessions
	Repo     store.Repository
	// Live is optional; without it every list request goes to Repo.
	Live Snapshotter

	Mode           string
	Warnings       []string
	AllowedOrigins []string
	// Ping is optional and reported by /health.
	Ping func(ctx context.Context) error

	Logger logger.Logger
}

type Server struct {
	sessions Sessions
	repo     store.Repository
	live     Snapshotter

	mode           string
	warnings       []string
	allowedOrigins []string
	ping           func(ctx context.Context) error

	validate *validator.Validate
	logger   logger.Logger
}

func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeMock
	}
	return &Server{
		sessions:       opts.Sessions,
		repo:           opts.Repo,
		live:           opts.Live,
		mode:           mode,
		warnings:       opts.Warnings,
		allowedOrigins: opts.AllowedOrigins,
		ping:           opts.Ping,
		validate:       validator.New(),
		logger:         log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// Handler builds the routed handler with panic recovery, CORS, request
// logging and metrics.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.instrument)

	router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/steps", s.steps).Methods(http.MethodGet)

	api.HandleFunc("/sessions", s.createSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", s.getSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.deleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/fields/{field}", s.updateField).Methods(http.MethodPut)
	api.HandleFunc("/sessions/{id}/advance", s.advance).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/retreat", s.retreat).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/files", s.addFiles).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/files/verify", s.verifyFiles).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/submit", s.submit).Methods(http.MethodPost)

	api.HandleFunc("/applications", s.listApplications).Methods(http.MethodGet)
	api.HandleFunc("/applications/{id}", s.getApplication).Methods(http.MethodGet)
	api.HandleFunc("/applications/{id}/status", s.updateStatus).Methods(http.MethodPatch)
	api.HandleFunc("/status/{number}", s.trackStatus).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.stats).Methods(http.MethodGet)

	return s.recoverPanics(s.cors(router))
}

// respondJSON sends an object as a JSON encoded response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, resp interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

// respondError writes err with the status its code maps to.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := errors.AsStandard(err)
	status := stdErr.HTTPStatus()

	fields := map[string]interface{}{
		"method": r.Method,
		"path":   r.URL.Path,
		"code":   stdErr.Code,
		"status": status,
	}
	if status >= http.StatusInternalServerError {
		fields["details"] = stdErr.Details
		s.logger.Error("request failed", fields)
	} else {
		s.logger.Debug("request rejected", fields)
	}

	s.respondJSON(w, status, map[string]interface{}{"error": stdErr})
}

// parseJSON decodes the request body into dest and validates its tags. An
// empty body leaves dest untouched.
func (s *Server) parseJSON(r *http.Request, dest interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return s.check(dest)
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		if err == io.EOF {
			return s.check(dest)
		}
		return errors.NewInvalidRequestError(fmt.Sprintf("decode body: %v", err))
	}
	return s.check(dest)
}

func (s *Server) check(dest interface{}) error {
	err := s.validate.Struct(dest)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewInvalidRequestError(err.Error())
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return errors.NewApplicationValidationFailedError(strings.Join(problems, "; "))
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":   "ok",
		"mode":     s.mode,
		"sessions": s.sessions.Len(),
	}
	if len(s.warnings) > 0 {
		resp["warnings"] = s.warnings
	}

	status := http.StatusOK
	if s.ping != nil {
		if err := s.ping(r.Context()); err != nil {
			resp["status"] = "degraded"
			resp["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	s.respondJSON(w, status, resp)
}
