package api

import (
	"fmt"
	"net/http"
	"strconv"

	"fishery-permit/internal/common/errors"
	"fishery-permit/internal/models"
	"fishery-permit/internal/permit/attachments"
	"fishery-permit/internal/permit/session"
	"fishery-permit/internal/permit/wizard"

	"github.com/gorilla/mux"
)

type createSessionRequest struct {
	Prefill bool `json:"prefill"`
}

type updateFieldRequest struct {
	Value string `json:"value" validate:"max=500"`
}

type addFilesRequest struct {
	Files []attachments.FileMeta `json:"files" validate:"required,min=1,dive"`
}

type filesResponse struct {
	Files   []models.Document `json:"files"`
	Session session.View      `json:"session"`
}

type submitResponse struct {
	Application *models.FisheryApplication `json:"application"`
	Session     session.View               `json:"session"`
}

func (s *Server) steps(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"steps": wizard.DefaultSteps()})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := s.parseJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if q := r.URL.Query().Get("prefill"); q != "" {
		prefill, err := strconv.ParseBool(q)
		if err != nil {
			s.respondError(w, r, errors.NewInvalidRequestError(fmt.Sprintf("prefill: %q is not a boolean", q)))
			return
		}
		req.Prefill = prefill
	}

	sess, err := s.sessions.Create(req.Prefill)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, sess.View())
}

// session resolves the {id} path variable, writing the error response itself
// when there is no such session.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		s.respondError(w, r, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, sess.View())
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(mux.Vars(r)["id"]); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// updateField answers 202: validation finishes later and shows up in the
// session view.
func (s *Server) updateField(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req updateFieldRequest
	if err := s.parseJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := sess.UpdateField(mux.Vars(r)["field"], req.Value); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusAccepted, sess.View())
}

func (s *Server) advance(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Advance(); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sess.View())
}

func (s *Server) retreat(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Retreat()
	s.respondJSON(w, http.StatusOK, sess.View())
}

func (s *Server) addFiles(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req addFilesRequest
	if err := s.parseJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	added, err := sess.AddFiles(req.Files)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, filesResponse{Files: added, Session: sess.View()})
}

func (s *Server) verifyFiles(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	docs, err := sess.VerifyFiles(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, filesResponse{Files: docs, Session: sess.View()})
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	app, err := sess.Submit(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, submitResponse{Application: app, Session: sess.View()})
}
