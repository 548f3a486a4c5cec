package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/olgasafonova/devops-tools-api/internal/errors"
	"github.com/olgasafonova/devops-tools-api/internal/store"
	"github.com/olgasafonova/devops-tools-api/internal/validation"
	"github.com/olgasafonova/devops-tools-api/metrics"
)

// Fixed informational payloads.
const (
	WelcomeMessage = "Welcome to the DevOps Tools API! Navigate to /docs for the interactive API documentation."
	HealthMessage  = "API is healthy!"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Message{Message: WelcomeMessage})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthStatus{Status: "ok", Message: HealthMessage})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.List())
}

func (s *Server) handleGetTool(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	tool, err := s.store.Get(id)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, store.Record{ID: id, Tool: tool})
}

func (s *Server) handleCreateTool(w http.ResponseWriter, r *http.Request) {
	res, ok := s.decodeTool(w, r)
	if !ok {
		return
	}
	rec := s.store.Create(res.Tool)
	s.logger.Info("Tool created",
		"id", rec.ID,
		"name", rec.Name,
		"category", rec.Category,
		"request_id", RequestIDFromContext(r.Context()))
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateTool(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	res, ok := s.decodeTool(w, r)
	if !ok {
		return
	}
	rec, err := s.store.Update(id, res.Tool)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.logger.Info("Tool updated",
		"id", rec.ID,
		"name", rec.Name,
		"request_id", RequestIDFromContext(r.Context()))
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteTool(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(id); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.logger.Info("Tool deleted",
		"id", id,
		"request_id", RequestIDFromContext(r.Context()))
	writeJSON(w, http.StatusOK, Message{Message: fmt.Sprintf("Tool with ID %d has been deleted.", id)})
}

// pathID parses {tool_id}, writing a 422 on failure.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := validation.ParseID(r.PathValue("tool_id"))
	if err != nil {
		var ve *apperrors.ValidationError
		if errors.As(err, &ve) {
			metrics.RecordValidationFailure("path")
			writeValidation(w, ve)
			return 0, false
		}
		writeDetail(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return id, true
}

// decodeTool reads and validates the request body, writing the error response
// itself when validation fails.
func (s *Server) decodeTool(w http.ResponseWriter, r *http.Request) (validation.Result, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.BodyTooLarge.Inc()
			writeDetail(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return validation.Result{}, false
		}
		writeDetail(w, http.StatusBadRequest, "Could not read request body")
		return validation.Result{}, false
	}

	res := s.validator.ValidateJSON(body)
	if !res.OK() {
		metrics.RecordValidationFailure("body")
		s.logger.Debug("Request body rejected",
			"path", r.URL.Path,
			"errors", len(res.Errors),
			"request_id", RequestIDFromContext(r.Context()))
		writeValidation(w, apperrors.NewValidationError(res.Errors...))
		return res, false
	}
	return res, true
}

// writeStoreError maps store errors to HTTP responses.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if apperrors.IsNotFound(err) {
		writeDetail(w, http.StatusNotFound, apperrors.NotFoundMessage)
		return
	}
	s.logger.Error("Store operation failed",
		"path", r.URL.Path,
		"error", err,
		"request_id", RequestIDFromContext(r.Context()))
	writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
}
