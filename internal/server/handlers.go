package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/equityflow-dev/equityflow/internal/model"
	"github.com/equityflow-dev/equityflow/internal/store"
)

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.st.ListAccounts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var a model.Account
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		s.writeError(w, fmt.Errorf("decoding account: %w", err))
		return
	}
	created, err := s.st.CreateAccount(r.Context(), a)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.st.ListCategories(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	cw, ok := s.st.(store.CategoryWriter)
	if !ok {
		s.writeJSON(w, http.StatusNotImplemented, wireError{Error: "store does not accept categories"})
		return
	}
	var c model.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		s.writeError(w, fmt.Errorf("decoding category: %w", err))
		return
	}
	created, err := cw.CreateCategory(r.Context(), c)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.st.ListProjects(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var p model.Project
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.writeError(w, fmt.Errorf("decoding project: %w", err))
		return
	}
	created, err := s.st.CreateProject(r.Context(), p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f := store.Filter{ProjectID: r.URL.Query().Get("project_id")}
	txns, err := s.st.ListTransactions(r.Context(), f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, txns)
}

// handleSubmitBatch relays a batch to the store and encodes the
// outcome: 200 when everything committed, 207 when only a subset did,
// 422 when the store rejected the batch outright.
func (s *Server) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	var txns []model.Transaction
	if err := json.NewDecoder(r.Body).Decode(&txns); err != nil {
		s.writeError(w, fmt.Errorf("decoding batch: %w", err))
		return
	}

	result, err := s.st.SubmitBatch(r.Context(), txns)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, result.Receipt())
	case result.Partial():
		s.writeJSON(w, http.StatusMultiStatus, result.Receipt())
	case len(result.Failed) > 0:
		s.writeJSON(w, http.StatusUnprocessableEntity, result.Receipt())
	default:
		s.writeError(w, err)
	}
}

type wireError struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	reason := store.Reason(err)
	status := http.StatusBadRequest
	switch reason {
	case store.ReasonConflict:
		status = http.StatusConflict
	case store.ReasonOverpayment:
		status = http.StatusUnprocessableEntity
	case store.ReasonUnavailable:
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, wireError{Error: err.Error(), Reason: reason})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encoding response", zap.Error(err))
	}
}
