package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"exptrack/internal/core"
	"exptrack/internal/log"
	"exptrack/internal/tracker"
)

// importBodyLimit bounds import payloads; bundles are small JSON documents.
const importBodyLimit = 10 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"name":    s.cfg.App.Name,
		"version": s.cfg.App.Version,
	})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	typ := core.Type(r.URL.Query().Get("type"))
	if typ != "" && !typ.Valid() {
		s.writeError(w, http.StatusBadRequest, "Invalid transaction type filter")
		return
	}
	s.writeJSON(w, http.StatusOK, s.tracker.Filtered(category, typ))
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var in core.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	txn, err := s.tracker.Create(in)
	if err != nil {
		if ve, ok := tracker.AsValidationError(err); ok {
			s.writeFieldErrors(w, ve.Fields)
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to create transaction", log.FieldError, err)
		s.writeError(w, http.StatusInternalServerError, "Error saving transaction")
		return
	}

	s.writeJSON(w, http.StatusCreated, txn)
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodPut:
		s.updateTransaction(w, r, id)
	case http.MethodDelete:
		s.deleteTransaction(w, r, id)
	default:
		methodNotAllowed(w, "PUT, DELETE")
	}
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request, id string) {
	var in core.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	txn, err := s.tracker.Update(id, in)
	if err != nil {
		if ve, ok := tracker.AsValidationError(err); ok {
			s.writeFieldErrors(w, ve.Fields)
			return
		}
		if errors.Is(err, tracker.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to update transaction",
			log.FieldTransactionID, id, log.FieldError, err)
		s.writeError(w, http.StatusInternalServerError, "Error updating transaction")
		return
	}

	s.writeJSON(w, http.StatusOK, txn)
}

// deleteTransaction is idempotent: deleting an id that is already gone
// still answers 204. Confirmation happens on the caller's side before the
// request is ever made.
func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	s.tracker.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	response := struct {
		Summary        core.Summary          `json:"summary"`
		CategoryTotals []core.CategoryAmount `json:"categoryTotals,omitempty"`
	}{
		Summary: s.tracker.Summary(),
	}
	if s.cfg.Features.EnableCharts {
		response.CategoryTotals = s.tracker.CategoryTotals(true)
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	categories := s.cfg.GetCategories()
	if r.URL.Query().Get("flat") == "true" {
		s.writeJSON(w, http.StatusOK, categories.All())
		return
	}
	s.writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	if !s.cfg.Features.EnableExport {
		s.writeError(w, http.StatusForbidden, "Export is disabled")
		return
	}

	snapshot := s.tracker.ExportSnapshot()
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", s.tracker.ExportFileName()))
	s.writeJSON(w, http.StatusOK, snapshot)
}

// handleImport replaces all data with the posted bundle. The caller must
// send confirm=true: replacing the collection is destructive and needs an
// explicit user decision, not just a file selection.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if !s.cfg.Features.EnableImport {
		s.writeError(w, http.StatusForbidden, "Import is disabled")
		return
	}
	if r.URL.Query().Get("confirm") != "true" {
		s.writeError(w, http.StatusPreconditionRequired, "Import requires confirmation (confirm=true)")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, importBodyLimit))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Error reading file")
		return
	}

	count, err := s.tracker.ImportSnapshot(body)
	if err != nil {
		if errors.Is(err, tracker.ErrMalformedImport) {
			s.writeError(w, http.StatusUnprocessableEntity, "Invalid file format")
			return
		}
		s.logger.ErrorContext(r.Context(), "Import failed", log.FieldError, err)
		s.writeError(w, http.StatusInternalServerError, "Error importing data")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]int{"imported": count})
}
