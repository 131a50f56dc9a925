package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"fintower/internal/classifier"
	"fintower/internal/core"
	"fintower/internal/ledger"
	"fintower/internal/services"
)

// handleWebhook ingests one free-text transaction line, classifies it and
// stores the result. This is the endpoint mobile shortcuts post to.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text   string `json:"text"`
		Source string `json:"source"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	text := sanitizeInput(req.Text)
	if text == "" {
		respondError(w, http.StatusUnprocessableEntity, "text is required")
		return
	}
	source := sanitizeInput(req.Source)
	if source == "" {
		source = "Mobile"
	}

	res, err := s.recorder.RecordText(r.Context(), text, source)
	if err != nil {
		var ce *classifier.ClassificationError
		if errors.As(err, &ce) {
			respondError(w, http.StatusUnprocessableEntity, ce.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Webhook record failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to record transaction")
		return
	}

	s.invalidateOverview(res.Transaction.Date.MonthOf())
	respondJSON(w, http.StatusCreated, res)
}

// handleBonus records a bonus income line and reports the 90/10 split.
func (s *Server) handleBonus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount      core.Money `json:"amount"`
		Description string     `json:"description"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Amount.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "amount must be positive")
		return
	}

	res, err := s.recorder.RecordBonus(r.Context(), req.Amount, sanitizeInput(req.Description))
	if err != nil {
		slog.ErrorContext(r.Context(), "Bonus record failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to record bonus")
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

// transactionInput is the manual-entry payload.
type transactionInput struct {
	Date        core.Date  `json:"date"`
	Amount      core.Money `json:"amount"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Type        string     `json:"type"`
	Source      string     `json:"source"`
	Tag         string     `json:"tag"`
}

func (in transactionInput) toTransaction() (core.Transaction, error) {
	cat, err := core.ParseCategory(in.Category)
	if err != nil {
		return core.Transaction{}, err
	}
	typ, err := core.ParseTxType(in.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	source := sanitizeInput(in.Source)
	if source == "" {
		source = "Manual"
	}
	tx := core.Transaction{
		Date:        in.Date,
		Amount:      in.Amount,
		Description: sanitizeInput(in.Description),
		Category:    cat,
		Type:        typ,
		Source:      source,
		Tag:         strings.TrimSpace(in.Tag),
	}
	return tx, tx.Validate()
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionInput
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := req.toTransaction()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	res, err := s.recorder.Record(r.Context(), tx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create transaction failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save transaction")
		return
	}

	s.invalidateOverview(tx.Date.MonthOf())
	respondJSON(w, http.StatusCreated, res)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	var f ledger.Filter

	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		month, err := core.ParseMonth(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid month, want YYYY-MM")
			return
		}
		f.From = month.First()
		f.To = month.Next().First()
	}
	if v := strings.TrimSpace(q.Get("type")); v != "" {
		typ, err := core.ParseTxType(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid type")
			return
		}
		f.Type = typ
	}
	for _, v := range q["category"] {
		cat, err := core.ParseCategory(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid category")
			return
		}
		f.Categories = append(f.Categories, cat)
	}

	txs, err := s.store.List(r.Context(), f)
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return 0, false
	}
	return id, true
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	tx, err := s.store.Get(r.Context(), id)
	if errors.Is(err, core.ErrNotFound) {
		respondError(w, http.StatusNotFound, "transaction not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Get transaction failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load transaction")
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req transactionInput
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tx, err := req.toTransaction()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	// Invalidate the old month too in case the date moved.
	if old, err := s.store.Get(r.Context(), id); err == nil {
		s.invalidateOverview(old.Date.MonthOf())
	}

	updated, err := s.recorder.Update(r.Context(), id, tx)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			respondError(w, http.StatusNotFound, "transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Update transaction failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update transaction")
		return
	}

	s.invalidateOverview(updated.Date.MonthOf())
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	tx, err := s.store.Get(r.Context(), id)
	if errors.Is(err, core.ErrNotFound) {
		respondError(w, http.StatusNotFound, "transaction not found")
		return
	}
	if err == nil {
		s.invalidateOverview(tx.Date.MonthOf())
	}

	if err := s.recorder.Delete(r.Context(), id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			respondError(w, http.StatusNotFound, "transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete transaction failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonthQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid month, want YYYY-MM")
		return
	}

	ov, err := s.getOverview(r.Context(), month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Budget overview failed", "month", month.String(), "error", err)
		respondError(w, http.StatusInternalServerError, "failed to compute budget")
		return
	}
	respondJSON(w, http.StatusOK, ov)
}

func (s *Server) handleNetWorth(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonthQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid month, want YYYY-MM")
		return
	}

	report, err := s.networth.Compute(r.Context(), month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Net worth aggregation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to compute net worth")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleNetWorthHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.networth.History(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Net worth history failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"snapshots": history})
}

func (s *Server) handleNetWorthSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.networth.Snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Net worth snapshot failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to take snapshot")
		return
	}
	respondJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleConfirmationStatus(w http.ResponseWriter, r *http.Request) {
	// ?allocation= switches to the confirmed-months history of one
	// allocation, the data behind the yearly savings map.
	if allocation := sanitizeInput(r.URL.Query().Get("allocation")); allocation != "" {
		months, err := s.confirmations.History(r.Context(), allocation)
		if err != nil {
			if errors.Is(err, services.ErrUnknownAllocation) {
				respondError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			slog.ErrorContext(r.Context(), "Confirmation history failed", "error", err)
			respondError(w, http.StatusInternalServerError, "failed to load confirmation history")
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"allocation": allocation,
			"months":     months,
		})
		return
	}

	month, err := parseMonthQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid month, want YYYY-MM")
		return
	}

	status, err := s.confirmations.Status(r.Context(), month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Confirmation status failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load confirmations")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"month":       month,
		"allocations": status,
	})
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Allocation string     `json:"allocation"`
		Month      core.Month `json:"month"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	month := req.Month
	if month.IsZero() {
		month = core.CurrentMonth()
	}

	created, err := s.confirmations.Confirm(r.Context(), sanitizeInput(req.Allocation), month)
	if err != nil {
		if errors.Is(err, services.ErrUnknownAllocation) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Confirm allocation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to confirm allocation")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, map[string]any{
		"allocation": req.Allocation,
		"month":      month,
		"created":    created,
	})
}

// handleTelegramSync drains pending bot messages on demand.
func (s *Server) handleTelegramSync(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		respondError(w, http.StatusServiceUnavailable, "telegram sync not configured")
		return
	}

	report, err := s.syncer.Sync(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Telegram sync failed", "error", err)
		respondError(w, http.StatusBadGateway, "telegram sync failed")
		return
	}

	s.invalidateOverview(core.CurrentMonth())
	respondJSON(w, http.StatusOK, report)
}
