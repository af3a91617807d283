package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/valuecompass/compass/internal/contracts"
	"github.com/valuecompass/compass/internal/valuation"
	"github.com/valuecompass/compass/pkg/logger"
)

// maxBatchTickers caps one batch scoring request.
const maxBatchTickers = 100

// ValuationHandler handles scoring and rule endpoints.
type ValuationHandler struct {
	calc   *valuation.Calculator
	rules  contracts.RuleRepository
	scores contracts.ScoreRepository
	logger *logger.Logger
}

// NewValuationHandler creates a valuation handler.
func NewValuationHandler(
	calc *valuation.Calculator,
	rules contracts.RuleRepository,
	scores contracts.ScoreRepository,
	log *logger.Logger,
) *ValuationHandler {
	return &ValuationHandler{
		calc:   calc,
		rules:  rules,
		scores: scores,
		logger: log,
	}
}

// ScoreRequest asks for one ticker's score. Config, when present, is an
// ad-hoc rule applied without persisting anything; otherwise the rule is
// looked up by id, falling back to the default rule.
type ScoreRequest struct {
	Ticker string          `json:"ticker"`
	RuleID *int64          `json:"rule_id,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Score computes the valuation score for one ticker.
// POST /api/valuation/score
func (h *ValuationHandler) Score(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Ticker == "" {
		respondError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	rule, adHoc, err := h.resolveRule(r, &req)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	result, err := h.calc.Score(ctx, req.Ticker, rule)
	if err != nil {
		h.logger.WithError(err).Errorf("scoring failed for %s", req.Ticker)
		respondDomainError(w, err)
		return
	}

	if !adHoc {
		record := &contracts.ScoreRecord{
			Ticker:     result.Ticker,
			RuleID:     rule.ID,
			Score:      result.Score,
			Components: result.Components,
		}
		if err := h.scores.Save(ctx, record); err != nil {
			h.logger.WithError(err).Warnf("failed to persist score for %s", result.Ticker)
		}
	}

	respondJSON(w, http.StatusOK, result)
}

// BatchScoreRequest asks for scores across several tickers under one rule.
type BatchScoreRequest struct {
	Tickers []string `json:"tickers"`
	RuleID  *int64   `json:"rule_id,omitempty"`
}

// ScoreBatch computes valuation scores for several tickers. Per-ticker
// failures come back inline, never as a failed request.
// POST /api/valuation/score/batch
func (h *ValuationHandler) ScoreBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BatchScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Tickers) == 0 {
		respondError(w, http.StatusBadRequest, "tickers is required")
		return
	}
	if len(req.Tickers) > maxBatchTickers {
		respondError(w, http.StatusBadRequest, "too many tickers")
		return
	}

	rule, err := h.lookupRule(r, req.RuleID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	results := h.calc.ScoreBatch(ctx, req.Tickers, rule)

	for i := range results {
		if results[i].Failed() {
			continue
		}
		record := &contracts.ScoreRecord{
			Ticker:     results[i].Ticker,
			RuleID:     rule.ID,
			Score:      results[i].Score,
			Components: results[i].Components,
		}
		if err := h.scores.Save(ctx, record); err != nil {
			h.logger.WithError(err).Warnf("failed to persist score for %s", record.Ticker)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rule_id": rule.ID,
		"results": results,
	})
}

// ScoreHistory returns recent persisted scores for a ticker, newest first.
// GET /api/valuation/{ticker}/scores
func (h *ValuationHandler) ScoreHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ticker := mux.Vars(r)["ticker"]

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	records, err := h.scores.ListByTicker(ctx, ticker, limit)
	if err != nil {
		h.logger.WithError(err).Errorf("failed to load scores for %s", ticker)
		respondDomainError(w, err)
		return
	}
	if records == nil {
		records = []*contracts.ScoreRecord{}
	}
	respondJSON(w, http.StatusOK, records)
}

// ListRules returns every stored rule.
// GET /api/valuation/rules
func (h *ValuationHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.rules.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("failed to list rules")
		respondDomainError(w, err)
		return
	}
	if rules == nil {
		rules = []*contracts.ValuationRule{}
	}
	respondJSON(w, http.StatusOK, rules)
}

// GetRule returns one rule by id.
// GET /api/valuation/rules/{id}
func (h *ValuationHandler) GetRule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid rule id")
		return
	}

	rule, err := h.rules.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rule)
}

func (h *ValuationHandler) resolveRule(r *http.Request, req *ScoreRequest) (*contracts.ValuationRule, bool, error) {
	if len(req.Config) > 0 {
		parsed, err := contracts.ParseRuleConfig(req.Config)
		if err != nil {
			return nil, false, err
		}
		return &contracts.ValuationRule{
			Name:         "ad-hoc",
			Config:       req.Config,
			ParsedConfig: parsed,
		}, true, nil
	}
	rule, err := h.lookupRule(r, req.RuleID)
	return rule, false, err
}

func (h *ValuationHandler) lookupRule(r *http.Request, ruleID *int64) (*contracts.ValuationRule, error) {
	if ruleID != nil {
		return h.rules.GetByID(r.Context(), *ruleID)
	}
	return h.rules.GetDefault(r.Context())
}
