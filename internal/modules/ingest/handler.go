// Package ingest is the boundary the external analyst writes through. It is
// authenticated by a static shared key and can only touch analyst-owned
// data: proposals, indicators, reports and the price cache. It has no path
// to the ledger.
package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/avgerinos/coinfolio/internal/modules/market"
	"github.com/avgerinos/coinfolio/internal/modules/proposals"
	"github.com/avgerinos/coinfolio/internal/modules/reports"
)

// ProposalSink accepts analyst trade proposals
type ProposalSink interface {
	Submit(ctx context.Context, p proposals.Proposal) (proposals.Proposal, error)
	List(ctx context.Context, userID, status string) ([]proposals.Proposal, error)
}

// ReportSink accepts analyst reports
type ReportSink interface {
	Submit(ctx context.Context, rep reports.Report) (reports.Report, error)
}

// MarketSink accepts indicators and bulk cache rows
type MarketSink interface {
	UpsertIndicator(ind market.Indicator) error
	Indicators() ([]market.Indicator, error)
	CachePrices(prices []market.CoinPrice) (int, error)
}

// Handler handles the analyst ingestion endpoint
type Handler struct {
	apiKey    string
	proposals ProposalSink
	reports   ReportSink
	market    MarketSink
	log       zerolog.Logger
}

// NewHandler creates a new ingest handler
func NewHandler(apiKey string, proposalSink ProposalSink, reportSink ReportSink, marketSink MarketSink, log zerolog.Logger) *Handler {
	return &Handler{
		apiKey:    apiKey,
		proposals: proposalSink,
		reports:   reportSink,
		market:    marketSink,
		log:       log.With().Str("handler", "ingest").Logger(),
	}
}

// RegisterRoutes registers the ingestion routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/ingest", func(r chi.Router) {
		r.Post("/", h.HandlePost)
		r.Get("/", h.HandleGet)
	})
}

// authorized checks the shared key from the header or the query string
func (h *Handler) authorized(r *http.Request) bool {
	if h.apiKey == "" {
		return false
	}
	if key := r.Header.Get("X-API-Key"); key == h.apiKey {
		return true
	}
	return r.URL.Query().Get("key") == h.apiKey
}

// ingestRequest is the envelope for all POST actions
type ingestRequest struct {
	Action  string          `json:"action"`
	UserID  string          `json:"user_id"`
	Payload json.RawMessage `json:"payload"`
}

// HandlePost handles POST /api/ingest
func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		result interface{}
		err    error
	)
	switch req.Action {
	case "proposal":
		result, err = h.ingestProposal(r.Context(), req)
	case "indicator":
		result, err = h.ingestIndicator(req)
	case "report":
		result, err = h.ingestReport(r.Context(), req)
	case "cache":
		result, err = h.ingestCache(req)
	default:
		h.writeError(w, http.StatusBadRequest, "unknown action: "+req.Action)
		return
	}

	if err != nil {
		h.log.Error().Err(err).Str("action", req.Action).Msg("Ingestion failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGet handles GET /api/ingest?type=indicators|proposals
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	switch r.URL.Query().Get("type") {
	case "indicators":
		indicators, err := h.market.Indicators()
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if indicators == nil {
			indicators = []market.Indicator{}
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": indicators})

	case "proposals":
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			h.writeError(w, http.StatusBadRequest, "missing userId")
			return
		}
		list, err := h.proposals.List(r.Context(), userID, r.URL.Query().Get("status"))
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if list == nil {
			list = []proposals.Proposal{}
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": list})

	default:
		h.writeError(w, http.StatusBadRequest, "unknown type")
	}
}

func (h *Handler) ingestProposal(ctx context.Context, req ingestRequest) (interface{}, error) {
	var p proposals.Proposal
	if err := json.Unmarshal(req.Payload, &p); err != nil {
		return nil, err
	}
	if p.UserID == "" {
		p.UserID = req.UserID
	}
	return h.proposals.Submit(ctx, p)
}

func (h *Handler) ingestIndicator(req ingestRequest) (interface{}, error) {
	var ind market.Indicator
	if err := json.Unmarshal(req.Payload, &ind); err != nil {
		return nil, err
	}
	if err := h.market.UpsertIndicator(ind); err != nil {
		return nil, err
	}
	return map[string]string{"indicator": ind.Name}, nil
}

func (h *Handler) ingestReport(ctx context.Context, req ingestRequest) (interface{}, error) {
	var rep reports.Report
	if err := json.Unmarshal(req.Payload, &rep); err != nil {
		return nil, err
	}
	if rep.UserID == "" {
		rep.UserID = req.UserID
	}
	return h.reports.Submit(ctx, rep)
}

func (h *Handler) ingestCache(req ingestRequest) (interface{}, error) {
	var prices []market.CoinPrice
	if err := json.Unmarshal(req.Payload, &prices); err != nil {
		return nil, err
	}
	count, err := h.market.CachePrices(prices)
	if err != nil {
		return nil, err
	}
	return map[string]int{"cached": count}, nil
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]interface{}{"error": message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
