package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/agromarket/auction-service/internal/domain/entity"
	"github.com/agromarket/auction-service/internal/platform/logger"
	"github.com/agromarket/auction-service/internal/platform/metrics"
	"github.com/agromarket/auction-service/internal/port/ws"
	"github.com/agromarket/auction-service/internal/service"
	"github.com/gorilla/mux"
)

type Handler struct {
	bids      service.BidService
	modes     service.BidModeService
	queries   service.AuctionQueryService
	finalizer service.FinalizerService
	hub       *ws.Hub
	metrics   *metrics.Manager
	log       logger.Logger
}

func NewHandler(
	bids service.BidService,
	modes service.BidModeService,
	queries service.AuctionQueryService,
	finalizer service.FinalizerService,
	hub *ws.Hub,
	m *metrics.Manager,
	log logger.Logger,
) *Handler {
	return &Handler{
		bids:      bids,
		modes:     modes,
		queries:   queries,
		finalizer: finalizer,
		hub:       hub,
		metrics:   m,
		log:       log,
	}
}

func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/health", h.health).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(h.observe)
	api.HandleFunc("/auctions/{auctionId}", h.getAuctionState).Methods(http.MethodGet)
	api.HandleFunc("/auctions/{auctionId}/bids", h.placeBid).Methods(http.MethodPost)
	api.HandleFunc("/auctions/{auctionId}/bids", h.getBidHistory).Methods(http.MethodGet)
	api.HandleFunc("/auctions/{auctionId}/bid-mode", h.setBidMode).Methods(http.MethodPut)
	api.HandleFunc("/auctions/{auctionId}/bid-mode", h.getBidMode).Methods(http.MethodGet)
	api.HandleFunc("/admin/auctions/finalize-expired", h.finalizeExpired).Methods(http.MethodPost)

	router.HandleFunc("/ws/auctions/{auctionId}", h.liveFeed).Methods(http.MethodGet)
}

// observe records per-route request latency.
func (h *Handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		h.metrics.HTTPRequestLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type placeBidRequest struct {
	BidderID string   `json:"bidder_id"`
	Amount   *float64 `json:"amount,omitempty"`
}

type bidResponse struct {
	BidID           string    `json:"bid_id"`
	AuctionID       string    `json:"auction_id"`
	BidderID        string    `json:"bidder_id"`
	Amount          float64   `json:"amount"`
	PreviousAmount  *float64  `json:"previous_amount,omitempty"`
	IncrementAmount *float64  `json:"increment_amount,omitempty"`
	Mode            string    `json:"bid_mode"`
	BidTime         time.Time `json:"bid_time"`
	IsWinning       bool      `json:"is_winning_bid"`
	Status          string    `json:"status"`
}

func toBidResponse(bid *entity.Bid) bidResponse {
	return bidResponse{
		BidID:           bid.ID,
		AuctionID:       bid.AuctionID,
		BidderID:        bid.BidderID,
		Amount:          bid.Amount,
		PreviousAmount:  bid.PreviousAmount,
		IncrementAmount: bid.IncrementAmount,
		Mode:            string(bid.Mode),
		BidTime:         bid.BidTime,
		IsWinning:       bid.IsWinning,
		Status:          string(bid.Status),
	}
}

func (h *Handler) placeBid(w http.ResponseWriter, r *http.Request) {
	auctionID := mux.Vars(r)["auctionId"]

	var req placeBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BidderID == "" {
		h.respondError(w, http.StatusBadRequest, "bidder_id is required")
		return
	}

	result, err := h.bids.PlaceBid(r.Context(), auctionID, req.BidderID, req.Amount)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": result.Message,
		"bid":     toBidResponse(result.Bid),
	})
}

func (h *Handler) getAuctionState(w http.ResponseWriter, r *http.Request) {
	view, err := h.queries.GetAuctionState(r.Context(), mux.Vars(r)["auctionId"])
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

func (h *Handler) getBidHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := service.BidHistoryParams{
		AuctionID: mux.Vars(r)["auctionId"],
		Page:      intQueryParam(query.Get("page"), 1),
		Limit:     intQueryParam(query.Get("limit"), 10),
		SortBy:    query.Get("sort_by"),
		SortOrder: query.Get("sort_order"),
		Status:    entity.BidStatus(query.Get("status")),
	}

	result, err := h.queries.GetBidHistory(r.Context(), params)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

type setBidModeRequest struct {
	BidderID      string   `json:"bidder_id"`
	Mode          string   `json:"bid_mode"`
	AutoIncrement *float64 `json:"auto_increment_amount,omitempty"`
}

type bidModeResponse struct {
	Message       string   `json:"message"`
	Mode          string   `json:"bid_mode"`
	AutoIncrement *float64 `json:"auto_increment_amount,omitempty"`
}

func (h *Handler) setBidMode(w http.ResponseWriter, r *http.Request) {
	auctionID := mux.Vars(r)["auctionId"]

	var req setBidModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BidderID == "" {
		h.respondError(w, http.StatusBadRequest, "bidder_id is required")
		return
	}

	result, err := h.modes.SetBidMode(r.Context(), req.BidderID, auctionID, entity.BidMode(req.Mode), req.AutoIncrement)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, bidModeResponse{
		Message:       result.Message,
		Mode:          string(result.Setting.Mode),
		AutoIncrement: result.Setting.AutoIncrement,
	})
}

func (h *Handler) getBidMode(w http.ResponseWriter, r *http.Request) {
	auctionID := mux.Vars(r)["auctionId"]
	bidderID := r.URL.Query().Get("bidder_id")
	if bidderID == "" {
		h.respondError(w, http.StatusBadRequest, "bidder_id is required")
		return
	}

	result, err := h.modes.GetBidMode(r.Context(), bidderID, auctionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	resp := bidModeResponse{Message: result.Message, Mode: string(entity.BidModeManual)}
	if result.Setting != nil {
		resp.Mode = string(result.Setting.Mode)
		resp.AutoIncrement = result.Setting.AutoIncrement
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) finalizeExpired(w http.ResponseWriter, r *http.Request) {
	sweep, err := h.finalizer.FinalizeExpiredAuctions(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, sweep)
}

func (h *Handler) liveFeed(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeWS(w, r, mux.Vars(r)["auctionId"])
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		h.log.Errorf("Request failed: %v", err)
		h.respondError(w, status, "internal server error")
		return
	}
	h.respondError(w, status, err.Error())
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, entity.ErrAuctionNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrAlreadyHighestBidder):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrContention):
		return http.StatusConflict
	case errors.Is(err, entity.ErrInvalidInput),
		errors.Is(err, entity.ErrNotBiddable),
		errors.Is(err, entity.ErrTooEarly),
		errors.Is(err, entity.ErrTooLate),
		errors.Is(err, entity.ErrBidTooLow),
		errors.Is(err, entity.ErrMisconfiguredAutoBid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

func intQueryParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
