package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fastprodman/coinflip/internal/apperr"
	"github.com/fastprodman/coinflip/internal/oracle"
	"github.com/fastprodman/coinflip/internal/repos/pools"
	"github.com/fastprodman/coinflip/internal/services/coinflip"
)

const maxListLimit = 500

type createPoolRequest struct {
	Side   *uint8 `json:"side"`
	Amount string `json:"amount"`
}

type joinPoolRequest struct {
	Side   *uint8 `json:"side"`
	Amount string `json:"amount"`
	Seed   string `json:"seed"`
}

// CreatePoolHandler handles POST /pools
func (h *HandlerProvider) CreatePoolHandler(w http.ResponseWriter, r *http.Request) {
	player := subjectFrom(r.Context())

	var req createPoolRequest
	err := decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Side == nil {
		writeError(w, http.StatusBadRequest, "side required")
		return
	}

	amount, err := h.units.Parse(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.pools.Create(r.Context(), player, *req.Side, amount)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toPoolResponse(p))
}

// JoinPoolHandler handles POST /pools/{poolId}/join
func (h *HandlerProvider) JoinPoolHandler(w http.ResponseWriter, r *http.Request) {
	poolID, err := parsePoolID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid poolId in path")
		return
	}

	var req joinPoolRequest
	err = decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Side == nil {
		writeError(w, http.StatusBadRequest, "side required")
		return
	}

	amount, err := h.units.Parse(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	seed, err := oracle.ParseSeed(req.Seed)
	if err != nil {
		h.writeServiceError(w, r, apperr.ErrInvalidSeed)
		return
	}

	p, err := h.pools.Join(r.Context(), coinflip.JoinParams{
		PoolID: poolID,
		Joiner: subjectFrom(r.Context()),
		Side:   *req.Side,
		Amount: amount,
		Seed:   seed,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toPoolResponse(p))
}

// SettlePoolHandler handles POST /pools/{poolId}/settle. Anyone may crank it.
func (h *HandlerProvider) SettlePoolHandler(w http.ResponseWriter, r *http.Request) {
	poolID, err := parsePoolID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid poolId in path")
		return
	}

	p, err := h.pools.Settle(r.Context(), poolID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toPoolResponse(p))
}

// CancelPoolHandler handles POST /pools/{poolId}/cancel
func (h *HandlerProvider) CancelPoolHandler(w http.ResponseWriter, r *http.Request) {
	poolID, err := parsePoolID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid poolId in path")
		return
	}

	p, err := h.pools.Cancel(r.Context(), poolID, subjectFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toPoolResponse(p))
}

// GetPoolHandler handles GET /pools/{poolId}
func (h *HandlerProvider) GetPoolHandler(w http.ResponseWriter, r *http.Request) {
	poolID, err := parsePoolID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid poolId in path")
		return
	}

	p, err := h.pools.Get(r.Context(), poolID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toPoolResponse(p))
}

// ListPoolsHandler handles GET /pools?status=&limit=&after=
func (h *HandlerProvider) ListPoolsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := pools.Filter{Status: pools.Status(q.Get("status"))}
	if f.Status != "" && !f.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > maxListLimit {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}

		f.Limit = limit
	}

	if raw := q.Get("after"); raw != "" {
		after, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid after")
			return
		}

		f.AfterID = after
	}

	list, err := h.pools.List(r.Context(), f)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	out := make([]poolResponse, 0, len(list))
	for _, p := range list {
		out = append(out, h.toPoolResponse(p))
	}

	writeJSON(w, http.StatusOK, map[string]any{"pools": out})
}

type transferResponse struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Asset     string    `json:"asset"`
	Amount    string    `json:"amount"`
	Memo      string    `json:"memo"`
	CreatedAt time.Time `json:"createdAt"`
}

// PoolTransfersHandler handles GET /pools/{poolId}/transfers
func (h *HandlerProvider) PoolTransfersHandler(w http.ResponseWriter, r *http.Request) {
	poolID, err := parsePoolID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid poolId in path")
		return
	}

	_, err = h.pools.Get(r.Context(), poolID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	recs, err := h.ledger.PoolTransfers(r.Context(), poolID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	out := make([]transferResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, transferResponse{
			ID:        rec.ID.String(),
			From:      rec.From,
			To:        rec.To,
			Asset:     rec.Asset,
			Amount:    h.units.Format(rec.Amount),
			Memo:      rec.Memo,
			CreatedAt: rec.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"transfers": out})
}
