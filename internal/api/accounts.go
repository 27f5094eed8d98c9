package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fastprodman/coinflip/internal/services/admin"
)

type updateConfigRequest struct {
	FeeAmount    string  `json:"feeAmount"`
	Treasury     string  `json:"treasury"`
	MinBetAmount string  `json:"minBetAmount"`
	TokenMint    *string `json:"tokenMint,omitempty"`
}

// GetConfigHandler handles GET /config
func (h *HandlerProvider) GetConfigHandler(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.admin.Get(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toConfigResponse(cfg))
}

// UpdateConfigHandler handles PUT /admin/config. The caller is the token
// subject; the service rejects anyone but the stored admin.
func (h *HandlerProvider) UpdateConfigHandler(w http.ResponseWriter, r *http.Request) {
	var req updateConfigRequest
	err := decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fee, err := h.units.ParseNonNegative(req.FeeAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "feeAmount: "+err.Error())
		return
	}

	minBet, err := h.units.Parse(req.MinBetAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "minBetAmount: "+err.Error())
		return
	}

	cfg, err := h.admin.SetConfig(r.Context(), subjectFrom(r.Context()), admin.Update{
		FeeAmount:    fee,
		Treasury:     req.Treasury,
		MinBetAmount: minBet,
		TokenMint:    req.TokenMint,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toConfigResponse(cfg))
}

// GetBalanceHandler handles GET /accounts/{address}/balance?asset=
// The asset defaults to the configured token mint.
func (h *HandlerProvider) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if address == "" {
		writeError(w, http.StatusBadRequest, "missing address")
		return
	}

	asset := r.URL.Query().Get("asset")
	if asset == "" {
		cfg, err := h.admin.Get(r.Context())
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}

		asset = cfg.TokenMint
	}

	bal, err := h.ledger.Balance(r.Context(), address, asset)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"address": address,
		"asset":   asset,
		"balance": h.units.Format(bal),
	})
}

// GetTreasuryHandler handles GET /treasury
func (h *HandlerProvider) GetTreasuryHandler(w http.ResponseWriter, r *http.Request) {
	wallet, bal, err := h.treasury.Balance(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"wallet":  wallet,
		"balance": h.units.Format(bal),
	})
}
