package api

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fastprodman/coinflip/internal/apperr"
	"github.com/fastprodman/coinflip/internal/repos/pools"
	"github.com/fastprodman/coinflip/internal/repos/registry"
	"github.com/fastprodman/coinflip/internal/services/admin"
	"github.com/fastprodman/coinflip/internal/services/coinflip"
	"github.com/fastprodman/coinflip/internal/services/ledger"
	"github.com/fastprodman/coinflip/internal/services/treasury"
)

// HandlerProvider exposes the engine services as HTTP handlers.
type HandlerProvider struct {
	pools    *coinflip.Service
	admin    *admin.Service
	ledger   *ledger.Service
	treasury *treasury.Service
	units    Units
	logger   *slog.Logger
}

func NewHandler(d Deps) *HandlerProvider {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &HandlerProvider{
		pools:    d.Pools,
		admin:    d.Admin,
		ledger:   d.Ledger,
		treasury: d.Treasury,
		units:    d.Units,
		logger:   logger,
	}
}

// --- Helpers ---

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps an engine error kind onto an HTTP status.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindState, apperr.KindTransfer:
		return http.StatusConflict
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindTransient:
		return http.StatusAccepted
	default:
		return http.StatusInternalServerError
	}
}

func (h *HandlerProvider) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, status, "internal error")

		return
	}

	var e *apperr.Error
	errors.As(err, &e)

	writeJSON(w, status, errorResponse{Error: e.Msg, Code: e.Code})
}

// decodeBody reads a single JSON object of at most 1MB, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}

		return errors.New("invalid JSON")
	}

	return nil
}

// parsePoolID reads `{poolId}` from chi routes like /pools/{poolId}/join.
func parsePoolID(r *http.Request) (uint64, error) {
	idStr := chi.URLParam(r, "poolId")
	if idStr == "" {
		return 0, fmt.Errorf("missing poolId")
	}

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid poolId: %w", err)
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid poolId: must be positive")
	}

	return id, nil
}

// --- Response shapes ---

type bettorResponse struct {
	Player string `json:"player"`
	Amount string `json:"amount"`
	Side   uint8  `json:"side"`
}

type poolResponse struct {
	ID            uint64          `json:"id"`
	CreatedAt     time.Time       `json:"createdAt"`
	EscrowAddress string          `json:"escrowAddress"`
	Asset         string          `json:"asset"`
	Creator       bettorResponse  `json:"creator"`
	Joiner        *bettorResponse `json:"joiner,omitempty"`
	TotalEscrowed string          `json:"totalEscrowed"`
	Status        string          `json:"status"`
	Winner        string          `json:"winner,omitempty"`
	CommittedSeed string          `json:"committedSeed,omitempty"`
	Randomness    string          `json:"randomness,omitempty"`
	ClosedAt      *time.Time      `json:"closedAt,omitempty"`
}

func (h *HandlerProvider) toPoolResponse(p pools.Pool) poolResponse {
	resp := poolResponse{
		ID:            p.ID,
		CreatedAt:     p.CreatedAt,
		EscrowAddress: p.EscrowAddress,
		Asset:         p.Asset,
		Creator: bettorResponse{
			Player: p.Creator.Player,
			Amount: h.units.Format(p.Creator.Amount),
			Side:   p.Creator.Side,
		},
		TotalEscrowed: h.units.Format(p.TotalEscrowed),
		Status:        string(p.Status),
		Winner:        p.Winner,
		CommittedSeed: hex.EncodeToString(p.CommittedSeed),
		Randomness:    hex.EncodeToString(p.Randomness),
		ClosedAt:      p.ClosedAt,
	}

	if p.Joiner != nil {
		resp.Joiner = &bettorResponse{
			Player: p.Joiner.Player,
			Amount: h.units.Format(p.Joiner.Amount),
			Side:   p.Joiner.Side,
		}
	}

	return resp
}

type configResponse struct {
	Admin          string `json:"admin"`
	TreasuryWallet string `json:"treasuryWallet"`
	TokenMint      string `json:"tokenMint"`
	FeeAmount      string `json:"feeAmount"`
	MinBetAmount   string `json:"minBetAmount"`
	NextPoolID     uint64 `json:"nextPoolId"`
}

func (h *HandlerProvider) toConfigResponse(cfg registry.Config) configResponse {
	return configResponse{
		Admin:          cfg.Admin,
		TreasuryWallet: cfg.TreasuryWallet,
		TokenMint:      cfg.TokenMint,
		FeeAmount:      h.units.Format(cfg.FeeAmount),
		MinBetAmount:   h.units.Format(cfg.MinBetAmount),
		NextPoolID:     cfg.NextPoolID,
	}
}
