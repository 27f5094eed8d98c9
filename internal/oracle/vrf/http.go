package vrf

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fastprodman/coinflip/internal/oracle"
)

type RequestBody struct {
	Seed string `json:"seed"`
}

type TicketResponse struct {
	Ticket string `json:"ticket"`
}

type ResultResponse struct {
	Status     string `json:"status"`
	Randomness string `json:"randomness,omitempty"`
	Proof      string `json:"proof,omitempty"`
}

type PublicKeyResponse struct {
	PublicKey string `json:"public_key"`
}

const (
	StatusPending   = "pending"
	StatusFulfilled = "fulfilled"
)

// Router exposes svc over HTTP for remote engines.
func Router(svc *Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/public-key", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, PublicKeyResponse{PublicKey: hex.EncodeToString(svc.PublicKey())})
	})

	r.Post("/requests", func(w http.ResponseWriter, r *http.Request) {
		var body RequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		seed, err := oracle.ParseSeed(body.Seed)
		if err != nil || seed.IsZero() {
			writeError(w, http.StatusBadRequest, "invalid seed")
			return
		}

		t, err := svc.Request(r.Context(), seed)
		if errors.Is(err, oracle.ErrSeedUsed) {
			writeError(w, http.StatusConflict, "seed already used")
			return
		}
		if err != nil {
			svc.logger.Error("request randomness", "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusAccepted, TicketResponse{Ticket: string(t)})
	})

	r.Get("/requests/{ticket}", func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Fulfill(r.Context(), oracle.Ticket(chi.URLParam(r, "ticket")))
		switch {
		case errors.Is(err, oracle.ErrInvalidTicket):
			writeError(w, http.StatusBadRequest, "invalid ticket")
			return
		case errors.Is(err, oracle.ErrUnknownTicket):
			writeError(w, http.StatusNotFound, "unknown ticket")
			return
		case err != nil:
			svc.logger.Error("fulfill", "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if !res.Fulfilled {
			writeJSON(w, http.StatusOK, ResultResponse{Status: StatusPending})
			return
		}

		writeJSON(w, http.StatusOK, ResultResponse{
			Status:     StatusFulfilled,
			Randomness: hex.EncodeToString(res.Randomness[:]),
			Proof:      hex.EncodeToString(res.Proof),
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
