package randomness

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/coinflip/internal/infra/pgutils"
	"github.com/fastprodman/coinflip/internal/repos/randomness"
)

var _ randomness.Requests = (*requestsRepo)(nil)

type requestsRepo struct{ db pgutils.DBTX }

func New(db pgutils.DBTX) *requestsRepo {
	return &requestsRepo{db: db}
}

func (r *requestsRepo) Insert(ctx context.Context, seed []byte) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO randomness_requests (seed)
		VALUES ($1)
		ON CONFLICT (seed) DO NOTHING
	`, seed)
	if err != nil {
		return fmt.Errorf("insert randomness request: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return randomness.ErrAlreadyRequested
	}

	return nil
}

func (r *requestsRepo) Get(ctx context.Context, seed []byte) (randomness.Request, error) {
	req, err := scanRequest(r.db.QueryRowContext(ctx, `
		SELECT seed, status, randomness, proof, requested_at, fulfilled_at
		FROM randomness_requests
		WHERE seed = $1
	`, seed))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return randomness.Request{}, randomness.ErrRequestNotFound
		}

		return randomness.Request{}, fmt.Errorf("get randomness request: %w", err)
	}

	return req, nil
}

func (r *requestsRepo) ListPending(ctx context.Context, limit int) ([]randomness.Request, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT seed, status, randomness, proof, requested_at, fulfilled_at
		FROM randomness_requests
		WHERE status = 'pending'
		ORDER BY requested_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer rows.Close()

	var out []randomness.Request

	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan randomness request: %w", err)
		}

		out = append(out, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}

	return out, nil
}

func (r *requestsRepo) Fulfill(ctx context.Context, seed, output, proof []byte) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE randomness_requests
		SET status = 'fulfilled',
		    randomness = $2,
		    proof = $3,
		    fulfilled_at = now()
		WHERE seed = $1
		  AND status = 'pending'
	`, seed, output, proof)
	if err != nil {
		return fmt.Errorf("fulfill randomness request: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 1 {
		return nil
	}

	// tell "unknown" from "already done"
	if _, err := r.Get(ctx, seed); err != nil {
		return err
	}

	return randomness.ErrAlreadyFulfilled
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (randomness.Request, error) {
	var (
		req         randomness.Request
		status      string
		fulfilledAt sql.NullTime
	)

	err := row.Scan(&req.Seed, &status, &req.Randomness, &req.Proof, &req.RequestedAt, &fulfilledAt)
	if err != nil {
		return randomness.Request{}, err
	}

	req.Status = randomness.Status(status)

	if fulfilledAt.Valid {
		t := fulfilledAt.Time
		req.FulfilledAt = &t
	}

	return req, nil
}
