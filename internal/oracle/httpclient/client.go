// Package httpclient is an oracle.Client for a remote VRF oracle service.
package httpclient

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fastprodman/coinflip/internal/oracle"
	"github.com/fastprodman/coinflip/internal/oracle/vrf"
)

var _ oracle.Client = (*Client)(nil)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid oracle url %q", baseURL)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) Request(ctx context.Context, seed oracle.Seed) (oracle.Ticket, error) {
	body, err := json.Marshal(vrf.RequestBody{Seed: seed.String()})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/requests", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out vrf.TicketResponse
	if err := c.do(req, http.StatusAccepted, &out); err != nil {
		return "", fmt.Errorf("request randomness: %w", err)
	}

	return oracle.Ticket(out.Ticket), nil
}

func (c *Client) Fulfill(ctx context.Context, t oracle.Ticket) (oracle.Result, error) {
	if _, err := t.Seed(); err != nil {
		return oracle.Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/requests/"+url.PathEscape(string(t)), nil)
	if err != nil {
		return oracle.Result{}, fmt.Errorf("build request: %w", err)
	}

	var out vrf.ResultResponse

	err = c.do(req, http.StatusOK, &out)
	if err != nil {
		return oracle.Result{}, fmt.Errorf("fulfill: %w", err)
	}

	switch out.Status {
	case vrf.StatusPending:
		return oracle.Pending(), nil
	case vrf.StatusFulfilled:
	default:
		return oracle.Result{}, fmt.Errorf("fulfill: unexpected status %q", out.Status)
	}

	raw, err := hex.DecodeString(out.Randomness)
	if err != nil || len(raw) != oracle.RandomnessSize {
		return oracle.Result{}, fmt.Errorf("fulfill: malformed randomness")
	}

	proof, err := hex.DecodeString(out.Proof)
	if err != nil {
		return oracle.Result{}, fmt.Errorf("fulfill: malformed proof: %w", err)
	}

	var r [oracle.RandomnessSize]byte
	copy(r[:], raw)

	return oracle.Fulfilled(r, proof), nil
}

func (c *Client) do(req *http.Request, want int, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return oracle.ErrUnknownTicket
	case http.StatusConflict:
		return oracle.ErrSeedUsed
	}

	if resp.StatusCode != want {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("oracle returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
