package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/willcagas/goose-trials-sub001/internal/adapters/http/auth"
	"github.com/willcagas/goose-trials-sub001/internal/domain/types"
)

// HTTPClient wraps http.Client with identity headers.
type HTTPClient struct {
	client   *http.Client
	baseURL  string
	verifier *auth.Verifier
}

func newHTTPClient(baseURL string, timeout time.Duration, verifier *auth.Verifier) *HTTPClient {
	return &HTTPClient{
		client:   &http.Client{Timeout: timeout},
		baseURL:  baseURL,
		verifier: verifier,
	}
}

// statusError is a non-2xx response.
type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, p *Player, body, dst any) error {
	var rdr io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p != nil {
		if err := c.identify(req, p); err != nil {
			return err
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &statusError{Status: resp.StatusCode, Body: string(data)}
	}
	if dst != nil {
		if err := json.Unmarshal(data, dst); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *HTTPClient) identify(req *http.Request, p *Player) error {
	if p.UserID != "" && c.verifier != nil {
		token, err := c.verifier.Issue(p.UserID, time.Hour)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
	req.Header.Set(auth.GuestHeader, p.GuestID)
	return nil
}

func (c *HTTPClient) health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, nil)
}

func (c *HTTPClient) games(ctx context.Context) ([]types.Game, error) {
	var out []types.Game
	err := c.do(ctx, http.MethodGet, "/api/games", nil, nil, &out)
	return out, err
}

func (c *HTTPClient) putProfile(ctx context.Context, p *Player) error {
	return c.do(ctx, http.MethodPut, "/api/profile", p, types.ProfileRequest{
		Username:    p.Username,
		Email:       p.Email,
		CountryCode: p.Country,
	}, nil)
}

func (c *HTTPClient) submit(ctx context.Context, a Attempt) (types.SubmitScoreResponse, error) {
	v := a.Value
	var out types.SubmitScoreResponse
	err := c.do(ctx, http.MethodPost, "/api/scores", a.Player, types.SubmitScoreRequest{
		GameID:       a.GameID,
		Value:        &v,
		SubmissionID: a.SubmissionID,
	}, &out)
	return out, err
}

func (c *HTTPClient) leaderboard(ctx context.Context, gameID string, limit int) (types.LeaderboardResponse, error) {
	q := url.Values{"game": {gameID}, "limit": {strconv.Itoa(limit)}}
	var out types.LeaderboardResponse
	err := c.do(ctx, http.MethodGet, "/api/leaderboard?"+q.Encode(), nil, nil, &out)
	return out, err
}

func (c *HTTPClient) distribution(ctx context.Context, gameID string) (types.DistributionResponse, error) {
	q := url.Values{"game": {gameID}}
	var out types.DistributionResponse
	err := c.do(ctx, http.MethodGet, "/api/distribution?"+q.Encode(), nil, nil, &out)
	return out, err
}
