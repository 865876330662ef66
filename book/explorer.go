package book

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultExplorerURL   = "https://explorer.lichess.ovh/lichess"
	DefaultRateLimitWait = 10 * time.Second
)

var (
	ErrHTTP        = errors.New("unexpected HTTP status")
	errRateLimited = errors.New("rate limited")
)

// HTTPError is a non-success, non-retryable answer from the explorer.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%v %d from %s", ErrHTTP, e.StatusCode, e.URL)
}

func (e *HTTPError) Is(target error) bool {
	return target == ErrHTTP
}

type explorerMove struct {
	UCI           string `json:"uci"`
	SAN           string `json:"san"`
	White         int64  `json:"white"`
	Draws         int64  `json:"draws"`
	Black         int64  `json:"black"`
	AverageRating int    `json:"averageRating"`
}

type explorerResponse struct {
	White int64          `json:"white"`
	Draws int64          `json:"draws"`
	Black int64          `json:"black"`
	Moves []explorerMove `json:"moves"`
}

// ExplorerOptions selects which slice of the explorer database is queried.
type ExplorerOptions struct {
	URL      string
	Speeds   []string
	Ratings  []int
	MaxMoves int
	// RateLimitWait is how long to back off after a 429. Retries are
	// unbounded.
	RateLimitWait time.Duration
	// RequestsPerSecond paces outgoing requests; zero disables pacing.
	RequestsPerSecond float64
	Client            *http.Client
}

func DefaultExplorerOptions() ExplorerOptions {
	return ExplorerOptions{
		URL:               DefaultExplorerURL,
		Speeds:            []string{"blitz", "rapid", "classical"},
		Ratings:           []int{1600, 1800, 2000, 2200, 2500},
		MaxMoves:          20,
		RateLimitWait:     DefaultRateLimitWait,
		RequestsPerSecond: 4,
	}
}

// Explorer queries the Lichess opening explorer.
type Explorer struct {
	opts    ExplorerOptions
	client  *http.Client
	limiter *rate.Limiter
}

func NewExplorer(opts ExplorerOptions) *Explorer {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	if opts.RateLimitWait <= 0 {
		opts.RateLimitWait = DefaultRateLimitWait
	}
	return &Explorer{opts: opts, client: client, limiter: limiter}
}

func (e *Explorer) url(fen string) string {
	q := url.Values{}
	q.Set("variant", "standard")
	q.Set("fen", fen)
	if e.opts.MaxMoves > 0 {
		q.Set("moves", strconv.Itoa(e.opts.MaxMoves))
	}
	if len(e.opts.Speeds) > 0 {
		q.Set("speeds", strings.Join(e.opts.Speeds, ","))
	}
	if len(e.opts.Ratings) > 0 {
		rs := make([]string, len(e.opts.Ratings))
		for i, r := range e.opts.Ratings {
			rs[i] = strconv.Itoa(r)
		}
		q.Set("ratings", strings.Join(rs, ","))
	}
	return e.opts.URL + "?" + q.Encode()
}

func (e *Explorer) get(ctx context.Context, u string) (*explorerResponse, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		eresp := &explorerResponse{}
		if err := json.NewDecoder(resp.Body).Decode(eresp); err != nil {
			return nil, fmt.Errorf("decoding explorer response: %w", err)
		}
		return eresp, nil
	case http.StatusTooManyRequests:
		return nil, errRateLimited
	}
	return nil, &HTTPError{StatusCode: resp.StatusCode, URL: u}
}

// Moves implements Provider. Rate limiting is waited out indefinitely; any
// other failure is returned.
func (e *Explorer) Moves(ctx context.Context, fen string) (Moves, error) {
	u := e.url(fen)
	var eresp *explorerResponse
	err := retry.Do(
		func() error {
			var err error
			eresp, err = e.get(ctx, u)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(e.opts.RateLimitWait),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, errRateLimited)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Uint("n", n).Dur("wait", e.opts.RateLimitWait).
				Msg("explorer-rate-limited-waiting")
		}),
	)
	if err != nil {
		return nil, err
	}
	return eresp.toMoves(), nil
}

func (r *explorerResponse) toMoves() Moves {
	total := float64(r.White + r.Draws + r.Black)
	if total == 0 {
		return Moves{}
	}
	moves := make(Moves, 0, len(r.Moves))
	for _, m := range r.Moves {
		moves = append(moves, Move{
			Code:      normalizeCastle(m.UCI, m.SAN),
			Frequency: float64(m.White+m.Draws+m.Black) / total,
		})
	}
	return moves
}

// normalizeCastle turns the explorer's king-takes-rook castling codes (e1h1,
// e8a8) into king-destination codes (e1g1, e8c8).
func normalizeCastle(code, san string) string {
	if !strings.HasPrefix(san, "O-O") || len(code) != 4 {
		return code
	}
	switch code[2] {
	case 'h':
		return code[:2] + "g" + code[3:]
	case 'a':
		return code[:2] + "c" + code[3:]
	}
	return code
}
