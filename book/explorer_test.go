package book

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func testExplorer(endpoint string) *Explorer {
	opts := DefaultExplorerOptions()
	opts.URL = endpoint
	opts.RateLimitWait = time.Millisecond
	opts.RequestsPerSecond = 0
	return NewExplorer(opts)
}

func TestExplorerMoves(t *testing.T) {
	is := is.New(t)
	var gotQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		fmt.Fprint(w, `{"white": 50, "draws": 20, "black": 30, "moves": [
			{"uci": "e2e4", "san": "e4", "white": 30, "draws": 10, "black": 20, "averageRating": 2000},
			{"uci": "e1h1", "san": "O-O", "white": 5, "draws": 5, "black": 0, "averageRating": 2100},
			{"uci": "e1a1", "san": "O-O-O", "white": 1, "draws": 0, "black": 1, "averageRating": 1900}
		]}`)
	}))
	defer srv.Close()

	moves, err := testExplorer(srv.URL).Moves(context.Background(), startFEN)
	is.NoErr(err)
	assert.Equal(t, Moves{
		{Code: "e2e4", Frequency: 0.6},
		{Code: "e1g1", Frequency: 0.1},
		{Code: "e1c1", Frequency: 0.02},
	}, moves)

	q := gotQuery.Load().(url.Values)
	is.Equal(q["fen"], []string{startFEN})
	is.Equal(q["variant"], []string{"standard"})
	is.Equal(q["moves"], []string{"20"})
	is.Equal(q["speeds"], []string{"blitz,rapid,classical"})
	is.Equal(q["ratings"], []string{"1600,1800,2000,2200,2500"})
}

func TestExplorerNoGames(t *testing.T) {
	is := is.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"white": 0, "draws": 0, "black": 0, "moves": []}`)
	}))
	defer srv.Close()

	moves, err := testExplorer(srv.URL).Moves(context.Background(), startFEN)
	is.NoErr(err)
	is.Equal(len(moves), 0)
}

func TestExplorerRetriesWhenRateLimited(t *testing.T) {
	is := is.New(t)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"white": 1, "draws": 0, "black": 1, "moves": [
			{"uci": "d2d4", "san": "d4", "white": 1, "draws": 0, "black": 1}]}`)
	}))
	defer srv.Close()

	moves, err := testExplorer(srv.URL).Moves(context.Background(), startFEN)
	is.NoErr(err)
	is.Equal(calls.Load(), int32(4))
	is.Equal(moves, Moves{{Code: "d2d4", Frequency: 1.0}})
}

func TestExplorerHTTPError(t *testing.T) {
	is := is.New(t)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testExplorer(srv.URL).Moves(context.Background(), startFEN)
	is.True(errors.Is(err, ErrHTTP))
	var herr *HTTPError
	is.True(errors.As(err, &herr))
	is.Equal(herr.StatusCode, http.StatusInternalServerError)
	// Not retried.
	is.Equal(calls.Load(), int32(1))
}

func TestExplorerStopsOnCancel(t *testing.T) {
	is := is.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := testExplorer(srv.URL).Moves(ctx, startFEN)
	is.True(err != nil)
}

func TestNormalizeCastle(t *testing.T) {
	is := is.New(t)
	is.Equal(normalizeCastle("e8h8", "O-O"), "e8g8")
	is.Equal(normalizeCastle("e8a8", "O-O-O"), "e8c8")
	is.Equal(normalizeCastle("e1g1", "O-O"), "e1g1")
	is.Equal(normalizeCastle("h2h4", "h4"), "h2h4")
}
