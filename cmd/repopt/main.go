package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/repopt/board"
	"github.com/domino14/repopt/book"
	"github.com/domino14/repopt/cache"
	"github.com/domino14/repopt/config"
	"github.com/domino14/repopt/pgnio"
	"github.com/domino14/repopt/repertoire"
)

func main() {
	start := time.Now()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprint(os.Stderr, cfg.Usage())
		log.Fatal().Err(err).Msg("bad-arguments")
	}
	setLogLevel(cfg.GetString(config.ConfigLogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cfg, os.Stdout)
	stop()
	if err != nil {
		log.Fatal().Err(err).Msg("run-failed")
	}
	log.Info().Str("runtime", fmt.Sprintf("%.2fs", time.Since(start).Seconds())).Msg("done")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "disabled":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
}

func explorerOptions(cfg *config.Config) book.ExplorerOptions {
	opts := book.DefaultExplorerOptions()
	opts.URL = cfg.GetString(config.ConfigExplorerURL)
	opts.Speeds = cfg.GetStringSlice(config.ConfigExplorerSpeeds)
	opts.Ratings = cfg.GetIntSlice(config.ConfigExplorerRatings)
	opts.MaxMoves = cfg.GetInt(config.ConfigExplorerMoves)
	opts.RateLimitWait = cfg.GetDuration(config.ConfigRateLimitWait)
	opts.RequestsPerSecond = cfg.GetFloat64(config.ConfigRequestsPerSecond)
	return opts
}

func run(ctx context.Context, cfg *config.Config, w io.Writer) error {
	output := cfg.GetString(config.ConfigOutput)
	if output != "text" && output != "yaml" {
		return fmt.Errorf("unknown output format %q", output)
	}

	bookCache := cache.New(book.NewExplorer(explorerOptions(cfg)))
	cacheFile := cfg.GetString(config.ConfigCacheFile)
	if cacheFile != "" {
		if err := loadCache(bookCache, cacheFile); err != nil {
			return err
		}
	}

	maxPly := cfg.GetInt(config.ConfigMaxPly)
	white := repertoire.New(board.White, repertoire.WithMaxPly(maxPly))
	black := repertoire.New(board.Black, repertoire.WithMaxPly(maxPly))
	log.Info().Msg("importing-lines")
	importLines(white, cfg.GetStringSlice(config.ConfigWhite))
	importLines(black, cfg.GetStringSlice(config.ConfigBlack))
	optimizers := []*repertoire.Optimizer{white, black}

	log.Info().Msg("checking-book-moves")
	g, gctx := errgroup.WithContext(ctx)
	for _, o := range optimizers {
		o := o
		g.Go(func() error {
			return o.AddOpponentMoves(gctx, bookCache)
		})
	}
	if err := g.Wait(); err != nil {
		// Keep whatever was fetched before the failure.
		if serr := saveCache(bookCache, cacheFile); serr != nil {
			log.Err(serr).Msg("cache-save-failed")
		}
		return err
	}

	for _, o := range optimizers {
		o.SetOwnMoveFrequencies()
		o.UpdatePositionFrequencies()
	}

	report, err := repertoire.BuildReport(optimizers, repertoire.Limits{
		Best:   cfg.GetInt(config.ConfigBest),
		Worst:  cfg.GetInt(config.ConfigWorst),
		Most:   cfg.GetInt(config.ConfigMost),
		Costly: cfg.GetInt(config.ConfigCostly),
	})
	if err != nil {
		return err
	}
	if output == "yaml" {
		err = report.WriteYAML(w)
	} else {
		err = report.WriteText(w, cfg.GetBool(config.ConfigHistogram))
	}
	if err != nil {
		return err
	}
	return saveCache(bookCache, cacheFile)
}

// importLines adds every game found under paths. Unreadable files and bad
// moves are reported and skipped.
func importLines(o *repertoire.Optimizer, paths []string) {
	for _, f := range pgnio.ResolvePaths(paths) {
		games, err := pgnio.ReadFile(f)
		if err != nil {
			log.Warn().Err(err).Str("file", f).Msg("import-failed")
			continue
		}
		log.Info().Str("file", f).Str("owner", o.Owner().String()).Int("games", len(games)).Msg("imported-pgn")
		for _, game := range games {
			if err := o.AddGame(game.Moves); err != nil {
				log.Warn().Err(err).Str("file", f).Msg("bad-move")
			}
		}
	}
}

func loadCache(c *cache.BookCache, path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Info().Str("file", path).Msg("cache-file-not-found-will-create")
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	if err := c.Load(f); err != nil {
		return fmt.Errorf("reading cache file %s: %w", path, err)
	}
	log.Info().Str("file", path).Int("positions", c.Len()).Msg("cache-loaded")
	return nil
}

// saveCache writes the cache if it changed, replacing the file by rename.
func saveCache(c *cache.BookCache, path string) error {
	if path == "" || !c.Dirty() {
		return nil
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".repopt-cache-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := c.Save(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	log.Info().Str("file", path).Int("positions", c.Len()).Msg("cache-saved")
	return nil
}
