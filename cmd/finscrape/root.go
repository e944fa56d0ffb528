package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"github.com/use-agent/finscrape/cache"
	"github.com/use-agent/finscrape/config"
	"github.com/use-agent/finscrape/engine"
	"github.com/use-agent/finscrape/finviz"
)

// app holds the clients shared by every subcommand.
type app struct {
	cfg      *config.Config
	engine   *engine.HTTPEngine
	pages    *cache.Cache
	stock    *finviz.Stock
	screener *finviz.Screener
}

func (a *app) open() {
	a.cfg = config.Load()
	initLogger(a.cfg.Log)

	a.engine = engine.NewHTTPEngine(a.cfg.Fetch)
	a.pages = cache.New(a.cfg.Cache.MaxEntries, a.cfg.Cache.TTL)
	a.stock = finviz.NewStock(a.engine, a.pages, a.cfg.Fetch.BaseURL)
	a.screener = finviz.NewScreener(a.engine, a.cfg.Fetch.BaseURL, finviz.ScreenerOptions{
		PageSize:       a.cfg.Screener.PageSize,
		AllowPartial:   a.cfg.Screener.AllowPartial,
		MaxConcurrency: a.cfg.Fetch.MaxConcurrency,
	})
	slog.Debug("finscrape ready", "base_url", a.cfg.Fetch.BaseURL)
}

func (a *app) close() {
	if a.pages != nil {
		a.pages.Stop()
	}
	if a.engine != nil {
		a.engine.Close()
	}
}

// newRootCmd builds the command tree. The caller closes a after Execute.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "finscrape",
		Short:         "Read quote, news, ratings and screener data from finviz",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.open()
		},
	}

	root.AddCommand(
		fundCmd(a),
		insiderCmd(a),
		newsCmd(a),
		allNewsCmd(a),
		cryptoCmd(a),
		ratingsCmd(a),
		screenerCmd(a),
	)
	return root
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = w.Write(pretty.Pretty(b))
	return err
}
