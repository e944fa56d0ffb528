package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/use-agent/finscrape/export"
	"github.com/use-agent/finscrape/finviz"
	"github.com/use-agent/finscrape/models"
)

func fundCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fund TICKER",
		Short: "Print the fundamentals of a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.stock.Fundamentals(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	}
}

func insiderCmd(a *app) *cobra.Command {
	var asTable bool
	cmd := &cobra.Command{
		Use:   "insider TICKER",
		Short: "Print recent insider transactions of a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := a.stock.Insider(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asTable {
				export.WriteTable(cmd.OutOrStdout(), nil, rows)
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().BoolVar(&asTable, "table", false, "print a text table instead of JSON")
	return cmd
}

func newsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "news TICKER",
		Short: "Print the news headlines of a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.stock.News(cmd.Context(), args[0])
			if err != nil && len(items) == 0 {
				return err
			}
			if werr := writeJSON(cmd.OutOrStdout(), items); werr != nil {
				return werr
			}
			return err
		},
	}
}

func allNewsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "all-news",
		Short: "Print the site-wide news list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.stock.AllNews(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), items)
		},
	}
}

func cryptoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "crypto PAIR",
		Short: "Print the performance of a crypto pair, e.g. BTCUSD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.stock.Crypto(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	}
}

func ratingsCmd(a *app) *cobra.Command {
	var last int
	cmd := &cobra.Command{
		Use:   "ratings TICKER",
		Short: "Print the most recent analyst ratings of a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := a.stock.AnalystRatings(cmd.Context(), args[0], last)
			if err != nil && !isRowError(err) {
				return err
			}
			if err != nil {
				cmd.PrintErrln("skipped malformed rows:", err)
			}
			return writeJSON(cmd.OutOrStdout(), recs)
		},
	}
	cmd.Flags().IntVar(&last, "last", 5, "number of ratings to print (0 for all)")
	return cmd
}

// isRowError reports whether err only describes rows that failed to parse.
func isRowError(err error) bool {
	return errors.Is(err, models.ErrTimestampParse) || errors.Is(err, models.ErrParse)
}

func screenerCmd(a *app) *cobra.Command {
	var (
		q      finviz.ScreenerQuery
		table  bool
		csvDir string
	)
	cmd := &cobra.Command{
		Use:   "screener",
		Short: "Run a screener search",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.screener.Search(cmd.Context(), q)
			if res == nil {
				return err
			}
			if err != nil {
				cmd.PrintErrln("some pages failed:", err)
			}

			if csvDir != "" {
				path, err := export.SaveCSV(csvDir, res.Headers, res.Records)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "wrote", path)
				return nil
			}
			if table {
				export.WriteTable(cmd.OutOrStdout(), res.Headers, res.Records)
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), res.Records)
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&q.Tickers, "ticker", nil, "tickers to include")
	f.StringSliceVar(&q.Filters, "filter", nil, "screener filters, e.g. cap_large")
	f.IntVar(&q.Rows, "rows", 0, "maximum rows to read (0 for all)")
	f.StringVar(&q.Order, "order", "", "sort order, e.g. -price")
	f.StringVar(&q.Signal, "signal", "", "signal filter")
	f.StringVar(&q.Table, "view", finviz.DefaultTable, "screener view (Overview, Valuation, Ownership, Performance, Custom, Financial, Technical)")
	f.BoolVar(&table, "table", false, "print a text table instead of JSON")
	f.StringVar(&csvDir, "csv", "", "write the results as CSV into this directory")
	return cmd
}
