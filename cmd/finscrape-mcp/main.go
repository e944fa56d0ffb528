package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/finscrape/cache"
	"github.com/use-agent/finscrape/config"
	"github.com/use-agent/finscrape/engine"
	"github.com/use-agent/finscrape/finviz"
)

func main() {
	cfg := config.Load()

	// stdout carries the MCP stream.
	slog.SetDefault(slog.New(cfg.Log.Handler(os.Stderr)))

	eng := engine.NewHTTPEngine(cfg.Fetch)
	defer eng.Close()
	pages := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	defer pages.Stop()

	stock := finviz.NewStock(eng, pages, cfg.Fetch.BaseURL)
	screener := finviz.NewScreener(eng, cfg.Fetch.BaseURL, finviz.ScreenerOptions{
		PageSize:       cfg.Screener.PageSize,
		AllowPartial:   true,
		MaxConcurrency: cfg.Fetch.MaxConcurrency,
	})

	s := server.NewMCPServer(
		"finscrape",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	tickerArg := mcp.WithString("ticker",
		mcp.Required(),
		mcp.Description("Stock symbol, e.g. AAPL"),
	)

	s.AddTool(mcp.NewTool("get_fundamentals",
		mcp.WithDescription("Company profile and every snapshot metric (P/E, EPS, volatility, ...) from the ticker's quote page."),
		tickerArg,
	), handleTicker(func(ctx context.Context, t string) (any, error) {
		return stock.Fundamentals(ctx, t)
	}))

	s.AddTool(mcp.NewTool("get_insider_trades",
		mcp.WithDescription("Recent insider transactions of a ticker."),
		tickerArg,
	), handleTicker(func(ctx context.Context, t string) (any, error) {
		return stock.Insider(ctx, t)
	}))

	s.AddTool(mcp.NewTool("get_news",
		mcp.WithDescription("News headlines of a ticker, newest first, with timestamps and sources."),
		tickerArg,
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := request.RequireString("ticker")
		if err != nil {
			return mcp.NewToolResultError("ticker is required"), nil
		}
		items, err := stock.News(ctx, ticker)
		return toolResult(keepPartial(items, err, "ticker", ticker))
	})

	s.AddTool(mcp.NewTool("get_all_news",
		mcp.WithDescription("Site-wide market news headlines."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		items, err := stock.AllNews(ctx)
		return toolResult(items, err)
	})

	s.AddTool(mcp.NewTool("get_crypto",
		mcp.WithDescription("Performance row of a crypto pair."),
		mcp.WithString("pair",
			mcp.Required(),
			mcp.Description("Crypto pair, e.g. BTCUSD"),
		),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pair, err := request.RequireString("pair")
		if err != nil {
			return mcp.NewToolResultError("pair is required"), nil
		}
		rec, err := stock.Crypto(ctx, pair)
		return toolResult(rec, err)
	})

	s.AddTool(mcp.NewTool("get_analyst_ratings",
		mcp.WithDescription("Most recent analyst rating changes and price targets of a ticker."),
		tickerArg,
		mcp.WithNumber("last",
			mcp.Description("Number of ratings to return (default: 5, 0 for all)"),
		),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := request.RequireString("ticker")
		if err != nil {
			return mcp.NewToolResultError("ticker is required"), nil
		}
		recs, err := stock.AnalystRatings(ctx, ticker, request.GetInt("last", 5))
		return toolResult(keepPartial(recs, err, "ticker", ticker))
	})

	s.AddTool(mcp.NewTool("run_screener",
		mcp.WithDescription("Run a stock screener search and return one record per matching row."),
		mcp.WithArray("tickers",
			mcp.Description("Restrict results to these tickers"),
		),
		mcp.WithArray("filters",
			mcp.Description("Screener filter codes, e.g. cap_large, sec_technology"),
		),
		mcp.WithNumber("rows",
			mcp.Description("Maximum rows to return (default: all)"),
		),
		mcp.WithString("order",
			mcp.Description("Sort order, e.g. -marketcap"),
		),
		mcp.WithString("view",
			mcp.Description("Screener view (default: Overview)"),
			mcp.Enum("Overview", "Valuation", "Ownership", "Performance", "Custom", "Financial", "Technical"),
		),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q := finviz.ScreenerQuery{
			Tickers: request.GetStringSlice("tickers", nil),
			Filters: request.GetStringSlice("filters", nil),
			Rows:    request.GetInt("rows", 0),
			Order:   request.GetString("order", ""),
			Table:   request.GetString("view", finviz.DefaultTable),
		}
		res, err := screener.Search(ctx, q)
		if res == nil {
			return toolResult(nil, err)
		}
		if err != nil {
			slog.Warn("screener pages failed", "error", err)
		}
		return toolResult(res.Records, nil)
	})

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// handleTicker adapts a per-ticker lookup to a tool handler.
func handleTicker(fn func(ctx context.Context, ticker string) (any, error)) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := request.RequireString("ticker")
		if err != nil {
			return mcp.NewToolResultError("ticker is required"), nil
		}
		v, err := fn(ctx, ticker)
		return toolResult(v, err)
	}
}

// keepPartial drops err when items were parsed before it occurred.
func keepPartial[T any](items []T, err error, logArgs ...any) ([]T, error) {
	if err != nil && len(items) > 0 {
		slog.Warn("returning partial results", append(logArgs, "error", err)...)
		return items, nil
	}
	return items, err
}

// toolResult renders v as JSON text, or err as a tool error.
func toolResult(v any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
