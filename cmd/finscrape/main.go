package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/use-agent/finscrape/config"
)

func main() {
	a := &app{}
	err := newRootCmd(a).Execute()
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// initLogger configures slog based on the LogConfig. Logs go to stderr so
// stdout carries only command output.
func initLogger(cfg config.LogConfig) {
	slog.SetDefault(slog.New(cfg.Handler(os.Stderr)))
}
