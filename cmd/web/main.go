package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/peterkuimelis/rift/internal/log"
	"github.com/peterkuimelis/rift/internal/web"
)

func main() {
	port := flag.Int("port", 8080, "HTTP port to listen on")
	decksFile := flag.String("decks", "decks.yaml", "path to decks YAML file")
	level := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	format := flag.String("log-format", "console", "log format (console, json)")
	flag.Parse()

	logger, err := log.NewProcessLogger(*level, *format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	srv := web.NewServer(*decksFile, logger)

	addr := fmt.Sprintf(":%d", *port)
	if err := srv.ListenAndServe(addr); err != nil {
		logger.Error("server stopped", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}
