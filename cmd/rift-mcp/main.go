package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	riftmcp "github.com/peterkuimelis/rift/internal/mcp"
)

func main() {
	decks := flag.String("decks", "decks.yaml", "path to decks YAML file")
	flag.Parse()

	riftmcp.SetDecksFile(*decks)

	s := server.NewMCPServer("rift", "1.0.0", server.WithToolCapabilities(false))
	riftmcp.RegisterTools(s)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
