package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/server"

	"github.com/meltforce/ironlog/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("url", "", "ironlog server URL (e.g. https://ironlog.tail1234.ts.net)")
	token := flag.String("token", os.Getenv("IRONLOG_TOKEN"), "bearer token for jwt auth mode")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("ironlog-mcp", Version)
		return
	}

	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: ironlog-mcp -url <server URL> [-token <jwt>]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// stdout carries the protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	client := mcp.NewHTTPClient(strings.TrimRight(*serverURL, "/"), *token)
	if err := server.ServeStdio(mcp.New(client, Version, log)); err != nil {
		log.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
