package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spicelab/netcell/internal/mcp"
	"github.com/spicelab/netcell/internal/storage"
	"github.com/spicelab/netcell/pkg/netlist"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version":
			fmt.Printf("netcell MCP Server\n")
			fmt.Printf("Version: %s\n", version)
			fmt.Printf("Build Time: %s\n", buildTime)
			fmt.Printf("Build Mode: %s\n", storage.BuildMode)
			fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
			os.Exit(0)
		case "--check":
			if len(os.Args) < 3 {
				fmt.Fprintln(os.Stderr, "usage: netcell --check <file>")
				os.Exit(2)
			}
			runCheck(os.Args[2])
			return
		}
	}

	// Log startup info to stderr (stdout reserved for MCP protocol)
	log.SetOutput(os.Stderr)
	log.Printf("netcell MCP Server v%s starting...", version)
	log.Printf("Build Mode: %s, Driver: %s", storage.BuildMode, storage.DriverName)

	// Get database path from environment or use default
	dbPath := os.Getenv("NETCELL_DB_PATH")
	if dbPath == "" {
		dbPath = mcp.DefaultDBPath
	}

	// Create MCP server
	server, err := mcp.NewServer(dbPath)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	errChan := make(chan error, 1)
	go func() {
		log.Println("MCP server ready, listening on stdio...")
		errChan <- server.Serve(ctx)
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}

	log.Println("Server stopped")
}

// runCheck parses one netlist file and reports the outcome. The parse
// diagnostic goes to stderr with exit code 1 so scripts can gate on it.
func runCheck(path string) {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "netcell: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	doc, err := netlist.Parse(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "netcell: %s: %v\n", path, err)
		os.Exit(1)
	}

	cells := doc.Cells()
	devices := 0
	for _, cell := range cells {
		devices += len(cell.Instances())
	}
	fmt.Printf("%s: %d cells, %d devices\n", path, len(cells), devices)
}
