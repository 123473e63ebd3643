package cmd

import (
	"log"
	"os"
	"path/filepath"

	"github.com/jcdickinson/snakedoc/internal/config"
	"github.com/jcdickinson/snakedoc/internal/db"
	"github.com/jcdickinson/snakedoc/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the documentation index to MCP clients over stdio",
	Long: `Run as an MCP server. stdout carries the protocol, so diagnostics go to
the log file shown by snakedoc logs.`,
	Run: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) {
	logPath := config.LogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Fatalf("failed to create log directory: %v", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatalf("failed to open log file: %v", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	database, err := db.New(config.DBPath())
	if err != nil {
		log.Fatalf("failed to open index: %v", err)
	}
	defer database.Close()

	log.Printf("mcp: serving documentation index from %s", config.DBPath())
	if err := mcp.NewServer(database).Run(); err != nil {
		log.Fatalf("mcp server failed: %v", err)
	}
}
