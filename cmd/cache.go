package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/jcdickinson/snakedoc/internal/config"
	"github.com/spf13/cobra"
)

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Clear cached extraction dumps",
	Long: `Delete the cached interpreter dumps. The next build re-imports every
module instead of reusing dumps whose source files are unchanged.`,
	Run: runClearCache,
}

func runClearCache(cmd *cobra.Command, args []string) {
	if err := os.RemoveAll(config.DumpCacheDir()); err != nil {
		log.Fatalf("failed to clear cache: %v", err)
	}
	fmt.Println("extraction cache cleared")
}
