package cmd

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var projectConfigCmd = &cobra.Command{
	Use:     "project-configuration [directory]",
	Aliases: []string{"project_configuration"},
	Short:   "Print the resolved project configuration as JSON",
	Args:    cobra.MaximumNArgs(1),
	Run:     runProjectConfiguration,
}

func runProjectConfiguration(cmd *cobra.Command, args []string) {
	cfg := loadConfig(projectDir(args))
	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		log.Fatalf("failed to encode configuration: %v", err)
	}
	fmt.Println(string(out))
}
