package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/jcdickinson/snakedoc/internal/config"
	"github.com/jcdickinson/snakedoc/internal/doc"
	"github.com/jcdickinson/snakedoc/internal/docstring"
	"github.com/jcdickinson/snakedoc/internal/extract"
	"github.com/jcdickinson/snakedoc/internal/render"
	"github.com/jcdickinson/snakedoc/internal/site"
	"github.com/spf13/cobra"
)

var (
	configFile  string
	moduleFlags []string
)

var rootCmd = &cobra.Command{
	Use:   "snakedoc",
	Short: "Documentation websites for Python packages",
	Long: `snakedoc documents Python packages by importing them and inspecting
what they export. It renders Markdown or a static HTML website, serves
the site locally with rebuild-on-change, publishes to GitHub Pages, and
keeps a searchable local index for the doc, search, and mcp commands.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config-file", "c", "pyproject.toml", "config file name, relative to the project directory")
	rootCmd.PersistentFlags().StringSliceVarP(&moduleFlags, "module", "m", nil, "module to document (repeatable, overrides config)")

	rootCmd.AddCommand(htmlCmd)
	rootCmd.AddCommand(markdownCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(inBrowserCmd)
	rootCmd.AddCommand(pagesCmd)
	rootCmd.AddCommand(projectConfigCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(packagesCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(docCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(clearCacheCmd)
}

// projectDir resolves the optional positional project directory argument.
func projectDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// loadConfig reads the project configuration and applies flag overrides.
func loadConfig(directory string) *config.Config {
	cfg, err := config.Load(directory, configFile)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if len(moduleFlags) > 0 {
		cfg.Modules = moduleFlags
	}
	return cfg
}

// buildTree extracts and assembles the documentation tree for the
// configured modules. The provider is returned so callers can reach
// interpreter metadata.
func buildTree(ctx context.Context, cfg *config.Config) (*doc.Tree, *extract.PyProvider, error) {
	if len(cfg.Modules) == 0 {
		return nil, nil, fmt.Errorf("no modules to document; pass --module or list them under [tool.snakedoc] in %s", configFile)
	}
	provider := &extract.PyProvider{
		Python: cfg.Python,
		Dir:    cfg.Directory,
		Cache:  &extract.Cache{Dir: config.DumpCacheDir()},
	}
	tree, err := doc.Build(ctx, provider, cfg.Modules, doc.Options{ExcludeSource: cfg.ExcludeSource})
	if err != nil {
		return nil, nil, err
	}
	return tree, provider, nil
}

func renderOptions(cfg *config.Config, ext string) render.Options {
	return render.Options{
		Ext:           ext,
		Title:         cfg.Title,
		Style:         docstring.Style(cfg.DocstringStyle),
		ExternalLinks: cfg.ExternalLinks,
		TemplateDir:   cfg.TemplatesDir,
	}
}

// outputPath resolves the output directory, relative paths against the
// project directory.
func outputPath(cfg *config.Config, flagValue string) string {
	dir := cfg.OutputDir
	if flagValue != "" {
		dir = flagValue
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(cfg.Directory, dir)
	}
	return dir
}

func printWarnings(tree *doc.Tree, res *site.Result) {
	warns := append(append([]doc.Warning(nil), tree.Warnings...), res.Warnings...)
	sort.Slice(warns, func(i, j int) bool { return warns[i].Name < warns[j].Name })
	for _, w := range warns {
		fmt.Fprintf(os.Stderr, "warning: %s: %s\n", w.Name, w.Detail)
	}
}
