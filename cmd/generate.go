package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/jcdickinson/snakedoc/internal/render"
	"github.com/jcdickinson/snakedoc/internal/site"
	"github.com/spf13/cobra"
)

var htmlCmd = &cobra.Command{
	Use:     "as-html [directory]",
	Aliases: []string{"as_html"},
	Short:   "Produce a static HTML documentation website",
	Example: `  snakedoc as-html
  snakedoc as-html --output-dir docs/build --overwrite
  snakedoc as-html ./myproject -m mypackage`,
	Args: cobra.MaximumNArgs(1),
	Run:  runHTML,
}

var markdownCmd = &cobra.Command{
	Use:     "as-markdown [directory]",
	Aliases: []string{"as_markdown"},
	Short:   "Produce Markdown documentation, one file per module",
	Example: `  snakedoc as-markdown --output-dir docs/api
  snakedoc as-markdown -m mypackage --exclude-modules tests`,
	Args: cobra.MaximumNArgs(1),
	Run:  runMarkdown,
}

var (
	htmlOutput    string
	htmlOverwrite bool
	htmlExclude   []string

	mdOutput    string
	mdOverwrite bool
	mdExclude   []string
)

func init() {
	htmlCmd.Flags().StringVarP(&htmlOutput, "output-dir", "o", "", `output directory (default "site", relative to the project)`)
	htmlCmd.Flags().BoolVar(&htmlOverwrite, "overwrite", false, "replace a non-empty output directory")
	htmlCmd.Flags().StringSliceVar(&htmlExclude, "exclude-modules", nil, "submodules to leave out, by simple name (repeatable)")

	markdownCmd.Flags().StringVarP(&mdOutput, "output-dir", "o", "", `output directory (default "site", relative to the project)`)
	markdownCmd.Flags().BoolVar(&mdOverwrite, "overwrite", false, "replace a non-empty output directory")
	markdownCmd.Flags().StringSliceVar(&mdExclude, "exclude-modules", nil, "submodules to leave out, by simple name (repeatable)")
}

func runHTML(cmd *cobra.Command, args []string) {
	cfg := loadConfig(projectDir(args))
	ctx := context.Background()

	tree, _, err := buildTree(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to build documentation: %v", err)
	}

	out := outputPath(cfg, htmlOutput)
	r := render.New(tree, renderOptions(cfg, ".html"))
	res, err := site.WriteHTML(ctx, tree, r, site.Options{
		Dir:               out,
		Overwrite:         htmlOverwrite,
		ExcludeSubmodules: append(append([]string(nil), cfg.ExcludeModules...), htmlExclude...),
	})
	if err != nil {
		log.Fatalf("failed to write site: %v", err)
	}
	printWarnings(tree, res)
	fmt.Printf("rendered %d pages into %s\n", res.Pages, out)
}

func runMarkdown(cmd *cobra.Command, args []string) {
	cfg := loadConfig(projectDir(args))
	ctx := context.Background()

	tree, _, err := buildTree(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to build documentation: %v", err)
	}

	out := outputPath(cfg, mdOutput)
	r := render.New(tree, renderOptions(cfg, ".md"))
	res, err := site.WriteMarkdown(ctx, tree, r, site.Options{
		Dir:               out,
		Overwrite:         mdOverwrite,
		ExcludeSubmodules: append(append([]string(nil), cfg.ExcludeModules...), mdExclude...),
	})
	if err != nil {
		log.Fatalf("failed to write documentation: %v", err)
	}
	printWarnings(tree, res)
	fmt.Printf("rendered %d pages into %s\n", res.Pages, out)
}
