package cmd

import (
	"context"
	"log"
	"os"

	"github.com/jcdickinson/snakedoc/internal/ghpages"
	"github.com/jcdickinson/snakedoc/internal/render"
	"github.com/jcdickinson/snakedoc/internal/site"
	"github.com/spf13/cobra"
)

var pagesCmd = &cobra.Command{
	Use:     "on-github-pages [directory]",
	Aliases: []string{"on_github_pages"},
	Short:   "Render the documentation website and push it to GitHub Pages",
	Long: `Render the HTML website into a staging directory and commit it onto the
gh-pages branch of this project's git repository, preserving the
branch's history. The branch is pushed to the configured remote.`,
	Example: `  snakedoc on-github-pages
  snakedoc on-github-pages --message "Docs for v1.2"
  snakedoc on-github-pages --force`,
	Args: cobra.MaximumNArgs(1),
	Run:  runPages,
}

var (
	pagesMessage string
	pagesRemote  string
	pagesBranch  string
	pagesForce   bool
)

func init() {
	pagesCmd.Flags().StringVar(&pagesMessage, "message", "", `commit message (default "Update documentation")`)
	pagesCmd.Flags().StringVar(&pagesRemote, "remote", "origin", "git remote to push to")
	pagesCmd.Flags().StringVar(&pagesBranch, "branch", "gh-pages", "branch to publish")
	pagesCmd.Flags().BoolVar(&pagesForce, "force", false, "force push, replacing a diverged remote branch")
}

func runPages(cmd *cobra.Command, args []string) {
	cfg := loadConfig(projectDir(args))
	ctx := context.Background()

	tree, _, err := buildTree(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to build documentation: %v", err)
	}

	staging, err := os.MkdirTemp("", "snakedoc-site-*")
	if err != nil {
		log.Fatalf("failed to create staging directory: %v", err)
	}
	defer os.RemoveAll(staging)

	r := render.New(tree, renderOptions(cfg, ".html"))
	res, err := site.WriteHTML(ctx, tree, r, site.Options{
		Dir:               staging,
		Overwrite:         true,
		ExcludeSubmodules: cfg.ExcludeModules,
	})
	if err != nil {
		log.Fatalf("failed to write site: %v", err)
	}
	printWarnings(tree, res)

	err = ghpages.Deploy(ctx, cfg.Directory, staging, ghpages.Options{
		Remote:  pagesRemote,
		Branch:  pagesBranch,
		Message: pagesMessage,
		Force:   pagesForce,
	})
	if err != nil {
		log.Fatalf("failed to publish: %v", err)
	}
}
