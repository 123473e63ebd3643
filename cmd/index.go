package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jcdickinson/snakedoc/internal/config"
	"github.com/jcdickinson/snakedoc/internal/db"
	"github.com/jcdickinson/snakedoc/internal/render"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [module ...]",
	Short: "Index package documentation for offline search",
	Long: `Import each module, extract its documentation, and store the flattened
entries in the local index used by the search, doc, and mcp commands.
Indexing imports the module, so it must be importable from the project
directory.`,
	Example: `  snakedoc add requests
  snakedoc add mypackage -d ./myproject`,
	Args: cobra.MinimumNArgs(1),
	Run:  runAdd,
}

var addDirectory string

func init() {
	addCmd.Flags().StringVarP(&addDirectory, "directory", "d", ".", "project directory to import from")
}

func runAdd(cmd *cobra.Command, args []string) {
	cfg := loadConfig(addDirectory)
	cfg.Modules = args
	ctx := context.Background()

	tree, provider, err := buildTree(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to extract documentation: %v", err)
	}

	database, err := db.New(config.DBPath())
	if err != nil {
		log.Fatalf("failed to open index: %v", err)
	}
	defer database.Close()

	r := render.New(tree, renderOptions(cfg, ".html"))
	entries := r.Entries()
	python := provider.PythonVersion()

	for _, root := range tree.Roots {
		pkg, err := database.UpsertPackage(root.Name, python)
		if err != nil {
			log.Fatalf("failed to register %s: %v", root.Name, err)
		}
		if err := database.DeleteEntitiesByPackage(pkg.ID); err != nil {
			log.Fatalf("failed to clear stale entries for %s: %v", root.Name, err)
		}

		count := 0
		seen := make(map[string]bool)
		for i := range entries {
			e := &entries[i]
			if e.Module != root.Name && !strings.HasPrefix(e.Module, root.Name+".") {
				continue
			}
			if seen[e.Qualname] {
				continue
			}
			seen[e.Qualname] = true
			err := database.InsertEntity(&db.Entity{
				PackageID: pkg.ID,
				Qualname:  e.Qualname,
				Module:    e.Module,
				Kind:      e.Kind,
				Signature: e.Signature,
				Summary:   e.Summary,
				Doc:       e.Doc,
				URLPath:   e.Path,
			})
			if err != nil {
				log.Fatalf("failed to index %s: %v", e.Qualname, err)
			}
			count++
		}
		if err := database.MarkPackageIndexed(pkg.ID); err != nil {
			log.Fatalf("failed to finish %s: %v", root.Name, err)
		}
		fmt.Printf("  %s: %d entries indexed (python %s)\n", root.Name, count, python)
	}
}

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "List indexed packages",
	Run:   runPackages,
}

func runPackages(cmd *cobra.Command, args []string) {
	database, err := db.New(config.DBPath())
	if err != nil {
		log.Fatalf("failed to open index: %v", err)
	}
	defer database.Close()

	packages, err := database.ListPackages()
	if err != nil {
		log.Fatalf("failed to list packages: %v", err)
	}

	if len(packages) == 0 {
		fmt.Println("no packages indexed")
		return
	}
	for _, p := range packages {
		state := "pending"
		if p.IndexedAt != nil {
			state = "indexed " + p.IndexedAt.Format("2006-01-02")
		}
		fmt.Printf("  %s: %d entries (python %s, %s)\n", p.Name, p.Entities, p.Python, state)
	}
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed package documentation",
	Example: `  snakedoc search "parse a url"
  snakedoc search --package requests session
  snakedoc search --limit 5 widget`,
	Args: cobra.ExactArgs(1),
	Run:  runSearch,
}

var (
	searchPackages []string
	searchLimit    int
)

func init() {
	searchCmd.Flags().StringSliceVar(&searchPackages, "package", nil, "filter to specific packages (repeatable)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "max results")
}

func runSearch(cmd *cobra.Command, args []string) {
	database, err := db.New(config.DBPath())
	if err != nil {
		log.Fatalf("failed to open index: %v", err)
	}
	defer database.Close()

	results, err := database.SearchEntities(args[0], searchPackages, searchLimit)
	if err != nil {
		log.Fatalf("search failed: %v", err)
	}

	if len(results) == 0 {
		fmt.Println("no results")
		return
	}
	for i, r := range results {
		fmt.Printf("%d. %s (%s) in %s\n", i+1, r.Qualname, r.Kind, r.Package)
		if r.Summary != "" {
			fmt.Printf("   %s\n", r.Summary)
		}
	}
}

var docCmd = &cobra.Command{
	Use:   "doc <qualname>",
	Short: "Show indexed documentation for one qualified name",
	Example: `  snakedoc doc requests.Session.get
  snakedoc doc mypackage.helpers`,
	Args: cobra.ExactArgs(1),
	Run:  runDoc,
}

func runDoc(cmd *cobra.Command, args []string) {
	database, err := db.New(config.DBPath())
	if err != nil {
		log.Fatalf("failed to open index: %v", err)
	}
	defer database.Close()

	entity, err := database.GetEntityByQualname(args[0])
	if err != nil {
		log.Fatalf("lookup failed: %v", err)
	}
	if entity == nil {
		log.Fatalf("nothing indexed for %s; index its package first with `snakedoc add`", args[0])
	}
	_ = database.TouchPackage(entity.PackageID)

	fmt.Printf("%s (%s)\n", entity.Qualname, entity.Kind)
	if entity.Signature != "" {
		name := entity.Qualname[strings.LastIndex(entity.Qualname, ".")+1:]
		fmt.Printf("%s%s\n", name, entity.Signature)
	}
	if entity.Doc != "" {
		fmt.Println()
		fmt.Println(strings.TrimSpace(entity.Doc))
	}
}
