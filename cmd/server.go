package cmd

import (
	"context"
	"log"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/jcdickinson/snakedoc/internal/config"
	"github.com/jcdickinson/snakedoc/internal/server"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:     "server [directory]",
	Short:   "Serve documentation locally, rebuilding when sources change",
	Example: `  snakedoc server
  snakedoc server ./myproject --port 9000
  snakedoc server --open`,
	Args: cobra.MaximumNArgs(1),
	Run:  runServer,
}

var inBrowserCmd = &cobra.Command{
	Use:     "in-browser [directory]",
	Aliases: []string{"in_browser"},
	Short:   "Serve documentation locally and open it in a browser",
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		serverOpen = true
		runServer(cmd, args)
	},
}

var (
	serverPort int
	serverHost string
	serverOpen bool
)

func init() {
	serverCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "port to bind (default from config: 8000)")
	serverCmd.Flags().StringVar(&serverHost, "host", "", "host to bind (default from config: 127.0.0.1)")
	serverCmd.Flags().BoolVar(&serverOpen, "open", false, "open the documentation in a browser once serving")

	inBrowserCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "port to bind (default from config: 8000)")
	inBrowserCmd.Flags().StringVar(&serverHost, "host", "", "host to bind (default from config: 127.0.0.1)")
}

func runServer(cmd *cobra.Command, args []string) {
	cfg := loadConfig(projectDir(args))
	if len(cfg.Modules) == 0 {
		log.Fatalf("no modules to document; pass --module or list them under [tool.snakedoc] in %s", configFile)
	}
	if serverPort != 0 {
		cfg.Port = serverPort
	}
	if serverHost != "" {
		cfg.Host = serverHost
	}

	srv := server.New(server.Options{
		Host:              cfg.Host,
		Port:              cfg.Port,
		Python:            cfg.Python,
		Dir:               cfg.Directory,
		Modules:           cfg.Modules,
		CacheDir:          config.DumpCacheDir(),
		Render:            renderOptions(cfg, ".html"),
		ExcludeSource:     cfg.ExcludeSource,
		ExcludeSubmodules: cfg.ExcludeModules,
		OnReady: func(url string) {
			if serverOpen {
				openBrowser(url)
			}
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func openBrowser(url string) {
	bin := "xdg-open"
	if runtime.GOOS == "darwin" {
		bin = "open"
	}
	if err := exec.Command(bin, url).Start(); err != nil {
		log.Printf("failed to open browser: %v", err)
	}
}
