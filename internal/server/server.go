// Package server runs the local documentation server. Pages are rendered
// into memory and re-extracted whenever the Python sources change on disk,
// so a browser refresh is enough to see edits.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jcdickinson/snakedoc/internal/doc"
	"github.com/jcdickinson/snakedoc/internal/extract"
	"github.com/jcdickinson/snakedoc/internal/render"
	"github.com/jcdickinson/snakedoc/internal/site"
)

// Options configures a documentation server.
type Options struct {
	Host string
	Port int

	// Python is the interpreter used for extraction, Dir the project
	// directory it runs in.
	Python  string
	Dir     string
	Modules []string

	// CacheDir, when non-empty, persists extraction dumps between runs.
	CacheDir string

	Render            render.Options
	ExcludeSource     bool
	ExcludeSubmodules []string

	// OnReady is called once the listener is accepting, with the root URL.
	OnReady func(url string)
}

// Server serves rendered documentation over HTTP.
type Server struct {
	opts  Options
	cache *extract.Cache

	group singleflight.Group
	mu    sync.RWMutex
	built *buildResult
}

// buildResult is one immutable snapshot of the rendered site. files is the
// source manifest the snapshot was built from; when any of those files
// changes on disk the snapshot is stale.
type buildResult struct {
	pages   map[string][]byte
	index   []byte
	files   map[string]float64
	builtAt time.Time
}

func New(opts Options) *Server {
	opts.Render.Ext = ".html"
	s := &Server{opts: opts}
	if opts.CacheDir != "" {
		s.cache = &extract.Cache{Dir: opts.CacheDir}
	}
	return s
}

// ListenAndServe builds the documentation once, then serves it until ctx is
// canceled. A failing initial build is fatal; failures during rebuilds are
// reported to the browser instead so the server survives broken edits.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if _, err := s.ensure(); err != nil {
		return fmt.Errorf("building documentation: %w", err)
	}

	addr := net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: gzhttp.GzipHandler(s.routes())}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	url := "http://" + ln.Addr().String() + "/"
	log.Printf("server: serving documentation at %s", url)
	if s.opts.OnReady != nil {
		s.opts.OnReady(url)
	}

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /style.css", asset("text/css; charset=utf-8", site.StyleCSS))
	mux.HandleFunc("GET /search.js", asset("application/javascript; charset=utf-8", site.SearchJS))
	mux.HandleFunc("GET /search_index.json", s.handleSearchIndex)
	mux.HandleFunc("GET /", s.handlePage)
	return mux
}

func asset(contentType string, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write(body)
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	built, err := s.ensure()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if name == "" {
		name = "index.html"
	}
	page, ok := built.pages[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleSearchIndex(w http.ResponseWriter, r *http.Request) {
	built, err := s.ensure()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(built.index)
}

// ensure returns the current snapshot, rebuilding it first if any source
// file changed. Concurrent requests share one rebuild.
func (s *Server) ensure() (*buildResult, error) {
	s.mu.RLock()
	built := s.built
	s.mu.RUnlock()
	if built != nil && extract.Fresh(built.files) {
		return built, nil
	}

	v, err, _ := s.group.Do("rebuild", func() (interface{}, error) {
		s.mu.RLock()
		cur := s.built
		s.mu.RUnlock()
		if cur != nil && cur != built && extract.Fresh(cur.files) {
			return cur, nil
		}

		if built != nil {
			log.Printf("server: sources changed, rebuilding")
		}
		// Rebuilds run detached so a canceled request cannot abort a
		// build other requests are waiting on.
		res, err := s.build(context.Background())
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.built = res
		s.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*buildResult), nil
}

// build extracts, renders, and indexes everything into a new snapshot. A
// fresh provider per build keeps snapshots independent of each other.
func (s *Server) build(ctx context.Context) (*buildResult, error) {
	start := time.Now()
	provider := &extract.PyProvider{Python: s.opts.Python, Dir: s.opts.Dir, Cache: s.cache}
	tree, err := doc.Build(ctx, provider, s.opts.Modules, doc.Options{ExcludeSource: s.opts.ExcludeSource})
	if err != nil {
		return nil, err
	}

	r := render.New(tree, s.opts.Render)
	modules := site.Collect(tree, s.opts.ExcludeSubmodules)

	res := &buildResult{
		pages:   make(map[string][]byte, len(modules)+1),
		files:   provider.Files(),
		builtAt: time.Now(),
	}
	warns := append([]doc.Warning(nil), tree.Warnings...)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, m := range modules {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, pageWarns, err := r.HTMLPage(m)
			if err != nil {
				return err
			}
			mu.Lock()
			res.pages[render.PagePath(m.Name, ".html")] = content
			warns = append(warns, pageWarns...)
			mu.Unlock()
			return nil
		})
	}
	g.Go(func() error {
		content, err := r.IndexPage()
		if err != nil {
			return err
		}
		mu.Lock()
		res.pages["index.html"] = content
		mu.Unlock()
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.index, err = site.SearchIndex(r, modules)
	if err != nil {
		return nil, err
	}

	sort.Slice(warns, func(i, j int) bool { return warns[i].Name < warns[j].Name })
	for _, w := range warns {
		log.Printf("server: warning: %s: %s", w.Name, w.Detail)
	}
	log.Printf("server: rendered %d pages in %s", len(res.pages), time.Since(start).Round(time.Millisecond))
	return res, nil
}
