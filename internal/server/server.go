// Package server assembles the HTTP surface: status and health endpoints,
// the browser-facing search endpoint, the JSON-RPC tool endpoint and the
// Prometheus metrics handler.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xsenlabs/video-mcp/internal/audit"
	"github.com/xsenlabs/video-mcp/internal/cache"
	"github.com/xsenlabs/video-mcp/internal/catalog"
	"github.com/xsenlabs/video-mcp/internal/config"
	"github.com/xsenlabs/video-mcp/internal/mcp"
	"github.com/xsenlabs/video-mcp/internal/render"
	"github.com/xsenlabs/video-mcp/internal/search"
)

// ServiceName identifies the service in status responses and RPC handshakes.
const ServiceName = "xsen-video-mcp"

const searchToolName = "search_xsen_videos"

var httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "xsen_http_requests_total",
	Help: "HTTP requests served, labeled by route and status code.",
}, []string{"route", "code"})

// Options carries server dependencies.
type Options struct {
	Config  config.Config
	Store   *catalog.Store
	Cache   *cache.Cache
	Audit   *audit.Logger
	Version string
}

// Server wraps the gin engine and application dependencies.
type Server struct {
	cfg     config.Config
	store   *catalog.Store
	cache   *cache.Cache
	audit   *audit.Logger
	engine  *gin.Engine
	rpc     *mcp.Server
	started time.Time
}

// New creates a server instance and registers all routes and tools.
func New(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:     opts.Config,
		store:   opts.Store,
		cache:   opts.Cache,
		audit:   opts.Audit,
		engine:  r,
		started: time.Now(),
	}

	reg := mcp.NewRegistry()
	reg.Register(mcp.ToolDescriptor{
		Name:        searchToolName,
		Description: "Search the XSEN video catalog and return embeddable results.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search terms matched against video titles and descriptions.",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of results to return.",
					"default":     search.DefaultLimit,
				},
			},
			"required": []string{"query"},
		},
	}, s.searchTool)

	s.rpc = mcp.New(mcp.Options{
		ServerName:  ServiceName,
		Version:     opts.Version,
		Registry:    reg,
		AuthEnabled: opts.Config.Auth.Enabled,
		AuthSecret:  opts.Config.Auth.Secret,
	})

	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.Use(func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	})

	s.engine.GET("/", s.handleStatus)
	s.engine.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	s.engine.GET("/videos", s.handleVideos)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine.POST("/mcp", gin.WrapH(s.rpc))
	s.engine.OPTIONS("/mcp", gin.WrapH(s.rpc))
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": ServiceName,
		"videos":  s.store.Count(),
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

// videoResult is one entry in the /videos response body.
type videoResult struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	VideoID     string `json:"videoId,omitempty"`
	EmbedURL    string `json:"embedUrl,omitempty"`
	Score       int    `json:"score"`
}

func (s *Server) handleVideos(c *gin.Context) {
	// One snapshot per request: generation for the cache key and the ranked
	// entries must come from the same catalog.
	snap := s.store.Snapshot()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": render.LoadingMessage})
		return
	}

	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": render.NoQueryMessage})
		return
	}

	limit := search.DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	start := time.Now()
	key := cache.Key(snap.Generation, strings.ToLower(query), limit)
	if body, ok := s.cache.Get(key); ok {
		s.audit.Log(audit.Entry{
			Source:   "http",
			Query:    query,
			Limit:    limit,
			Cached:   true,
			Duration: time.Since(start),
		})
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
		return
	}

	matches := search.Rank(snap, query, limit)
	results := make([]videoResult, 0, len(matches))
	for _, m := range matches {
		res := videoResult{
			Title:       m.Entry.Title,
			Description: m.Entry.Description,
			URL:         m.Entry.URL,
			Score:       m.Score,
		}
		if id := m.Entry.VideoID(); id != "" {
			res.VideoID = id
			res.EmbedURL = render.EmbedURL(s.cfg.Player.BaseURL, id)
		}
		results = append(results, res)
	}

	body, err := json.Marshal(gin.H{"results": results})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	s.cache.Set(key, body)

	s.audit.Log(audit.Entry{
		Source:   "http",
		Query:    query,
		Limit:    limit,
		Results:  len(results),
		Duration: time.Since(start),
	})
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// searchTool backs the search_xsen_videos tool. It always returns renderable
// text; only transport-level failures surface as errors.
func (s *Server) searchTool(ctx context.Context, args map[string]interface{}) (string, error) {
	query, _ := args["query"].(string)
	query = strings.TrimSpace(query)

	limit := search.DefaultLimit
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	if query == "" {
		return render.NoQueryMessage, nil
	}
	snap := s.store.Snapshot()
	if snap == nil {
		return render.LoadingMessage, nil
	}

	start := time.Now()
	matches := search.Rank(snap, query, limit)
	text := render.Render(matches, s.cfg.Player.BaseURL)

	s.audit.Log(audit.Entry{
		Source:   "mcp",
		Tool:     searchToolName,
		Query:    query,
		Limit:    limit,
		Results:  len(matches),
		Duration: time.Since(start),
	})
	return text, nil
}

// Listen binds the configured TCP port. Binding is split from serving so
// background tasks can start only once the port is actually held.
func (s *Server) Listen() (net.Listener, error) {
	return net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Server.Port))
}

// Serve runs the HTTP server on the listener until ctx is canceled, then
// drains in-flight requests with a bounded shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
