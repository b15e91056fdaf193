package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"commentscraper/log"
	"commentscraper/output"
	"commentscraper/reddit"
	"commentscraper/scraper"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var ErrInvalidPath = errors.New("path must be relative and stay inside the output directory")

type Runner interface {
	Scrape(ctx context.Context, opts scraper.Options) (scraper.Result, error)
}

type Handler struct {
	runner   Runner
	defaults scraper.Options
	// every file a request writes lands under outputDir
	outputDir string

	// one scrape at a time: runs already use every worker they may
	mu sync.Mutex
}

func NewHandler(runner Runner, defaults scraper.Options, outputDir string) *Handler {
	return &Handler{runner: runner, defaults: defaults, outputDir: outputDir}
}

func NewRouter(h *Handler, allowOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	config := cors.DefaultConfig()
	if len(allowOrigins) == 0 || slices.Contains(allowOrigins, "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = allowOrigins
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	config.ExposeHeaders = []string{"Content-Length"}
	config.MaxAge = 12 * time.Hour
	r.Use(cors.New(config))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	routes := r.Group("/api")
	{
		routes.POST("/scrape", h.ScrapeHandler)
	}

	return r
}

// ScrapeHandler runs one scrape. Fields missing from the request body
// keep the configured defaults. A requested path is taken relative to the
// output directory.
func (h *Handler) ScrapeHandler(c *gin.Context) {
	opts := h.defaults
	if err := c.ShouldBindJSON(&opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request: %s", err)})
		return
	}
	if opts.Path != "" {
		if !filepath.IsLocal(opts.Path) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s, got %q", ErrInvalidPath, opts.Path)})
			return
		}
		opts.Path = filepath.Join(h.outputDir, opts.Path)
	}
	opts.Dir = h.outputDir

	h.mu.Lock()
	defer h.mu.Unlock()

	res, err := h.runner.Scrape(c.Request.Context(), opts)
	if err != nil {
		log.Error.Printf("scrape of r/%s failed: %v", opts.Subreddit, err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, res)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, scraper.ErrNoSubreddit),
		errors.Is(err, scraper.ErrInvalidSubreddit),
		errors.Is(err, scraper.ErrInvalidSort),
		errors.Is(err, scraper.ErrInvalidTimeFilter),
		errors.Is(err, scraper.ErrInvalidLimit),
		errors.Is(err, output.ErrFileExists):
		return http.StatusBadRequest
	case errors.Is(err, reddit.ErrSubredditNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
