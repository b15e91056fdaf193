package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"commentscraper/collect"
	"commentscraper/log"
	"commentscraper/metrics"
	"commentscraper/models"
	"commentscraper/output"
	"commentscraper/reddit"
	"commentscraper/sink"
	"commentscraper/summarize"
)

var (
	ErrNoSubreddit       = errors.New("subreddit is required")
	ErrInvalidSubreddit  = errors.New("subreddit names are 1 to 21 letters, digits or underscores")
	ErrInvalidSort       = errors.New("sort must be one of top, new, hot")
	ErrInvalidTimeFilter = errors.New("time filter must be one of all, day, month, week, year, hour")
	ErrInvalidLimit      = errors.New("limit must be between 1 and 999")
)

const MaxLimit = 999

var (
	sortModes   = []string{"top", "new", "hot"}
	timeFilters = []string{"all", "day", "month", "week", "year", "hour"}

	subredditName = regexp.MustCompile(`^[A-Za-z0-9_]{1,21}$`)
)

// Client is the forum API the scraper drives.
type Client interface {
	Subreddit(ctx context.Context, name string) (models.Subreddit, error)
	Posts(ctx context.Context, q reddit.ListingQuery) ([]models.Post, error)
	collect.Source
}

type Summarizer interface {
	Summarize(ctx context.Context, subreddit string, rows []models.Row) (string, error)
}

type Options struct {
	Subreddit  string `json:"subreddit"`
	Sort       string `json:"sort"`
	TimeFilter string `json:"time_filter"`
	Limit      int    `json:"limit"`
	Threshold  int    `json:"threshold"`
	Path       string `json:"path"`
	Normalize  bool   `json:"normalize"`
	Parallel   bool   `json:"parallel"`
	Summarize  bool   `json:"summarize"`

	// Dir is where the default file name is placed when Path is empty.
	Dir string `json:"-"`
}

type Result struct {
	Path        string `json:"path"`
	SummaryPath string `json:"summary_path,omitempty"`
	Posts       int    `json:"posts"`
	Rows        int    `json:"rows"`
}

type Scraper struct {
	Client Client
	// Sink receives every run's rows after the CSV is written; may be nil.
	Sink       sink.Sink
	Summarizer Summarizer
	// ReservedWorkers is the CPU margin parallel runs leave free.
	ReservedWorkers int
	Progress        io.Writer
	Now             func() time.Time
}

// Validate checks the options before anything is fetched.
func (o Options) Validate() error {
	if o.Subreddit == "" {
		return ErrNoSubreddit
	}
	if !subredditName.MatchString(o.Subreddit) {
		return fmt.Errorf("%w, got %q", ErrInvalidSubreddit, o.Subreddit)
	}
	if !slices.Contains(sortModes, o.Sort) {
		return fmt.Errorf("%w, got %q", ErrInvalidSort, o.Sort)
	}
	if !slices.Contains(timeFilters, o.TimeFilter) {
		return fmt.Errorf("%w, got %q", ErrInvalidTimeFilter, o.TimeFilter)
	}
	if o.Limit < 1 || o.Limit > MaxLimit {
		return fmt.Errorf("%w, got %d", ErrInvalidLimit, o.Limit)
	}
	if o.Path == "" {
		return nil
	}
	if output.Exists(o.Path) {
		return fmt.Errorf("%w: %s", output.ErrFileExists, o.Path)
	}
	if o.Summarize && output.Exists(summarize.Path(o.Path)) {
		return fmt.Errorf("%w: %s", output.ErrFileExists, summarize.Path(o.Path))
	}
	return nil
}

// Scrape collects the comments of the subreddit's listing and writes them
// to a CSV file, then hands them to the configured sink and summarizer.
func (s *Scraper) Scrape(ctx context.Context, opts Options) (Result, error) {
	start := s.now()
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	if opts.Summarize && s.Summarizer == nil {
		return Result{}, errors.New("summaries requested but no summarizer is configured")
	}

	sub, err := s.Client.Subreddit(ctx, opts.Subreddit)
	if err != nil {
		return Result{}, err
	}
	log.Info.Printf("Scraping r/%s (%s, %s, limit %d)", sub.Name, opts.Sort, opts.TimeFilter, opts.Limit)

	posts, err := s.Client.Posts(ctx, reddit.ListingQuery{
		Subreddit:  opts.Subreddit,
		Sort:       opts.Sort,
		TimeFilter: opts.TimeFilter,
		Limit:      opts.Limit,
	})
	if err != nil {
		return Result{}, fmt.Errorf("listing r/%s: %w", opts.Subreddit, err)
	}

	collector := &collect.Collector{
		Source:    s.Client,
		Threshold: opts.Threshold,
		Normalize: opts.Normalize,
		Parallel:  opts.Parallel,
		Reserved:  s.ReservedWorkers,
		Label:     opts.Subreddit,
		Progress:  s.Progress,
	}
	rows, err := collector.Collect(ctx, posts)
	if err != nil {
		return Result{}, err
	}

	path := opts.Path
	if path == "" {
		path = filepath.Join(opts.Dir, output.DefaultPath(opts.Subreddit, start))
	}
	if err := output.Write(rows, path); err != nil {
		return Result{}, err
	}
	log.Info.Printf("Saved %d rows from %d posts to %s", len(rows), len(posts), path)

	result := Result{Path: path, Posts: len(posts), Rows: len(rows)}

	if s.Sink != nil {
		batch := sink.Batch{Subreddit: opts.Subreddit, ScrapedAt: start, Rows: rows}
		if err := s.Sink.Save(ctx, batch); err != nil {
			return result, fmt.Errorf("saving rows to sinks: %w", err)
		}
	}

	if opts.Summarize {
		digest, err := s.Summarizer.Summarize(ctx, opts.Subreddit, rows)
		if err != nil {
			return result, err
		}
		result.SummaryPath = summarize.Path(path)
		if err := summarize.WriteFile(result.SummaryPath, digest); err != nil {
			return result, fmt.Errorf("writing summary: %w", err)
		}
	}

	mode := "sequential"
	if opts.Parallel {
		mode = "parallel"
	}
	metrics.RunDuration.WithLabelValues(mode).Observe(s.now().Sub(start).Seconds())

	return result, nil
}

func (s *Scraper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
