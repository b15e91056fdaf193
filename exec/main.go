package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"commentscraper/api"
	"commentscraper/cache"
	"commentscraper/config"
	"commentscraper/log"
	"commentscraper/reddit"
	"commentscraper/scraper"
	"commentscraper/sink"
	"commentscraper/summarize"
)

var (
	errNoSubreddit = errors.New("no subreddit given")
	errExtraArgs   = errors.New("flags must come before the subreddit")
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info.Println("Authenticating credentials...")
	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Error.Println("Authentication failed.")
		fatal(err)
	}

	if len(os.Args) > 1 && os.Args[1] == "serve" {
		err = serve(ctx, cfg)
	} else {
		err = scrape(ctx, cfg, os.Args[1:])
	}
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	// print to stderr without a stack trace
	log.Error.Println(err)
	os.Exit(1)
}

func scrape(ctx context.Context, cfg *config.Config, args []string) error {
	opts, err := parseArgs(cfg, args, os.Stderr)
	if err != nil {
		return err
	}

	s, cleanup, err := newScraper(ctx, cfg, opts.Summarize)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := s.Scrape(ctx, opts)
	if err != nil {
		return err
	}

	log.Info.Printf("Done: %d rows from %d posts written to %s", res.Rows, res.Posts, res.Path)
	if res.SummaryPath != "" {
		log.Info.Printf("Summary written to %s", res.SummaryPath)
	}
	return nil
}

// parseArgs reads the scrape flags. Defaults come from the configuration.
func parseArgs(cfg *config.Config, args []string, output io.Writer) (scraper.Options, error) {
	fs := flag.NewFlagSet("scrape", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s [flags] <subreddit>\n       %s serve\n", os.Args[0], os.Args[0])
		fs.PrintDefaults()
	}

	opts := scraper.Options{}
	fs.StringVar(&opts.Subreddit, "subreddit", "", "name of the subreddit without r/")
	fs.StringVar(&opts.Sort, "sort", cfg.Scrape.Sort, "sort posts by top, new or hot")
	fs.StringVar(&opts.TimeFilter, "time", cfg.Scrape.TimeFilter, "time filter for top posts: all, day, month, week, year, hour")
	fs.IntVar(&opts.Limit, "limit", cfg.Scrape.Limit, "number of posts to scrape comments from (max 999)")
	fs.IntVar(&opts.Threshold, "threshold", cfg.Scrape.Threshold, "a comment is kept only if its score is greater than this")
	fs.StringVar(&opts.Path, "path", "", "output CSV path (default <subreddit>_<timestamp>.csv)")
	fs.BoolVar(&opts.Normalize, "normalize", cfg.Scrape.Normalize, "collapse newlines and whitespace in comments")
	fs.BoolVar(&opts.Parallel, "parallel", cfg.Scrape.Parallel, "fetch posts with a worker pool")
	fs.BoolVar(&opts.Summarize, "summarize", cfg.Summarize.Enabled, "write a Bedrock digest of the top comments next to the CSV")
	if err := fs.Parse(args); err != nil {
		return scraper.Options{}, err
	}

	if opts.Subreddit == "" {
		opts.Subreddit = fs.Arg(0)
	}
	if opts.Subreddit == "" {
		fs.Usage()
		return scraper.Options{}, errNoSubreddit
	}
	// flag stops at the first positional argument
	if fs.NArg() > 1 || (fs.NArg() == 1 && opts.Subreddit != fs.Arg(0)) {
		fs.Usage()
		return scraper.Options{}, fmt.Errorf("%w: %q", errExtraArgs, fs.Args())
	}
	return opts, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	s, cleanup, err := newScraper(ctx, cfg, cfg.Summarize.Enabled)
	if err != nil {
		return err
	}
	defer cleanup()

	defaults := scraper.Options{
		Sort:       cfg.Scrape.Sort,
		TimeFilter: cfg.Scrape.TimeFilter,
		Limit:      cfg.Scrape.Limit,
		Threshold:  cfg.Scrape.Threshold,
		Normalize:  cfg.Scrape.Normalize,
		Parallel:   cfg.Scrape.Parallel,
	}
	r := api.NewRouter(api.NewHandler(s, defaults, cfg.Server.OutputDir), cfg.Server.AllowOrigins)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	log.Info.Printf("Starting server on %s", addr)

	errc := make(chan error, 1)
	go func() { errc <- r.Run(addr) }()

	select {
	case err := <-errc:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
		log.Info.Println("Shutting down")
		return nil
	}
}

// newScraper wires the client and the optional cache, sinks and summarizer.
func newScraper(ctx context.Context, cfg *config.Config, withSummaries bool) (*scraper.Scraper, func(), error) {
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn.Printf("cleanup: %v", err)
			}
		}
	}

	var opts []reddit.Option
	if cfg.Redis.Endpoint != "" {
		rc, err := cache.NewRedis(ctx, cfg.Redis.Endpoint, cfg.Redis.TTL)
		if err != nil {
			return nil, func() {}, err
		}
		closers = append(closers, rc.Close)
		opts = append(opts, reddit.WithCache(rc))
		log.Info.Printf("Caching comment pages in Redis at %s", cfg.Redis.Endpoint)
	}

	client := reddit.NewClient(reddit.Config{
		ClientID:     cfg.Reddit.ClientID,
		ClientSecret: cfg.Reddit.ClientSecret,
		UserAgent:    cfg.Reddit.UserAgent,
		AuthURL:      cfg.Reddit.AuthURL,
		APIURL:       cfg.Reddit.APIURL,
		Timeout:      cfg.Reddit.Timeout,
	}, opts...)

	var sinks sink.Multi
	if cfg.SQLite.Path != "" {
		s, err := sink.NewSQLite(cfg.SQLite.Path)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("opening sqlite sink: %w", err)
		}
		sinks = append(sinks, s)
	}
	if cfg.Mongo.URI != "" {
		s, err := sink.NewMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
		if err != nil {
			sinks.Close()
			cleanup()
			return nil, func() {}, err
		}
		sinks = append(sinks, s)
	}
	if cfg.NATS.URL != "" {
		s, err := sink.NewNATS(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			sinks.Close()
			cleanup()
			return nil, func() {}, err
		}
		sinks = append(sinks, s)
	}

	s := &scraper.Scraper{
		Client:          client,
		ReservedWorkers: cfg.Scrape.ReservedWorkers,
	}
	if len(sinks) > 0 {
		s.Sink = sinks
		closers = append(closers, sinks.Close)
	}

	if withSummaries {
		sum, err := summarize.NewBedrock(ctx, cfg.Summarize.Region, cfg.Summarize.ModelID, cfg.Summarize.TopN)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		s.Summarizer = sum
	}

	return s, cleanup, nil
}
