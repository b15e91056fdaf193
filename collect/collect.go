package collect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"commentscraper/flatten"
	"commentscraper/log"
	"commentscraper/metrics"
	"commentscraper/models"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// Source is the part of the forum client the collector needs.
type Source interface {
	Forest(ctx context.Context, post models.Post) ([]models.Node, error)
	Expand(ctx context.Context, post models.Post, more *models.More) ([]models.Node, error)
}

type Collector struct {
	Source    Source
	Threshold int
	Normalize bool
	Parallel  bool
	// Workers overrides the pool size of parallel runs when positive.
	Workers int
	// Reserved is how many CPUs a parallel run leaves free.
	Reserved int
	// Label names the listing in progress output.
	Label    string
	Progress io.Writer
}

// Collect flattens the comments of every post and tags them with the post
// title. Sequential runs keep listing order; parallel runs give each post
// its own batch and merge them once all workers are done.
func (c *Collector) Collect(ctx context.Context, posts []models.Post) ([]models.Row, error) {
	if c.Parallel {
		return c.collectParallel(ctx, posts)
	}
	return c.collectSequential(ctx, posts)
}

func (c *Collector) collectSequential(ctx context.Context, posts []models.Post) ([]models.Row, error) {
	if len(posts) == 0 {
		return nil, nil
	}

	out := c.Progress
	if out == nil {
		out = os.Stderr
	}
	bar := progressbar.NewOptions(len(posts),
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(fmt.Sprintf("Scraping post comments for %s", c.Label)),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(out) }),
	)

	var rows []models.Row
	for _, post := range posts {
		batch, err := c.post(ctx, post)
		if err != nil {
			return nil, err
		}
		rows = append(rows, batch...)
		bar.Add(1)
	}
	bar.Finish()

	return rows, nil
}

func (c *Collector) collectParallel(ctx context.Context, posts []models.Post) ([]models.Row, error) {
	workers := c.workers()
	log.Info.Printf("Scraping %d posts of %s with %d workers", len(posts), c.Label, workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	// one slot per post, written by exactly one worker
	batches := make([][]models.Row, len(posts))
	for i, post := range posts {
		g.Go(func() error {
			batch, err := c.post(gctx, post)
			if err != nil {
				return err
			}
			batches[i] = batch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var rows []models.Row
	for _, batch := range batches {
		rows = append(rows, batch...)
	}
	return rows, nil
}

// post collects the rows of one post. Only an unexpected node shape is
// fatal; a post whose comments cannot be fetched is logged and skipped.
func (c *Collector) post(ctx context.Context, post models.Post) ([]models.Row, error) {
	rows, err := c.flattenPost(ctx, post)
	switch {
	case err == nil:
		metrics.PostsScraped.Inc()
		return rows, nil
	case errors.Is(err, models.ErrUnexpectedNode):
		return nil, err
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		metrics.PostsSkipped.Inc()
		log.Warn.Printf("skipping post %s (%q): %v", post.ID, post.Title, err)
		return nil, nil
	}
}

func (c *Collector) flattenPost(ctx context.Context, post models.Post) ([]models.Row, error) {
	forest, err := c.Source.Forest(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("fetching comments of %s: %w", post.ID, err)
	}

	expand := func(ctx context.Context, more *models.More) ([]models.Node, error) {
		return c.Source.Expand(ctx, post, more)
	}

	fragments, err := flatten.Flatten(ctx, forest, expand, flatten.Options{
		Threshold: c.Threshold,
		Normalize: c.Normalize,
	})
	if err != nil {
		return nil, fmt.Errorf("post %s (%q): %w", post.ID, post.Title, err)
	}

	rows := make([]models.Row, 0, len(fragments))
	for _, f := range fragments {
		rows = append(rows, f.Row(post.Title))
	}
	return rows, nil
}

// workers is the pool size: the configured count, or the CPUs left after
// the reserved margin, never less than one.
func (c *Collector) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return max(1, runtime.NumCPU()-c.Reserved)
}
