// Package sink stores collected rows somewhere besides the CSV file.
package sink

import (
	"context"
	"errors"
	"time"

	"commentscraper/models"
)

// Batch is the set of rows produced by one scrape run.
type Batch struct {
	Subreddit string       `json:"subreddit"`
	ScrapedAt time.Time    `json:"scraped_at"`
	Rows      []models.Row `json:"rows"`
}

type Sink interface {
	Save(ctx context.Context, batch Batch) error
	Close() error
}

// Multi fans a batch out to several sinks and joins their errors.
type Multi []Sink

func (m Multi) Save(ctx context.Context, batch Batch) error {
	var errs []error
	for _, s := range m {
		if err := s.Save(ctx, batch); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
