package sink

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite appends rows to a local database file.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	s := &SQLite{db: db}
	if err := s.initDB(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLite) initDB() error {
	query := `
	CREATE TABLE IF NOT EXISTS comment_rows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subreddit TEXT NOT NULL,
		post TEXT NOT NULL,
		author TEXT,
		author_state TEXT NOT NULL,
		comment TEXT,
		upvotes INTEGER,
		scraped_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_subreddit ON comment_rows(subreddit);
	CREATE INDEX IF NOT EXISTS idx_scraped_at ON comment_rows(scraped_at);
	`

	_, err := s.db.Exec(query)
	return err
}

// Save inserts the whole batch in one transaction.
func (s *SQLite) Save(ctx context.Context, batch Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO comment_rows (subreddit, post, author, author_state, comment, upvotes, scraped_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range batch.Rows {
		var author sql.NullString
		if row.Author.Field() != "" {
			author = sql.NullString{String: row.Author.Field(), Valid: true}
		}

		_, err := stmt.ExecContext(ctx,
			batch.Subreddit,
			row.Post,
			author,
			row.Author.State.String(),
			row.Comment,
			row.Upvotes,
			batch.ScrapedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite insert: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
