package output

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"commentscraper/models"
)

var ErrFileExists = errors.New("output file already exists")

var header = []string{"post", "author", "comment", "upvotes"}

// DefaultPath names the output file after the subreddit and the time of the run.
func DefaultPath(subreddit string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", subreddit, now.Format("2006-01-02_15-04-05"))
}

// Exists reports whether something is already at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Write stores rows at path as CSV with every field quoted. Missing parent
// directories are created; an existing file is never overwritten. An empty
// row set produces a header-only file.
func Write(rows []models.Row, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrFileExists, path)
		}
		return err
	}

	w := bufio.NewWriter(f)
	writeRecord(w, header)
	for _, row := range rows {
		writeRecord(w, record(row))
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func record(row models.Row) []string {
	var comment, upvotes string
	if row.Comment != nil {
		comment = *row.Comment
	}
	if row.Upvotes != nil {
		upvotes = strconv.Itoa(*row.Upvotes)
	}
	return []string{row.Post, row.Author.Field(), comment, upvotes}
}

// writeRecord quotes every field, doubling embedded quotes, and ends the
// line with CRLF.
func writeRecord(w *bufio.Writer, fields []string) {
	for i, field := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(field, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteString("\r\n")
}
