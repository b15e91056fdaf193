package sink

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"commentscraper/models"

	"go.mongodb.org/mongo-driver/bson"
)

func str(s string) *string { return &s }

func num(n int) *int { return &n }

func testBatch() Batch {
	return Batch{
		Subreddit: "golang",
		ScrapedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Rows: []models.Row{
			{Post: "P", Author: models.Named("A"), Comment: str("hi"), Upvotes: num(11)},
			{Post: "P", Author: models.Deleted(), Comment: str("gone"), Upvotes: num(7)},
			{Post: "Q", Author: models.Absent()},
		},
	}
}

func TestSQLiteSave(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "rows.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer s.Close()

	if err := s.Save(context.Background(), testBatch()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rows, err := s.db.Query(`SELECT post, author, author_state, comment, upvotes FROM comment_rows ORDER BY id`)
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()

	type stored struct {
		post, state string
		author      *string
		comment     *string
		upvotes     *int
	}
	var got []stored
	for rows.Next() {
		var r stored
		if err := rows.Scan(&r.post, &r.author, &r.state, &r.comment, &r.upvotes); err != nil {
			t.Fatal(err)
		}
		got = append(got, r)
	}

	if len(got) != 3 {
		t.Fatalf("stored %d rows, want 3", len(got))
	}
	if *got[0].author != "A" || *got[0].upvotes != 11 || got[0].state != "present" {
		t.Errorf("first row = %+v", got[0])
	}
	if *got[1].author != models.DeletedMarker || got[1].state != "deleted" {
		t.Errorf("second row = %+v", got[1])
	}
	if got[2].author != nil || got[2].comment != nil || got[2].upvotes != nil || got[2].state != "absent" {
		t.Errorf("sentinel row = %+v", got[2])
	}
}

func TestDocuments(t *testing.T) {
	docs := documents(testBatch())
	if len(docs) != 3 {
		t.Fatalf("got %d documents, want 3", len(docs))
	}

	first := docs[0].(bson.M)
	if first["subreddit"] != "golang" || first["post"] != "P" {
		t.Errorf("first document = %v", first)
	}
	if len(documents(Batch{})) != 0 {
		t.Errorf("empty batch produced documents")
	}
}

func TestBatchJSON(t *testing.T) {
	data, err := json.Marshal(testBatch())
	if err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Rows []struct {
			Author  *string `json:"author"`
			Comment *string `json:"comment"`
			Upvotes *int    `json:"upvotes"`
		} `json:"rows"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if got := *decoded.Rows[1].Author; got != models.DeletedMarker {
		t.Errorf("deleted author encoded as %q", got)
	}
	if last := decoded.Rows[2]; last.Author != nil || last.Comment != nil || last.Upvotes != nil {
		t.Errorf("sentinel row encoded as %+v", last)
	}
}

type recordingSink struct {
	saved  int
	closed bool
	err    error
}

func (r *recordingSink) Save(context.Context, Batch) error { r.saved++; return r.err }

func (r *recordingSink) Close() error { r.closed = true; return nil }

func TestMulti(t *testing.T) {
	boom := errors.New("boom")
	a, b := &recordingSink{}, &recordingSink{err: boom}
	m := Multi{a, b}

	if err := m.Save(context.Background(), testBatch()); !errors.Is(err, boom) {
		t.Errorf("Save err = %v, want %v", err, boom)
	}
	if a.saved != 1 || b.saved != 1 {
		t.Errorf("saved a=%d b=%d, want both 1", a.saved, b.saved)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if !a.closed || !b.closed {
		t.Errorf("not every sink was closed")
	}
}
