package flatten

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"commentscraper/models"

	"github.com/google/go-cmp/cmp"
)

type bogusNode struct{}

func (bogusNode) Key() string { return "bogus" }

func comment(id string, score int, body string, replies ...models.Node) *models.Comment {
	return &models.Comment{
		ID:      id,
		Author:  models.Named("u_" + id),
		Body:    body,
		Score:   score,
		Replies: replies,
	}
}

// expander serves placeholders from a map and counts how often each was resolved.
type expander struct {
	yields map[string][]models.Node
	calls  map[string]int
}

func newExpander(yields map[string][]models.Node) *expander {
	return &expander{yields: yields, calls: map[string]int{}}
}

func (e *expander) expand(_ context.Context, more *models.More) ([]models.Node, error) {
	e.calls[more.ID]++
	nodes, ok := e.yields[more.ID]
	if !ok {
		return nil, fmt.Errorf("unknown placeholder %s", more.ID)
	}
	return nodes, nil
}

func noExpand(context.Context, *models.More) ([]models.Node, error) {
	return nil, errors.New("no placeholders expected")
}

func str(s string) *string { return &s }

func num(n int) *int { return &n }

func TestFlattenExample(t *testing.T) {
	exp := newExpander(map[string][]models.Node{
		"m1": {comment("c2", 3, "low")},
	})
	forest := []models.Node{
		comment("c1", 11, "hi\n\nworld"),
		&models.More{ID: "m1", Children: []string{"c2"}},
	}

	got, err := Flatten(context.Background(), forest, exp.expand, Options{Threshold: 5, Normalize: true})
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}

	want := []models.Fragment{
		{Author: models.Named("u_c1"), Comment: str("hi world"), Upvotes: num(11)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fragments mismatch (-want +got):\n%s", diff)
	}
	if exp.calls["m1"] != 1 {
		t.Errorf("m1 resolved %d times, want 1", exp.calls["m1"])
	}
}

func TestFlattenEmptyForest(t *testing.T) {
	got, err := Flatten(context.Background(), nil, noExpand, Options{Threshold: 5})
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}

	want := []models.Fragment{{Author: models.Absent()}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fragments mismatch (-want +got):\n%s", diff)
	}
}

func TestFlattenThresholdIsExclusive(t *testing.T) {
	tests := []struct {
		score     int
		threshold int
		kept      bool
	}{
		{score: 6, threshold: 5, kept: true},
		{score: 5, threshold: 5, kept: false},
		{score: 4, threshold: 5, kept: false},
		{score: 0, threshold: -1, kept: true},
		{score: -3, threshold: -3, kept: false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("score=%d/threshold=%d", tt.score, tt.threshold), func(t *testing.T) {
			forest := []models.Node{comment("c", tt.score, "body")}
			got, err := Flatten(context.Background(), forest, noExpand, Options{Threshold: tt.threshold})
			if err != nil {
				t.Fatalf("Flatten: %v", err)
			}
			if kept := len(got) == 1; kept != tt.kept {
				t.Errorf("kept = %v, want %v", kept, tt.kept)
			}
		})
	}
}

func TestFlattenResolvesNestedPlaceholders(t *testing.T) {
	// 6 comments and 3 placeholders, two levels of expansion deep
	exp := newExpander(map[string][]models.Node{
		"m1": {comment("c3", 1, "x"), &models.More{ID: "m2", Children: []string{"c4"}}},
		"m2": {comment("c4", 1, "x", comment("c5", 1, "x"))},
		"m3": {},
	})
	forest := []models.Node{
		comment("c1", 1, "x", comment("c2", 1, "x")),
		&models.More{ID: "m1", Children: []string{"c3"}},
		&models.More{ID: "m3", Children: []string{"gone"}},
		comment("c6", 1, "x"),
	}

	got, err := Flatten(context.Background(), forest, exp.expand, Options{Threshold: -100})
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if len(got) != 6 {
		t.Errorf("got %d fragments, want 6", len(got))
	}
	for _, id := range []string{"m1", "m2", "m3"} {
		if exp.calls[id] != 1 {
			t.Errorf("%s resolved %d times, want 1", id, exp.calls[id])
		}
	}
}

func TestFlattenGuardsAgainstCycles(t *testing.T) {
	self := &models.More{ID: "loop", ParentID: "t3_p", Children: []string{"c1"}}
	c1 := comment("c1", 10, "once")
	exp := newExpander(map[string][]models.Node{
		"loop": {c1, self},
	})

	got, err := Flatten(context.Background(), []models.Node{c1, self}, exp.expand, Options{Threshold: 0})
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d fragments, want 1", len(got))
	}
	if exp.calls["loop"] != 1 {
		t.Errorf("placeholder resolved %d times, want 1", exp.calls["loop"])
	}
}

func TestFlattenUnexpectedNode(t *testing.T) {
	forest := []models.Node{comment("c1", 10, "ok"), bogusNode{}}

	_, err := Flatten(context.Background(), forest, noExpand, Options{})
	if !errors.Is(err, models.ErrUnexpectedNode) {
		t.Fatalf("err = %v, want ErrUnexpectedNode", err)
	}
}

func TestFlattenNilNodes(t *testing.T) {
	tests := []struct {
		name string
		node models.Node
	}{
		{"untyped nil", nil},
		{"nil comment", (*models.Comment)(nil)},
		{"nil placeholder", (*models.More)(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forest := []models.Node{comment("c1", 10, "ok"), tt.node}
			_, err := Flatten(context.Background(), forest, noExpand, Options{})
			if !errors.Is(err, models.ErrUnexpectedNode) {
				t.Fatalf("err = %v, want ErrUnexpectedNode", err)
			}
		})
	}
}

func TestFlattenExpandError(t *testing.T) {
	boom := errors.New("boom")
	expand := func(context.Context, *models.More) ([]models.Node, error) { return nil, boom }
	forest := []models.Node{&models.More{ID: "m1", Children: []string{"a"}}}

	_, err := Flatten(context.Background(), forest, expand, Options{})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestFlattenKeepsRawBodyWithoutNormalize(t *testing.T) {
	forest := []models.Node{comment("c1", 10, "**bold**\n\nline")}

	got, err := Flatten(context.Background(), forest, noExpand, Options{Threshold: 5})
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if len(got) != 1 || *got[0].Comment != "**bold**\n\nline" {
		t.Errorf("got %+v, want raw body", got)
	}
}

func TestFlattenOnlyFilteredCommentsYieldsNothing(t *testing.T) {
	forest := []models.Node{comment("c1", 1, "low")}

	got, err := Flatten(context.Background(), forest, noExpand, Options{Threshold: 5})
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d fragments, want 0", len(got))
	}
}
