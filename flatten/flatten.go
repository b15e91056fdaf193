// Package flatten turns a post's comment forest into a flat list of
// comments that clear an upvote threshold.
package flatten

import (
	"context"
	"fmt"

	"commentscraper/metrics"
	"commentscraper/models"
)

// ExpandFunc resolves a "more" placeholder. It usually performs network I/O.
type ExpandFunc func(ctx context.Context, more *models.More) ([]models.Node, error)

type Options struct {
	// Threshold is exclusive: a comment is kept only if its score is greater.
	Threshold int
	Normalize bool
}

// Flatten drains a work list seeded with the forest. Comments above the
// threshold become fragments; placeholders are expanded and their nodes
// pushed back on the list. Nodes are taken from the end of the list.
//
// An empty forest yields a single sentinel fragment so the post is still
// recorded. Every node is processed at most once, even if an expansion
// yields a node that was already seen.
func Flatten(ctx context.Context, forest []models.Node, expand ExpandFunc, opts Options) ([]models.Fragment, error) {
	if len(forest) == 0 {
		return []models.Fragment{models.Sentinel()}, nil
	}

	work := make([]models.Node, len(forest))
	copy(work, forest)
	seen := make(map[string]struct{}, len(forest))

	var fragments []models.Fragment
	for len(work) > 0 {
		node := work[len(work)-1]
		work = work[:len(work)-1]

		if isNil(node) {
			return nil, fmt.Errorf("%w: found nil node", models.ErrUnexpectedNode)
		}
		if _, dup := seen[node.Key()]; dup {
			continue
		}
		seen[node.Key()] = struct{}{}

		switch n := node.(type) {
		case *models.Comment:
			if n.Score > opts.Threshold {
				fragments = append(fragments, fragment(n, opts.Normalize))
				metrics.CommentsKept.Inc()
			} else {
				metrics.CommentsFiltered.Inc()
			}
			work = append(work, n.Replies...)

		case *models.More:
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			nodes, err := expand(ctx, n)
			if err != nil {
				return nil, fmt.Errorf("expanding more comments %s: %w", n.ID, err)
			}
			metrics.PlaceholdersExpanded.Inc()
			work = append(work, nodes...)

		default:
			return nil, fmt.Errorf("%w: found object of type %T", models.ErrUnexpectedNode, node)
		}
	}

	return fragments, nil
}

// isNil also catches typed nils, whose Key would dereference nil.
func isNil(node models.Node) bool {
	switch n := node.(type) {
	case nil:
		return true
	case *models.Comment:
		return n == nil
	case *models.More:
		return n == nil
	}
	return false
}

func fragment(c *models.Comment, normalize bool) models.Fragment {
	body := c.Body
	if normalize {
		body = Normalize(body)
	}
	score := c.Score
	return models.Fragment{
		Author:  c.Author,
		Comment: &body,
		Upvotes: &score,
	}
}
