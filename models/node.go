package models

import "errors"

// ErrUnexpectedNode is returned when a comment forest contains something
// that is neither a comment nor a "more" placeholder.
var ErrUnexpectedNode = errors.New("unexpected object found in comment list")

// Node is an entry of a comment forest. The only variants are *Comment and *More.
type Node interface {
	// Key identifies the node within one post's forest.
	Key() string
}

type Comment struct {
	ID       string
	Name     string
	ParentID string
	Author   Author
	Body     string
	Score    int
	Replies  []Node
}

func (c *Comment) Key() string { return "t1_" + c.ID }

// More stands in for comments that have not been loaded yet.
type More struct {
	ID       string
	Name     string
	ParentID string
	Count    int
	Children []string
}

func (m *More) Key() string { return "more_" + m.ID + "@" + m.ParentID }

// IsContinuation reports whether the placeholder is a "continue this
// thread" link, which carries no child ids and must be resolved by
// loading the parent comment's subtree.
func (m *More) IsContinuation() bool {
	return len(m.Children) == 0 || m.ID == "_"
}
