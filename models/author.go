package models

import (
	"encoding/json"
	"fmt"
)

type AuthorState int

const (
	// AuthorAbsent means there is no comment, so no author was ever recorded.
	AuthorAbsent AuthorState = iota
	// AuthorDeleted means the comment exists but its author account is gone.
	AuthorDeleted
	AuthorPresent
)

// DeletedMarker is what Reddit reports in place of a removed author.
const DeletedMarker = "[deleted]"

func (s AuthorState) String() string {
	switch s {
	case AuthorAbsent:
		return "absent"
	case AuthorDeleted:
		return "deleted"
	case AuthorPresent:
		return "present"
	}
	return fmt.Sprintf("AuthorState(%d)", int(s))
}

type Author struct {
	Name  string      `bson:"name,omitempty"`
	State AuthorState `bson:"state"`
}

func Absent() Author { return Author{State: AuthorAbsent} }

func Deleted() Author { return Author{State: AuthorDeleted} }

func Named(name string) Author { return Author{Name: name, State: AuthorPresent} }

// ParseAuthor maps the author field of an API payload to an Author.
func ParseAuthor(raw string) Author {
	if raw == "" || raw == DeletedMarker {
		return Deleted()
	}
	return Named(raw)
}

// Field renders the author as a single CSV field.
func (a Author) Field() string {
	switch a.State {
	case AuthorPresent:
		return a.Name
	case AuthorDeleted:
		return DeletedMarker
	}
	return ""
}

// MarshalJSON writes a present author as its name, a deleted one as the
// deleted marker and an absent one as null.
func (a Author) MarshalJSON() ([]byte, error) {
	if a.State == AuthorAbsent {
		return []byte("null"), nil
	}
	return json.Marshal(a.Field())
}

func (a *Author) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Absent()
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = ParseAuthor(raw)
	return nil
}
