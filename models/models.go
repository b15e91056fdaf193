package models

type Post struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Subreddit   string `json:"subreddit"`
	Permalink   string `json:"permalink"`
	Author      string `json:"author"`
	Score       int    `json:"score"`
	NumComments int    `json:"num_comments"`
}

type Subreddit struct {
	Name        string `json:"display_name"`
	FullName    string `json:"name"`
	Quarantined bool   `json:"quarantine"`
}

type Fragment struct {
	Author  Author  `json:"author"`
	Comment *string `json:"comment"`
	Upvotes *int    `json:"upvotes"`
}

// Row is one output line: a fragment tagged with the title of the post it belongs to.
type Row struct {
	Post    string  `json:"post" bson:"post"`
	Author  Author  `json:"author" bson:"author"`
	Comment *string `json:"comment" bson:"comment"`
	Upvotes *int    `json:"upvotes" bson:"upvotes"`
}

func (f Fragment) Row(post string) Row {
	return Row{
		Post:    post,
		Author:  f.Author,
		Comment: f.Comment,
		Upvotes: f.Upvotes,
	}
}

// Sentinel is the fragment recorded for a post with no comments at all.
func Sentinel() Fragment {
	return Fragment{Author: Absent()}
}
