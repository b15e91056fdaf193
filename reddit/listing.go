package reddit

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"commentscraper/models"
)

// pageSize is the largest page the listing endpoints serve.
const pageSize = 100

type ListingQuery struct {
	Subreddit  string
	Sort       string
	TimeFilter string
	Limit      int
}

// Posts walks the subreddit listing page by page until limit posts were
// read or the listing runs out.
func (c *Client) Posts(ctx context.Context, q ListingQuery) ([]models.Post, error) {
	var posts []models.Post
	after := ""

	for len(posts) < q.Limit {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(min(pageSize, q.Limit-len(posts))))
		if q.Sort == "top" {
			params.Set("t", q.TimeFilter)
		}
		if after != "" {
			params.Set("after", after)
			params.Set("count", strconv.Itoa(len(posts)))
		}

		path := fmt.Sprintf("/r/%s/%s", url.PathEscape(q.Subreddit), q.Sort)
		body, err := c.getJSON(ctx, "listing", path, params)
		if err != nil {
			return nil, err
		}

		page, next, err := parsePostPage(body)
		if err != nil {
			return nil, fmt.Errorf("couldnt parse listing of r/%s: %w", q.Subreddit, err)
		}
		posts = append(posts, page...)

		if next == "" || len(page) == 0 {
			break
		}
		after = next
	}

	if len(posts) > q.Limit {
		posts = posts[:q.Limit]
	}
	return posts, nil
}

func parsePostPage(body []byte) ([]models.Post, string, error) {
	listing, err := decodeObject(body)
	if err != nil {
		return nil, "", err
	}

	children, err := parseListingChildren(listing)
	if err != nil {
		return nil, "", err
	}

	posts := make([]models.Post, 0, len(children))
	for _, child := range children {
		childMap, ok := child.(map[string]interface{})
		if !ok {
			continue
		}
		postMap, ok := childMap["data"].(map[string]interface{})
		if !ok {
			continue
		}

		post, err := parsePost(postMap)
		if err != nil {
			return nil, "", err
		}
		posts = append(posts, post)
	}

	after, _ := getString(listing["data"].(map[string]interface{}), "after")
	return posts, after, nil
}
