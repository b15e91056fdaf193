package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"commentscraper/log"
	"commentscraper/models"
)

// moreChildrenBatch is the number of ids /api/morechildren accepts per call.
const moreChildrenBatch = 100

type moreChildrenResponse struct {
	JSON struct {
		Errors [][]interface{} `json:"errors"`
		Data   struct {
			Things []interface{} `json:"things"`
		} `json:"data"`
	} `json:"json"`
}

// Forest returns the top-level nodes of a post's comment tree. Loaded
// replies are nested under their parent comment.
func (c *Client) Forest(ctx context.Context, post models.Post) ([]models.Node, error) {
	body, err := c.commentPage(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	return parseCommentPage(body)
}

func (c *Client) commentPage(ctx context.Context, postID string) ([]byte, error) {
	key := "comments:" + postID
	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			log.Warn.Printf("cache read for %s failed: %v", key, err)
		} else if ok {
			return cached, nil
		}
	}

	body, err := c.getJSON(ctx, "comments", "/comments/"+url.PathEscape(postID), nil)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, body); err != nil {
			log.Warn.Printf("cache write for %s failed: %v", key, err)
		}
	}
	return body, nil
}

// parseCommentPage reads the [post listing, comment listing] pair the
// comments endpoint answers with.
func parseCommentPage(body []byte) ([]models.Node, error) {
	var result []interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("couldnt unmarshall json: %w", err)
	}
	if len(result) < 2 {
		return nil, fmt.Errorf("insufficient data")
	}

	commentsData, ok := result[1].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid comments data format")
	}

	return parseForest(commentsData)
}

// Expand resolves a "more" placeholder into the nodes it stands for.
func (c *Client) Expand(ctx context.Context, post models.Post, more *models.More) ([]models.Node, error) {
	if more.IsContinuation() {
		return c.continueThread(ctx, post, more)
	}

	var nodes []models.Node
	for start := 0; start < len(more.Children); start += moreChildrenBatch {
		end := min(start+moreChildrenBatch, len(more.Children))

		batch, err := c.moreChildren(ctx, post, more.Children[start:end])
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, batch...)
	}
	return nodes, nil
}

func (c *Client) moreChildren(ctx context.Context, post models.Post, ids []string) ([]models.Node, error) {
	params := url.Values{}
	params.Set("api_type", "json")
	params.Set("link_id", post.Name)
	params.Set("children", strings.Join(ids, ","))
	params.Set("limit_children", "false")

	body, err := c.getJSON(ctx, "morechildren", "/api/morechildren", params)
	if err != nil {
		return nil, err
	}

	var resp moreChildrenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("error decoding morechildren response: %w", err)
	}
	if len(resp.JSON.Errors) > 0 {
		return nil, fmt.Errorf("morechildren for %s returned errors: %v", post.Name, resp.JSON.Errors)
	}

	return parseThings(resp.JSON.Data.Things)
}

// continueThread loads the subtree below the placeholder's parent and
// returns the parent's replies. The parent itself was already visited.
func (c *Client) continueThread(ctx context.Context, post models.Post, more *models.More) ([]models.Node, error) {
	parentID, isComment := strings.CutPrefix(more.ParentID, "t1_")
	if !isComment {
		return c.Forest(ctx, post)
	}

	path := fmt.Sprintf("/comments/%s/_/%s", url.PathEscape(post.ID), url.PathEscape(parentID))
	body, err := c.getJSON(ctx, "comments", path, nil)
	if err != nil {
		return nil, err
	}

	nodes, err := parseCommentPage(body)
	if err != nil {
		return nil, err
	}

	for _, node := range nodes {
		if comment, ok := node.(*models.Comment); ok && comment.ID == parentID {
			return comment.Replies, nil
		}
	}
	return nil, nil
}
