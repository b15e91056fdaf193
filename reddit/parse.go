package reddit

import (
	"encoding/json"
	"fmt"

	"commentscraper/models"
)

func parseListingChildren(listing map[string]interface{}) ([]interface{}, error) {
	data, ok := listing["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid listing data structure")
	}

	children, ok := data["children"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid listing children data")
	}

	return children, nil
}

// parseForest turns the comment listing of a post into nodes. Replies
// stay nested under their parent comment.
func parseForest(commentsData map[string]interface{}) ([]models.Node, error) {
	children, err := parseListingChildren(commentsData)
	if err != nil {
		return nil, err
	}
	return parseThings(children)
}

func parseThings(things []interface{}) ([]models.Node, error) {
	nodes := make([]models.Node, 0, len(things))
	for _, thing := range things {
		thingMap, ok := thing.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: thing of type %T", models.ErrUnexpectedNode, thing)
		}

		node, err := parseThing(thingMap)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func parseThing(thing map[string]interface{}) (models.Node, error) {
	kind, _ := thing["kind"].(string)
	data, ok := thing["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid data for thing of kind %q", kind)
	}

	switch kind {
	case "t1":
		return parseComment(data)
	case "more":
		return parseMore(data)
	default:
		return nil, fmt.Errorf("%w: found object of kind %q", models.ErrUnexpectedNode, kind)
	}
}

func parseComment(commentData map[string]interface{}) (*models.Comment, error) {
	var comment models.Comment
	var err error

	comment.ID, err = getString(commentData, "id")
	if err != nil {
		return nil, err
	}

	comment.Body, err = getString(commentData, "body")
	if err != nil {
		return nil, err
	}

	comment.Score, err = getInt(commentData, "score")
	if err != nil {
		return nil, err
	}

	author, _ := getString(commentData, "author")
	comment.Author = models.ParseAuthor(author)
	comment.Name, _ = getString(commentData, "name")
	comment.ParentID, _ = getString(commentData, "parent_id")

	// "replies" is an empty string when there are none
	if replies, ok := commentData["replies"].(map[string]interface{}); ok {
		comment.Replies, err = parseForest(replies)
		if err != nil {
			return nil, fmt.Errorf("error parsing replies of %s: %w", comment.ID, err)
		}
	}

	return &comment, nil
}

func parseMore(moreData map[string]interface{}) (*models.More, error) {
	var more models.More
	var err error

	more.ID, err = getString(moreData, "id")
	if err != nil {
		return nil, err
	}

	more.Count, _ = getInt(moreData, "count")
	more.Name, _ = getString(moreData, "name")
	more.ParentID, _ = getString(moreData, "parent_id")

	if children, ok := moreData["children"].([]interface{}); ok {
		for _, child := range children {
			id, ok := child.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected child id type %T in more %s", child, more.ID)
			}
			more.Children = append(more.Children, id)
		}
	}

	return &more, nil
}

func parsePost(postMap map[string]interface{}) (models.Post, error) {
	var post models.Post
	var err error

	post.ID, err = getString(postMap, "id")
	if err != nil {
		return models.Post{}, err
	}

	post.Title, err = getString(postMap, "title")
	if err != nil {
		return models.Post{}, err
	}

	post.Name, _ = getString(postMap, "name")
	post.Subreddit, _ = getString(postMap, "subreddit")
	post.Permalink, _ = getString(postMap, "permalink")
	post.Author, _ = getString(postMap, "author")
	post.Score, _ = getInt(postMap, "score")
	post.NumComments, _ = getInt(postMap, "num_comments")
	if post.Name == "" {
		post.Name = "t3_" + post.ID
	}

	return post, nil
}

func decodeObject(body []byte) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("couldnt unmarshall json: %w", err)
	}
	return result, nil
}

func getString(m map[string]interface{}, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("key %s not found", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("value for key %s is not a string", key)
	}
	return s, nil
}

func getInt(m map[string]interface{}, key string) (int, error) {
	v, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("key %s not found", key)
	}
	switch i := v.(type) {
	case float64:
		return int(i), nil
	case int:
		return i, nil
	default:
		return 0, fmt.Errorf("unexpected type for key %s", key)
	}
}
