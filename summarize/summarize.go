package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"commentscraper/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// Invoker is the part of the Bedrock runtime client used here.
type Invoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type Summarizer struct {
	invoker Invoker
	modelID string
	topN    int
}

func New(invoker Invoker, modelID string, topN int) *Summarizer {
	if topN <= 0 {
		topN = 5
	}
	return &Summarizer{invoker: invoker, modelID: modelID, topN: topN}
}

// NewBedrock builds a Summarizer on the default AWS credential chain.
func NewBedrock(ctx context.Context, region, modelID string, topN int) (*Summarizer, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return New(bedrockruntime.NewFromConfig(cfg), modelID, topN), nil
}

type thread struct {
	title    string
	comments []models.Row
}

// groupByPost keeps posts in first-seen order and drops sentinel rows.
func groupByPost(rows []models.Row) []thread {
	var threads []thread
	index := map[string]int{}
	for _, row := range rows {
		i, ok := index[row.Post]
		if !ok {
			i = len(threads)
			index[row.Post] = i
			threads = append(threads, thread{title: row.Post})
		}
		if row.Comment != nil && row.Upvotes != nil {
			threads[i].comments = append(threads[i].comments, row)
		}
	}
	return threads
}

func getTopComments(comments []models.Row, n int) []models.Row {
	sorted := append([]models.Row(nil), comments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return *sorted[i].Upvotes > *sorted[j].Upvotes
	})

	n = min(len(sorted), n)
	return sorted[:n]
}

func formatThread(t thread, n int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s]\n", t.title)
	for _, c := range getTopComments(t.comments, n) {
		fmt.Fprintf(&sb, "\t[%s] [%d] {%s}\n", c.Author.Field(), *c.Upvotes, *c.Comment)
	}
	return sb.String()
}

// Summarize asks the model for a short digest of every post that kept at
// least one comment.
func (s *Summarizer) Summarize(ctx context.Context, subreddit string, rows []models.Row) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# r/%s\n\n", subreddit)

	for _, t := range groupByPost(rows) {
		if len(t.comments) == 0 {
			continue
		}

		summary, err := s.summarizeThread(ctx, subreddit, t)
		if err != nil {
			return "", fmt.Errorf("summarizing %q: %w", t.title, err)
		}
		fmt.Fprintf(&sb, "## %s\n\n%s\n\n", t.title, strings.TrimSpace(summary))
	}

	return sb.String(), nil
}

func (s *Summarizer) summarizeThread(ctx context.Context, subreddit string, t thread) (string, error) {
	systemPrompt := fmt.Sprintf(`
        You summarize discussions from the r/%s community. Given a post title and its most upvoted comments, please:
        1. Filter out non-productive or irrelevant comments
        2. Give more weight to comments with higher score
        3. Generate a summary with 2-4 bullet points
        4. Keep a neutral tone and third person

        Data format:
        [post title]
            [author] [score] {comment}

        Respond with ONLY THE SUMMARY.
    `, subreddit)

	reqbody, err := json.Marshal(map[string]interface{}{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        1024,
		"system":            systemPrompt,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]string{
					{
						"type": "text",
						"text": "Analyze the following data:\n\n" + formatThread(t, s.topN),
					},
				},
			},
		},
		"temperature": 0,
	})
	if err != nil {
		return "", fmt.Errorf("error creating request body: %w", err)
	}

	resp, err := s.invoker.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(s.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        reqbody,
	})
	if err != nil {
		return "", fmt.Errorf("couldn't hit bedrock properly: %w", err)
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return "", fmt.Errorf("couldn't unmarshal the result: %w", err)
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("completion not found in the response")
	}

	return result.Content[0].Text, nil
}

// Path derives the digest file name from the CSV path.
func Path(csvPath string) string {
	return strings.TrimSuffix(csvPath, ".csv") + "_summary.md"
}

// WriteFile stores the digest, refusing to overwrite an existing file.
func WriteFile(path, digest string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(digest); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
