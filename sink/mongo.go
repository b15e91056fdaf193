package sink

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("MongoDB connect error: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("MongoDB ping error: %w", err)
	}

	return &Mongo{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

func (m *Mongo) Save(ctx context.Context, batch Batch) error {
	docs := documents(batch)
	if len(docs) == 0 {
		return nil
	}
	if _, err := m.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("MongoDB insert error: %w", err)
	}
	return nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func documents(batch Batch) []interface{} {
	docs := make([]interface{}, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		docs = append(docs, bson.M{
			"subreddit":  batch.Subreddit,
			"post":       row.Post,
			"author":     row.Author,
			"comment":    row.Comment,
			"upvotes":    row.Upvotes,
			"scraped_at": batch.ScrapedAt,
		})
	}
	return docs
}
