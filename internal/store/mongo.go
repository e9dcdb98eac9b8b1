package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mingle/internal/models"
)

const (
	postsCollection = "posts"
	connectTimeout  = 10 * time.Second
)

// MongoStore is the PostStore backed by a managed MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	posts  *mongo.Collection
}

// OpenMongo connects to the document database and ensures the unique id index.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if strings.TrimSpace(database) == "" {
		return nil, fmt.Errorf("mongo database is required")
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	posts := client.Database(database).Collection(postsCollection)
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := posts.Indexes().CreateOne(ctx, indexModel); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ensure posts index: %w", err)
	}

	return &MongoStore{client: client, posts: posts}, nil
}

func (s *MongoStore) Create(ctx context.Context, post *models.Post) error {
	if post == nil || strings.TrimSpace(post.ID) == "" {
		return errInvalidPost
	}
	post.NormalizeForWrite()

	_, err := s.posts.InsertOne(ctx, post)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errDuplicateID
		}
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.posts.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Post
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	for i := range out {
		out[i].NormalizeForRead()
	}
	return out, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := s.posts.FindOne(ctx, bson.D{{Key: "id", Value: id}}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get post %s: %w", id, err)
	}
	post.NormalizeForRead()
	return &post, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	result, err := s.posts.DeleteOne(ctx, bson.D{{Key: "id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Exists(ctx context.Context, id string) (bool, error) {
	count, err := s.posts.CountDocuments(ctx, bson.D{{Key: "id", Value: id}}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count posts: %w", err)
	}
	return count > 0, nil
}

func (s *MongoStore) CountMediaRefs(ctx context.Context, mediaURL string) (int64, error) {
	if mediaURL == "" {
		return 0, nil
	}
	count, err := s.posts.CountDocuments(ctx, bson.D{{Key: "media_url", Value: mediaURL}})
	if err != nil {
		return 0, fmt.Errorf("count media refs: %w", err)
	}
	return count, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
