package notify

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"
)

// PubSubPublisher publishes messages to a Google Pub/Sub topic.
type PubSubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPubSubPublisher creates a publisher for the named topic.
func NewPubSubPublisher(ctx context.Context, projectID, topic string) (*PubSubPublisher, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, fmt.Errorf("project id is required")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return &PubSubPublisher{client: client, topic: client.Topic(topic)}, nil
}

// Publish sends one message and waits for the server acknowledgement.
func (p *PubSubPublisher) Publish(ctx context.Context, message []byte) error {
	if p == nil || p.topic == nil {
		return fmt.Errorf("publisher is not configured")
	}
	result := p.topic.Publish(ctx, &pubsub.Message{Data: message})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic.ID(), err)
	}
	return nil
}

// Close stops the topic's publish goroutines and releases the client.
func (p *PubSubPublisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	if p.topic != nil {
		p.topic.Stop()
	}
	return p.client.Close()
}
