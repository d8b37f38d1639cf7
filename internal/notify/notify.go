// Package notify announces that a pipeline stage rewrote the dataset.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
)

// Stage names the pipeline step that produced a dataset.
type Stage string

// Pipeline stages.
const (
	StageHarvest Stage = "harvest"
	StageFilter  Stage = "filter"
)

// Event is the message body published after a dataset write.
type Event struct {
	RunID     string    `json:"run_id"`
	Stage     Stage     `json:"stage"`
	Digest    string    `json:"digest"`
	Meets     int       `json:"meets"`
	Events    int       `json:"events"`
	Entrants  int       `json:"entrants"`
	WrittenAt time.Time `json:"written_at"`
}

// Publisher delivers Events and returns the broker's message id.
type Publisher interface {
	Publish(ctx context.Context, ev Event) (string, error)
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

// Publish implements Publisher.
func (NoopPublisher) Publish(context.Context, Event) (string, error) {
	return "", nil
}

// PubSubPublisher publishes Events to a Pub/Sub topic.
type PubSubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPubSub creates a publisher for topicID, creating the client for project.
func NewPubSub(ctx context.Context, project, topicID string) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return NewPubSubWithClient(client, topicID)
}

// NewPubSubWithClient wraps an existing client.
func NewPubSubWithClient(client *pubsub.Client, topicID string) (*PubSubPublisher, error) {
	if client == nil {
		return nil, fmt.Errorf("pubsub client is required")
	}
	if topicID == "" {
		return nil, fmt.Errorf("notify.topic is required")
	}
	return &PubSubPublisher{client: client, topic: client.Topic(topicID)}, nil
}

// Publish marshals ev to JSON, tags it with its stage and waits for the
// server to acknowledge it.
func (p *PubSubPublisher) Publish(ctx context.Context, ev Event) (string, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}
	msg := &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"stage":  string(ev.Stage),
			"run_id": ev.RunID,
		},
	}
	id, err := p.topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish %s event: %w", ev.Stage, err)
	}
	return id, nil
}

// Close flushes pending messages and closes the client.
func (p *PubSubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
