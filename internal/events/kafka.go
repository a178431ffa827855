// Package events publishes verification outcomes for the submission
// service to consume. Publishing is best-effort: a broker outage must not
// block a verification response.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// SubmissionVerified is emitted after every completed verification.
type SubmissionVerified struct {
	VerificationID string    `json:"verification_id"`
	Platform       string    `json:"platform"`
	FileHash       string    `json:"file_hash"`
	ViewCount      int64     `json:"view_count"`
	IsFlagged      bool      `json:"is_flagged"`
	Flags          []string  `json:"flags"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Publisher writes SubmissionVerified events to a Kafka topic, keyed by
// file hash so resubmissions of the same image land on one partition.
type Publisher struct {
	writer *kafka.Writer
	topic  string
}

// NewPublisher creates a Kafka-backed publisher.
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("events publisher requires at least one broker")
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
		topic: topic,
	}, nil
}

// Publish sends one event.
func (p *Publisher) Publish(ctx context.Context, ev SubmissionVerified) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(ev.FileHash),
		Value: payload,
		Time:  ev.OccurredAt,
	})
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
