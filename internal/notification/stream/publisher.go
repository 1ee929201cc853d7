// Package stream publishes document lifecycle events to Kafka so downstream
// systems (archival, reporting) can follow routing without polling the API.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	docmodels "doctrack/internal/document/models"
	"doctrack/internal/notification/models"
)

// Event is the wire shape of one lifecycle event record.
type Event struct {
	Type          models.Type      `json:"type"`
	DocumentID    string           `json:"documentId"`
	DocumentCode  string           `json:"documentCode"`
	Status        docmodels.Status `json:"status"`
	CurrentOffice string           `json:"currentOffice"`
	NextOffice    string           `json:"nextOffice,omitempty"`
	OccurredAt    time.Time        `json:"occurredAt"`
}

// Publisher produces lifecycle events. Delivery is fire-and-forget: produce
// errors are logged, never propagated to the transition that caused them.
type Publisher struct {
	client *kgo.Client
	logger *slog.Logger
}

// New connects a producer to the given brokers. Returns nil with no error
// when brokers is empty (streaming not configured).
func New(brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{client: client, logger: logger}, nil
}

// Publish emits one lifecycle event, keyed by document code so events for the
// same document stay ordered within a partition.
func (p *Publisher) Publish(ctx context.Context, doc *docmodels.Document, event models.Type) {
	if p == nil {
		return
	}
	payload, err := json.Marshal(Event{
		Type:          event,
		DocumentID:    doc.ID.String(),
		DocumentCode:  doc.Code,
		Status:        doc.Status,
		CurrentOffice: doc.CurrentOffice,
		NextOffice:    doc.NextOffice,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to encode lifecycle event", "document", doc.Code, "error", err)
		return
	}
	record := &kgo.Record{Key: []byte(doc.Code), Value: payload}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.WarnContext(ctx, "lifecycle event produce failed",
				"document", doc.Code, "event", event, "error", err)
		}
	})
}

// Close flushes pending records and releases the client.
func (p *Publisher) Close(ctx context.Context) error {
	if p == nil {
		return nil
	}
	err := p.client.Flush(ctx)
	p.client.Close()
	return err
}
