// Package consumer keeps the patient search index in step with the store's
// change events.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"clinic-management/models"
	"clinic-management/monitoring"
	"clinic-management/utils"
)

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type PatientConsumer struct {
	reader     MessageReader
	es         utils.ElasticsearchClient
	index      string
	logger     *zap.Logger
	retryDelay time.Duration
	shutdown   chan struct{}
	done       chan struct{}
}

func NewPatientConsumer(reader MessageReader, es utils.ElasticsearchClient, index string, logger *zap.Logger) *PatientConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PatientConsumer{
		reader:     reader,
		es:         es,
		index:      index,
		logger:     logger,
		retryDelay: 5 * time.Second,
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (c *PatientConsumer) Start(ctx context.Context) {
	c.logger.Info("starting patient index consumer", zap.String("index", c.index))

	go func() {
		defer close(c.done)
		for {
			select {
			case <-c.shutdown:
				return
			case <-ctx.Done():
				return
			default:
				c.processMessage(ctx)
			}
		}
	}()
}

func (c *PatientConsumer) Stop() {
	close(c.shutdown)
	if err := c.reader.Close(); err != nil {
		c.logger.Warn("error closing kafka reader", zap.Error(err))
	}
	<-c.done
}

// processMessage handles one message. The offset is committed only once the
// index has been updated, so a failed message is read again.
func (c *PatientConsumer) processMessage(ctx context.Context) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) {
			return
		}
		c.logger.Warn("kafka read error, will retry", zap.Error(err))
		c.sleep(ctx)
		return
	}

	var event models.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error("failed to unmarshal change event", zap.Error(err), zap.Int64("offset", msg.Offset))
		monitoring.ConsumedEvents.WithLabelValues("unknown", "invalid").Inc()
		c.commit(ctx, msg)
		return
	}

	if err := c.Handle(ctx, event); err != nil {
		c.logger.Error("failed to apply change event",
			zap.String("event", event.Event),
			zap.String("id", event.ID),
			zap.Error(err),
		)
		utils.CaptureError(err, map[string]interface{}{"event": event.Event, "id": event.ID})
		monitoring.ConsumedEvents.WithLabelValues(event.Event, "error").Inc()
		c.sleep(ctx)
		return
	}

	monitoring.ConsumedEvents.WithLabelValues(event.Event, "ok").Inc()
	c.commit(ctx, msg)
}

// Handle applies one change event to the search index. Events that do not
// touch patients are ignored.
func (c *PatientConsumer) Handle(ctx context.Context, event models.Event) error {
	switch event.Event {
	case models.EventPatientCreated, models.EventPatientUpdated:
		var patient models.Patient
		if err := json.Unmarshal(event.Data, &patient); err != nil {
			return fmt.Errorf("failed to decode patient %s: %w", event.ID, err)
		}
		if err := c.es.IndexDocument(ctx, c.index, patient.ID, patient); err != nil {
			return fmt.Errorf("failed to index patient %s: %w", patient.ID, err)
		}
		c.logger.Debug("patient indexed", zap.String("event", event.Event), zap.String("patient_id", patient.ID))
	case models.EventStoreReset:
		if err := c.es.DeleteIndex(ctx, c.index); err != nil {
			return fmt.Errorf("failed to drop index %s: %w", c.index, err)
		}
		c.logger.Info("patient index dropped after factory reset", zap.String("index", c.index))
	}
	return nil
}

// Backfill indexes every patient the store already holds, so records written
// before the consumer joined the topic are searchable too.
func (c *PatientConsumer) Backfill(ctx context.Context, patients []models.Patient) error {
	for _, patient := range patients {
		if err := c.es.IndexDocument(ctx, c.index, patient.ID, patient); err != nil {
			return fmt.Errorf("failed to index patient %s: %w", patient.ID, err)
		}
	}
	c.logger.Info("patient index backfilled", zap.String("index", c.index), zap.Int("patients", len(patients)))
	return nil
}

func (c *PatientConsumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Warn("failed to commit offset", zap.Int64("offset", msg.Offset), zap.Error(err))
	}
}

func (c *PatientConsumer) sleep(ctx context.Context) {
	select {
	case <-time.After(c.retryDelay):
	case <-ctx.Done():
	case <-c.shutdown:
	}
}
