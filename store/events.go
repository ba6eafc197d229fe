package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"clinic-management/models"
	"clinic-management/utils"
)

// EventPublisher receives every committed change. Publish must not block.
type EventPublisher interface {
	Publish(event models.Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(models.Event) {}

// KafkaPublisher forwards events to a kafka topic from a single background
// goroutine, so events keep their commit order.
type KafkaPublisher struct {
	producer utils.KafkaProducer
	topic    string
	logger   *zap.Logger
	queue    chan models.Event
	done     chan struct{}
	once     sync.Once

	mu     sync.Mutex
	closed bool
}

func NewKafkaPublisher(producer utils.KafkaProducer, topic string, logger *zap.Logger) *KafkaPublisher {
	k := &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
		queue:    make(chan models.Event, 256),
		done:     make(chan struct{}),
	}
	go k.run()
	return k
}

// Publish drops the event when the queue is full rather than stalling the
// store. Events published after Close are dropped too.
func (k *KafkaPublisher) Publish(event models.Event) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		k.logger.Warn("publisher closed, dropping event", zap.String("event", event.Event), zap.String("id", event.ID))
		return
	}
	select {
	case k.queue <- event:
	default:
		k.logger.Warn("event queue full, dropping event", zap.String("event", event.Event), zap.String("id", event.ID))
	}
}

func (k *KafkaPublisher) run() {
	defer close(k.done)
	for event := range k.queue {
		k.send(event)
	}
}

func (k *KafkaPublisher) send(event models.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	payload, err := json.Marshal(event)
	if err != nil {
		k.logger.Error("failed to marshal kafka event", zap.String("event", event.Event), zap.Error(err))
		return
	}

	if err := k.producer.SendMessage(ctx, k.topic, []byte(event.ID), payload); err != nil {
		k.logger.Error("failed to send kafka message", zap.String("event", event.Event), zap.Error(err))
	}
}

// Close delivers whatever is queued and closes the producer.
func (k *KafkaPublisher) Close() error {
	var err error
	k.once.Do(func() {
		k.mu.Lock()
		k.closed = true
		close(k.queue)
		k.mu.Unlock()

		<-k.done
		err = k.producer.Close()
	})
	return err
}
