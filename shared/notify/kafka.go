package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pavitra93/go-facility-platform/shared/metrics"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const Topic = "notification-intents"

var (
	ErrQueueFull = errors.New("notification queue full, intent dropped")
	ErrClosed    = errors.New("notification dispatcher closed")
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaDispatcher queues intents on a buffered channel drained by a pool of
// workers that write them to Kafka.
type KafkaDispatcher struct {
	writer       messageWriter
	intents      chan Intent
	workerCount  int
	shutdownChan chan struct{}
	// mu orders Dispatch against Close: nothing is queued once Close has
	// begun, so the final drain sees every accepted intent.
	mu           sync.RWMutex
	closed       bool
	wg           sync.WaitGroup
	log          *logrus.Entry
}

// NewKafkaDispatcher creates a dispatcher writing to broker with a worker pool.
func NewKafkaDispatcher(broker string) *KafkaDispatcher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}
	return newKafkaDispatcher(writer, 1000, 4)
}

func newKafkaDispatcher(writer messageWriter, queueSize, workers int) *KafkaDispatcher {
	kd := &KafkaDispatcher{
		writer:       writer,
		intents:      make(chan Intent, queueSize),
		workerCount:  workers,
		shutdownChan: make(chan struct{}),
		log:          logrus.WithField("component", "notify"),
	}
	kd.startWorkers()
	return kd
}

func (kd *KafkaDispatcher) startWorkers() {
	for i := 0; i < kd.workerCount; i++ {
		kd.wg.Add(1)
		go kd.worker(i)
	}
	kd.log.Infof("Started %d notification workers", kd.workerCount)
}

func (kd *KafkaDispatcher) worker(id int) {
	defer kd.wg.Done()

	for {
		select {
		case intent := <-kd.intents:
			kd.send(id, intent)
		case <-kd.shutdownChan:
			// drain whatever is already queued
			for {
				select {
				case intent := <-kd.intents:
					kd.send(id, intent)
				default:
					return
				}
			}
		}
	}
}

func (kd *KafkaDispatcher) send(worker int, intent Intent) {
	if err := kd.sendSync(intent); err != nil {
		metrics.KafkaPublishFailureTotal.WithLabelValues(Topic).Inc()
		kd.log.WithFields(logrus.Fields{
			"worker":    worker,
			"tenant_id": intent.TenantID,
		}).WithError(err).Warn("Failed to publish notification intent")
	}
}

// Dispatch queues the intent without blocking. A full queue drops it.
func (kd *KafkaDispatcher) Dispatch(ctx context.Context, intent Intent) error {
	kd.mu.RLock()
	defer kd.mu.RUnlock()
	if kd.closed {
		return ErrClosed
	}
	if intent.IssuedAt.IsZero() {
		intent.IssuedAt = time.Now().UTC()
	}
	select {
	case kd.intents <- intent:
		return nil
	default:
		metrics.NotificationsDroppedTotal.Inc()
		return ErrQueueFull
	}
}

func (kd *KafkaDispatcher) sendSync(intent Intent) error {
	payload, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to marshal notification intent: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(intent.TenantID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("notification_intent")},
			{Key: "tenant_id", Value: []byte(intent.TenantID.String())},
			{Key: "target_user_id", Value: []byte(intent.TargetUserID)},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := kd.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write notification intent to Kafka: %w", err)
	}
	return nil
}

// Close stops accepting intents, flushes the queue and closes the writer.
func (kd *KafkaDispatcher) Close() error {
	kd.mu.Lock()
	if kd.closed {
		kd.mu.Unlock()
		return nil
	}
	kd.closed = true
	kd.mu.Unlock()

	close(kd.shutdownChan)
	kd.wg.Wait()

	if err := kd.writer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka writer: %w", err)
	}
	kd.log.Info("Notification dispatcher shut down")
	return nil
}
