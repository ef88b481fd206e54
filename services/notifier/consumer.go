package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pavitra93/go-facility-platform/shared/metrics"
	"github.com/pavitra93/go-facility-platform/shared/models"
	"github.com/pavitra93/go-facility-platform/shared/notify"
	"github.com/pavitra93/go-facility-platform/shared/tenancy"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Delivery outcomes, used as the metrics status label.
const (
	statusSent      = "sent"
	statusFailed    = "failed"
	statusNoDevice  = "no_device"
	statusMalformed = "malformed"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type sender interface {
	Send(ctx context.Context, msg PushMessage) error
}

// Consumer delivers notification intents. ReadMessage commits the offset
// with the consumer group, so a message is handled at most once: failed
// deliveries are counted and logged, never retried.
type Consumer struct {
	reader messageReader
	tokens tenancy.Store[models.DeviceToken]
	push   sender
	log    *logrus.Entry
}

func NewKafkaReader(broker string, cfg KafkaConfig) *kafka.Reader {
	topic := cfg.Topic
	if topic == "" {
		topic = notify.Topic
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{broker},
		Topic:          topic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})
}

func NewConsumer(reader messageReader, tokens tenancy.Store[models.DeviceToken], push sender) *Consumer {
	return &Consumer{
		reader: reader,
		tokens: tokens,
		push:   push,
		log:    logrus.WithField("component", "notifier"),
	}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	c.log.Info("Starting notification intent consumer")
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("Notification intent consumer stopped")
				return
			}
			c.log.WithError(err).Error("Error reading notification intent")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		c.Handle(ctx, msg)
	}
}

// Handle delivers one intent to every device of its target user.
func (c *Consumer) Handle(ctx context.Context, msg kafka.Message) {
	var intent notify.Intent
	if err := json.Unmarshal(msg.Value, &intent); err != nil {
		metrics.NotificationsDeliveredTotal.WithLabelValues(statusMalformed).Inc()
		c.log.WithError(err).WithField("offset", msg.Offset).Warn("Dropping malformed notification intent")
		return
	}
	if intent.TenantID == uuid.Nil || intent.TargetUserID == "" {
		metrics.NotificationsDeliveredTotal.WithLabelValues(statusMalformed).Inc()
		c.log.WithField("offset", msg.Offset).Warn("Dropping notification intent without tenant or target")
		return
	}

	log := c.log.WithFields(logrus.Fields{
		"tenant_id":      intent.TenantID,
		"target_user_id": intent.TargetUserID,
		"entity_type":    intent.EntityType,
	})

	tokens, err := c.tokens.List(ctx, intent.TenantID, tenancy.Where("user_id", intent.TargetUserID))
	if err != nil {
		metrics.NotificationsDeliveredTotal.WithLabelValues(statusFailed).Inc()
		log.WithError(err).Error("Failed to look up device tokens")
		return
	}
	if len(tokens) == 0 {
		metrics.NotificationsDeliveredTotal.WithLabelValues(statusNoDevice).Inc()
		log.Debug("Target user has no registered devices")
		return
	}

	for _, token := range tokens {
		if err := c.push.Send(ctx, MessageFor(intent, token.Token)); err != nil {
			metrics.NotificationsDeliveredTotal.WithLabelValues(statusFailed).Inc()
			entry := log.WithError(err).WithField("platform", token.Platform)
			if errors.Is(err, ErrPushRejected) {
				entry.Warn("Push provider rejected notification")
			} else {
				entry.Error("Failed to deliver notification")
			}
			continue
		}
		metrics.NotificationsDeliveredTotal.WithLabelValues(statusSent).Inc()
	}
	log.WithField("devices", len(tokens)).Info("Notification intent handled")
}

func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("failed to close intent reader: %w", err)
	}
	return nil
}
