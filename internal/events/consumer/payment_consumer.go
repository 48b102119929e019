// Package consumer holds the Kafka consumers reacting to events from other
// services.
package consumer

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/wrenchly/service-booking/internal/application"
	"github.com/wrenchly/service-booking/internal/events"
	"github.com/wrenchly/service-booking/internal/kafka"
)

// PaymentEventConsumer listens to the payment processor's event stream and
// drives the booking lifecycle when the initial charge settles or fails.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	service  *application.BookingService
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	service *application.BookingService,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.PaymentSucceeded:
		return c.handlePaymentSucceeded(ctx, cloudEvent)
	case events.PaymentFailed:
		return c.handlePaymentFailed(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handlePaymentSucceeded(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.PaymentResultEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse payment succeeded event data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing payment succeeded event",
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("payment_intent_id", evt.PaymentIntentID),
	)

	_, err := c.service.ConfirmPayment(ctx, evt.BookingID, evt.PaymentIntentID, evt.OccurredAt)
	if err != nil {
		c.logger.Error("failed to confirm booking after payment",
			zap.String("booking_id", evt.BookingID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (c *PaymentEventConsumer) handlePaymentFailed(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.PaymentResultEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse payment failed event data",
			zap.Error(err),
		)
		return nil
	}

	c.logger.Info("processing payment failed event",
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("reason", evt.FailureReason),
	)

	_, err := c.service.FailPayment(ctx, evt.BookingID, evt.FailureReason)
	if err != nil {
		c.logger.Error("failed to cancel booking after payment failure",
			zap.String("booking_id", evt.BookingID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}
