package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	"github.com/Temutjin2k/ride-realtime/pkg/logger"
	wrap "github.com/Temutjin2k/ride-realtime/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-realtime/pkg/metrics"
	"github.com/Temutjin2k/ride-realtime/pkg/rabbit"
)

const (
	RideExchange = "ride_topic"

	publishAttempts = 3
	publishBackoff  = 200 * time.Millisecond
)

type RideBroker struct {
	client       *rabbit.RabbitMQ
	RideExchange string
	service      string

	l logger.Logger
}

func NewRideBroker(client *rabbit.RabbitMQ, exchange, serviceName string, log logger.Logger) *RideBroker {
	if exchange == "" {
		exchange = RideExchange
	}
	return &RideBroker{
		client:       client,
		RideExchange: exchange,
		service:      serviceName,
		l:            log,
	}
}

// Setup объявляет exchange, вызывается один раз при старте
func (r *RideBroker) Setup(ctx context.Context) error {
	return r.client.DeclareTopic(ctx, r.RideExchange)
}

// публикует событие об изменении статуса поездки.
// отправляет в exchange 'ride_topic' с ключом 'ride.status.{status}'.
func (r *RideBroker) PublishRideStatus(ctx context.Context, msg models.RideStatusMessage) (err error) {
	ctx = wrap.WithAction(ctx, "rabbitmq_publish_ride_status")
	defer func() { metrics.RecordRabbitMQPublish(r.service, r.RideExchange, err) }()

	body, err := json.Marshal(msg)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("failed to marshal message: %w", err))
	}

	key := routingKey(msg.Status)

	if err := retry(ctx, publishAttempts, publishBackoff, func() error {
		ch, err := r.client.Channel(ctx)
		if err != nil {
			return fmt.Errorf("ensure connection: %w", err)
		}

		if err := ch.PublishWithContext(
			ctx,
			r.RideExchange, // exchange
			key,            // routing key
			false,          // mandatory
			false,          // immediate
			amqp091.Publishing{
				ContentType:   "application/json",
				DeliveryMode:  amqp091.Persistent,
				CorrelationId: msg.CorrelationID,
				Body:          body,
				Timestamp:     msg.Timestamp,
			},
		); err != nil {
			return fmt.Errorf("failed to publish with context: %w", err)
		}
		return nil
	}); err != nil {
		return wrap.Error(ctx, err)
	}

	r.l.Debug(ctx, "ride status published", "routing_key", key)
	return nil
}

// example, "ride.status.ACCEPTED"
func routingKey(status types.RideStatus) string {
	return "ride.status." + status.String()
}
