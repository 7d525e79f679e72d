package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
	"github.com/Temutjin2k/ride-realtime/pkg/metrics"
)

const writeTimeout = 2 * time.Second

// LocationProducer streams driver positions to a telemetry topic, keyed by driver
// so one driver's updates stay ordered within a partition.
// Writes are async: the websocket read loop never waits for the broker.
type LocationProducer struct {
	writer *kafka.Writer
	topic  string
	record func(topic string, err error)
}

func NewLocationProducer(brokers []string, topic string) *LocationProducer {
	p := &LocationProducer{topic: topic, record: metrics.RecordKafkaPublish}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: writeTimeout,
		Async:        true,
		Completion:   p.completed,
	}
	return p
}

// Publish enqueues the position. Broker errors surface in completed, only
// marshal and closed-writer errors are returned here.
func (p *LocationProducer) Publish(ctx context.Context, loc models.DriverLocation) error {
	msg, err := locationMessage(loc)
	if err != nil {
		p.record(p.topic, err)
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.record(p.topic, err)
		return fmt.Errorf("kafka: write driver location: %w", err)
	}
	return nil
}

// completed is called by the writer once a batch is acknowledged or failed
func (p *LocationProducer) completed(messages []kafka.Message, err error) {
	for range messages {
		p.record(p.topic, err)
	}
}

func (p *LocationProducer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func locationMessage(loc models.DriverLocation) (kafka.Message, error) {
	b, err := json.Marshal(loc)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: marshal driver location: %w", err)
	}
	return kafka.Message{
		Key:   []byte(loc.DriverID.String()),
		Value: b,
		Time:  loc.Timestamp,
	}, nil
}
