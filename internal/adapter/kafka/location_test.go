package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
)

func TestLocationMessage(t *testing.T) {
	driverID := uuid.New()
	loc := models.DriverLocation{
		DriverID:  driverID,
		Latitude:  40.7128,
		Longitude: -74.0060,
		Timestamp: time.Date(2024, 12, 16, 10, 40, 0, 0, time.UTC),
	}

	msg, err := locationMessage(loc)
	if err != nil {
		t.Fatal(err)
	}
	if string(msg.Key) != driverID.String() {
		t.Errorf("key = %s, want driver id", msg.Key)
	}
	if !msg.Time.Equal(loc.Timestamp) {
		t.Errorf("time = %v", msg.Time)
	}

	var got map[string]any
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatal(err)
	}
	if got["driver_id"] != driverID.String() || got["latitude"] != 40.7128 {
		t.Errorf("payload = %s", msg.Value)
	}
	if _, ok := got["ride_id"]; ok {
		t.Error("ride_id should be omitted when nil")
	}
}

type recorded struct {
	topic string
	err   error
}

func newRecordingProducer(t *testing.T) (*LocationProducer, *[]recorded) {
	t.Helper()
	var calls []recorded
	p := NewLocationProducer([]string{"127.0.0.1:1"}, "driver-locations")
	p.record = func(topic string, err error) { calls = append(calls, recorded{topic, err}) }
	return p, &calls
}

func TestLocationProducer_IsAsync(t *testing.T) {
	p, _ := newRecordingProducer(t)
	defer p.Close()

	if !p.writer.Async || p.writer.Completion == nil {
		t.Fatal("writer must be async with a completion callback")
	}
}

func TestLocationProducer_CompletionRecordsEveryMessage(t *testing.T) {
	p, calls := newRecordingProducer(t)
	defer p.Close()

	boom := errors.New("broker unavailable")
	p.writer.Completion([]kafka.Message{{}, {}}, boom)
	p.writer.Completion([]kafka.Message{{}}, nil)

	if len(*calls) != 3 {
		t.Fatalf("recorded %d results, want 3", len(*calls))
	}
	for i, c := range *calls {
		wantErr := i < 2
		if (c.err != nil) != wantErr || c.topic != "driver-locations" {
			t.Errorf("call %d = %+v", i, c)
		}
	}
}

func TestLocationProducer_PublishAfterClose(t *testing.T) {
	p, calls := newRecordingProducer(t)
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	err := p.Publish(context.Background(), models.DriverLocation{DriverID: uuid.New(), Latitude: 1, Longitude: 2})
	if err == nil {
		t.Fatal("publish on a closed writer must fail")
	}
	if len(*calls) != 1 || (*calls)[0].err == nil {
		t.Errorf("recorded = %+v, want one failure", *calls)
	}
}
