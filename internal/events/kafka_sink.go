package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaSink forwards workflow events to a Kafka topic so downstream
// observability pipelines can consume transitions and latency alerts.
type KafkaSink struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaSink builds a sink writing to topic on the given brokers.
func NewKafkaSink(brokers []string, topic string, logger *zap.Logger) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
		logger: logger,
	}
}

// Attach subscribes the sink to every forwarded event type on the
// dispatcher.
func (s *KafkaSink) Attach(dispatcher Dispatcher) {
	forwarded := []EventType{
		EventReferralStageChanged,
		EventAdvanceRejected,
		EventAgreementGenerated,
		EventAgreementDispatched,
		EventStaffMatched,
		EventStageLatencyAlert,
		EventBatchCompleted,
		EventFailureRecorded,
	}
	for _, t := range forwarded {
		dispatcher.Subscribe(t, s.handle)
	}
}

func (s *KafkaSink) handle(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	key := event.ReferralID
	if key == "" {
		key = string(event.Type)
	}
	if err := s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
	}); err != nil {
		s.logger.Warn("kafka event write failed",
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return err
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
