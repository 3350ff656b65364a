package kafka

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/interfaces"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/models/events"
)

// Notifier publishes transaction notifications to a Kafka topic. Delivery
// is best-effort: publish failures are logged and never propagate, so a
// flaky broker cannot affect a financial state transition.
type Notifier struct {
	writer *kafka.Writer
}

func NewNotifier(brokers []string, topic string) *Notifier {
	return &Notifier{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (n *Notifier) Send(ctx context.Context, note events.TransactionNotification) {
	data, err := json.Marshal(note)
	if err != nil {
		log.Printf("[Notifier] failed to encode notification for transaction %s: %v", note.TransactionID, err)
		return
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(note.TransactionID),
		Value: data,
	})
	if err != nil {
		log.Printf("[Notifier] failed to publish notification for transaction %s: %v", note.TransactionID, err)
	}
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

var _ interfaces.Notifier = (*Notifier)(nil)
