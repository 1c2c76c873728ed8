package changes

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher produces changes to one topic, keyed by entity id so every
// change of a record lands on the same partition in order.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

func NewKafkaPublisher(client *kgo.Client, topic string) *KafkaPublisher {
	return &KafkaPublisher{client: client, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, batch []Change) error {
	records := make([]*kgo.Record, 0, len(batch))
	for _, c := range batch {
		value, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal change %s: %w", c.ID, err)
		}
		records = append(records, &kgo.Record{
			Topic:     p.topic,
			Key:       []byte(c.EntityID.String()),
			Value:     value,
			Timestamp: c.OccurredAt,
			Headers: []kgo.RecordHeader{
				{Key: "entity", Value: []byte(c.Entity)},
				{Key: "action", Value: []byte(c.Action)},
			},
		})
	}
	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce changes: %w", err)
	}
	return nil
}
