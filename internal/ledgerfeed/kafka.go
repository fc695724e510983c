package ledgerfeed

import (
	"context"
	"encoding/json"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/Wunenes/Core-Banking-System-Services/internal/obs"
)

// Kafka publishes ledger entries to the broker, keyed by transaction
// reference.
type Kafka struct {
	client *kgo.Client
	logger *zap.Logger
}

var _ Publisher = (*Kafka)(nil)

// NewKafka connects a producer to the seed brokers.
func NewKafka(brokers []string, logger *zap.Logger) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(Topic),
	)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Kafka{client: client, logger: logger}, nil
}

func (k *Kafka) Publish(ctx context.Context, entry Entry) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	rec := &kgo.Record{
		Topic: Topic,
		Key:   []byte(entry.TransactionRef),
		Value: value,
	}
	if err := k.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		obs.LedgerPublishes.WithLabelValues("error").Inc()
		k.logger.Error("ledger entry publish failed",
			zap.String("transaction_reference", entry.TransactionRef),
			zap.Error(err))
		return err
	}
	obs.LedgerPublishes.WithLabelValues("ok").Inc()
	k.logger.Info("ledger entry published",
		zap.String("transaction_reference", entry.TransactionRef),
		zap.String("type", string(entry.Type)))
	return nil
}

// Close flushes and releases the underlying client.
func (k *Kafka) Close() {
	k.client.Close()
}
