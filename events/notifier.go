// Package events veröffentlicht Harvest-Ereignisse auf Kafka.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// TypePackageImported ist der Ereignistyp nach einem erfolgreichen Import.
const TypePackageImported = "package.imported"

// Event ist die Nutzlast einer Kafka-Nachricht.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	PackageID string    `json:"package_id"`
	GUID      string    `json:"guid"`
	SourceID  string    `json:"source_id"`
	Timestamp time.Time `json:"timestamp"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Notifier implementiert services.Notifier über einen kafka.Writer.
type Notifier struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
	now    func() time.Time
}

// NewNotifier erstellt einen Notifier für die angegebenen Broker.
func NewNotifier(brokers []string, topic string, logger *zap.Logger) *Notifier {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Notifier{writer: w, topic: topic, logger: logger, now: time.Now}
}

// NotifyImported sendet ein package.imported-Ereignis. Schlüssel ist die Paket-ID, damit
// Ereignisse eines Pakets in einer Partition bleiben.
func (n *Notifier) NotifyImported(ctx context.Context, packageID, guid, sourceID string) error {
	event := Event{
		ID:        uuid.NewString(),
		Type:      TypePackageImported,
		PackageID: packageID,
		GUID:      guid,
		SourceID:  sourceID,
		Timestamp: n.now().UTC(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(packageID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
			{Key: "source", Value: []byte(sourceID)},
		},
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		n.logger.Error("Event konnte nicht gesendet werden",
			zap.String("event_id", event.ID), zap.String("topic", n.topic), zap.Error(err))
		return err
	}
	n.logger.Debug("Event gesendet", zap.String("event_id", event.ID), zap.String("package_id", packageID))
	return nil
}

// Close schließt den Writer.
func (n *Notifier) Close() error {
	return n.writer.Close()
}
