// Package notify публикует события обработки заявок во внешнюю шину.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/central-university-dev/go-join-request-bot/internal/domain/models"
)

// AdmissionEventMessage - формат события в топике Kafka.
type AdmissionEventMessage struct {
	ChatID     int64     `json:"chatId"`
	UserID     int64     `json:"userId"`
	Outcome    string    `json:"outcome"`
	OccurredAt time.Time `json:"occurredAt"`
}

// KafkaEventNotifier публикует события приёма заявок в Kafka. Сообщения,
// которые не удалось отправить, попадают в dead letter queue.
type KafkaEventNotifier struct {
	writer    *kafka.Writer
	dlqWriter *kafka.Writer
	logger    *slog.Logger
}

func NewKafkaEventNotifier(brokers []string, topic, dlqTopic string, logger *slog.Logger) *KafkaEventNotifier {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
	}

	dlqWriter := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        dlqTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
	}

	return &KafkaEventNotifier{
		writer:    writer,
		dlqWriter: dlqWriter,
		logger:    logger,
	}
}

func (n *KafkaEventNotifier) PublishAdmissionEvent(ctx context.Context, event *models.AdmissionEvent) error {
	message := AdmissionEventMessage{
		ChatID:     event.ChatID,
		UserID:     event.UserID,
		Outcome:    string(event.Outcome),
		OccurredAt: event.OccurredAt,
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("ошибка сериализации события: %w", err)
	}

	// Ключ по чату сохраняет порядок событий одного чата внутри партиции.
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.ChatID, 10)),
		Value: payload,
	}

	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		n.logger.Error("Ошибка отправки события в Kafka, сообщение уходит в DLQ",
			"chat_id", event.ChatID,
			"user_id", event.UserID,
			"error", err,
		)

		if dlqErr := n.dlqWriter.WriteMessages(ctx, msg); dlqErr != nil {
			n.logger.Error("Ошибка отправки сообщения в DLQ",
				"chat_id", event.ChatID,
				"user_id", event.UserID,
				"error", dlqErr,
			)

			return fmt.Errorf("ошибка отправки события в Kafka: %w", err)
		}

		return nil
	}

	return nil
}

func (n *KafkaEventNotifier) Close() error {
	if err := n.writer.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия Kafka writer: %w", err)
	}

	if err := n.dlqWriter.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия DLQ writer: %w", err)
	}

	return nil
}
