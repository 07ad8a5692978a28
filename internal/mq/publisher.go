package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeTenderOffer    MessageType = "tender.offer"
	MessageTypeTenderResponse MessageType = "tender.response"
	MessageTypeRunResolved    MessageType = "run.resolved"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// TenderOfferPayload — интент доставки оффера перевозчику.
// Движок не отправляет email/EDI сам — это делает
// notification-коллаборатор, потребляющий tenders.offers.
type TenderOfferPayload struct {
	StepID      uuid.UUID `json:"step_id"`
	RunID       uuid.UUID `json:"run_id"`
	ShipmentID  string    `json:"shipment_id"`
	CarrierID   string    `json:"carrier_id"`
	CarrierName string    `json:"carrier_name,omitempty"`
	RateCents   int64     `json:"rate_cents"`
	Deadline    time.Time `json:"deadline"`
}

// TenderResponsePayload — ответ перевозчика на оффер.
// Публикуется порталом/EDI-коллаборатором, потребляется движком.
type TenderResponsePayload struct {
	StepID uuid.UUID `json:"step_id"`

	// Response: "accepted", "declined" или "countered".
	Response string `json:"response"`

	// CounterRate — ставка встречного предложения (для "countered").
	CounterRate int64 `json:"counter_rate,omitempty"`

	Notes string `json:"notes,omitempty"`
}

// RunResolvedPayload — audit-событие финального перехода run.
type RunResolvedPayload struct {
	RunID            uuid.UUID `json:"run_id"`
	ShipmentID       string    `json:"shipment_id"`
	Status           string    `json:"status"`
	Reason           string    `json:"reason"`
	WinningCarrierID string    `json:"winning_carrier_id,omitempty"`
	FinalRateCents   int64     `json:"final_rate_cents"`
	StepsTried       int       `json:"steps_tried"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishTenderOffer публикует интент доставки оффера.
// Потребитель: notification/dispatch-коллаборатор.
func (p *Publisher) PublishTenderOffer(ctx context.Context, payload TenderOfferPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeTenderOffer,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeTenders, RoutingKeyOffer, msg)
}

// PublishRunResolved публикует audit-событие финального перехода run.
func (p *Publisher) PublishRunResolved(ctx context.Context, payload RunResolvedPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeRunResolved,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeRuns, RoutingKeyResolved, msg)
}
