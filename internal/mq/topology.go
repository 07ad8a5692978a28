package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeTenders Exchange = "cascade.tenders"
	ExchangeRuns    Exchange = "cascade.runs"
)

// Queues — имена очередей.
const (
	// QueueTenderOffers — исходящие офферы перевозчикам.
	// Consumer: notification/dispatch-коллаборатор (email/portal/EDI).
	QueueTenderOffers Queue = "tenders.offers"

	// QueueTenderResponses — входящие ответы перевозчиков
	// (accept/decline/counter). Consumer: waterfall engine.
	QueueTenderResponses Queue = "tenders.responses"

	// QueueRunsResolved — audit-события финальных переходов runs.
	QueueRunsResolved Queue = "runs.resolved"
)

// Routing keys.
const (
	RoutingKeyOffer    RoutingKey = "offer"
	RoutingKeyResponse RoutingKey = "response"
	RoutingKeyResolved RoutingKey = "resolved"
)

func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		// 1. Создаём exchanges
		if err := declareExchanges(ch); err != nil {
			return err
		}

		// 2. Создаём queues
		if err := declareQueues(ch); err != nil {
			return err
		}

		// 3. Привязываем queues к exchanges
		if err := bindQueues(ch); err != nil {
			return err
		}

		return nil
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeTenders, "direct"},
		{ExchangeRuns, "direct"},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	queues := []Queue{
		QueueTenderOffers,
		QueueTenderResponses,
		QueueRunsResolved,
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q), // name
			true,      // durable
			false,     // delete when unused
			false,     // exclusive
			false,     // no-wait
			nil,       // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
	}

	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueTenderOffers, RoutingKeyOffer, ExchangeTenders},
		{QueueTenderResponses, RoutingKeyResponse, ExchangeTenders},
		{QueueRunsResolved, RoutingKeyResolved, ExchangeRuns},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Cascade RabbitMQ Topology:

    cascade.tenders (direct)
    ├── tenders.offers [routing: offer]
    │       Consumer: notification/dispatch collaborator
    └── tenders.responses [routing: response]
            Consumer: Waterfall Engine

    cascade.runs (direct)
    └── runs.resolved [routing: resolved]
            Consumer: audit/analytics
  `
}
