// Package notify — адаптер notification-коллаборатора.
//
// Движок не отправляет email/SMS/EDI сам: он публикует интент доставки
// оффера, а доставкой занимается внешний dispatch-сервис. Сбой доставки
// не влияет на состояние шага — авторитетным триггером при молчании
// перевозчика остаётся таймаут.
package notify

import (
	"context"

	"github.com/shaiso/Cascade/internal/mq"
)

// Notifier — интент уведомления перевозчика об оффере.
// Fire-and-forget: ошибка логируется вызывающим, но не прерывает шаг.
type Notifier interface {
	NotifyCarrier(ctx context.Context, offer mq.TenderOfferPayload) error
}

// MQNotifier публикует интенты офферов в tenders.offers.
type MQNotifier struct {
	publisher *mq.Publisher
}

// NewMQNotifier создаёт Notifier поверх MQ publisher.
func NewMQNotifier(publisher *mq.Publisher) *MQNotifier {
	return &MQNotifier{publisher: publisher}
}

// NotifyCarrier публикует интент доставки оффера.
func (n *MQNotifier) NotifyCarrier(ctx context.Context, offer mq.TenderOfferPayload) error {
	return n.publisher.PublishTenderOffer(ctx, offer)
}

// Noop — заглушка для запуска без RabbitMQ и для тестов.
type Noop struct{}

// NotifyCarrier ничего не делает.
func (Noop) NotifyCarrier(ctx context.Context, offer mq.TenderOfferPayload) error {
	return nil
}
