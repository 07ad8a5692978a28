// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений в очереди
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - tender.offer    — интент доставки оффера перевозчику
//   - tender.response — ответ перевозчика (accept/decline/counter)
//   - run.resolved    — audit-событие финального перехода run
//
// Exchanges:
//   - cascade.tenders — офферы и ответы перевозчиков
//   - cascade.runs    — события runs
package mq
