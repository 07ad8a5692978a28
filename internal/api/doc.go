// Package api реализует HTTP REST API движка.
//
// Endpoints:
//   - /api/v1/waterfalls            — запуск и просмотр waterfall runs
//   - /api/v1/waterfalls/{id}/...   — cancel, advance, решения по counter-offers
//   - /api/v1/steps/{id}/respond    — callback портала/EDI с ответом перевозчика
//   - /api/v1/counter-offers        — регистрация встречных предложений
//   - /api/v1/config                — процессные дефолты конфигурации
//
// Структура:
//   - handler.go             — Handler с зависимостями
//   - routes.go              — регистрация маршрутов
//   - waterfall_handler.go   — runs и ответы перевозчиков
//   - negotiation_handler.go — counter-offer протокол
//   - config_handler.go      — дефолты конфигурации
//   - dto.go                 — request/response структуры
//   - response.go            — JSON envelope и коды ошибок
//   - middleware.go          — logging и recovery
//
// Формат ответов: {"data": ...} при успехе,
// {"error": {"code", "message"}} при ошибке.
package api
