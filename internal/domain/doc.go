// Package domain содержит доменные модели Tender Waterfall Engine.
//
// Основные сущности:
//   - WaterfallRun    — процесс эскалации тендера для одного shipment
//   - WaterfallStep   — один оффер одному перевозчику по одной ставке
//   - CounterOffer    — встречное предложение перевозчика
//   - WaterfallConfig — таймауты, rate escalation, auto-escalate
//
// Инварианты:
//   - run строго последователен: максимум один in-flight шаг
//   - history append-only, len(history) == current_step_index после резолюции
//   - статусы двигаются только вперёд, из финального состояния выхода нет
package domain
