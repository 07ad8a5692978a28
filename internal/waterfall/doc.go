// Package waterfall реализует движок последовательного тендера.
//
// Waterfall — эскалационный процесс: shipment предлагается
// кандидатам-перевозчикам по одному, в порядке ранга, с per-step
// дедлайном и опциональным повышением ставки между раундами.
// Run завершается, когда перевозчик принял оффер (ACCEPTED),
// кандидаты кончились (EXHAUSTED) или диспетчер отменил run
// (CANCELLED).
//
// Структура:
//   - engine.go      — Engine: lifecycle, активные runs, дефолты, CAS-запись
//   - state.go       — runState: per-run актор-дисциплина (mutex + таймер)
//   - executor.go    — старт run, отправка офферов, резолюция шагов, таймауты
//   - negotiation.go — counter-offer протокол (create/accept/reject)
//   - handlers.go    — consumer очереди tenders.responses
//   - sweep.go       — timeout sweep и восстановление после рестарта
//
// Конкуренция: один run — один логический актор; все мутации run
// сериализуются его mutex'ом. Шаг резолвится ровно один раз
// (first-resolution-wins среди ответа перевозчика, таймаута и cancel).
// Durable-состояние в Registry защищено оптимистичной версией.
package waterfall
