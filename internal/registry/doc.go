// Package registry — хранилище waterfall runs по id.
//
// Структура:
//   - registry.go — интерфейс Registry и фильтр
//   - memory.go   — in-memory реализация (тесты, запуск без БД)
//   - postgres.go — реализация поверх PostgreSQL (pgx)
//
// Мутации проходят через оптимистичную конкуренцию: Update сверяет
// run.Version и возвращает ErrConflict проигравшему гонку писателю.
// Registry не сериализует несвязанные runs — пер-run single-writer
// дисциплина реализована движком waterfall.
package registry
