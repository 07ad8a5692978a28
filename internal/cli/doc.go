// Package cli реализует инструмент командной строки Cascade.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Cascade API.
// Работает через HTTP, не импортирует внутренние пакеты движка.
// Используется диспетчерами для запуска и контроля waterfall runs,
// ручного ввода ответов перевозчиков и управления дефолтами.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Cascade API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	runs, err := client.ListWaterfalls(cli.ListWaterfallsOpts{})
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: cascade waterfall list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - waterfall: list, start, show, cancel, advance, steps
//   - step: accept, decline (ручной ввод ответа перевозчика)
//   - counter: create, accept, reject
//   - config: show, set
//
// Каждая группа создаётся через фабричную функцию (NewWaterfallCmd
// и т.д.), принимающую clientFn и outputFn — замыкания для ленивого
// создания Client и Output после парсинга PersistentFlags.
package cli
