// Package cli реализует инструмент командной строки Newsdesk.
//
// CLI работает через HTTP API и не импортирует внутренние пакеты.
//
// # Client
//
// HTTP-клиент админки и CMS. Ошибки API возвращаются как *APIError
// (HTTP-статус, код, сообщение, поле).
//
//	client := cli.NewClient("http://localhost:8080")
//	n, err := client.RunNow(ctx)
//
// # Output
//
// Таблицы (text/tabwriter) по умолчанию, JSON с флагом --json.
// Данные идут в stdout, сообщения в stderr:
//
//	newsdesk articles scheduled --json | jq .
//
// # Commands
//
//   - settings: show, update, enable, disable
//   - scheduler: run-now, status
//   - articles: scheduled, schedule, unschedule
package cli
