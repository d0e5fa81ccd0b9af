// Newsdesk CLI — инструмент командной строки для настроек автопубликации,
// ручного запуска и расписания статей через HTTP API.
//
// Использование:
//
//	newsdesk [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	settings   Настройки автопубликации
//	scheduler  Ручной запуск и состояние цикла
//	articles   Запланированные статьи
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Newsdesk/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "newsdesk",
		Short:         "Newsdesk CLI — scheduled publication control",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewSettingsCmd(clientFn, outputFn),
		cli.NewSchedulerCmd(clientFn, outputFn),
		cli.NewArticlesCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
