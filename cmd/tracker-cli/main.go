// Tracker CLI — инструмент командной строки для управления
// projects, features, tasks, зависимостями и статусами через HTTP API.
//
// Использование:
//
//	tracker [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	project  Управление projects и features
//	task     Управление tasks
//	dep      Управление зависимостями
//	status   Переходы статусов и каскадные рекомендации
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Tracker/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "tracker",
		Short:         "Tracker CLI — workflow and dependency consistency tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewProjectCmd(clientFn, outputFn),
		cli.NewTaskCmd(clientFn, outputFn),
		cli.NewDepCmd(clientFn, outputFn),
		cli.NewStatusCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
