package cmd

import (
	"context"
	"os"
	"renewbot/lib/notify"
	"renewbot/lib/telemetry"
	"renewbot/services/renewal"
	"renewbot/services/renewal/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the renewal workflow for every configured account.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := signalContext()
		telemetry.InitSlog(verbose)

		config := loadConfig()

		tel, err := telemetry.SetupFromEnv(ctx, "renewbot")
		if err != nil {
			fatal("failed to setup telemetry", err)
		}
		defer tel.Shutdown(context.Background())

		var history *db.History
		if config.HistoryPath != "" {
			history, err = db.Open(config.HistoryPath)
			if err != nil {
				fatal("failed to open run history", err)
			}
			defer history.Close()
		}

		summary := renewal.Run(ctx, renewal.RunnerOptions{
			Config: config,
			Notifier: notify.Multi{
				notify.NewWxPusher(config.WxPusher.AppToken, config.WxPusher.Uids),
				notify.NewEmail(config.Email.Smtp, config.Email.To),
			},
			History: history,
		})

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Account", "Login", "Services"})
		for _, result := range summary.Results {
			login := "ok"
			if !result.LoggedIn {
				login = "failed"
			}
			t.AppendRow(table.Row{result.Index + 1, login, result.Services})
		}
		t.Render()
	},
}
