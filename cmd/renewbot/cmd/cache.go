package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"renewbot/lib/scrapers/hidencloud"
	"renewbot/lib/telemetry"
	"renewbot/services/renewal/cache"
	"renewbot/services/renewal/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheHistoryCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the credential cache and run history.",
}

func maskSession(session string) string {
	if len(session) <= 12 {
		return "***"
	}
	return session[:12] + "..."
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List cached account sessions (values masked).",
	Run: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
		config := loadConfig()

		data := cache.NewStore(config.CachePath, nil).Load()
		indexes := make([]int, 0, len(data))
		for key := range data {
			index, err := strconv.Atoi(key)
			if err != nil {
				continue
			}
			indexes = append(indexes, index)
		}
		sort.Ints(indexes)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Account", "Session", "Cookies"})
		for _, index := range indexes {
			session := data[strconv.Itoa(index)]
			t.AppendRow(table.Row{
				index + 1,
				maskSession(session),
				len(hidencloud.ParseCookieString(session)),
			})
		}
		t.Render()
	},
}

var cacheHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the most recent run outcomes per account.",
	Run: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
		config := loadConfig()

		if config.HistoryPath == "" {
			fmt.Fprintln(os.Stderr, "no history_path configured")
			os.Exit(1)
		}
		history, err := db.Open(config.HistoryPath)
		if err != nil {
			fatal("failed to open run history", err)
		}
		defer history.Close()

		records, err := history.Recent(cmd.Context(), 50)
		if err != nil {
			fatal("failed to read run history", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Started", "Account", "Outcome", "Services", "Detail"})
		for _, rec := range records {
			t.AppendRow(table.Row{
				rec.StartedAt.Format("2006-01-02 15:04:05"),
				rec.AccountIdx + 1,
				rec.Outcome,
				rec.ServicesFound,
				rec.Detail,
			})
		}
		t.Render()
	},
}
