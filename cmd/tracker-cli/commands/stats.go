package commands

import (
	"os"

	"blogtracker-backend/lib/serviceutil"
	"blogtracker-backend/lib/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats <blog id>",
	Short: "Print the daily visitor series of a blog.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service, err := createService()
		if err != nil {
			serviceutil.Fatal("init service", err)
		}

		stats, err := service.VisitorStats(cmd.Context(), args[0], timezone.Now())
		if err != nil {
			serviceutil.Fatal("fetch visitor stats", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Date", "Visitors"})
		for _, stat := range stats {
			t.AppendRow(table.Row{stat.Date.Format("2006-01-02"), stat.Visitors})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
