package commands

import (
	"os"

	"blogtracker-backend/lib/serviceutil"
	"blogtracker-backend/services/tracker"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(exposureCmd)
}

var exposureCmd = &cobra.Command{
	Use:   "exposure <blog id> <post title> <post url>",
	Short: "Check whether a post is exposed in search results.",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		service, err := createService()
		if err != nil {
			serviceutil.Fatal("init service", err)
		}

		result := service.CheckExposure(cmd.Context(), tracker.ExposureQuery{
			BlogId:  args[0],
			Title:   args[1],
			PostUrl: args[2],
		})

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Exposed", "Confidence"})
		t.AppendRow(table.Row{result.Exposed, string(result.Confidence)})
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
