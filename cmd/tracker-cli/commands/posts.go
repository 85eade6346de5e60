package commands

import (
	"os"

	"blogtracker-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var postsLimit *int

func init() {
	postsLimit = postsCmd.Flags().Int("limit", 5, "How many posts to list.")
	rootCmd.AddCommand(postsCmd)
}

var postsCmd = &cobra.Command{
	Use:   "posts <blog id>",
	Short: "List the most recent posts of a blog.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service, err := createService()
		if err != nil {
			serviceutil.Fatal("init service", err)
		}

		posts, err := service.RecentPosts(cmd.Context(), args[0], *postsLimit)
		if err != nil {
			serviceutil.Fatal("fetch recent posts", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Published", "Title", "Url"})
		for _, post := range posts {
			t.AppendRow(table.Row{
				post.PublishedAt.Format("2006-01-02 15:04"),
				post.Title,
				post.Url,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
