package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/eringen/qaboard/board"
)

var (
	postsCriteria board.Criteria
	postsPage     int
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "List posts as a table",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, data, _, closeFn, err := openData(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()
		posts, err := data.FetchPosts(cmd.Context())
		if err != nil {
			return err
		}
		page := board.Select(posts, postsCriteria, postsPage)

		table := uitable.New()
		table.MaxColWidth = 50
		table.Wrap = true
		table.AddRow("ID", "DATE", "FROM", "CATEGORY", "STATUS", "ANSWERED BY", "ACTIVITY", "QUESTION")
		for _, p := range page.Items {
			table.AddRow(p.ID, p.Date, p.From, p.Category, p.Resolved.Label(), orDash(p.AnsweredBy), activity(p), p.Question)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, table)
		fmt.Fprintf(out, "\npage %d of %d, %s posts\n", page.Page, page.TotalPages, humanize.Comma(int64(page.Total)))
		return nil
	},
}

func init() {
	criteriaFlags(postsCmd, &postsCriteria)
	postsCmd.Flags().IntVarP(&postsPage, "page", "p", 1, "page to show")
}

// activity is the time of the last comment, or of the post itself.
func activity(p board.Post) string {
	t := p.CreatedAt
	if p.LastCommentAt != nil {
		t = *p.LastCommentAt
	}
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, time.Now(), "ago", "from now")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
