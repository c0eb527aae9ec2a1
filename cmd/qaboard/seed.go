package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eringen/qaboard/board"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the sample posts into an empty board",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, data, _, closeFn, err := openData(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()
		seeded, err := data.SeedIfEmpty(cmd.Context())
		if err != nil {
			return err
		}
		if seeded {
			fmt.Fprintln(cmd.OutOrStdout(), "sample posts written")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "board is not empty, nothing written")
		}
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Backfill answeredBy from comment authors",
	Long: `migrate fills the answerer of posts written before comments recorded
one: the first commenter of a resolved post, the last of a pending one.
It runs once per deployment; an incomplete run is retried next time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, data, _, closeFn, err := openData(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()
		m := board.NewMigration(data, board.NewStoreMarker(store))
		res, err := m.Run(cmd.Context(), board.Session{Admin: true})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if res.Skipped {
			fmt.Fprintf(out, "%s already done\n", board.AnsweredByBackfill)
			return nil
		}
		fmt.Fprintf(out, "scanned %d, updated %d, failed %d\n", res.Scanned, res.Updated, res.Failed)
		if res.Failed > 0 {
			return fmt.Errorf("%d posts could not be updated; run migrate again", res.Failed)
		}
		return nil
	},
}
