package main

import (
	"io"
	"os"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/eringen/qaboard/board"
	"github.com/eringen/qaboard/i18n"
)

var (
	exportCriteria board.Criteria
	exportLang     string
	exportOut      string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filtered posts as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, ok := i18n.Parse(exportLang)
		if !ok {
			return errors.NotValidf("language %q", exportLang)
		}
		_, data, _, closeFn, err := openData(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()
		posts, err := data.FetchPosts(cmd.Context())
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if exportOut != "" && exportOut != "-" {
			f, err := os.Create(exportOut)
			if err != nil {
				return errors.Trace(err)
			}
			defer f.Close()
			w = f
		}
		return board.WriteCSV(w, board.Filter(posts, exportCriteria), lang)
	},
}

func init() {
	criteriaFlags(exportCmd, &exportCriteria)
	exportCmd.Flags().StringVar(&exportLang, "lang", "ko", "header and status language (ko, en)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
}
