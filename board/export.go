package board

import (
	"encoding/csv"
	"io"

	"github.com/juju/errors"

	"github.com/eringen/qaboard/i18n"
)

// WriteCSV writes posts as UTF-8 CSV with a byte order mark, so Korean
// text opens correctly in spreadsheet tools. The header row is in lang and
// the status column uses its localized label.
func WriteCSV(w io.Writer, posts []Post, lang i18n.Lang) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return errors.Trace(err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(i18n.CSVHeader(lang)); err != nil {
		return errors.Trace(err)
	}
	for _, p := range posts {
		status := i18n.T(lang, i18n.StatusPending)
		if p.Resolved == Resolved {
			status = i18n.T(lang, i18n.StatusResolved)
		}
		row := []string{p.Date, p.From, p.Category, p.Question, p.Answer, p.AnsweredBy, status, p.FollowUp}
		if err := cw.Write(row); err != nil {
			return errors.Trace(err)
		}
	}
	cw.Flush()
	return errors.Trace(cw.Error())
}
