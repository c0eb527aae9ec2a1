package board

import (
	"context"
	"strings"

	"github.com/juju/errors"

	"github.com/eringen/qaboard/docstore"
)

// AnsweredByBackfill is the marker key of the answeredBy backfill.
const AnsweredByBackfill = "answeredBy-backfill"

const (
	settingsCollection = "settings"
	migrationsDoc      = "migrations"
)

// Marker remembers which one-shot migrations have completed.
type Marker interface {
	Done(ctx context.Context, key string) (bool, error)
	MarkDone(ctx context.Context, key string) error
}

// StoreMarker keeps migration markers in the settings/migrations document,
// so a migration runs once per deployment.
type StoreMarker struct {
	client docstore.Client
}

// NewStoreMarker returns a Marker backed by client.
func NewStoreMarker(client docstore.Client) *StoreMarker {
	return &StoreMarker{client: client}
}

func (m *StoreMarker) Done(ctx context.Context, key string) (bool, error) {
	doc, err := m.client.Get(ctx, settingsCollection, migrationsDoc)
	if errors.Is(err, errors.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Trace(err)
	}
	_, ok := doc.Fields[key]
	return ok, nil
}

func (m *StoreMarker) MarkDone(ctx context.Context, key string) error {
	return m.client.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		fields := docstore.Fields{}
		doc, err := tx.Get(ctx, settingsCollection, migrationsDoc)
		switch {
		case err == nil:
			fields = doc.Fields
		case !errors.Is(err, errors.NotFound):
			return errors.Trace(err)
		}
		fields[key] = docstore.ServerTimestamp
		return tx.Set(ctx, settingsCollection, migrationsDoc, fields)
	})
}

// MigrationResult counts what a migration run did.
type MigrationResult struct {
	Skipped bool // not admin, or already done
	Scanned int  // posts without an answerer
	Updated int
	Failed  int
}

// Migration fills answeredBy on posts written before comments recorded
// their answerer.
type Migration struct {
	data   *Data
	marker Marker
}

// NewMigration returns the answeredBy backfill over d.
func NewMigration(d *Data, marker Marker) *Migration {
	return &Migration{data: d, marker: marker}
}

// Run backfills every post with an empty answeredBy from its top-level
// comments: the first commenter when the post is resolved, the last when
// it is pending. Posts without top-level comments are left alone. Only
// admin sessions run it, and only until one run completes without a
// failed write; a partial run leaves the marker unset so the next admin
// session retries.
func (m *Migration) Run(ctx context.Context, sess Session) (MigrationResult, error) {
	var res MigrationResult
	if !sess.Admin {
		res.Skipped = true
		return res, nil
	}
	done, err := m.marker.Done(ctx, AnsweredByBackfill)
	if err != nil {
		return res, errors.Annotate(err, "read migration marker")
	}
	if done {
		res.Skipped = true
		return res, nil
	}

	posts, err := m.data.FetchPosts(ctx)
	if err != nil {
		return res, err
	}
	start := m.data.clock.Now()
	for _, p := range posts {
		if strings.TrimSpace(p.AnsweredBy) != "" {
			continue
		}
		res.Scanned++
		author, err := m.backfillAuthor(ctx, p)
		if err != nil {
			m.data.logger.Warnf("backfill %s: %v", p.ID, err)
			res.Failed++
			continue
		}
		if author == "" {
			continue
		}
		if err := m.data.UpdatePost(ctx, p.ID, docstore.Fields{fieldAnsweredBy: author}); err != nil {
			m.data.logger.Warnf("backfill %s: %v", p.ID, err)
			res.Failed++
			continue
		}
		res.Updated++
	}
	m.data.logger.Infof("answeredBy backfill: scanned=%d updated=%d failed=%d (%s)",
		res.Scanned, res.Updated, res.Failed, m.data.clock.Now().Sub(start))

	if res.Failed > 0 {
		return res, nil
	}
	if err := m.marker.MarkDone(ctx, AnsweredByBackfill); err != nil {
		return res, errors.Annotate(err, "set migration marker")
	}
	return res, nil
}

func (m *Migration) backfillAuthor(ctx context.Context, p Post) (string, error) {
	comments, err := m.data.Comments(ctx, p.ID)
	if err != nil {
		return "", err
	}
	top := TopLevel(comments)
	if len(top) == 0 {
		return "", nil
	}
	if p.Resolved == Resolved {
		return top[0].Author, nil
	}
	return top[len(top)-1].Author, nil
}
