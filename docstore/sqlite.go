package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	_ "modernc.org/sqlite"
)

// Store is a Client backed by a SQLite database.
type Store struct {
	db    *sql.DB
	clock clock.Clock

	stampMu sync.Mutex
	stamps  map[string]time.Time

	watchMu  sync.Mutex
	watchers map[*watcher]struct{}
	closed   bool
}

var _ Client = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock sets the source of server timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// Open opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the documents table.
func Open(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Trace(err)
	}
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Annotatef(err, "open %s", path)
	}
	// SQLite has a single writer. One connection serialises transactions
	// instead of surfacing SQLITE_BUSY to callers.
	db.SetMaxOpenConns(1)
	s := &Store{
		db:       db,
		clock:    clock.WallClock,
		stamps:   make(map[string]time.Time),
		watchers: make(map[*watcher]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, errors.Annotate(err, "ensure schema")
	}
	return s, nil
}

// Close ends every subscription and closes the database.
func (s *Store) Close() error {
	s.watchMu.Lock()
	s.closed = true
	for w := range s.watchers {
		w.sub.Close()
	}
	s.watchMu.Unlock()
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    data TEXT NOT NULL,
    PRIMARY KEY (collection, id)
);
`)
	return err
}

// stamp returns a server timestamp strictly after every earlier stamp of
// the same collection.
func (s *Store) stamp(collection string) time.Time {
	s.stampMu.Lock()
	defer s.stampMu.Unlock()
	now := s.clock.Now().UTC()
	if last, ok := s.stamps[collection]; ok && !now.After(last) {
		now = last.Add(time.Nanosecond)
	}
	s.stamps[collection] = now
	return now
}

// resolve replaces sentinels and time values with their stored encoding.
func (s *Store) resolve(collection string, f Fields) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		switch val := v.(type) {
		case serverTimestamp:
			out[k] = FormatTime(s.stamp(collection))
		case time.Time:
			out[k] = FormatTime(val)
		case *time.Time:
			if val == nil {
				out[k] = nil
			} else {
				out[k] = FormatTime(*val)
			}
		default:
			out[k] = v
		}
	}
	return out
}

// Get implements Tx.
func (s *Store) Get(ctx context.Context, collection, id string) (Document, error) {
	return getDoc(ctx, s.db, collection, id)
}

// Query implements Tx.
func (s *Store) Query(ctx context.Context, q Query) ([]Document, error) {
	return queryDocs(ctx, s.db, q)
}

// Add implements Tx.
func (s *Store) Add(ctx context.Context, collection string, f Fields) (Document, error) {
	var doc Document
	err := s.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		doc, err = tx.Add(ctx, collection, f)
		return err
	})
	return doc, err
}

// Set implements Tx.
func (s *Store) Set(ctx context.Context, collection, id string, f Fields) error {
	return s.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		return tx.Set(ctx, collection, id, f)
	})
}

// Update implements Tx.
func (s *Store) Update(ctx context.Context, collection, id string, f Fields) error {
	return s.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		return tx.Update(ctx, collection, id, f)
	})
}

// Delete implements Tx.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return s.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		return tx.Delete(ctx, collection, id)
	})
}

// Watch implements Client.
func (s *Store) Watch(ctx context.Context, q Query) (*Subscription, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	w := &watcher{
		query:  q,
		notify: make(chan struct{}, 1),
		sub:    newSubscription(),
	}
	if !s.addWatcher(w) {
		return nil, errors.New("store closed")
	}
	go s.watch(ctx, w)
	return w.sub, nil
}

// RunTransaction runs fn inside a database transaction. fn must only use
// the Tx it is given. Watchers of every collection written by fn are
// notified after a successful commit.
func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Annotate(err, "begin transaction")
	}
	tx := &txn{store: s, tx: sqlTx, touched: make(map[string]struct{})}
	if err := fn(ctx, tx); err != nil {
		sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return errors.Annotate(err, "commit")
	}
	touched := make([]string, 0, len(tx.touched))
	for c := range tx.touched {
		touched = append(touched, c)
	}
	s.notify(touched...)
	return nil
}

// Batch implements Client.
func (s *Store) Batch() Batch {
	return &batch{store: s}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getDoc(ctx context.Context, q querier, collection, id string) (Document, error) {
	var data string
	err := q.QueryRowContext(ctx, `SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&data)
	if err == sql.ErrNoRows {
		return Document{}, errors.NotFoundf("document %s/%s", collection, id)
	}
	if err != nil {
		return Document{}, errors.Annotatef(err, "get %s/%s", collection, id)
	}
	return decodeDoc(collection, id, data)
}

func queryDocs(ctx context.Context, q querier, query Query) ([]Document, error) {
	stmt, args, err := query.sql()
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Annotatef(err, "query %s", query.collection)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, errors.Trace(err)
		}
		doc, err := decodeDoc(query.collection, id, data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	return docs, nil
}

func putDoc(ctx context.Context, q querier, collection, id string, f Fields) error {
	data, err := json.Marshal(f)
	if err != nil {
		return errors.Annotatef(err, "encode %s/%s", collection, id)
	}
	_, err = q.ExecContext(ctx, `INSERT OR REPLACE INTO documents (collection, id, data) VALUES (?, ?, ?)`, collection, id, string(data))
	return errors.Annotatef(err, "put %s/%s", collection, id)
}

func decodeDoc(collection, id, data string) (Document, error) {
	f := Fields{}
	if err := json.Unmarshal([]byte(data), &f); err != nil {
		return Document{}, errors.Annotatef(err, "decode %s/%s", collection, id)
	}
	return Document{ID: id, Collection: collection, Fields: f}, nil
}

func (q Query) sql() (string, []any, error) {
	if err := q.validate(); err != nil {
		return "", nil, err
	}
	var b strings.Builder
	args := []any{q.collection}
	b.WriteString(`SELECT id, data FROM documents WHERE collection = ?`)
	for _, f := range q.filters {
		if f.Value == nil {
			b.WriteString(` AND json_extract(data, ?) IS NULL`)
			args = append(args, "$."+f.Field)
			continue
		}
		b.WriteString(` AND json_extract(data, ?) = ?`)
		args = append(args, "$."+f.Field, sqlValue(f.Value))
	}
	dir := "ASC"
	if q.dir == Desc {
		dir = "DESC"
	}
	if q.orderBy != "" {
		b.WriteString(` ORDER BY json_extract(data, ?) ` + dir + `, id ` + dir)
		args = append(args, "$."+q.orderBy)
	} else {
		b.WriteString(` ORDER BY id ` + dir)
	}
	if q.limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, q.limit)
	}
	return b.String(), args, nil
}

// sqlValue converts a filter value to what json_extract yields for it.
func sqlValue(v any) any {
	switch val := v.(type) {
	case bool:
		if val {
			return 1
		}
		return 0
	case time.Time:
		return FormatTime(val)
	default:
		return v
	}
}
