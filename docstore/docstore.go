// Package docstore is a small document database with real-time watches.
//
// Documents are JSON objects grouped in slash-separated collections
// ("posts", "posts/<id>/comments") and persisted in SQLite. The package
// offers the narrow surface the board needs from a hosted document store:
// ordered and filtered queries, push subscriptions that deliver full
// snapshots, partial updates, server timestamps, batches and transactions.
package docstore

import (
	"context"
	"encoding/json"
	"path"
	"regexp"
	"time"

	"github.com/juju/errors"
	"github.com/oklog/ulid/v2"
)

// TimeLayout is the fixed-width encoding used for every stored timestamp.
// Values are always UTC, so encoded timestamps sort lexicographically.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Fields holds the top-level fields of a document.
type Fields map[string]any

// Document is a single stored document.
type Document struct {
	ID         string
	Collection string
	Fields     Fields
}

// DataTo decodes the document fields into v, which must be a pointer to a
// struct or map. Timestamps decode into time.Time fields.
func (d Document) DataTo(v any) error {
	b, err := json.Marshal(d.Fields)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(json.Unmarshal(b, v))
}

type serverTimestamp struct{}

// ServerTimestamp is a sentinel field value replaced on write by a
// store-generated time. Generated times are strictly increasing within a
// collection.
var ServerTimestamp any = serverTimestamp{}

// FormatTime encodes t the way the store persists timestamps.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime decodes a stored timestamp.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, errors.NotValidf("timestamp %q", s)
	}
	return t, nil
}

// NewID returns a fresh, time-ordered document id.
func NewID() string {
	return ulid.Make().String()
}

// Sub returns the path of the subcollection name owned by document id of
// collection.
func Sub(collection, id, name string) string {
	return path.Join(collection, id, name)
}

// Direction is a query sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// Filter is an equality condition on a top-level field.
type Filter struct {
	Field string
	Op    string
	Value any
}

// Query describes an ordered, filtered read of one collection. Queries are
// values; builder methods return modified copies.
type Query struct {
	collection string
	filters    []Filter
	orderBy    string
	dir        Direction
	limit      int
}

// Collection starts a query over every document of the collection.
func Collection(collection string) Query {
	return Query{collection: collection}
}

// Where adds an equality filter. Only the "==" operator is supported.
func (q Query) Where(field, op string, value any) Query {
	filters := make([]Filter, len(q.filters), len(q.filters)+1)
	copy(filters, q.filters)
	q.filters = append(filters, Filter{Field: field, Op: op, Value: value})
	return q
}

// OrderBy sorts results by a top-level field. Documents with equal values
// keep id order, which follows creation order.
func (q Query) OrderBy(field string, dir Direction) Query {
	q.orderBy = field
	q.dir = dir
	return q
}

// Limit caps the number of returned documents. Zero means no limit.
func (q Query) Limit(n int) Query {
	q.limit = n
	return q
}

// Path returns the queried collection.
func (q Query) Path() string {
	return q.collection
}

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (q Query) validate() error {
	if q.collection == "" {
		return errors.NotValidf("empty collection")
	}
	for _, f := range q.filters {
		if f.Op != "==" {
			return errors.NotValidf("operator %q", f.Op)
		}
		if !fieldName.MatchString(f.Field) {
			return errors.NotValidf("field %q", f.Field)
		}
	}
	if q.orderBy != "" && !fieldName.MatchString(q.orderBy) {
		return errors.NotValidf("order field %q", q.orderBy)
	}
	if q.limit < 0 {
		return errors.NotValidf("limit %d", q.limit)
	}
	return nil
}

// Tx is the view of the store available inside a transaction. Reads see
// the transaction's own writes; nothing is visible to other readers or
// watchers until the transaction commits.
type Tx interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Query(ctx context.Context, q Query) ([]Document, error)
	Add(ctx context.Context, collection string, f Fields) (Document, error)
	Set(ctx context.Context, collection, id string, f Fields) error
	Update(ctx context.Context, collection, id string, f Fields) error
	Delete(ctx context.Context, collection, id string) error
}

// Batch collects writes that are committed atomically.
type Batch interface {
	// Set writes a whole document. An empty id allocates a new one.
	Set(collection, id string, f Fields) Batch
	Update(collection, id string, f Fields) Batch
	Delete(collection, id string) Batch
	Commit(ctx context.Context) error
}

// Client is the document store surface consumed by the board.
type Client interface {
	Tx

	// Watch opens a push subscription that delivers the full result of q
	// immediately and again after every committed change to the
	// queried collection.
	Watch(ctx context.Context, q Query) (*Subscription, error)
	Batch() Batch
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
