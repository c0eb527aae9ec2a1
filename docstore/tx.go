package docstore

import (
	"context"
	"database/sql"

	"github.com/juju/errors"
)

type txn struct {
	store   *Store
	tx      *sql.Tx
	touched map[string]struct{}
}

func (t *txn) Get(ctx context.Context, collection, id string) (Document, error) {
	return getDoc(ctx, t.tx, collection, id)
}

func (t *txn) Query(ctx context.Context, q Query) ([]Document, error) {
	return queryDocs(ctx, t.tx, q)
}

func (t *txn) Add(ctx context.Context, collection string, f Fields) (Document, error) {
	if collection == "" {
		return Document{}, errors.NotValidf("empty collection")
	}
	id := NewID()
	resolved := t.store.resolve(collection, f)
	if err := putDoc(ctx, t.tx, collection, id, resolved); err != nil {
		return Document{}, err
	}
	t.touched[collection] = struct{}{}
	return decodeResolved(collection, id, resolved)
}

func (t *txn) Set(ctx context.Context, collection, id string, f Fields) error {
	if collection == "" || id == "" {
		return errors.NotValidf("document path %q/%q", collection, id)
	}
	if err := putDoc(ctx, t.tx, collection, id, t.store.resolve(collection, f)); err != nil {
		return err
	}
	t.touched[collection] = struct{}{}
	return nil
}

// Update merges f into the stored top-level fields. Untouched fields keep
// their values.
func (t *txn) Update(ctx context.Context, collection, id string, f Fields) error {
	doc, err := getDoc(ctx, t.tx, collection, id)
	if err != nil {
		return err
	}
	for k, v := range t.store.resolve(collection, f) {
		doc.Fields[k] = v
	}
	if err := putDoc(ctx, t.tx, collection, id, doc.Fields); err != nil {
		return err
	}
	t.touched[collection] = struct{}{}
	return nil
}

// Delete removes a document. Deleting an absent document is not an error.
func (t *txn) Delete(ctx context.Context, collection, id string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id); err != nil {
		return errors.Annotatef(err, "delete %s/%s", collection, id)
	}
	t.touched[collection] = struct{}{}
	return nil
}

// decodeResolved round-trips resolved fields through JSON so the returned
// document has the same value types as one read back from the store.
func decodeResolved(collection, id string, f Fields) (Document, error) {
	doc := Document{ID: id, Collection: collection, Fields: Fields{}}
	if err := (Document{Fields: f}).DataTo(&doc.Fields); err != nil {
		return Document{}, err
	}
	return doc, nil
}

type opKind int

const (
	opSet opKind = iota
	opUpdate
	opDelete
)

type batchOp struct {
	kind       opKind
	collection string
	id         string
	fields     Fields
}

type batch struct {
	store *Store
	ops   []batchOp
}

func (b *batch) Set(collection, id string, f Fields) Batch {
	if id == "" {
		id = NewID()
	}
	b.ops = append(b.ops, batchOp{kind: opSet, collection: collection, id: id, fields: f})
	return b
}

func (b *batch) Update(collection, id string, f Fields) Batch {
	b.ops = append(b.ops, batchOp{kind: opUpdate, collection: collection, id: id, fields: f})
	return b
}

func (b *batch) Delete(collection, id string) Batch {
	b.ops = append(b.ops, batchOp{kind: opDelete, collection: collection, id: id})
	return b
}

// Commit applies every collected write in one transaction.
func (b *batch) Commit(ctx context.Context) error {
	if len(b.ops) == 0 {
		return nil
	}
	return b.store.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		for _, op := range b.ops {
			var err error
			switch op.kind {
			case opSet:
				err = tx.Set(ctx, op.collection, op.id, op.fields)
			case opUpdate:
				err = tx.Update(ctx, op.collection, op.id, op.fields)
			case opDelete:
				err = tx.Delete(ctx, op.collection, op.id)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}
