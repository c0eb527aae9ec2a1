package board

import (
	"context"
	"strings"
	"sync"

	"github.com/juju/errors"

	"github.com/eringen/qaboard/docstore"
)

func commentsQuery(postID string) docstore.Query {
	return docstore.Collection(commentsPath(postID)).OrderBy(fieldCreatedAt, docstore.Asc)
}

// Comments returns every comment of a post, oldest first.
func (d *Data) Comments(ctx context.Context, postID string) ([]Comment, error) {
	docs, err := d.client.Query(ctx, commentsQuery(postID))
	if err != nil {
		return nil, errors.Annotatef(err, "comments of %s", postID)
	}
	return d.decodeComments(docs), nil
}

func (d *Data) decodeComments(docs []docstore.Document) []Comment {
	comments := make([]Comment, 0, len(docs))
	for _, doc := range docs {
		c, err := decodeComment(doc)
		if err != nil {
			d.logger.Warnf("skipping comment %s: %v", doc.ID, err)
			continue
		}
		comments = append(comments, c)
	}
	return comments
}

// AddComment stores a comment or reply and updates the post's last-comment
// fields in the same transaction. A top-level comment also records its
// author as the answerer while the post is pending, and on a resolved post
// that has no answerer yet. Replies must target a top-level comment of the
// same post.
func (d *Data) AddComment(ctx context.Context, postID string, draft CommentDraft) (Comment, error) {
	draft.Author = strings.TrimSpace(draft.Author)
	draft.Text = strings.TrimSpace(draft.Text)
	draft.ParentID = strings.TrimSpace(draft.ParentID)
	if draft.Author == "" {
		return Comment{}, &ValidationError{Field: fieldAuthor, Reason: ReasonRequired}
	}
	if draft.Text == "" {
		return Comment{}, &ValidationError{Field: fieldText, Reason: ReasonRequired}
	}

	path := commentsPath(postID)
	var added Comment
	err := d.client.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		postDoc, err := tx.Get(ctx, postsCollection, postID)
		if err != nil {
			return err
		}
		post, err := decodePost(postDoc)
		if err != nil {
			return err
		}

		var parent *string
		if draft.ParentID != "" {
			parentDoc, err := tx.Get(ctx, path, draft.ParentID)
			if errors.Is(err, errors.NotFound) {
				return &ValidationError{Field: fieldParentID, Reason: ReasonParent}
			}
			if err != nil {
				return err
			}
			pc, err := decodeComment(parentDoc)
			if err != nil {
				return err
			}
			if pc.IsReply() {
				return &ValidationError{Field: fieldParentID, Reason: ReasonParent}
			}
			id := draft.ParentID
			parent = &id
		}

		doc, err := tx.Add(ctx, path, docstore.Fields{
			fieldAuthor:    draft.Author,
			fieldText:      draft.Text,
			fieldParentID:  parent,
			fieldCreatedAt: docstore.ServerTimestamp,
		})
		if err != nil {
			return err
		}
		if added, err = decodeComment(doc); err != nil {
			return err
		}

		update := docstore.Fields{
			fieldLastCommentAt: added.CreatedAt,
			fieldLastCommentBy: draft.Author,
		}
		if parent == nil && (post.Resolved != Resolved || post.AnsweredBy == "") {
			update[fieldAnsweredBy] = draft.Author
		}
		return tx.Update(ctx, postsCollection, postID, update)
	})
	if ve, ok := IsValidation(err); ok {
		return Comment{}, ve
	}
	if err != nil {
		return Comment{}, writeError(err, "add comment to %s", postID)
	}
	return added, nil
}

// DeleteComment removes a comment. Deleting a top-level comment removes
// its replies in the same transaction. The admin and the comment's author
// may delete. It returns the number of comments removed.
func (d *Data) DeleteComment(ctx context.Context, sess Session, postID, commentID string) (int, error) {
	path := commentsPath(postID)
	var removed int
	err := d.client.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		removed = 0
		doc, err := tx.Get(ctx, path, commentID)
		if err != nil {
			return err
		}
		c, err := decodeComment(doc)
		if err != nil {
			return err
		}
		if !sess.CanDeleteComment(c) {
			return ErrNotPermitted
		}
		if !c.IsReply() {
			replies, err := tx.Query(ctx, docstore.Collection(path).Where(fieldParentID, "==", commentID))
			if err != nil {
				return err
			}
			for _, r := range replies {
				if err := tx.Delete(ctx, path, r.ID); err != nil {
					return err
				}
				removed++
			}
		}
		if err := tx.Delete(ctx, path, commentID); err != nil {
			return err
		}
		removed++
		return nil
	})
	if errors.Is(err, ErrNotPermitted) {
		return 0, errors.Trace(err)
	}
	if err != nil {
		return 0, writeError(err, "delete comment %s", commentID)
	}
	return removed, nil
}

// CommentFeed keeps at most one live comment subscription. Watching a new
// post cancels the previous subscription before the new one opens, and no
// callback of a cancelled subscription runs after Watch returns.
type CommentFeed struct {
	data *Data

	mu     sync.Mutex
	gen    uint64
	cancel CancelFunc
	postID string
}

// NewCommentFeed returns an idle feed. Each viewer showing comments, such
// as a websocket connection, gets its own feed.
func (d *Data) NewCommentFeed() *CommentFeed {
	return &CommentFeed{data: d}
}

// Watch streams the comments of postID, oldest first, to onChange.
// onChange runs with the feed locked and must not call back into it.
func (f *CommentFeed) Watch(ctx context.Context, postID string, onChange func([]Comment)) CancelFunc {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopLocked()
	f.gen++
	gen := f.gen

	d := f.data
	sub, err := d.client.Watch(ctx, commentsQuery(postID))
	if err != nil {
		d.logger.Errorf("%v: comments of %s: %v", ErrStoreConnect, postID, err)
		return func() {}
	}
	id, ok := d.track(sub)
	if !ok {
		return func() {}
	}
	f.cancel = sub.Close
	f.postID = postID

	go func() {
		defer d.untrack(id)
		for docs := range sub.Snapshots() {
			comments := d.decodeComments(docs)
			f.mu.Lock()
			if f.gen == gen && onChange != nil {
				onChange(comments)
			}
			f.mu.Unlock()
		}
		if err := sub.Err(); err != nil {
			d.logger.Errorf("%v: comments of %s: %v", ErrStoreConnect, postID, err)
		}
	}()
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.gen == gen {
			f.stopLocked()
			f.gen++
		}
		sub.Close()
	}
}

// PostID returns the post currently watched, or "".
func (f *CommentFeed) PostID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.postID
}

// Close cancels the current subscription, if any.
func (f *CommentFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopLocked()
	f.gen++
}

func (f *CommentFeed) stopLocked() {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.postID = ""
}

// SubscribeComments streams the comments of one post through the default
// feed of d, replacing whatever post that feed watched before.
func (d *Data) SubscribeComments(ctx context.Context, postID string, onChange func([]Comment)) CancelFunc {
	return d.comments.Watch(ctx, postID, onChange)
}
