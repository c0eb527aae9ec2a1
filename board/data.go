// Package board is the data layer of the Q&A board: a local mirror of the
// posts collection kept fresh by a store subscription, the filter and
// pagination pipeline over it, comment trees, the session authorization
// rules, and the one-shot answeredBy backfill.
package board

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/labstack/gommon/log"

	"github.com/eringen/qaboard/docstore"
)

// Logger is the logging surface used by the board. echo.Logger and gommon
// loggers satisfy it.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// CancelFunc ends a subscription. Calling it more than once is safe.
type CancelFunc func()

// Data owns the local post cache. Only the subscription and fetch paths
// write the cache; every other reader gets the last delivered snapshot.
type Data struct {
	client   docstore.Client
	logger   Logger
	clock    clock.Clock
	location *time.Location

	mu    sync.RWMutex
	posts []Post

	subMu  sync.Mutex
	subs   map[uint64]*docstore.Subscription
	nextID uint64
	closed bool

	comments *CommentFeed
}

// Option configures Data.
type Option func(*Data)

// WithLogger sets the logger (default: a gommon logger prefixed "board").
func WithLogger(l Logger) Option {
	return func(d *Data) {
		d.logger = l
	}
}

// WithClock sets the clock used for submission dates and comment ages.
func WithClock(c clock.Clock) Option {
	return func(d *Data) {
		d.clock = c
	}
}

// WithLocation sets the time zone for submission dates and display times.
func WithLocation(loc *time.Location) Option {
	return func(d *Data) {
		d.location = loc
	}
}

// New returns a Data with an empty cache. Call Subscribe or FetchPosts to
// fill it and Close to release its subscriptions.
func New(client docstore.Client, opts ...Option) *Data {
	d := &Data{
		client:   client,
		logger:   log.New("board"),
		clock:    clock.WallClock,
		location: time.Local,
		posts:    []Post{},
		subs:     make(map[uint64]*docstore.Subscription),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.comments = d.NewCommentFeed()
	return d
}

// Close cancels every subscription opened through d. Later subscriptions
// are refused.
func (d *Data) Close() {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	for id, sub := range d.subs {
		sub.Close()
		delete(d.subs, id)
	}
}

func (d *Data) track(sub *docstore.Subscription) (uint64, bool) {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	if d.closed {
		sub.Close()
		return 0, false
	}
	d.nextID++
	d.subs[d.nextID] = sub
	return d.nextID, true
}

func (d *Data) untrack(id uint64) {
	d.subMu.Lock()
	delete(d.subs, id)
	d.subMu.Unlock()
}

func postsQuery() docstore.Query {
	return docstore.Collection(postsCollection).OrderBy(fieldCreatedAt, docstore.Desc)
}

func commentsPath(postID string) string {
	return docstore.Sub(postsCollection, postID, commentsCollection)
}

// Subscribe streams the posts collection, newest first. Every snapshot
// replaces the cache and is passed to onChange. A subscription that cannot
// be opened or that drops is logged; the cache keeps its last snapshot.
func (d *Data) Subscribe(ctx context.Context, onChange func([]Post)) CancelFunc {
	sub, err := d.client.Watch(ctx, postsQuery())
	if err != nil {
		d.logger.Errorf("%v: posts: %v", ErrStoreConnect, err)
		return func() {}
	}
	id, ok := d.track(sub)
	if !ok {
		return func() {}
	}
	go func() {
		defer d.untrack(id)
		for docs := range sub.Snapshots() {
			posts := d.decodePosts(docs)
			d.setPosts(posts)
			if onChange != nil {
				onChange(posts)
			}
		}
		if err := sub.Err(); err != nil {
			d.logger.Errorf("%v: posts: %v", ErrStoreConnect, err)
		}
	}()
	return sub.Close
}

// Posts returns the last known snapshot, newest first. The slice is
// shared and must not be modified.
func (d *Data) Posts() []Post {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.posts
}

// Post returns the cached post with the given id.
func (d *Data) Post(id string) (Post, bool) {
	for _, p := range d.Posts() {
		if p.ID == id {
			return p, true
		}
	}
	return Post{}, false
}

// FetchPosts reads the collection once and replaces the cache.
func (d *Data) FetchPosts(ctx context.Context) ([]Post, error) {
	docs, err := d.client.Query(ctx, postsQuery())
	if err != nil {
		return nil, errors.Annotate(err, "fetch posts")
	}
	posts := d.decodePosts(docs)
	d.setPosts(posts)
	return posts, nil
}

func (d *Data) setPosts(posts []Post) {
	d.mu.Lock()
	d.posts = posts
	d.mu.Unlock()
}

func (d *Data) decodePosts(docs []docstore.Document) []Post {
	posts := make([]Post, 0, len(docs))
	for _, doc := range docs {
		p, err := decodePost(doc)
		if err != nil {
			d.logger.Warnf("skipping post %s: %v", doc.ID, err)
			continue
		}
		posts = append(posts, p)
	}
	return posts
}

func decodePost(doc docstore.Document) (Post, error) {
	var p Post
	if err := doc.DataTo(&p); err != nil {
		return Post{}, err
	}
	p.ID = doc.ID
	return p, nil
}

func decodeComment(doc docstore.Document) (Comment, error) {
	var c Comment
	if err := doc.DataTo(&c); err != nil {
		return Comment{}, err
	}
	c.ID = doc.ID
	return c, nil
}

// Today returns the submission date for new questions.
func (d *Data) Today() string {
	return d.clock.Now().In(d.location).Format("2006-01-02")
}

// TreeOptions returns the options for BuildTree matching d's clock and
// time zone.
func (d *Data) TreeOptions() TreeOptions {
	return TreeOptions{Location: d.location, Now: d.clock.Now()}
}

func postFields(p Post) docstore.Fields {
	f := docstore.Fields{
		fieldDate:       p.Date,
		fieldFrom:       p.From,
		fieldCategory:   p.Category,
		fieldQuestion:   p.Question,
		fieldAnswer:     p.Answer,
		fieldAnsweredBy: p.AnsweredBy,
		fieldResolved:   string(p.Resolved),
		fieldFollowUp:   p.FollowUp,
		fieldCreatedAt:  docstore.ServerTimestamp,
	}
	if !p.CreatedAt.IsZero() {
		f[fieldCreatedAt] = p.CreatedAt
	}
	return f
}

// AddPost appends p with a server-assigned id and creation time and
// returns the stored post.
func (d *Data) AddPost(ctx context.Context, p Post) (Post, error) {
	doc, err := d.client.Add(ctx, postsCollection, postFields(p))
	if err != nil {
		return Post{}, writeError(err, "add post")
	}
	return decodePost(doc)
}

// SubmitQuestion validates a draft against the cache and adds it as a
// pending post dated today. categories is the current taxonomy; nil skips
// the category check.
func (d *Data) SubmitQuestion(ctx context.Context, draft Draft, categories []string) (Post, error) {
	draft.From = strings.TrimSpace(draft.From)
	draft.Question = strings.TrimSpace(draft.Question)
	draft.Category = strings.TrimSpace(draft.Category)
	if err := ValidateQuestion(draft, d.Posts(), categories); err != nil {
		return Post{}, err
	}
	return d.AddPost(ctx, Post{
		Date:     d.Today(),
		From:     draft.From,
		Category: draft.Category,
		Question: draft.Question,
		Resolved: Pending,
	})
}

// UpdatePost merges f into the stored post. Fields not named in f keep
// their values.
func (d *Data) UpdatePost(ctx context.Context, id string, f docstore.Fields) error {
	return writeError(d.client.Update(ctx, postsCollection, id, f), "update post %s", id)
}

// FetchPost reads one post from the store, bypassing the cache.
func (d *Data) FetchPost(ctx context.Context, id string) (Post, error) {
	return d.getPost(ctx, id)
}

func (d *Data) getPost(ctx context.Context, id string) (Post, error) {
	doc, err := d.client.Get(ctx, postsCollection, id)
	if err != nil {
		return Post{}, errors.Trace(err)
	}
	return decodePost(doc)
}

// EditPost changes the category and question of a post. Admins and the
// post's author may edit; answer fields are untouched. categories, when
// non-empty, is the taxonomy the category must belong to, as for
// SubmitQuestion.
func (d *Data) EditPost(ctx context.Context, sess Session, id, category, question string, categories []string) error {
	p, err := d.getPost(ctx, id)
	if err != nil {
		return err
	}
	if !sess.CanEditPost(p) {
		return errors.Trace(ErrNotPermitted)
	}
	question = strings.TrimSpace(question)
	category = strings.TrimSpace(category)
	if question == "" {
		return &ValidationError{Field: fieldQuestion, Reason: ReasonRequired}
	}
	if len(categories) > 0 && !containsFold(categories, category) {
		return &ValidationError{Field: fieldCategory, Reason: ReasonCategory}
	}
	others := make([]Post, 0, len(d.Posts()))
	for _, o := range d.Posts() {
		if o.ID != id {
			others = append(others, o)
		}
	}
	if IsDuplicate(question, others) {
		return &ValidationError{Field: fieldQuestion, Reason: ReasonDuplicate}
	}
	if ContainsBlockedKeyword(question) {
		return &ValidationError{Field: fieldQuestion, Reason: ReasonBlocked}
	}
	return d.UpdatePost(ctx, id, docstore.Fields{
		fieldCategory: category,
		fieldQuestion: question,
	})
}

// AnswerPost writes the answer fields of a post. Admin only.
func (d *Data) AnswerPost(ctx context.Context, sess Session, id string, a Answer) error {
	if !sess.CanAnswer() {
		return errors.Trace(ErrNotPermitted)
	}
	a.Answer = strings.TrimSpace(a.Answer)
	a.AnsweredBy = strings.TrimSpace(a.AnsweredBy)
	if a.AnsweredBy == "" {
		return &ValidationError{Field: fieldAnsweredBy, Reason: ReasonRequired}
	}
	if a.Answer == "" {
		return &ValidationError{Field: fieldAnswer, Reason: ReasonRequired}
	}
	if a.Resolved != Resolved {
		a.Resolved = Pending
	}
	return d.UpdatePost(ctx, id, docstore.Fields{
		fieldAnswer:     a.Answer,
		fieldAnsweredBy: a.AnsweredBy,
		fieldResolved:   string(a.Resolved),
		fieldFollowUp:   strings.TrimSpace(a.FollowUp),
	})
}

// ToggleResolution flips a post between Pending and Resolved and returns
// the new state. Admin only.
func (d *Data) ToggleResolution(ctx context.Context, sess Session, id string) (Resolution, error) {
	if !sess.CanAnswer() {
		return "", errors.Trace(ErrNotPermitted)
	}
	p, err := d.getPost(ctx, id)
	if err != nil {
		return "", err
	}
	next := p.Resolved.Toggle()
	if err := d.UpdatePost(ctx, id, docstore.Fields{fieldResolved: string(next)}); err != nil {
		return "", err
	}
	return next, nil
}

// DeletePost removes a post and every comment it owns in one transaction.
// Admin only.
func (d *Data) DeletePost(ctx context.Context, sess Session, id string) error {
	if !sess.Admin {
		return errors.Trace(ErrNotPermitted)
	}
	err := d.client.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		if _, err := tx.Get(ctx, postsCollection, id); err != nil {
			return err
		}
		comments, err := tx.Query(ctx, docstore.Collection(commentsPath(id)))
		if err != nil {
			return err
		}
		for _, c := range comments {
			if err := tx.Delete(ctx, c.Collection, c.ID); err != nil {
				return err
			}
		}
		return tx.Delete(ctx, postsCollection, id)
	})
	return writeError(err, "delete post %s", id)
}
