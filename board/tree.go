package board

import (
	"sort"
	"time"

	"github.com/dustin/go-humanize"
)

// DisplayLayout formats comment times to the minute.
const DisplayLayout = "2006-01-02 15:04"

// CommentView is a comment prepared for rendering.
type CommentView struct {
	Comment
	Posted    string // creation time to the minute
	Ago       string // creation time relative to the assembly time
	Deletable bool
}

// Thread is a top-level comment with its replies.
type Thread struct {
	CommentView
	Replies []CommentView
}

// TreeOptions controls how BuildTree formats times.
type TreeOptions struct {
	Location *time.Location // defaults to UTC
	Now      time.Time      // defaults to time.Now()
}

// BuildTree groups a flat comment list into top-level comments with their
// replies, both ordered by creation time. A reply whose parent is not a
// top-level comment of the list is dropped: the cascade delete should
// prevent orphans, but a comment snapshot can race a delete.
func BuildTree(comments []Comment, sess Session, opts TreeOptions) []Thread {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	ordered := make([]Comment, len(comments))
	copy(ordered, comments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	view := func(c Comment) CommentView {
		v := CommentView{Comment: c, Deletable: sess.CanDeleteComment(c)}
		if !c.CreatedAt.IsZero() {
			v.Posted = c.CreatedAt.In(loc).Format(DisplayLayout)
			v.Ago = humanize.RelTime(c.CreatedAt, now, "ago", "from now")
		}
		return v
	}

	threads := []Thread{}
	index := make(map[string]int)
	for _, c := range ordered {
		if c.IsReply() {
			continue
		}
		index[c.ID] = len(threads)
		threads = append(threads, Thread{CommentView: view(c), Replies: []CommentView{}})
	}
	for _, c := range ordered {
		if !c.IsReply() {
			continue
		}
		i, ok := index[*c.ParentID]
		if !ok {
			continue
		}
		threads[i].Replies = append(threads[i].Replies, view(c))
	}
	return threads
}

// TopLevel returns the comments without a parent, in input order.
func TopLevel(comments []Comment) []Comment {
	var out []Comment
	for _, c := range comments {
		if !c.IsReply() {
			out = append(out, c)
		}
	}
	return out
}
