package board

import "time"

// Resolution is the stored resolution status of a post.
type Resolution string

const (
	Resolved Resolution = "Yes"
	Pending  Resolution = "No"
)

// Toggle returns the other resolution state. Unknown values are treated
// as Pending.
func (r Resolution) Toggle() Resolution {
	if r == Resolved {
		return Pending
	}
	return Resolved
}

// Label returns the display state name.
func (r Resolution) Label() string {
	if r == Resolved {
		return "Resolved"
	}
	return "Pending"
}

// Post is a question and its answer. Field names follow the stored
// document shape.
type Post struct {
	ID            string     `json:"-"`
	Date          string     `json:"date"`
	From          string     `json:"from"`
	Category      string     `json:"category"`
	Question      string     `json:"question"`
	Answer        string     `json:"answer"`
	AnsweredBy    string     `json:"answeredBy"`
	Resolved      Resolution `json:"resolved"`
	FollowUp      string     `json:"followUp"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastCommentAt *time.Time `json:"lastCommentAt,omitempty"`
	LastCommentBy string     `json:"lastCommentBy,omitempty"`
}

// Draft is a question as submitted, before the store assigns an id and a
// creation time.
type Draft struct {
	From     string
	Category string
	Question string
}

// Answer carries the fields an admin writes when answering a post.
type Answer struct {
	Answer     string
	AnsweredBy string
	Resolved   Resolution
	FollowUp   string
}

// Comment belongs to exactly one post. ParentID is nil for top-level
// comments and references a top-level comment of the same post for
// replies.
type Comment struct {
	ID        string    `json:"-"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	ParentID  *string   `json:"parentId"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsReply reports whether c answers another comment.
func (c Comment) IsReply() bool {
	return c.ParentID != nil && *c.ParentID != ""
}

// CommentDraft is a comment or reply as submitted.
type CommentDraft struct {
	Author   string
	Text     string
	ParentID string
}

// Stored field names.
const (
	postsCollection    = "posts"
	commentsCollection = "comments"

	fieldDate          = "date"
	fieldFrom          = "from"
	fieldCategory      = "category"
	fieldQuestion      = "question"
	fieldAnswer        = "answer"
	fieldAnsweredBy    = "answeredBy"
	fieldResolved      = "resolved"
	fieldFollowUp      = "followUp"
	fieldCreatedAt     = "createdAt"
	fieldLastCommentAt = "lastCommentAt"
	fieldLastCommentBy = "lastCommentBy"
	fieldAuthor        = "author"
	fieldText          = "text"
	fieldParentID      = "parentId"
)
