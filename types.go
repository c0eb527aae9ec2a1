package qaboard

import (
	"time"

	"github.com/eringen/qaboard/board"
)

// errorBody is the JSON shape of every failed API call.
type errorBody struct {
	Error string `json:"error"`
}

// messageBody acknowledges a write with a localized message.
type messageBody struct {
	Message string `json:"message"`
}

// SessionInfo is what a client knows about its own session.
type SessionInfo struct {
	Admin  bool   `json:"admin"`
	Author string `json:"author"`
	Lang   string `json:"lang"`
	CSRF   string `json:"csrf"`
}

// PostJSON is a post as served by the API, with the capabilities of the
// requesting session.
type PostJSON struct {
	ID            string     `json:"id"`
	Date          string     `json:"date"`
	From          string     `json:"from"`
	Category      string     `json:"category"`
	Question      string     `json:"question"`
	Answer        string     `json:"answer"`
	AnsweredBy    string     `json:"answeredBy"`
	Resolved      string     `json:"resolved"`
	Status        string     `json:"status"`
	FollowUp      string     `json:"followUp"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastCommentAt *time.Time `json:"lastCommentAt,omitempty"`
	LastCommentBy string     `json:"lastCommentBy,omitempty"`
	CanEdit       bool       `json:"canEdit"`
	CanDelete     bool       `json:"canDelete"`
}

func toPostJSON(p board.Post, sess board.Session, status string) PostJSON {
	return PostJSON{
		ID:            p.ID,
		Date:          p.Date,
		From:          p.From,
		Category:      p.Category,
		Question:      p.Question,
		Answer:        p.Answer,
		AnsweredBy:    p.AnsweredBy,
		Resolved:      string(p.Resolved),
		Status:        status,
		FollowUp:      p.FollowUp,
		CreatedAt:     p.CreatedAt,
		LastCommentAt: p.LastCommentAt,
		LastCommentBy: p.LastCommentBy,
		CanEdit:       sess.CanEditPost(p),
		CanDelete:     sess.CanDeletePost(p),
	}
}

// PageJSON is one page of the filtered board.
type PageJSON struct {
	Items      []PostJSON `json:"items"`
	Page       int        `json:"page"`
	TotalPages int        `json:"totalPages"`
	Total      int        `json:"total"`
}

// CommentJSON is one comment of a thread.
type CommentJSON struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	ParentID  string `json:"parentId,omitempty"`
	Posted    string `json:"posted"`
	Ago       string `json:"ago"`
	Deletable bool   `json:"deletable"`
}

// ThreadJSON is a top-level comment with its replies.
type ThreadJSON struct {
	CommentJSON
	Replies []CommentJSON `json:"replies"`
}

// CommentsJSON is the comment tree of one post.
type CommentsJSON struct {
	PostID  string       `json:"postId"`
	Count   int          `json:"count"`
	Threads []ThreadJSON `json:"threads"`
}

func toCommentJSON(v board.CommentView) CommentJSON {
	out := CommentJSON{
		ID:        v.ID,
		Author:    v.Author,
		Text:      v.Text,
		Posted:    v.Posted,
		Ago:       v.Ago,
		Deletable: v.Deletable,
	}
	if v.IsReply() {
		out.ParentID = *v.ParentID
	}
	return out
}

func toCommentsJSON(postID string, threads []board.Thread) CommentsJSON {
	out := CommentsJSON{PostID: postID, Threads: make([]ThreadJSON, 0, len(threads))}
	for _, t := range threads {
		tj := ThreadJSON{CommentJSON: toCommentJSON(t.CommentView), Replies: make([]CommentJSON, 0, len(t.Replies))}
		for _, r := range t.Replies {
			tj.Replies = append(tj.Replies, toCommentJSON(r))
		}
		out.Count += 1 + len(t.Replies)
		out.Threads = append(out.Threads, tj)
	}
	return out
}

// request bodies

type loginRequest struct {
	ID       string `json:"id" form:"id"`
	Password string `json:"password" form:"password"`
}

type authorRequest struct {
	Author string `json:"author"`
}

type langRequest struct {
	Lang string `json:"lang"`
}

type questionRequest struct {
	From     string `json:"from"`
	Category string `json:"category"`
	Question string `json:"question"`
}

type editRequest struct {
	Category string `json:"category"`
	Question string `json:"question"`
}

type answerRequest struct {
	Answer     string `json:"answer"`
	AnsweredBy string `json:"answeredBy"`
	Resolved   string `json:"resolved"`
	FollowUp   string `json:"followUp"`
}

type commentRequest struct {
	Author   string `json:"author"`
	Text     string `json:"text"`
	ParentID string `json:"parentId"`
}

type categoriesRequest struct {
	Categories []string `json:"categories"`
}
