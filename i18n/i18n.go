// Package i18n negotiates the display language (Korean or English) and
// holds the user-facing messages and labels of the board.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Lang is a supported display language.
type Lang string

const (
	Korean  Lang = "ko"
	English Lang = "en"
)

// Default is the language used when nothing else is known.
const Default = Korean

// Supported lists the languages in matcher preference order.
var Supported = []Lang{Korean, English}

var matcher = language.NewMatcher([]language.Tag{language.Korean, language.English})

// Parse returns the Lang named by s ("ko", "en", "ko-KR", ...).
func Parse(s string) (Lang, bool) {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	switch base.String() {
	case "ko":
		return Korean, true
	case "en":
		return English, true
	}
	return "", false
}

// Negotiate picks a language from an Accept-Language header value.
func Negotiate(acceptLanguage string) Lang {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	return Supported[idx]
}

// Tag returns the BCP 47 tag of l.
func (l Lang) Tag() language.Tag {
	if l == English {
		return language.English
	}
	return language.Korean
}

func (l Lang) String() string {
	return string(l)
}

// Key names a message.
type Key string

const (
	QuestionSubmitted Key = "question.submitted"
	AnswerSubmitted   Key = "answer.submitted"
	DuplicateQuestion Key = "question.duplicate"
	WholesaleBlocked  Key = "question.blocked"
	FieldRequired     Key = "field.required"
	UnknownCategory   Key = "category.unknown"
	InvalidParent     Key = "comment.parent"
	WriteFailed       Key = "store.write"
	NotPermitted      Key = "not.permitted"
	NotFound          Key = "not.found"
	LoginFailed       Key = "login.failed"
	TooManyRequests   Key = "too.many"
	ConfirmDelete     Key = "confirm.delete"
	BoardEmpty        Key = "board.empty"
	StatusResolved    Key = "status.resolved"
	StatusPending     Key = "status.pending"
	ThDate            Key = "th.date"
	ThFrom            Key = "th.from"
	ThCategory        Key = "th.category"
	ThQuestion        Key = "th.question"
	ThAnswer          Key = "th.answer"
	ThStatus          Key = "th.status"
	ThAnsweredBy      Key = "th.answeredBy"
	ThFollowUp        Key = "th.followUp"
	BoardTitle        Key = "board.title"
	DetailTitle       Key = "detail.title"
	LoginTitle        Key = "login.title"
	LoginID           Key = "login.id"
	LoginPassword     Key = "login.pw"
	LoginSubmit       Key = "login.submit"
	Comments          Key = "comments"
	NoComments        Key = "comments.empty"
	ServerError       Key = "server.error"
)

var messages = map[Lang]map[Key]string{
	Korean: {
		QuestionSubmitted: "질문이 등록되었습니다.",
		AnswerSubmitted:   "답변이 등록되었습니다.",
		DuplicateQuestion: "비슷한 질문이 이미 등록되어 있습니다. 기존 질문을 확인해주세요.",
		WholesaleBlocked:  "도매 관련 문의는 별도로 연락 부탁드립니다.",
		FieldRequired:     "%s 항목을 입력해주세요.",
		UnknownCategory:   "등록되지 않은 카테고리입니다.",
		InvalidParent:     "답글을 달 수 없는 댓글입니다.",
		WriteFailed:       "등록 중 오류가 발생했습니다.",
		NotPermitted:      "권한이 없습니다.",
		NotFound:          "게시물을 찾을 수 없습니다.",
		LoginFailed:       "아이디 또는 비밀번호가 올바르지 않습니다.",
		TooManyRequests:   "요청이 너무 많습니다. 잠시 후 다시 시도해주세요.",
		ConfirmDelete:     "삭제하시겠습니까?",
		BoardEmpty:        "게시물이 없습니다.",
		StatusResolved:    "해결",
		StatusPending:     "대기",
		ThDate:            "날짜",
		ThFrom:            "질문자",
		ThCategory:        "카테고리",
		ThQuestion:        "질문",
		ThAnswer:          "답변",
		ThStatus:          "상태",
		ThAnsweredBy:      "답변자",
		ThFollowUp:        "후속 조치",
		BoardTitle:        "게시판",
		DetailTitle:       "질문 상세",
		LoginTitle:        "관리자 로그인",
		LoginID:           "아이디",
		LoginPassword:     "비밀번호",
		LoginSubmit:       "로그인",
		Comments:          "댓글",
		NoComments:        "댓글이 없습니다.",
		ServerError:       "일시적인 오류가 발생했습니다.",
	},
	English: {
		QuestionSubmitted: "Question submitted successfully.",
		AnswerSubmitted:   "Answer submitted successfully.",
		DuplicateQuestion: "A similar question already exists. Please check existing questions.",
		WholesaleBlocked:  "For wholesale inquiries, please contact us separately.",
		FieldRequired:     "Please fill in %s.",
		UnknownCategory:   "Unknown category.",
		InvalidParent:     "Replies can only answer a top-level comment.",
		WriteFailed:       "An error occurred. Please try again.",
		NotPermitted:      "You are not allowed to do that.",
		NotFound:          "Post not found.",
		LoginFailed:       "Invalid username or password.",
		TooManyRequests:   "Too many requests. Please try again later.",
		ConfirmDelete:     "Delete this post?",
		BoardEmpty:        "No posts found.",
		StatusResolved:    "Resolved",
		StatusPending:     "Pending",
		ThDate:            "Date",
		ThFrom:            "From",
		ThCategory:        "Category",
		ThQuestion:        "Question",
		ThAnswer:          "Answer",
		ThStatus:          "Status",
		ThAnsweredBy:      "Answered by",
		ThFollowUp:        "Follow-up",
		BoardTitle:        "Board",
		DetailTitle:       "Question Detail",
		LoginTitle:        "Admin Login",
		LoginID:           "Username",
		LoginPassword:     "Password",
		LoginSubmit:       "Login",
		Comments:          "Comments",
		NoComments:        "No comments yet.",
		ServerError:       "Something went wrong.",
	},
}

// T returns the message for key in lang, formatted with args. Unknown
// languages use Default; unknown keys return the key itself.
func T(lang Lang, key Key, args ...any) string {
	table, ok := messages[lang]
	if !ok {
		table = messages[Default]
	}
	msg, ok := table[key]
	if !ok {
		return string(key)
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

// CSVHeader returns the export header row in lang.
func CSVHeader(lang Lang) []string {
	keys := []Key{ThDate, ThFrom, ThCategory, ThQuestion, ThAnswer, ThAnsweredBy, ThStatus, ThFollowUp}
	header := make([]string, len(keys))
	for i, k := range keys {
		header[i] = T(lang, k)
	}
	return header
}
