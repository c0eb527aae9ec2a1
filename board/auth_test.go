package board

import "testing"

func TestCanEditPost(t *testing.T) {
	post := Post{From: "Laura"}
	tests := []struct {
		name string
		sess Session
		want bool
	}{
		{"admin without name", Session{Admin: true}, true},
		{"admin with other name", Session{Admin: true, Author: "Zach"}, true},
		{"author", Session{Author: "Laura"}, true},
		{"author different case", Session{Author: "laura"}, false},
		{"other author", Session{Author: "Zach"}, false},
		{"anonymous", Session{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sess.CanEditPost(post); got != tt.want {
				t.Errorf("CanEditPost = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanEditPostEmptyAuthorNeverMatches(t *testing.T) {
	if (Session{}).CanEditPost(Post{From: ""}) {
		t.Fatal("empty author should not match an empty from field")
	}
}

func TestAdminOnlyCapabilities(t *testing.T) {
	author := Session{Author: "Laura"}
	admin := Session{Admin: true}
	post := Post{From: "Laura"}

	if author.CanDeletePost(post) || author.CanAnswer() {
		t.Error("authors must not delete or answer posts")
	}
	if !admin.CanDeletePost(post) || !admin.CanAnswer() {
		t.Error("admin must delete and answer posts")
	}
}

func TestCanDeleteComment(t *testing.T) {
	c := Comment{Author: "Ed"}
	if !(Session{Author: "Ed"}).CanDeleteComment(c) {
		t.Error("author should delete own comment")
	}
	if (Session{Author: "ed"}).CanDeleteComment(c) {
		t.Error("author match is case-sensitive")
	}
	if !(Session{Admin: true}).CanDeleteComment(c) {
		t.Error("admin should delete any comment")
	}
	if (Session{}).CanDeleteComment(Comment{}) {
		t.Error("anonymous session should not delete anonymous comments")
	}
}
