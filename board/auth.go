package board

// Session is the identity of one client: an admin flag and the display
// name the user writes under. It gates the UI only; the store does not
// verify either value.
type Session struct {
	Admin  bool
	Author string
}

// CanEditPost reports whether the session may edit the category and
// question of p.
func (s Session) CanEditPost(p Post) bool {
	return s.Admin || (s.Author != "" && s.Author == p.From)
}

// CanDeletePost reports whether the session may delete p.
func (s Session) CanDeletePost(Post) bool {
	return s.Admin
}

// CanAnswer reports whether the session may write answer fields and
// change the resolution status of a post.
func (s Session) CanAnswer() bool {
	return s.Admin
}

// CanDeleteComment reports whether the session may delete c.
func (s Session) CanDeleteComment(c Comment) bool {
	return s.Admin || (s.Author != "" && s.Author == c.Author)
}
