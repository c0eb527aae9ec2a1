package board

import (
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestBuildTree(t *testing.T) {
	base := time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC)
	comments := []Comment{
		{ID: "r2", Author: "Zach", Text: "second reply", ParentID: strPtr("c1"), CreatedAt: base.Add(4 * time.Minute)},
		{ID: "c2", Author: "Ed", Text: "another", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "c1", Author: "Laura", Text: "first", CreatedAt: base},
		{ID: "r1", Author: "Ed", Text: "reply", ParentID: strPtr("c1"), CreatedAt: base.Add(time.Minute)},
		{ID: "orphan", Author: "Min", Text: "lost", ParentID: strPtr("gone"), CreatedAt: base.Add(3 * time.Minute)},
		{ID: "nested", Author: "Min", Text: "reply to reply", ParentID: strPtr("r1"), CreatedAt: base.Add(5 * time.Minute)},
	}

	threads := BuildTree(comments, Session{Author: "Ed"}, TreeOptions{Now: base.Add(time.Hour)})
	if len(threads) != 2 {
		t.Fatalf("len(threads) = %d, want 2", len(threads))
	}
	if threads[0].ID != "c1" || threads[1].ID != "c2" {
		t.Fatalf("thread order = %s, %s; want c1, c2", threads[0].ID, threads[1].ID)
	}
	replies := threads[0].Replies
	if len(replies) != 2 || replies[0].ID != "r1" || replies[1].ID != "r2" {
		t.Fatalf("replies of c1 = %+v, want r1, r2", replies)
	}
	if len(threads[1].Replies) != 0 {
		t.Errorf("c2 has %d replies, want 0", len(threads[1].Replies))
	}

	if threads[0].Deletable {
		t.Error("Ed should not be able to delete Laura's comment")
	}
	if !threads[1].Deletable || !replies[0].Deletable {
		t.Error("Ed should be able to delete own comments")
	}
	if threads[0].Posted != "2026-03-06 10:00" {
		t.Errorf("Posted = %q", threads[0].Posted)
	}
	if threads[0].Ago != "1 hour ago" {
		t.Errorf("Ago = %q, want %q", threads[0].Ago, "1 hour ago")
	}
}

func TestBuildTreeAdminCanDeleteAll(t *testing.T) {
	comments := []Comment{
		{ID: "c1", Author: "Laura", CreatedAt: time.Now()},
		{ID: "r1", Author: "Ed", ParentID: strPtr("c1"), CreatedAt: time.Now()},
	}
	threads := BuildTree(comments, Session{Admin: true}, TreeOptions{})
	if !threads[0].Deletable || !threads[0].Replies[0].Deletable {
		t.Error("admin should be able to delete every comment")
	}
}

func TestBuildTreeEmpty(t *testing.T) {
	threads := BuildTree(nil, Session{}, TreeOptions{})
	if threads == nil || len(threads) != 0 {
		t.Fatalf("BuildTree(nil) = %#v, want empty slice", threads)
	}
}

func TestTopLevel(t *testing.T) {
	comments := []Comment{
		{ID: "c1"},
		{ID: "r1", ParentID: strPtr("c1")},
		{ID: "c2", ParentID: strPtr("")},
	}
	top := TopLevel(comments)
	if len(top) != 2 || top[0].ID != "c1" || top[1].ID != "c2" {
		t.Fatalf("TopLevel = %+v", top)
	}
}
