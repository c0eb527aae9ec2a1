package board

import (
	"bytes"
	"strings"
	"testing"

	"github.com/eringen/qaboard/i18n"
)

func TestWriteCSV(t *testing.T) {
	posts := []Post{
		{Date: "2026-03-06", From: "Laura", Category: "RH", Question: "어쩌고, 저쩌고?", Answer: "이래라", AnsweredBy: "Zach", Resolved: Resolved},
		{Date: "2026-03-07", From: "Min", Category: "VV", Question: "Shipping?", Resolved: Pending},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, posts, i18n.English); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "\ufeff") {
		t.Fatal("missing byte order mark")
	}
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(out, "\ufeff"), "\n"), "\n")
	want := []string{
		"Date,From,Category,Question,Answer,Answered by,Status,Follow-up",
		`2026-03-06,Laura,RH,"어쩌고, 저쩌고?",이래라,Zach,Resolved,`,
		"2026-03-07,Min,VV,Shipping?,,,Pending,",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), out)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestWriteCSVKoreanHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil, i18n.Korean); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if !strings.Contains(buf.String(), "날짜,질문자,카테고리") {
		t.Errorf("header = %q", buf.String())
	}
}
