package board

import (
	"fmt"
	"testing"

	"github.com/go-playground/assert/v2"
)

func samplePipelinePosts() []Post {
	return []Post{
		{ID: "1", From: "Laura", Category: "RH", Question: "How do refunds work?", Answer: "Ask Zach", AnsweredBy: "Zach", Resolved: Resolved},
		{ID: "2", From: "Min", Category: "RH", Question: "Shipping to Busan?", AnsweredBy: "Ed", Resolved: Pending},
		{ID: "3", From: "Laura", Category: "VV", Question: "Color options", Answer: "See catalog", AnsweredBy: "Erika", Resolved: Resolved},
		{ID: "4", From: "Jun", Category: "commercial", Question: "배송 기간은?", AnsweredBy: "US-commercial", Resolved: Pending},
	}
}

func ids(posts []Post) []string {
	out := []string{}
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	posts := samplePipelinePosts()
	tests := []struct {
		name string
		c    Criteria
		want []string
	}{
		{"no criteria", Criteria{}, []string{"1", "2", "3", "4"}},
		{"all keywords", Criteria{Category: "all", Status: "all"}, []string{"1", "2", "3", "4"}},
		{"category and status", Criteria{Category: "RH", Status: "Yes"}, []string{"1"}},
		{"category case-insensitive", Criteria{Category: "rh"}, []string{"1", "2"}},
		{"search question", Criteria{Search: "SHIPPING"}, []string{"2"}},
		{"search answer", Criteria{Search: "catalog"}, []string{"3"}},
		{"search author", Criteria{Search: "laura"}, []string{"1", "3"}},
		{"search category", Criteria{Search: "commer"}, []string{"4"}},
		{"search korean", Criteria{Search: "배송"}, []string{"4"}},
		{"answerer substring", Criteria{Answerer: "er"}, []string{"3", "4"}},
		{"answerer case-insensitive", Criteria{Answerer: "ZACH"}, []string{"1"}},
		{"status pending", Criteria{Status: "No"}, []string{"2", "4"}},
		{"no match", Criteria{Search: "nothing here"}, []string{}},
		{"intersection", Criteria{Search: "laura", Status: "Yes", Category: "VV"}, []string{"3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, ids(Filter(posts, tt.c)), tt.want)
		})
	}
}

func TestFilterIsIntersection(t *testing.T) {
	posts := samplePipelinePosts()
	search := Criteria{Search: "laura"}
	status := Criteria{Status: "Yes"}
	both := Criteria{Search: "laura", Status: "Yes"}

	inStatus := map[string]bool{}
	for _, p := range Filter(posts, status) {
		inStatus[p.ID] = true
	}
	want := []string{}
	for _, p := range Filter(posts, search) {
		if inStatus[p.ID] {
			want = append(want, p.ID)
		}
	}
	assert.Equal(t, ids(Filter(posts, both)), want)
}

func TestPaginateClamps(t *testing.T) {
	posts := make([]Post, 23)
	for i := range posts {
		posts[i].ID = fmt.Sprint(i)
	}
	tests := []struct {
		page     int
		wantPage int
		wantLen  int
	}{
		{1, 1, 10},
		{2, 2, 10},
		{3, 3, 3},
		{5, 3, 3},
		{0, 1, 10},
		{-4, 1, 10},
	}
	for _, tt := range tests {
		got := Paginate(posts, tt.page, 10)
		if got.TotalPages != 3 {
			t.Errorf("page %d: TotalPages = %d, want 3", tt.page, got.TotalPages)
		}
		if got.Page != tt.wantPage {
			t.Errorf("page %d: Page = %d, want %d", tt.page, got.Page, tt.wantPage)
		}
		if len(got.Items) != tt.wantLen {
			t.Errorf("page %d: len(Items) = %d, want %d", tt.page, len(got.Items), tt.wantLen)
		}
		if got.Total != 23 {
			t.Errorf("page %d: Total = %d, want 23", tt.page, got.Total)
		}
	}
}

func TestPaginateEmpty(t *testing.T) {
	got := Paginate(nil, 3, PageSize)
	assert.Equal(t, got.Page, 1)
	assert.Equal(t, got.TotalPages, 1)
	assert.Equal(t, len(got.Items), 0)
}

func TestSelect(t *testing.T) {
	got := Select(samplePipelinePosts(), Criteria{Category: "RH"}, 9)
	assert.Equal(t, got.Page, 1)
	assert.Equal(t, ids(got.Items), []string{"1", "2"})
}
