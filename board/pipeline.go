package board

import "strings"

// PageSize is the number of posts per board page.
const PageSize = 10

// Criteria selects posts. Empty values and "all" disable a criterion.
type Criteria struct {
	Search   string // substring of question, answer, author or category
	Category string // exact category, case-insensitive
	Status   string // "Yes" or "No"
	Answerer string // substring of answeredBy
}

// Page is one page of filtered posts.
type Page struct {
	Items      []Post
	Page       int
	TotalPages int
	Total      int
}

// Filter returns the posts matching every criterion, in input order.
func Filter(posts []Post, c Criteria) []Post {
	search := fold(c.Search)
	category := strings.TrimSpace(c.Category)
	if strings.EqualFold(category, "all") {
		category = ""
	}
	category = fold(category)
	status := strings.TrimSpace(c.Status)
	if strings.EqualFold(status, "all") {
		status = ""
	}
	answerer := fold(c.Answerer)

	out := []Post{}
	for _, p := range posts {
		if search != "" &&
			!strings.Contains(fold(p.Question), search) &&
			!strings.Contains(fold(p.Answer), search) &&
			!strings.Contains(fold(p.From), search) &&
			!strings.Contains(fold(p.Category), search) {
			continue
		}
		if category != "" && fold(p.Category) != category {
			continue
		}
		if status != "" && string(p.Resolved) != status {
			continue
		}
		if answerer != "" && !strings.Contains(fold(p.AnsweredBy), answerer) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Paginate slices posts into pages of pageSize and returns the requested
// page, clamped into [1, TotalPages]. There is always at least one page.
func Paginate(posts []Post, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = PageSize
	}
	total := len(posts)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	items := []Post{}
	if start < total {
		items = posts[start:end]
	}
	return Page{Items: items, Page: page, TotalPages: totalPages, Total: total}
}

// Select filters posts and returns the requested page of the result.
func Select(posts []Post, c Criteria, page int) Page {
	return Paginate(Filter(posts, c), page, PageSize)
}
