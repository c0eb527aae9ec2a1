package views

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/a-h/templ"
)

var (
	reBold = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reLink = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	reURL  = regexp.MustCompile(`(^|\s)(https?://[^\s<]+)`)
)

// Text renders answer and comment text: blank lines separate paragraphs,
// single newlines become line breaks, "- " lines form a list, and
// **bold**, [label](url) and bare http(s) links are recognised. Everything
// else is escaped.
func Text(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		renderText(&buf, content)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func renderText(buf *bytes.Buffer, text string) {
	inList := false
	inPara := false

	flushPara := func() {
		if inPara {
			buf.WriteString("</p>")
			inPara = false
		}
	}
	flushList := func() {
		if inList {
			buf.WriteString("</ul>")
			inList = false
		}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" {
			flushPara()
			flushList()
			continue
		}
		if strings.HasPrefix(line, "- ") {
			if !inList {
				flushPara()
				buf.WriteString("<ul>")
				inList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(formatInline(strings.TrimSpace(line[2:])))
			buf.WriteString("</li>")
			continue
		}
		if !inPara {
			flushList()
			buf.WriteString("<p>")
			inPara = true
		} else {
			buf.WriteString("<br/>")
		}
		buf.WriteString(formatInline(strings.TrimSpace(line)))
	}
	flushPara()
	flushList()
}

func formatInline(s string) string {
	escaped := html.EscapeString(s)
	linked := false
	escaped = reLink.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reLink.FindStringSubmatch(m)
		href := safeURL(match[2])
		if href == "" {
			return match[1]
		}
		linked = true
		return `<a href="` + href + `" target="_blank" rel="noopener noreferrer">` + match[1] + `</a>`
	})
	if !linked {
		escaped = reURL.ReplaceAllStringFunc(escaped, func(m string) string {
			match := reURL.FindStringSubmatch(m)
			href := safeURL(match[2])
			if href == "" {
				return m
			}
			return match[1] + `<a href="` + href + `" target="_blank" rel="noopener noreferrer">` + match[2] + `</a>`
		})
	}
	return applyOutsideTags(escaped, func(seg string) string {
		return reBold.ReplaceAllString(seg, "<strong>$1</strong>")
	})
}

// applyOutsideTags applies fn only to text segments outside HTML tags,
// so formatting never touches URLs inside href attributes.
func applyOutsideTags(s string, fn func(string) string) string {
	var buf strings.Builder
	for len(s) > 0 {
		lt := strings.Index(s, "<")
		if lt < 0 {
			buf.WriteString(fn(s))
			break
		}
		if lt > 0 {
			buf.WriteString(fn(s[:lt]))
		}
		gt := strings.Index(s[lt:], ">")
		if gt < 0 {
			buf.WriteString(s[lt:])
			break
		}
		buf.WriteString(s[lt : lt+gt+1])
		s = s[lt+gt+1:]
	}
	return buf.String()
}

func safeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
