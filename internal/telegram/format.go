package telegram

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// HTMLRenderer converts model output (markdown) into the HTML subset the
// Bot API accepts: b, i, s, u, a, code, pre, blockquote. Everything else is
// rewritten or stripped.
type HTMLRenderer struct {
	md goldmark.Markdown
}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{md: goldmark.New(
		goldmark.WithExtensions(extension.GFM),
	)}
}

var (
	headingOpenRegex  = regexp.MustCompile(`<h[1-6][^>]*>`)
	headingCloseRegex = regexp.MustCompile(`</h[1-6]>`)
	listItemRegex     = regexp.MustCompile(`<li[^>]*>`)
	allowedTagRegex   = regexp.MustCompile(`</?(b|i|s|u|a|code|pre|blockquote)(\s[^>]*)?>`)
	anyTagRegex       = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	blankLinesRegex   = regexp.MustCompile(`\n{3,}`)
)

func (r *HTMLRenderer) Render(markdown string) (string, error) {
	var out bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &out); err != nil {
		return "", err
	}
	html := out.String()

	html = headingOpenRegex.ReplaceAllString(html, "<b>")
	html = headingCloseRegex.ReplaceAllString(html, "</b>\n")
	html = listItemRegex.ReplaceAllString(html, "• ")
	html = strings.NewReplacer(
		"</li>", "\n",
		"<p>", "",
		"</p>", "\n\n",
		"<strong>", "<b>", "</strong>", "</b>",
		"<em>", "<i>", "</em>", "</i>",
		"<del>", "<s>", "</del>", "</s>",
		"<br>", "\n", "<br/>", "\n", "<br />", "\n",
		"<hr>", "\n", "<hr/>", "\n", "<hr />", "\n",
	).Replace(html)
	html = anyTagRegex.ReplaceAllStringFunc(html, func(tag string) string {
		if allowedTagRegex.MatchString(tag) {
			return tag
		}
		return ""
	})
	html = blankLinesRegex.ReplaceAllString(html, "\n\n")
	return strings.TrimSpace(html), nil
}
