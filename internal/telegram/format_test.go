package telegram

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTMLRenderer_Render(t *testing.T) {
	r := NewHTMLRenderer()
	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "emphasis",
			input:    "some **bold** and *italic* text",
			contains: []string{"<b>bold</b>", "<i>italic</i>"},
			excludes: []string{"<strong>", "<em>", "<p>"},
		},
		{
			name:     "heading becomes bold",
			input:    "# Title\n\nbody",
			contains: []string{"<b>Title</b>"},
			excludes: []string{"<h1>"},
		},
		{
			name:     "list becomes bullets",
			input:    "- one\n- two",
			contains: []string{"• one", "• two"},
			excludes: []string{"<ul>", "<li>"},
		},
		{
			name:     "code block survives",
			input:    "```\nfmt.Println(1)\n```",
			contains: []string{"<pre>", "fmt.Println(1)"},
		},
		{
			name:     "inline code survives",
			input:    "use `go test` here",
			contains: []string{"<code>go test</code>"},
		},
		{
			name:     "link survives",
			input:    "[docs](https://example.com)",
			contains: []string{`<a href="https://example.com">docs</a>`},
		},
		{
			name:     "strikethrough",
			input:    "~~gone~~",
			contains: []string{"<s>gone</s>"},
			excludes: []string{"<del>"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Render(tt.input)
			require.NoError(t, err)
			for _, c := range tt.contains {
				require.Contains(t, out, c)
			}
			for _, e := range tt.excludes {
				require.NotContains(t, out, e)
			}
		})
	}
}
