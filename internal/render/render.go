package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgallion1/wikigest/internal/proptree"
)

const maxHeading = 6

// Markdown renders a parsed tree as a readable outline. Nested trees become
// headings one level deeper than their parent, strings under ordinary keys
// become "key: value" bullets, and #text becomes paragraphs.
func Markdown(title string, tree *proptree.Tree) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "# %s\n\n", title)
	}
	writeTree(&b, tree, 1)
	return b.String()
}

func writeTree(b *strings.Builder, t *proptree.Tree, depth int) {
	var bullets []string
	flushBullets := func() {
		for _, line := range bullets {
			b.WriteString(line)
		}
		if len(bullets) > 0 {
			b.WriteByte('\n')
		}
		bullets = bullets[:0]
	}

	for _, key := range t.Keys() {
		v, _ := t.Get(key)
		for _, item := range v.Items() {
			if s, ok := item.Text(); ok {
				if key == proptree.TextKey {
					flushBullets()
					b.WriteString(escape(s))
					b.WriteString("\n\n")
				} else {
					bullets = append(bullets, fmt.Sprintf("- **%s**: %s\n", escape(key), escape(s)))
				}
				continue
			}

			child, ok := item.Tree()
			if !ok {
				continue
			}
			flushBullets()
			if key == proptree.TextKey {
				writeTree(b, child, depth)
				continue
			}
			level := min(depth+1, maxHeading)
			fmt.Fprintf(b, "%s %s\n\n", strings.Repeat("#", level), escape(key))
			writeTree(b, child, depth+1)
		}
	}
	flushBullets()
}

// escaper keeps wiki text from being read as Markdown structure. Link
// brackets and template braces are left alone.
var escaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"_", `\_`,
	"<", "&lt;",
	">", "&gt;",
)

func escape(s string) string {
	return escaper.Replace(strings.TrimSpace(s))
}

var md = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))

// HTML renders the Markdown outline of tree through goldmark.
func HTML(title string, tree *proptree.Tree) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(title, tree)), &buf); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}
