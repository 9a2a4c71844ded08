// Package preview renders post bodies to HTML for the admin UI and
// reports the links they contain, so an edit session can show where a
// draft points before it goes live.
package preview

import (
	"bytes"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"

	"github.com/repstack/repstack/internal/reperrors"
)

// rendererInstance is initialized once and reused. The configuration
// never changes and a goldmark.Markdown is safe to share; per-call state
// lives in the reader.
var (
	rendererInstance goldmark.Markdown
	rendererOnce     sync.Once
)

func renderer() goldmark.Markdown {
	rendererOnce.Do(func() {
		rendererInstance = goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Typographer,
			),
		)
	})
	return rendererInstance
}

// Link is one outbound reference found in the rendered HTML.
type Link struct {
	URL      string `json:"url"`
	Text     string `json:"text,omitempty"`
	Tag      string `json:"tag"`
	External bool   `json:"external"`
}

// Result is a rendered preview.
type Result struct {
	HTML  string `json:"html"`
	Links []Link `json:"links"`
}

// Render converts a Markdown body to HTML and extracts its links.
// baseHost is the public host of the blog; links elsewhere are flagged
// external. Link extraction is best-effort and never fails the preview.
func Render(body, baseHost string) (Result, error) {
	var buf bytes.Buffer
	if err := renderer().Convert([]byte(body), &buf); err != nil {
		return Result{}, reperrors.Wrap(err, reperrors.CategoryContent, "render markdown").Build()
	}

	htmlText := buf.String()
	links, err := extractLinks(strings.NewReader(htmlText), baseHost)
	if err != nil {
		return Result{HTML: htmlText}, nil
	}
	return Result{HTML: htmlText, Links: links}, nil
}

// extractLinks walks the parsed HTML tree and collects anchor and image
// references.
func extractLinks(r io.Reader, baseHost string) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var links []Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a":
				if href := getAttr(n, "href"); href != "" {
					links = append(links, Link{
						URL:      href,
						Text:     nodeText(n),
						Tag:      "a",
						External: isExternal(href, baseHost),
					})
				}
			case "img":
				if src := getAttr(n, "src"); src != "" {
					links = append(links, Link{
						URL:      src,
						Text:     getAttr(n, "alt"),
						Tag:      "img",
						External: isExternal(src, baseHost),
					})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(nodeText(c))
	}
	return strings.TrimSpace(text.String())
}

// isExternal reports whether a URL leaves the blog. Fragment-only links
// and special schemes stay internal; so do relative paths and absolute
// URLs on the configured host.
func isExternal(link, baseHost string) bool {
	if strings.HasPrefix(link, "#") ||
		strings.HasPrefix(link, "mailto:") ||
		strings.HasPrefix(link, "tel:") {
		return false
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	if u.Scheme == "" || u.Host == "" {
		return false
	}
	return !strings.EqualFold(u.Host, baseHost)
}
