package fetch

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/TobiSchelling/ResearchConnect/internal/recommend"
)

// FindContactEmail returns the first mailto address linked from an HTML
// document, falling back to the first address in its text.
func FindContactEmail(doc []byte) string {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return recommend.FindEmail(string(doc))
	}
	if email := firstMailto(root); email != "" {
		return email
	}
	var text strings.Builder
	collectText(root, &text)
	return recommend.FindEmail(text.String())
}

func firstMailto(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "a" {
		for _, attr := range n.Attr {
			if attr.Key != "href" {
				continue
			}
			if email := mailtoAddress(attr.Val); email != "" {
				return email
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if email := firstMailto(c); email != "" {
			return email
		}
	}
	return ""
}

func mailtoAddress(href string) string {
	href = strings.TrimSpace(href)
	if len(href) < 7 || !strings.EqualFold(href[:7], "mailto:") {
		return ""
	}
	addr, _, _ := strings.Cut(href[7:], "?")
	if unescaped, err := url.PathUnescape(addr); err == nil {
		addr = unescaped
	}
	addr = strings.TrimSpace(addr)
	if !strings.Contains(addr, "@") {
		return ""
	}
	return addr
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
