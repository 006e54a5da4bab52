package metadata

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// page holds the candidate values found in a document, in the order the
// extractor prefers them.
type page struct {
	ogTitle, twitterTitle, title          string
	ogDesc, twitterDesc, metaDesc         string
	iconHref, shortcutHref, appleIconHref string
}

func parsePage(r io.Reader) (*page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	p := &page{}
	p.walk(doc)
	return p, nil
}

func (p *page) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "title":
			if p.title == "" {
				p.title = textContent(n)
			}
		case "meta":
			p.meta(n)
		case "link":
			p.link(n)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c)
	}
}

func (p *page) meta(n *html.Node) {
	content := attr(n, "content")
	if content == "" {
		return
	}
	setOnce := func(dst *string) {
		if *dst == "" {
			*dst = content
		}
	}
	switch strings.ToLower(attr(n, "property")) {
	case "og:title":
		setOnce(&p.ogTitle)
	case "og:description":
		setOnce(&p.ogDesc)
	}
	switch strings.ToLower(attr(n, "name")) {
	case "twitter:title":
		setOnce(&p.twitterTitle)
	case "twitter:description":
		setOnce(&p.twitterDesc)
	case "description":
		setOnce(&p.metaDesc)
	}
}

func (p *page) link(n *html.Node) {
	href := strings.TrimSpace(attr(n, "href"))
	if href == "" {
		return
	}
	switch strings.ToLower(strings.Join(strings.Fields(attr(n, "rel")), " ")) {
	case "icon":
		if p.iconHref == "" {
			p.iconHref = href
		}
	case "shortcut icon":
		if p.shortcutHref == "" {
			p.shortcutHref = href
		}
	case "apple-touch-icon":
		if p.appleIconHref == "" {
			p.appleIconHref = href
		}
	}
}

// result picks the preferred candidates and resolves the favicon against base.
func (p *page) result(base *url.URL) Result {
	title := firstNonEmpty(p.ogTitle, p.twitterTitle, p.title)
	if title == "" {
		title = "Untitled"
	}

	favicon := defaultFavicon(base)
	if href := firstNonEmpty(p.iconHref, p.shortcutHref, p.appleIconHref); href != "" {
		if ref, err := url.Parse(href); err == nil {
			favicon = base.ResolveReference(ref).String()
		}
	}

	return Result{
		Title:       truncate(title, maxTitleLength),
		Description: truncate(firstNonEmpty(p.ogDesc, p.twitterDesc, p.metaDesc), maxDescriptionLength),
		Favicon:     truncate(favicon, maxFaviconLength),
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
