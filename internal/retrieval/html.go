package retrieval

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/DeafMist/intel-radar/backend/internal/processing"
)

const maxTextBytes = 200_000

type parsedPage struct {
	text   string
	links  []string
	images []string
}

// parseHTML collects visible text, absolute http(s) links and image sources.
// Relative references are resolved against base.
func parseHTML(r io.Reader, base *url.URL) parsedPage {
	tokenizer := html.NewTokenizer(r)

	var (
		text    strings.Builder
		page    parsedPage
		skipped int
	)
	seenLinks := map[string]struct{}{}
	seenImages := map[string]struct{}{}

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}

		switch tt {
		case html.TextToken:
			if skipped > 0 || text.Len() >= maxTextBytes {
				continue
			}
			text.Write(tokenizer.Text())
			text.WriteByte(' ')
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			switch token.Data {
			case "script", "style", "noscript":
				if tt == html.StartTagToken {
					skipped++
				}
			case "a":
				if link := resolve(base, attr(token, "href")); link != "" {
					if _, dup := seenLinks[link]; !dup {
						seenLinks[link] = struct{}{}
						page.links = append(page.links, link)
					}
				}
			case "img":
				if src := resolve(base, attr(token, "src")); src != "" {
					if _, dup := seenImages[src]; !dup {
						seenImages[src] = struct{}{}
						page.images = append(page.images, src)
					}
				}
			}
		case html.EndTagToken:
			token := tokenizer.Token()
			switch token.Data {
			case "script", "style", "noscript":
				if skipped > 0 {
					skipped--
				}
			}
		}
	}

	page.text = processing.CleanText(text.String())
	return page
}

func attr(token html.Token, key string) string {
	for _, a := range token.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func resolve(base *url.URL, ref string) string {
	if ref == "" || strings.HasPrefix(ref, "#") {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Fragment = ""
	return u.String()
}
