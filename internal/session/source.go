package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/net/html"
)

// ItemSource reports the item the host page is currently playing. A source
// returns ok=false when no item is present.
type ItemSource interface {
	CurrentItem(ctx context.Context) (itemID string, ok bool, err error)
}

// ParseItemID canonicalizes a raw attribute value. Only positive decimal
// integers name an item.
func ParseItemID(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	trimmed = strings.TrimLeft(trimmed, "0")
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}

// StaticSource always reports the same item. An empty ID means absent.
type StaticSource string

func (s StaticSource) CurrentItem(context.Context) (string, bool, error) {
	id, ok := ParseItemID(string(s))
	return id, ok, nil
}

// DefaultAttribute marks the element that carries the playing item ID.
const DefaultAttribute = "data-videoid"

// maxPageBytes bounds how much of a page snapshot is parsed.
const maxPageBytes = 8 << 20

// PageSource reads an HTML snapshot of the host page from a file or URL and
// returns the value of the first element carrying Attribute.
type PageSource struct {
	Location  string
	Attribute string
	Client    *http.Client
}

// NewPageSource builds a PageSource for location with the default attribute
// when attribute is empty.
func NewPageSource(location, attribute string) *PageSource {
	if strings.TrimSpace(attribute) == "" {
		attribute = DefaultAttribute
	}
	return &PageSource{Location: location, Attribute: attribute}
}

func (p *PageSource) CurrentItem(ctx context.Context) (string, bool, error) {
	body, err := p.open(ctx)
	if err != nil {
		return "", false, err
	}
	if body == nil {
		return "", false, nil
	}
	defer body.Close()

	doc, err := html.Parse(io.LimitReader(body, maxPageBytes))
	if err != nil {
		return "", false, fmt.Errorf("parse page snapshot: %w", err)
	}
	raw, found := firstAttribute(doc, p.Attribute)
	if !found {
		return "", false, nil
	}
	id, ok := ParseItemID(raw)
	return id, ok, nil
}

func (p *PageSource) open(ctx context.Context) (io.ReadCloser, error) {
	location := strings.TrimSpace(p.Location)
	if location == "" {
		return nil, nil
	}
	lower := strings.ToLower(location)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		file, err := os.Open(location)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("open page snapshot: %w", err)
		}
		return file, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("build page request: %w", err)
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page snapshot: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		resp.Body.Close()
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch page snapshot: unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

// firstAttribute walks the tree in document order and returns the value of
// the first element that has attr.
func firstAttribute(n *html.Node, attr string) (string, bool) {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Namespace == "" && strings.EqualFold(a.Key, attr) {
				return a.Val, true
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if val, ok := firstAttribute(child, attr); ok {
			return val, true
		}
	}
	return "", false
}
