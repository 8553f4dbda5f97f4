package scanner

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/dom"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/domain"
)

const (
	authorAttr = "data-username"
	titleAttr  = "alt"
)

var (
	authorSel = dom.MustCompile(`a[data-username]`)
	titleSel  = dom.MustCompile(`img[property="contentUrl"], img[src*="wixmp.com"], img[alt]`)
)

// Extract reads the author id and title from inside container only. Either
// field is nil when the container carries no such element or the value is
// blank.
func Extract(container *html.Node) domain.ContentItem {
	item, _ := extract(container)
	return item
}

// extract also returns the author link it read, if any.
func extract(container *html.Node) (domain.ContentItem, *html.Node) {
	item := domain.ContentItem{Container: container}
	a := dom.QueryFirst(container, authorSel)
	if a != nil {
		item.AuthorID = attrValue(a, authorAttr)
	}
	if img := dom.QueryFirst(container, titleSel); img != nil {
		item.Title = attrValue(img, titleAttr)
	}
	return item, a
}

func attrValue(n *html.Node, key string) *string {
	v, ok := dom.Attr(n, key)
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
