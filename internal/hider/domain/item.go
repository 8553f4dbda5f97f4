package domain

import "golang.org/x/net/html"

// ContentItem is the metadata view of one resolved container. It is built
// on demand for each evaluation and never stored.
type ContentItem struct {
	Container *html.Node
	AuthorID  *string
	Title     *string
}

// AuthorOrEmpty returns the author id or "" when absent.
func (c ContentItem) AuthorOrEmpty() string {
	if c.AuthorID == nil {
		return ""
	}
	return *c.AuthorID
}

// TitleOrEmpty returns the title or "" when absent.
func (c ContentItem) TitleOrEmpty() string {
	if c.Title == nil {
		return ""
	}
	return *c.Title
}
