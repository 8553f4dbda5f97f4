// Package visibility applies and queries the hide marker on item containers.
package visibility

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/common/log"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/dom"
)

const (
	// HiddenClass marks a container as blocked; the installed rule keys on it.
	HiddenClass = "da-blocked-deviation-container"

	// StyleID identifies the installed <style> element in a document.
	StyleID = "da-blocklist-hider-style"
)

// StyleRule removes marked containers from layout entirely.
const StyleRule = `.` + HiddenClass + ` {
  display: none !important; height: 0 !important; width: 0 !important;
  margin: 0 !important; padding: 0 !important; border: none !important;
  font-size: 0 !important; overflow: hidden !important; visibility: hidden !important;
  float: none !important; position: static !important;
}`

// Controller hides containers of one document.
type Controller struct {
	doc       *dom.Document
	logger    log.Logger
	installed bool
	hidden    int
}

// New returns a Controller for doc.
func New(doc *dom.Document, logger log.Logger) *Controller {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Controller{doc: doc, logger: logger}
}

// Hide marks container blocked. It is a no-op when already marked and
// reports whether this call applied the marker.
func (c *Controller) Hide(container *html.Node) bool {
	if !dom.AddClass(container, HiddenClass) {
		return false
	}
	c.hidden++
	return true
}

// IsHidden reports whether container carries the blocked marker.
func (c *Controller) IsHidden(container *html.Node) bool {
	return dom.HasClass(container, HiddenClass)
}

// Hidden returns how many containers this controller has hidden.
func (c *Controller) Hidden() int { return c.hidden }

// EnsureStylesInstalled adds the hide rule to the document head once. Later
// calls, and calls from another controller on the same document, do nothing.
// It reports whether this call installed the rule.
func (c *Controller) EnsureStylesInstalled() bool {
	if c.installed {
		return false
	}
	if dom.QueryFirst(c.doc.Root(), dom.MustCompile("style#"+StyleID)) != nil {
		c.installed = true
		return false
	}

	parent := c.doc.Head()
	if parent == nil {
		parent = c.doc.Body()
	}
	if parent == nil {
		c.logger.Warn(nil, "style_install_no_head")
		return false
	}

	style := &html.Node{
		Type:     html.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
		Attr:     []html.Attribute{{Key: "id", Val: StyleID}},
	}
	style.AppendChild(dom.Text(StyleRule))
	if err := c.doc.AppendChild(parent, style); err != nil {
		c.logger.Warn(map[string]any{"error": err.Error()}, "style_install_failed")
		return false
	}
	c.installed = true
	c.logger.Debug(map[string]any{"style_id": StyleID}, "style_installed")
	return true
}
