package resolver

// Shapes is the markup vocabulary the resolver recognizes. Every field is a
// CSS selector group except HopLimit.
type Shapes struct {
	// ItemContainers are whole-item wrappers; the nearest enclosing one wins.
	ItemContainers string

	// GridCell marks a tile wrapper by class.
	GridCell string

	// SubscriptionLink, as an immediate child, marks a subscription tile.
	SubscriptionLink string

	// InnerWrapper is promoted to its parent when the parent matches LayoutParent.
	InnerWrapper string
	LayoutParent string

	// Figure and ContentLink drive the last-resort match: an enclosing
	// figure, or a div with an immediate ContentLink child.
	Figure      string
	ContentLink string

	// HopLimit bounds the grid-cell walk.
	HopLimit int
}

// DefaultShapes returns the DeviantArt markup the hider ships with.
func DefaultShapes() Shapes {
	return Shapes{
		ItemContainers:   `div[data-testid="deviation_card"], article[data-hook="deviation_std"], div[data-hook="deviation_cell"]`,
		GridCell:         `._3Y0hT, ._3i0Iq`,
		SubscriptionLink: `a[href*="/subscriptions/"]`,
		InnerWrapper:     `div._3Y0hT._3oBlM`,
		LayoutParent:     `div[style*="display:inline-block"], div[style*="flex-basis"]`,
		Figure:           `figure`,
		ContentLink:      `a[href*="/art/"]`,
		HopLimit:         8,
	}
}
