package dom

import (
	"github.com/yhat/scrape"
	"golang.org/x/net/html"
)

// ByTag matches elements named tag.
func ByTag(tag string) scrape.Matcher {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	}
}

// ByTagAndData matches `tag[data-name="val"]`.
func ByTagAndData(tag, name, val string) scrape.Matcher {
	return func(n *html.Node) bool {
		return ByTag(tag)(n) && Dataset(n, name) == val
	}
}

// ByTagInside matches `ancestor tag` (descendant combinator).
func ByTagInside(ancestor, tag string) scrape.Matcher {
	return func(n *html.Node) bool {
		if !ByTag(tag)(n) {
			return false
		}
		for p := n.Parent; p != nil; p = p.Parent {
			if ByTag(ancestor)(p) {
				return true
			}
		}

		return false
	}
}

// QuerySelector returns the first node under root (root included) matching m,
// or nil.
func QuerySelector(root *html.Node, m scrape.Matcher) *html.Node {
	if root == nil {
		return nil
	}
	n, ok := scrape.Find(root, m)
	if !ok {
		return nil
	}

	return n
}

// QuerySelectorAll returns every node under root matching m in document order.
// Matches nested inside other matches are included.
func QuerySelectorAll(root *html.Node, m scrape.Matcher) []*html.Node {
	if root == nil {
		return nil
	}

	return scrape.FindAllNested(root, m)
}
