// Package dom builds and queries trees of display nodes.
//
// Display nodes are golang.org/x/net/html nodes. A fragment is a detached
// html.DocumentNode: appending it to a parent moves its children instead of the
// fragment itself, like a DOM DocumentFragment. Nothing in this package is safe
// for concurrent use; callers serialise access to a Document.
package dom

import (
	"slices"
	"strings"

	"github.com/yhat/scrape"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NewElement creates a detached element node.
func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Lookup([]byte(tag)),
		Data:     tag,
		Attr:     attrs,
	}
}

// NewText creates a detached text node.
func NewText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// NewFragment creates an empty fragment.
func NewFragment() *html.Node {
	return &html.Node{Type: html.DocumentNode}
}

// IsFragment reports whether n is a fragment.
func IsFragment(n *html.Node) bool {
	return n != nil && n.Type == html.DocumentNode && n.Parent == nil
}

// CreateElemWithText creates an element of tag holding text. An empty tag
// yields a paragraph; an empty class leaves the class attribute unset.
func CreateElemWithText(tag, text, class string) *html.Node {
	if tag == "" {
		tag = "p"
	}
	el := NewElement(tag)
	if text != "" {
		el.AppendChild(NewText(text))
	}
	if class != "" {
		SetAttr(el, "class", class)
	}

	return el
}

// Append appends child to parent. Fragments are spliced: their children are
// moved to parent and the fragment is left empty. A child attached elsewhere is
// detached first.
func Append(parent, child *html.Node) {
	if parent == nil || child == nil {
		return
	}
	if IsFragment(child) {
		for c := child.FirstChild; c != nil; c = child.FirstChild {
			child.RemoveChild(c)
			parent.AppendChild(c)
		}

		return
	}
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	parent.AppendChild(child)
}

// Remove detaches n from its parent. It reports whether n was attached.
func Remove(n *html.Node) bool {
	if n == nil || n.Parent == nil {
		return false
	}
	n.Parent.RemoveChild(n)

	return true
}

// DeleteChildElements removes every child of parent and returns parent. A nil
// or non-element parent yields nil.
func DeleteChildElements(parent *html.Node) *html.Node {
	if parent == nil || parent.Type != html.ElementNode {
		return nil
	}
	for c := parent.LastChild; c != nil; c = parent.LastChild {
		parent.RemoveChild(c)
	}

	return parent
}

// Children returns the direct children of n.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}

	return out
}

// Attr returns the value of attribute key, or "".
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}

	return scrape.Attr(n, key)
}

// SetAttr sets attribute key to val, replacing an existing value.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val

			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes attribute key.
func RemoveAttr(n *html.Node, key string) {
	n.Attr = slices.DeleteFunc(n.Attr, func(a html.Attribute) bool { return a.Key == key })
}

// Dataset returns the value of the data-* attribute name (written in kebab case,
// e.g. "post-id").
func Dataset(n *html.Node, name string) string {
	return Attr(n, "data-"+name)
}

// SetDataset sets the data-* attribute name.
func SetDataset(n *html.Node, name, val string) {
	SetAttr(n, "data-"+name, val)
}

// Classes returns the class list of n.
func Classes(n *html.Node) []string {
	return strings.Fields(Attr(n, "class"))
}

// HasClass reports whether class is in n's class list.
func HasClass(n *html.Node, class string) bool {
	return slices.Contains(Classes(n), class)
}

// AddClass adds class to n's class list if missing.
func AddClass(n *html.Node, class string) {
	cl := Classes(n)
	if slices.Contains(cl, class) {
		return
	}
	SetAttr(n, "class", strings.Join(append(cl, class), " "))
}

// ToggleClass flips class in n's class list and reports whether it is now
// present.
func ToggleClass(n *html.Node, class string) bool {
	cl := Classes(n)
	if i := slices.Index(cl, class); i >= 0 {
		cl = slices.Delete(cl, i, i+1)
		if len(cl) == 0 {
			RemoveAttr(n, "class")
		} else {
			SetAttr(n, "class", strings.Join(cl, " "))
		}

		return false
	}
	SetAttr(n, "class", strings.Join(append(cl, class), " "))

	return true
}

// TextContent returns the whitespace-normalised text under n.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}

	return scrape.Text(n)
}

// SetTextContent replaces the children of n with a single text node.
func SetTextContent(n *html.Node, text string) {
	for c := n.LastChild; c != nil; c = n.LastChild {
		n.RemoveChild(c)
	}
	n.AppendChild(NewText(text))
}
