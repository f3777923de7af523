package dom

import (
	"bytes"
	"fmt"
	"io"

	"github.com/yhat/scrape"
	"golang.org/x/net/html"
)

// Element ids and class names shared with the stylesheet.
const (
	SelectMenuID  = "selectMenu"
	SelectFormID  = "selectForm"
	ToggleFormID  = "toggleForm"
	HideClass     = "hide"
	pageStyleText = `body{font-family:sans-serif;margin:0 auto;max-width:48rem;padding:1rem}
article{border-bottom:1px solid #ddd;padding:.5rem 0}
section.comments{margin-left:1.5rem}
.hide{display:none}
.default-text{color:#666;font-style:italic}`
)

// DocumentOptions configure the page skeleton.
type DocumentOptions struct {
	// Title is the page title and heading.
	Title string
	// SelectAction is the form action the select menu submits to. Empty leaves
	// the form without an action.
	SelectAction string
}

// Document is the page: a select menu, a main content region and the
// listeners attached to nodes of the page.
type Document struct {
	Root       *html.Node
	Body       *html.Node
	SelectMenu *html.Node
	Main       *html.Node
	Listeners  *Listeners
}

// NewDocument builds an empty page skeleton.
func NewDocument(opts DocumentOptions) *Document {
	root := NewFragment()
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	htmlEl := NewElement("html", html.Attribute{Key: "lang", Val: "en"})
	root.AppendChild(htmlEl)

	head := NewElement("head")
	head.AppendChild(NewElement("meta", html.Attribute{Key: "charset", Val: "utf-8"}))
	head.AppendChild(CreateElemWithText("title", opts.Title, ""))
	head.AppendChild(CreateElemWithText("style", pageStyleText, ""))
	htmlEl.AppendChild(head)

	body := NewElement("body")
	htmlEl.AppendChild(body)

	header := NewElement("header")
	header.AppendChild(CreateElemWithText("h1", opts.Title, ""))

	form := NewElement("form",
		html.Attribute{Key: "id", Val: SelectFormID},
		html.Attribute{Key: "method", Val: "post"})
	if opts.SelectAction != "" {
		SetAttr(form, "action", opts.SelectAction)
	}
	form.AppendChild(CreateElemWithText("label", "Select an Employee", ""))
	SetAttr(form.LastChild, "for", SelectMenuID)

	selectMenu := NewElement("select",
		html.Attribute{Key: "id", Val: SelectMenuID},
		html.Attribute{Key: "name", Val: "userId"},
		html.Attribute{Key: "onchange", Val: "this.form.submit()"})
	placeholder := CreateElemWithText("option", "Employees", "")
	SetAttr(placeholder, "value", "")
	selectMenu.AppendChild(placeholder)
	form.AppendChild(selectMenu)

	submit := CreateElemWithText("button", "Show Posts", "")
	SetAttr(submit, "type", "submit")
	form.AppendChild(submit)
	header.AppendChild(form)
	body.AppendChild(header)

	mainEl := NewElement("main")
	body.AppendChild(mainEl)

	body.AppendChild(NewElement("form",
		html.Attribute{Key: "id", Val: ToggleFormID},
		html.Attribute{Key: "method", Val: "post"}))

	return &Document{
		Root:       root,
		Body:       body,
		SelectMenu: selectMenu,
		Main:       mainEl,
		Listeners:  NewListeners(),
	}
}

// GetElementByID returns the element with id, or nil.
func (d *Document) GetElementByID(id string) *html.Node {
	return QuerySelector(d.Root, scrape.ById(id))
}

// Render writes the page as HTML.
func (d *Document) Render(w io.Writer) error {
	if err := html.Render(w, d.Root); err != nil {
		return fmt.Errorf("could not render document: %w", err)
	}

	return nil
}

// RenderNode returns the HTML of a single node (or fragment).
func RenderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if n.Type == html.DocumentNode {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return "", fmt.Errorf("could not render node: %w", err)
			}
		}

		return buf.String(), nil
	}
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("could not render node: %w", err)
	}

	return buf.String(), nil
}
