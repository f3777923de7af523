package view

import (
	"postbrowser/internal/dom"
	"postbrowser/pkg/domain"
	"time"

	"golang.org/x/net/html"
)

// DisplayPosts replaces the content region's children with content and
// returns content. For a non-empty post list an empty helper article is
// appended and removed after TransientNodeDelay. A nil content yields nil and
// leaves the region untouched.
func (r *Renderer) DisplayPosts(content *html.Node, hasPosts bool) *html.Node {
	if content == nil {
		return nil
	}
	dom.DeleteChildElements(r.doc.Main)
	dom.Append(r.doc.Main, content)

	if hasPosts && r.opts.TransientNodeDelay > 0 {
		helper := dom.NewElement("article")
		dom.Append(r.doc.Main, helper)
		r.scheduleRemoval(helper, r.opts.TransientNodeDelay)
	}

	return content
}

func (r *Renderer) scheduleRemoval(n *html.Node, after time.Duration) {
	r.Close()
	guard := r.opts.Guard
	r.transient = time.AfterFunc(after, func() {
		if guard != nil {
			guard.Lock()
			defer guard.Unlock()
		}
		dom.Remove(n)
	})
}

// ToggleCommentSection flips the hidden state of the comment section of
// postID and returns it. An unset id or a missing section yields nil.
func (r *Renderer) ToggleCommentSection(postID domain.PostID) *html.Node {
	if !postID.Valid() {
		return nil
	}
	section := dom.QuerySelector(r.doc.Root, dom.ByTagAndData("section", PostIDData, postID.String()))
	if section != nil {
		dom.ToggleClass(section, dom.HideClass)
	}

	return section
}

// ToggleCommentButton flips the label of the toggle button of postID between
// "Show Comments" and "Hide Comments" and returns it. An unset id or a missing
// button yields nil.
func (r *Renderer) ToggleCommentButton(postID domain.PostID) *html.Node {
	if !postID.Valid() {
		return nil
	}
	button := dom.QuerySelector(r.doc.Root, dom.ByTagAndData("button", PostIDData, postID.String()))
	if button == nil {
		return nil
	}
	if dom.TextContent(button) == ShowCommentsLabel {
		dom.SetTextContent(button, HideCommentsLabel)
	} else {
		dom.SetTextContent(button, ShowCommentsLabel)
	}

	return button
}

// ToggleComments handles a click on the toggle button of postID. It returns
// the toggled section and button; a nil event or an unset id yields nils.
func (r *Renderer) ToggleComments(ev *dom.Event, postID domain.PostID) (section, button *html.Node) {
	if ev == nil || !postID.Valid() {
		return nil, nil
	}

	return r.ToggleCommentSection(postID), r.ToggleCommentButton(postID)
}

// toggleButtons returns the buttons of the content region.
func (r *Renderer) toggleButtons() []*html.Node {
	return dom.QuerySelectorAll(r.doc.Main, dom.ByTag("button"))
}

// AddButtonListeners attaches one click listener to every button of the
// content region and returns the buttons. A button that still carries a
// listener from this renderer has it replaced, so there is never more than one.
func (r *Renderer) AddButtonListeners() []*html.Node {
	buttons := r.toggleButtons()
	for _, b := range buttons {
		if h, ok := r.buttonHandles[b]; ok {
			r.doc.Listeners.Remove(h)
		}
		postID, _ := domain.ParsePostID(dom.Dataset(b, PostIDData))
		r.buttonHandles[b] = r.doc.Listeners.Add(b, dom.EventClick, func(ev dom.Event) {
			r.ToggleComments(&ev, postID)
		})
	}

	return buttons
}

// RemoveButtonListeners removes every listener previously attached by
// AddButtonListeners, including those of buttons no longer in the document,
// and returns the buttons currently in the content region.
func (r *Renderer) RemoveButtonListeners() []*html.Node {
	for b, h := range r.buttonHandles {
		r.doc.Listeners.Remove(h)
		delete(r.buttonHandles, b)
	}

	return r.toggleButtons()
}

// Refresh is the result of RefreshPosts.
type Refresh struct {
	// Detached are the buttons whose listeners were removed.
	Detached []*html.Node
	// Main is the content region.
	Main *html.Node
	// Content is what was displayed, nil if nothing was.
	Content *html.Node
	// Attached are the buttons that received a fresh listener.
	Attached []*html.Node
}

// RefreshPosts removes the toggle listeners, displays content and attaches
// fresh listeners to the buttons now in the content region.
func (r *Renderer) RefreshPosts(content *html.Node, hasPosts bool) Refresh {
	detached := r.RemoveButtonListeners()
	shown := r.DisplayPosts(content, hasPosts)
	attached := r.AddButtonListeners()

	return Refresh{
		Detached: detached,
		Main:     r.doc.Main,
		Content:  shown,
		Attached: attached,
	}
}

// ClickButton dispatches a click on the toggle button of postID and returns
// the number of listeners that ran, or -1 when there is no such button.
func (r *Renderer) ClickButton(postID domain.PostID) int {
	button := dom.QuerySelector(r.doc.Main, dom.ByTagAndData("button", PostIDData, postID.String()))
	if button == nil {
		return -1
	}

	return r.doc.Listeners.Dispatch(button, dom.EventClick)
}

// CommentsState reports whether the comment section of postID is shown and
// the current label of its toggle button. ok is false when the post has no
// card in the content region.
func (r *Renderer) CommentsState(postID domain.PostID) (shown bool, label string, ok bool) {
	section := dom.QuerySelector(r.doc.Main, dom.ByTagAndData("section", PostIDData, postID.String()))
	button := dom.QuerySelector(r.doc.Main, dom.ByTagAndData("button", PostIDData, postID.String()))
	if section == nil || button == nil {
		return false, "", false
	}

	return !dom.HasClass(section, dom.HideClass), dom.TextContent(button), true
}
