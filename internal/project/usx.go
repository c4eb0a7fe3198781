package project

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

// node is a parsed USX element. text is the character data before the first child
// and tail the character data between this element's end and the next sibling.
type node struct {
	tag      string
	style    string
	text     string
	tail     string
	children []*node
}

func parseUSX(r io.Reader) (*node, error) {
	dec := xml.NewDecoder(r)
	var root *node
	var stack []*node

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{tag: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Local == "style" {
					n.style = a.Value
				}
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			cur := stack[len(stack)-1]
			if len(cur.children) == 0 {
				cur.text += string(t)
			} else {
				last := cur.children[len(cur.children)-1]
				last.tail += string(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("no root element")
	}
	return root, nil
}

// walkText yields the trimmed text of n and its descendants in document order,
// skipping note subtrees. The tail of a skipped note is still yielded by its parent.
func walkText(n *node, yield func(string) bool) bool {
	if n.tag == "note" {
		return true
	}
	if n.text != "" && !yield(strings.TrimSpace(n.text)) {
		return false
	}
	for _, c := range n.children {
		if !walkText(c, yield) {
			return false
		}
		if c.tail != "" && !yield(strings.TrimSpace(c.tail)) {
			return false
		}
	}
	return true
}

func (r *Reader) isBody(style string) bool {
	style = latinStyle(style)
	if _, ok := r.publishable[style]; !ok {
		return false
	}
	for _, p := range r.prefixes {
		if strings.HasPrefix(style, p) {
			return true
		}
	}
	return false
}

// bodyText yields the fragments of every top level body paragraph below root.
func (r *Reader) bodyText(root *node, yield func(string) bool) bool {
	for _, para := range root.children {
		if !r.isBody(para.style) {
			continue
		}
		if !walkText(para, yield) {
			return false
		}
	}
	return true
}

// Text iterates over the body text of every .usx file in archive order. Fragments
// are trimmed but never dropped, so whitespace-only runs come through as "".
// Iteration stops at the first error, which is yielded with an empty fragment.
func (r *Reader) Text() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if r.zr == nil {
			yield("", ErrNotOpen)
			return
		}
		if r.publishable == nil {
			if err := r.ReadStylesheet(); err != nil {
				yield("", err)
				return
			}
		}

		for _, f := range r.zr.File {
			if !strings.HasSuffix(f.Name, ".usx") {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				yield("", fmt.Errorf("open %s: %w", f.Name, err))
				return
			}
			root, err := parseUSX(rc)
			rc.Close()
			if err != nil {
				yield("", fmt.Errorf("parse %s: %w", f.Name, err))
				return
			}

			r.logger.Debug("reading book", "project", r.path, "file", f.Name)
			ok := r.bodyText(root, func(s string) bool {
				return yield(s, nil)
			})
			if !ok {
				return
			}
		}
	}
}

// Process feeds every text fragment to sink.
func (r *Reader) Process(sink Sink) error {
	for text, err := range r.Text() {
		if err != nil {
			return err
		}
		if err := sink.Process(text); err != nil {
			return fmt.Errorf("sink: %w", err)
		}
	}
	return nil
}
