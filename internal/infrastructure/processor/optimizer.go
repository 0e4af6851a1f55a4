package processor

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/tdewolff/minify/v2"
	minifysvg "github.com/tdewolff/minify/v2/svg"

	"github.com/andreyxaxa/Image-Vectorizer/pkg/imagetype"
)

var (
	errNoRoot = errors.New("document has no root element")

	urlRef = regexp.MustCompile(`url\(\s*#([^)\s]+)\s*\)`)
)

// Editor metadata elements dropped from every document.
var droppedElements = map[string]bool{
	"metadata": true,
	"title":    true,
	"desc":     true,
}

type Optimizer struct {
	m *minify.M
}

func NewOptimizer() *Optimizer {
	m := minify.New()
	m.AddFunc(imagetype.SVG, minifysvg.Minify)

	return &Optimizer{m: m}
}

// Optimize strips everything a renderer does not need from an SVG document, then minifies it.
// Optimize is idempotent.
func (o *Optimizer) Optimize(ctx context.Context, doc []byte) ([]byte, error) {
	root, err := parseSVG(doc)
	if err != nil {
		return nil, fmt.Errorf("Optimizer - Optimize - parseSVG: %w", err)
	}

	root.prune()
	root.unwrapGroups()
	shortenIDs(root)
	root.addViewBox()

	if !root.uses("xlink") {
		root.removeAttr("xmlns", "xlink")
	}

	var buf bytes.Buffer
	root.write(&buf)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("Optimizer - Optimize: %w", err)
	}

	out, err := o.m.Bytes(imagetype.SVG, buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("Optimizer - Optimize - o.m.Bytes: %w", err)
	}

	return out, nil
}

type node struct {
	name     xml.Name
	attrs    []xml.Attr
	children []*node

	text   string
	isText bool
}

func parseSVG(doc []byte) (*node, error) {
	d := xml.NewDecoder(bytes.NewReader(doc))

	var (
		root  *node
		stack []*node
	)

	for {
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name, attrs: append([]xml.Attr(nil), t.Attr...)}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 || stack[len(stack)-1].name != t.Name {
				return nil, fmt.Errorf("unexpected closing tag </%s>", qualified(t.Name))
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 || len(bytes.TrimSpace(t)) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, &node{text: string(t), isText: true})
		}
	}

	if root == nil {
		return nil, errNoRoot
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("unclosed element <%s>", qualified(stack[len(stack)-1].name))
	}
	if root.name.Local != "svg" {
		return nil, fmt.Errorf("root element is <%s>, not <svg>", qualified(root.name))
	}

	return root, nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func isSVGName(n xml.Name) bool {
	return n.Space == "" || n.Space == "svg"
}

// keepAttr drops editor namespaces; xlink and xml attributes are part of SVG.
func keepAttr(a xml.Attr) bool {
	switch a.Name.Space {
	case "", "xlink", "xml":
		return true
	case "xmlns":
		return a.Name.Local == "xlink"
	}
	return false
}

// prune removes editor metadata, foreign elements and foreign attributes.
func (n *node) prune() {
	attrs := n.attrs[:0]
	for _, a := range n.attrs {
		if keepAttr(a) {
			attrs = append(attrs, a)
		}
	}
	n.attrs = attrs

	children := n.children[:0]
	for _, c := range n.children {
		if !c.isText && (!isSVGName(c.name) || droppedElements[c.name.Local]) {
			continue
		}
		if !c.isText {
			c.prune()
		}
		children = append(children, c)
	}
	n.children = children
}

// unwrapGroups replaces every attribute-less <g> with its children.
func (n *node) unwrapGroups() {
	children := make([]*node, 0, len(n.children))
	for _, c := range n.children {
		if c.isText {
			children = append(children, c)
			continue
		}
		c.unwrapGroups()
		if c.name.Local == "g" && len(c.attrs) == 0 {
			children = append(children, c.children...)
			continue
		}
		children = append(children, c)
	}
	n.children = children
}

func (n *node) walk(fn func(*node)) {
	fn(n)
	for _, c := range n.children {
		if !c.isText {
			c.walk(fn)
		}
	}
}

func (n *node) attr(space, local string) (int, bool) {
	for i, a := range n.attrs {
		if a.Name.Space == space && a.Name.Local == local {
			return i, true
		}
	}
	return -1, false
}

func (n *node) removeAttr(space, local string) {
	if i, ok := n.attr(space, local); ok {
		n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
	}
}

// uses reports whether any attribute in the tree carries the given prefix.
func (n *node) uses(prefix string) bool {
	found := false
	n.walk(func(e *node) {
		for _, a := range e.attrs {
			if a.Name.Space == prefix {
				found = true
			}
		}
	})
	return found
}

func isHref(a xml.Attr) bool {
	return a.Name.Local == "href" && (a.Name.Space == "" || a.Name.Space == "xlink")
}

// shortenIDs removes ids nothing refers to and renames the rest a, b, ... in document order.
func shortenIDs(root *node) {
	referenced := map[string]bool{}
	collect := func(s string) {
		for _, m := range urlRef.FindAllStringSubmatch(s, -1) {
			referenced[m[1]] = true
		}
	}

	root.walk(func(e *node) {
		for _, a := range e.attrs {
			if isHref(a) && strings.HasPrefix(a.Value, "#") {
				referenced[a.Value[1:]] = true
			}
			collect(a.Value)
		}
		if e.name.Local == "style" {
			for _, c := range e.children {
				if c.isText {
					collect(c.text)
				}
			}
		}
	})

	renamed := map[string]string{}
	root.walk(func(e *node) {
		i, ok := e.attr("", "id")
		if !ok {
			return
		}
		id := e.attrs[i].Value
		if !referenced[id] {
			e.attrs = append(e.attrs[:i], e.attrs[i+1:]...)
			return
		}
		short, seen := renamed[id]
		if !seen {
			short = shortID(len(renamed))
			renamed[id] = short
		}
		e.attrs[i].Value = short
	})

	rewrite := func(s string) string {
		return urlRef.ReplaceAllStringFunc(s, func(m string) string {
			id := urlRef.FindStringSubmatch(m)[1]
			if short, ok := renamed[id]; ok {
				return "url(#" + short + ")"
			}
			return m
		})
	}

	root.walk(func(e *node) {
		for i, a := range e.attrs {
			if isHref(a) && strings.HasPrefix(a.Value, "#") {
				if short, ok := renamed[a.Value[1:]]; ok {
					e.attrs[i].Value = "#" + short
				}
				continue
			}
			e.attrs[i].Value = rewrite(a.Value)
		}
		if e.name.Local == "style" {
			for _, c := range e.children {
				if c.isText {
					c.text = rewrite(c.text)
				}
			}
		}
	})
}

// shortID maps 0, 1, ..., 25, 26, ... to a, b, ..., z, aa, ...
func shortID(n int) string {
	var b []byte
	for {
		b = append([]byte{byte('a' + n%26)}, b...)
		n = n/26 - 1
		if n < 0 {
			return string(b)
		}
	}
}

// addViewBox derives viewBox from numeric width and height.
func (n *node) addViewBox() {
	if _, ok := n.attr("", "viewBox"); ok {
		return
	}

	wi, okW := n.attr("", "width")
	hi, okH := n.attr("", "height")
	if !okW || !okH {
		return
	}

	w, errW := strconv.ParseFloat(strings.TrimSuffix(n.attrs[wi].Value, "px"), 64)
	h, errH := strconv.ParseFloat(strings.TrimSuffix(n.attrs[hi].Value, "px"), 64)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return
	}

	n.attrs = append(n.attrs, xml.Attr{
		Name:  xml.Name{Local: "viewBox"},
		Value: "0 0 " + formatNumber(w) + " " + formatNumber(h),
	})
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (n *node) write(buf *bytes.Buffer) {
	if n.isText {
		_ = xml.EscapeText(buf, []byte(n.text))
		return
	}

	buf.WriteByte('<')
	buf.WriteString(qualified(n.name))
	for _, a := range n.attrs {
		buf.WriteByte(' ')
		buf.WriteString(qualified(a.Name))
		buf.WriteString(`="`)
		_ = xml.EscapeText(buf, []byte(a.Value))
		buf.WriteByte('"')
	}

	if len(n.children) == 0 {
		buf.WriteString("/>")
		return
	}

	buf.WriteByte('>')
	for _, c := range n.children {
		c.write(buf)
	}
	buf.WriteString("</")
	buf.WriteString(qualified(n.name))
	buf.WriteByte('>')
}
