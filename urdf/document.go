// Package urdf edits the collision geometry of URDF and xacro robot descriptions in place.
//
// Documents are held as a generic XML tree rather than unmarshaled into structs, so that everything the
// simplifier does not touch (comments, processing instructions, xacro macros and namespace prefixes, element
// and attribute order, whitespace) is written back exactly as it was read.
package urdf

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/collisionsimplify/utils"
)

// Node is one item of a document tree: an *Element, or a CharData, Comment, ProcInst or Directive token.
type Node interface{}

// Element is an XML element. Names keep the prefix they were written with in Name.Space, so a
// <xacro:macro> element has Space "xacro" and Local "macro".
type Element struct {
	Name     xml.Name
	Attr     []xml.Attr
	Children []Node
	parent   *Element
}

// NewElement creates a detached element with the given local name and attributes.
func NewElement(local string, attrs ...xml.Attr) *Element {
	return &Element{Name: xml.Name{Local: local}, Attr: attrs}
}

// Parent returns the enclosing element, or nil for the root and detached elements.
func (e *Element) Parent() *Element {
	return e.parent
}

// Is reports whether the element has the given local name and no prefix.
func (e *Element) Is(local string) bool {
	return e.Name.Space == "" && e.Name.Local == local
}

// AttrValue returns the value of an unprefixed attribute.
func (e *Element) AttrValue(name string) (string, bool) {
	for _, a := range e.Attr {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets an unprefixed attribute, keeping its position if it already exists.
func (e *Element) SetAttr(name, value string) {
	for i, a := range e.Attr {
		if a.Name.Space == "" && a.Name.Local == name {
			e.Attr[i].Value = value
			return
		}
	}
	e.Attr = append(e.Attr, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

// Elements returns the direct children with the given local name.
func (e *Element) Elements(local string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok && el.Is(local) {
			out = append(out, el)
		}
	}
	return out
}

// Descendants returns every element below e with the given local name, in document order.
func (e *Element) Descendants(local string) []*Element {
	var out []*Element
	e.walk(func(el *Element) {
		if el != e && el.Is(local) {
			out = append(out, el)
		}
	})
	return out
}

func (e *Element) walk(visit func(*Element)) {
	visit(e)
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok {
			el.walk(visit)
		}
	}
}

// AppendChild adds a node as the last child of e.
func (e *Element) AppendChild(n Node) {
	if el, ok := n.(*Element); ok {
		el.parent = e
	}
	e.Children = append(e.Children, n)
}

// ReplaceChild puts replacement where old was. It returns false if old is not a child of e.
func (e *Element) ReplaceChild(old, replacement *Element) bool {
	for i, c := range e.Children {
		if c == Node(old) {
			e.Children[i] = replacement
			replacement.parent = e
			old.parent = nil
			return true
		}
	}
	return false
}

// Document is a parsed XML document. Nodes outside the root element, such as the XML declaration and
// leading comments, are kept in order.
type Document struct {
	Nodes []Node
}

// Root returns the document element.
func (d *Document) Root() *Element {
	for _, n := range d.Nodes {
		if el, ok := n.(*Element); ok {
			return el
		}
	}
	return nil
}

// ParseDocument reads an XML document. Namespace prefixes are not resolved.
func ParseDocument(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	doc := &Document{}
	var current *Element
	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse XML")
		}
		tok = xml.CopyToken(tok)

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name, Attr: t.Attr}
			if current == nil {
				if doc.Root() != nil {
					return nil, errors.Errorf("second root element <%s>", qualifiedName(t.Name))
				}
				doc.Nodes = append(doc.Nodes, el)
			} else {
				current.AppendChild(el)
			}
			current = el
		case xml.EndElement:
			if current == nil || current.Name != t.Name {
				return nil, errors.Errorf("unexpected closing tag </%s>", qualifiedName(t.Name))
			}
			current = current.parent
		default:
			if current == nil {
				doc.Nodes = append(doc.Nodes, tok)
			} else {
				current.AppendChild(tok)
			}
		}
	}
	if current != nil {
		return nil, errors.Errorf("unclosed element <%s>", qualifiedName(current.Name))
	}
	if doc.Root() == nil {
		return nil, errors.New("document has no root element")
	}
	return doc, nil
}

// ReadDocumentFile parses the XML document at path.
func ReadDocumentFile(path string) (*Document, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open robot description")
	}
	defer goutils.UncheckedErrorFunc(f.Close)
	doc, err := ParseDocument(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return doc, nil
}

// WriteTo serializes the document. Elements without children are written in the self-closing form.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: bufio.NewWriter(w)}
	for _, n := range d.Nodes {
		writeNode(cw, n)
	}
	if cw.err != nil {
		return cw.n, cw.err
	}
	return cw.n, cw.w.Flush()
}

// WriteFile atomically replaces the file at path with the serialized document.
func (d *Document) WriteFile(path string) error {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return err
	}
	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	return errors.Wrapf(utils.WriteFileAtomic(path, buf.Bytes(), perm), "failed to write %s", path)
}

type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (cw *countingWriter) write(s string) {
	if cw.err != nil {
		return
	}
	n, err := cw.w.WriteString(s)
	cw.n += int64(n)
	cw.err = err
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "\n", "&#xA;", "\r", "&#xD;", "\t", "&#x9;",
	)
)

func writeNode(w *countingWriter, n Node) {
	switch t := n.(type) {
	case *Element:
		w.write("<" + qualifiedName(t.Name))
		for _, a := range t.Attr {
			w.write(" " + qualifiedName(a.Name) + `="` + attrEscaper.Replace(a.Value) + `"`)
		}
		if len(t.Children) == 0 {
			w.write("/>")
			return
		}
		w.write(">")
		for _, c := range t.Children {
			writeNode(w, c)
		}
		w.write("</" + qualifiedName(t.Name) + ">")
	case xml.CharData:
		w.write(textEscaper.Replace(string(t)))
	case xml.Comment:
		w.write("<!--" + string(t) + "-->")
	case xml.ProcInst:
		if len(t.Inst) == 0 {
			w.write("<?" + t.Target + "?>")
			return
		}
		w.write("<?" + t.Target + " " + string(t.Inst) + "?>")
	case xml.Directive:
		w.write("<!" + string(t) + ">")
	}
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
