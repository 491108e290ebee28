package legislation

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// Parser extracts metadata and contents from a parsed document. It holds no
// mutable state once constructed, so its methods may be called repeatedly.
type Parser struct {
	root *etree.Element
	log  *zap.Logger
}

// NewParser parses raw strictly. Anything that is not a well-formed XML
// document with a root element is a *ParseError.
func NewParser(raw []byte, log *zap.Logger) (*Parser, error) {
	if log == nil {
		log = zap.NewNop()
	}

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, &ParseError{Err: err}
	}

	if err := wellFormed(doc); err != nil {
		return nil, &ParseError{Err: err}
	}

	return &Parser{root: doc.Root(), log: log}, nil
}

// wellFormed rejects what the etree tokenizer lets through: more than one
// root element, text outside the root and undeclared namespace prefixes.
func wellFormed(doc *etree.Document) error {
	roots := 0
	for _, t := range doc.Child {
		switch t := t.(type) {
		case *etree.Element:
			roots++
		case *etree.CharData:
			if !t.IsWhitespace() {
				return errors.New("text outside the document element")
			}
		}
	}
	switch {
	case roots == 0:
		return errors.New("no root element")
	case roots > 1:
		return errors.New("junk after document element")
	}
	return boundPrefixes(doc.Root())
}

func boundPrefixes(el *etree.Element) error {
	if el.Space != "" && el.Space != "xml" && el.NamespaceURI() == "" {
		return fmt.Errorf("unbound prefix %q on <%s>", el.Space, el.FullTag())
	}
	for _, a := range el.Attr {
		if a.Space == "" || a.Space == "xml" || a.Space == "xmlns" {
			continue
		}
		if a.NamespaceURI() == "" {
			return fmt.Errorf("unbound prefix %q on attribute %s of <%s>", a.Space, a.FullKey(), el.FullTag())
		}
	}
	for _, c := range el.ChildElements() {
		if err := boundPrefixes(c); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) Metadata() (Metadata, error) {
	var md Metadata

	title := first(p.root, NamespaceDublinCore, "title")
	if title == nil {
		return md, &MissingFieldError{Field: "title", Path: ".//dc:title"}
	}
	md.Title = title.Text()

	desc := first(p.root, NamespaceDublinCore, "description")
	if desc == nil {
		return md, &MissingFieldError{Field: "description", Path: ".//dc:description"}
	}
	md.Description = desc.Text()

	made, ok := attr(first(p.root, NamespaceMetadata, "Made"), "Date")
	if !ok {
		return md, &MissingFieldError{Field: "made date", Path: ".//ukm:Made/@Date"}
	}
	md.MadeDate = made

	// Prefer the DateTime nested in ComingIntoForce; older documents only
	// carry a bare one.
	cif := first(p.root, NamespaceMetadata, "ComingIntoForce")
	var dt *etree.Element
	if cif != nil {
		dt = first(cif, NamespaceMetadata, "DateTime")
	}
	if dt == nil {
		dt = first(p.root, NamespaceMetadata, "DateTime")
	}
	force, ok := attr(dt, "Date")
	if !ok {
		return md, &MissingFieldError{Field: "coming into force date", Path: ".//ukm:DateTime/@Date"}
	}
	md.ComingIntoForce = force

	return md, nil
}

// Items returns every ContentsItem in document order.
func (p *Parser) Items() []Item {
	var items []Item
	for _, el := range all(p.root, NamespaceLegislation, "ContentsItem") {
		item := Item{
			Number: childText(el, "ContentsNumber"),
			Title:  childText(el, "ContentsTitle"),
		}
		if a := el.SelectAttr("DocumentURI"); a != nil {
			link := a.Value
			item.Link = &link
		}

		if item.Number == "" || item.Title == "" {
			p.log.Debug("incomplete contents item",
				zap.String("number", item.Number),
				zap.String("title", item.Title))
		}
		items = append(items, item)
	}
	return items
}

func (p *Parser) Document() (Document, error) {
	md, err := p.Metadata()
	if err != nil {
		return Document{}, err
	}
	items := p.Items()
	p.log.Debug("parsed document", zap.String("title", md.Title), zap.Int("items", len(items)))
	return Document{Metadata: md, Items: items}, nil
}

func matches(el *etree.Element, space, tag string) bool {
	return el.Tag == tag && el.NamespaceURI() == space
}

// first returns the first descendant of el in pre-order matching space and tag.
func first(el *etree.Element, space, tag string) *etree.Element {
	for _, c := range el.ChildElements() {
		if matches(c, space, tag) {
			return c
		}
		if found := first(c, space, tag); found != nil {
			return found
		}
	}
	return nil
}

// all returns every descendant of el in pre-order matching space and tag.
func all(el *etree.Element, space, tag string) []*etree.Element {
	var found []*etree.Element
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		for _, c := range e.ChildElements() {
			if matches(c, space, tag) {
				found = append(found, c)
			}
			walk(c)
		}
	}
	walk(el)
	return found
}

func childText(el *etree.Element, tag string) string {
	for _, c := range el.ChildElements() {
		if matches(c, NamespaceLegislation, tag) {
			return c.Text()
		}
	}
	return ""
}

func attr(el *etree.Element, key string) (string, bool) {
	if el == nil {
		return "", false
	}
	a := el.SelectAttr(key)
	if a == nil {
		return "", false
	}
	return a.Value, true
}
