package pptx

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Element lookups match on local names. Prefixes differ between producers,
// so "a:p" and "p" written with a default namespace are treated alike.

func child(e *etree.Element, local string) *etree.Element {
	if e == nil {
		return nil
	}
	for _, c := range e.ChildElements() {
		if c.Tag == local {
			return c
		}
	}
	return nil
}

func children(e *etree.Element, local string) []*etree.Element {
	if e == nil {
		return nil
	}
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if c.Tag == local {
			out = append(out, c)
		}
	}
	return out
}

// descend follows a chain of local names from e.
func descend(e *etree.Element, locals ...string) *etree.Element {
	for _, l := range locals {
		e = child(e, l)
		if e == nil {
			return nil
		}
	}
	return e
}

// attr returns an attribute value by local key, ignoring prefixes unless
// key carries one ("r:id").
func attr(e *etree.Element, key string) (string, bool) {
	if e == nil {
		return "", false
	}
	space, local := "", key
	if i := strings.IndexByte(key, ':'); i >= 0 {
		space, local = key[:i], key[i+1:]
	}
	for _, a := range e.Attr {
		if a.Key == local && (space == "" && a.Space == "" || space != "" && a.Space == space) {
			return a.Value, true
		}
	}
	return "", false
}

func attrOr(e *etree.Element, key, dflt string) string {
	if v, ok := attr(e, key); ok {
		return v
	}
	return dflt
}

// relAttr returns a relationship id attribute ("r:id", "r:embed", ...)
// whatever prefix the producer bound to the relationships namespace.
func relAttr(e *etree.Element, local string) string {
	if e == nil {
		return ""
	}
	for _, a := range e.Attr {
		if a.Key == local && a.Space != "" && a.NamespaceURI() == relNS {
			return a.Value
		}
	}
	if v, ok := attr(e, "r:"+local); ok {
		return v
	}
	return ""
}

func intAttr(e *etree.Element, key string) (int, bool, error) {
	v, ok := attr(e, key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, true, &attrError{el: e, key: key, value: v, err: err}
	}
	return n, true, nil
}

func int64Attr(e *etree.Element, key string) (int64, bool, error) {
	v, ok := attr(e, key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, true, &attrError{el: e, key: key, value: v, err: err}
	}
	return n, true, nil
}

// boolAttr parses xsd:boolean values.
func boolAttr(e *etree.Element, key string) (bool, bool, error) {
	v, ok := attr(e, key)
	if !ok {
		return false, false, nil
	}
	switch strings.TrimSpace(v) {
	case "1", "true":
		return true, true, nil
	case "0", "false":
		return false, true, nil
	}
	return false, true, &attrError{el: e, key: key, value: v}
}

type attrError struct {
	el    *etree.Element
	key   string
	value string
	err   error
}

func (e *attrError) Error() string {
	return "invalid " + e.el.Tag + "@" + e.key + " value " + strconv.Quote(e.value)
}

func (e *attrError) Unwrap() error { return e.err }

// newElement creates an element with the same prefix as ref.
func newElement(ref *etree.Element, local string) *etree.Element {
	tag := local
	if ref != nil && ref.Space != "" {
		tag = ref.Space + ":" + local
	}
	return etree.NewElement(tag)
}

// insertFirst makes c the first child element of parent.
func insertFirst(parent, c *etree.Element) {
	parent.InsertChildAt(0, c)
}

// insertBefore inserts c before the first child whose local name is one of
// locals, or appends it when none exists.
func insertBefore(parent, c *etree.Element, locals ...string) {
	for _, existing := range parent.ChildElements() {
		for _, l := range locals {
			if existing.Tag == l {
				parent.InsertChildAt(existing.Index(), c)
				return
			}
		}
	}
	parent.AddChild(c)
}

// elementText concatenates the character data directly inside e.
func elementText(e *etree.Element) string {
	if e == nil {
		return ""
	}
	return e.Text()
}
