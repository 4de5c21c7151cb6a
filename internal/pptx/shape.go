package pptx

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// ShapeKind classifies a shape-tree element.
type ShapeKind string

const (
	KindTextBox   ShapeKind = "TextBox"
	KindTable     ShapeKind = "Table"
	KindChart     ShapeKind = "Chart"
	KindPicture   ShapeKind = "Picture"
	KindAutoShape ShapeKind = "AutoShape"
	KindGroup     ShapeKind = "Group"
	KindSmartArt  ShapeKind = "SmartArt"
)

// OtherKind tags an element type without dedicated handling.
func OtherKind(raw string) ShapeKind {
	return ShapeKind("Other_" + raw)
}

// IsOther reports whether k is an Other_<raw> kind.
func (k ShapeKind) IsOther() bool {
	return strings.HasPrefix(string(k), "Other_")
}

const (
	uriTable   = "http://schemas.openxmlformats.org/drawingml/2006/table"
	uriChart   = "http://schemas.openxmlformats.org/drawingml/2006/chart"
	uriDiagram = "http://schemas.openxmlformats.org/drawingml/2006/diagram"
)

// Shape is one element of a slide's shape tree.
type Shape struct {
	ID       int
	Name     string
	Kind     ShapeKind
	el       *etree.Element
	part     *Part
	children []*Shape
}

// ShapeID returns the p:cNvPr id, the shape's identity within its part.
func (s *Shape) ShapeID() int { return s.ID }

// Children returns the members of a group shape.
func (s *Shape) Children() []*Shape { return s.children }

// Element exposes the underlying XML element.
func (s *Shape) Element() *etree.Element { return s.el }

// Part returns the XML part containing the shape.
func (s *Shape) Part() *Part { return s.part }

// RawType is the local element name, e.g. "sp" or "graphicFrame".
func (s *Shape) RawType() string { return s.el.Tag }

// nvPr returns the non-visual properties container (p:nvSpPr, p:nvPicPr, ...).
func nvProps(el *etree.Element) *etree.Element {
	for _, c := range el.ChildElements() {
		if strings.HasPrefix(c.Tag, "nv") && strings.HasSuffix(c.Tag, "Pr") {
			return c
		}
	}
	return nil
}

func cNvPr(el *etree.Element) *etree.Element {
	return child(nvProps(el), "cNvPr")
}

// TextFrame returns the shape's own text body, or nil when the shape cannot
// hold text.
func (s *Shape) TextFrame() *TextFrame {
	return newTextFrame(child(s.el, "txBody"), s.part)
}

// HasTextFrame is the capability flag used for extraction dispatch.
func (s *Shape) HasTextFrame() bool {
	return child(s.el, "txBody") != nil
}

// Description returns the alternative text.
func (s *Shape) Description() string {
	return attrOr(cNvPr(s.el), "descr", "")
}

// Hidden reports the p:cNvPr hidden flag.
func (s *Shape) Hidden() bool {
	return attrOr(cNvPr(s.el), "hidden", "") == "1"
}

// Placeholder describes a p:ph reference.
type Placeholder struct {
	Type  string `json:"type,omitempty"`
	Index *int   `json:"idx,omitempty"`
}

// Placeholder returns the placeholder info, or nil.
func (s *Shape) Placeholder() (*Placeholder, error) {
	ph := descend(nvProps(s.el), "nvPr", "ph")
	if ph == nil {
		return nil, nil
	}
	p := &Placeholder{Type: attrOr(ph, "type", "")}
	idx, ok, err := intAttr(ph, "idx")
	if err != nil {
		return nil, err
	}
	if ok {
		p.Index = &idx
	}
	return p, nil
}

// Geometry is the shape transform in EMUs.
type Geometry struct {
	X        int64 `json:"x"`
	Y        int64 `json:"y"`
	Width    int64 `json:"width"`
	Height   int64 `json:"height"`
	Rotation int   `json:"rotation,omitempty"` // 1/60000 degree
	FlipH    bool  `json:"flip_h,omitempty"`
	FlipV    bool  `json:"flip_v,omitempty"`
}

func (s *Shape) xfrm() *etree.Element {
	for _, props := range []string{"spPr", "grpSpPr"} {
		if x := descend(s.el, props, "xfrm"); x != nil {
			return x
		}
	}
	return child(s.el, "xfrm")
}

// Geometry returns the transform, or nil when it is inherited.
func (s *Shape) Geometry() (*Geometry, error) {
	x := s.xfrm()
	if x == nil {
		return nil, nil
	}
	g := &Geometry{}
	var err error
	off, ext := child(x, "off"), child(x, "ext")
	if g.X, _, err = int64Attr(off, "x"); err != nil {
		return nil, err
	}
	if g.Y, _, err = int64Attr(off, "y"); err != nil {
		return nil, err
	}
	if g.Width, _, err = int64Attr(ext, "cx"); err != nil {
		return nil, err
	}
	if g.Height, _, err = int64Attr(ext, "cy"); err != nil {
		return nil, err
	}
	if g.Rotation, _, err = intAttr(x, "rot"); err != nil {
		return nil, err
	}
	g.FlipH = attrOr(x, "flipH", "") == "1"
	g.FlipV = attrOr(x, "flipV", "") == "1"
	return g, nil
}

// Style summarises fill, line and shadow from p:spPr.
type Style struct {
	Fill      string   `json:"fill,omitempty"` // solid, gradient, pattern, picture, none
	FillColor string   `json:"fill_color,omitempty"`
	Line      bool     `json:"line,omitempty"`
	LineColor string   `json:"line_color,omitempty"`
	LineWidth *float64 `json:"line_width,omitempty"` // points
	Shadow    bool     `json:"shadow,omitempty"`
}

// Style reads the explicit shape style; nil when nothing is set.
func (s *Shape) Style() (*Style, error) {
	spPr := child(s.el, "spPr")
	if spPr == nil {
		return nil, nil
	}
	st := &Style{}
	for _, c := range spPr.ChildElements() {
		switch c.Tag {
		case "solidFill":
			st.Fill, st.FillColor = "solid", colorOf(c)
		case "gradFill":
			st.Fill = "gradient"
		case "pattFill":
			st.Fill = "pattern"
		case "blipFill":
			st.Fill = "picture"
		case "noFill":
			st.Fill = "none"
		case "ln":
			if child(c, "noFill") == nil {
				st.Line = true
				st.LineColor = colorOf(child(c, "solidFill"))
				w, err := lineWidthPoints(c)
				if err != nil {
					return nil, err
				}
				st.LineWidth = w
			}
		case "effectLst":
			st.Shadow = child(c, "outerShdw") != nil || child(c, "innerShdw") != nil || child(c, "prstShdw") != nil
		}
	}
	if *st == (Style{}) {
		return nil, nil
	}
	return st, nil
}

// graphicData returns a:graphic/a:graphicData of a graphic frame.
func (s *Shape) graphicData() *etree.Element {
	return descend(s.el, "graphic", "graphicData")
}

// Table returns the table of a table graphic frame, or nil.
func (s *Shape) Table() *Table {
	if s.Kind != KindTable {
		return nil
	}
	tbl := child(s.graphicData(), "tbl")
	if tbl == nil {
		return nil
	}
	return &Table{el: tbl, part: s.part}
}

// ChartRelID returns the relationship id of a chart graphic frame.
func (s *Shape) ChartRelID() string {
	return relAttr(child(s.graphicData(), "chart"), "id")
}

// DiagramRelID returns the relationship id of a SmartArt data part.
func (s *Shape) DiagramRelID() string {
	return relAttr(child(s.graphicData(), "relIds"), "dm")
}

// classify maps a shape-tree element to its kind.
func classify(el *etree.Element) ShapeKind {
	switch el.Tag {
	case "grpSp":
		return KindGroup
	case "pic":
		return KindPicture
	case "graphicFrame":
		switch attrOr(descend(el, "graphic", "graphicData"), "uri", "") {
		case uriTable:
			return KindTable
		case uriChart:
			return KindChart
		case uriDiagram:
			return KindSmartArt
		}
		return OtherKind("graphicFrame")
	case "sp":
		nv := nvProps(el)
		if attrOr(child(nv, "cNvSpPr"), "txBox", "") == "1" {
			return KindTextBox
		}
		if descend(nv, "nvPr", "ph") != nil {
			return KindTextBox
		}
		spPr := child(el, "spPr")
		if child(spPr, "prstGeom") != nil {
			return KindAutoShape
		}
		if child(spPr, "custGeom") != nil {
			return OtherKind("freeform")
		}
		return OtherKind("sp")
	case "cxnSp":
		return OtherKind("connector")
	}
	return OtherKind(el.Tag)
}

// structural children of a shape tree that are not shapes themselves.
var notShapes = map[string]bool{
	"nvGrpSpPr": true,
	"grpSpPr":   true,
	"extLst":    true,
}

// buildShapes walks a p:spTree or p:grpSp container. Groups are expanded
// with an explicit work list so nesting depth is unbounded.
func buildShapes(container *etree.Element, part *Part) []*Shape {
	type frame struct {
		el  *etree.Element
		dst *[]*Shape
	}
	var roots []*Shape
	work := []frame{{el: container, dst: &roots}}
	for len(work) > 0 {
		f := work[0]
		work = work[1:]
		for _, el := range shapeElements(f.el) {
			s := &Shape{Kind: classify(el), el: el, part: part}
			if nv := cNvPr(el); nv != nil {
				s.ID, _ = strconv.Atoi(attrOr(nv, "id", "0"))
				s.Name = attrOr(nv, "name", "")
			}
			*f.dst = append(*f.dst, s)
			if s.Kind == KindGroup {
				work = append(work, frame{el: el, dst: &s.children})
			}
		}
	}
	return roots
}

// shapeElements lists the shape elements of a container, resolving
// mc:AlternateContent to its first choice.
func shapeElements(container *etree.Element) []*etree.Element {
	var out []*etree.Element
	for _, c := range container.ChildElements() {
		if notShapes[c.Tag] {
			continue
		}
		if c.Tag == "AlternateContent" {
			if choice := child(c, "Choice"); choice != nil {
				out = append(out, choice.ChildElements()...)
			} else if fb := child(c, "Fallback"); fb != nil {
				out = append(out, fb.ChildElements()...)
			}
			continue
		}
		out = append(out, c)
	}
	return out
}
