package pptx

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// AxisKind names the chart axes that can carry a title.
type AxisKind string

const (
	AxisCategory AxisKind = "category"
	AxisValue    AxisKind = "value"
	AxisSeries   AxisKind = "series"
)

// Chart wraps a chart part (c:chartSpace).
type Chart struct {
	part  *Part
	chart *etree.Element
}

func newChart(part *Part) *Chart {
	return &Chart{part: part, chart: child(part.Root(), "chart")}
}

// PartName returns the chart part name.
func (c *Chart) PartName() string { return c.part.Name }

func (c *Chart) plotArea() *etree.Element {
	return child(c.chart, "plotArea")
}

// typeElements returns the c:*Chart elements of the plot area.
func (c *Chart) typeElements() []*etree.Element {
	pa := c.plotArea()
	if pa == nil {
		return nil
	}
	var out []*etree.Element
	for _, e := range pa.ChildElements() {
		if strings.HasSuffix(e.Tag, "Chart") {
			out = append(out, e)
		}
	}
	return out
}

// Type returns the first plot's element name, e.g. "barChart".
func (c *Chart) Type() string {
	if c.chart == nil {
		return ""
	}
	if ts := c.typeElements(); len(ts) > 0 {
		return ts[0].Tag
	}
	return ""
}

// Title returns the rich-text chart title, or nil when the chart has no
// title or an automatic one.
func (c *Chart) Title() *TextFrame {
	return newTextFrame(descend(c.chart, "title", "tx", "rich"), c.part)
}

func (c *Chart) axis(kind AxisKind) *etree.Element {
	pa := c.plotArea()
	if pa == nil {
		return nil
	}
	vals := children(pa, "valAx")
	switch kind {
	case AxisCategory:
		if a := child(pa, "catAx"); a != nil {
			return a
		}
		if a := child(pa, "dateAx"); a != nil {
			return a
		}
		if len(vals) >= 2 {
			return vals[0]
		}
	case AxisValue:
		if len(vals) >= 2 && child(pa, "catAx") == nil && child(pa, "dateAx") == nil {
			return vals[1]
		}
		if len(vals) > 0 {
			return vals[0]
		}
	case AxisSeries:
		return child(pa, "serAx")
	}
	return nil
}

// AxisTitle returns the rich-text title of an axis, or nil.
func (c *Chart) AxisTitle(kind AxisKind) *TextFrame {
	return newTextFrame(descend(c.axis(kind), "title", "tx", "rich"), c.part)
}

// HasLegend reports whether a legend is shown.
func (c *Chart) HasLegend() bool {
	return child(c.chart, "legend") != nil
}

// LegendEntryDeleted reports whether legend entry idx was removed by the author.
func (c *Chart) LegendEntryDeleted(idx int) bool {
	for _, le := range children(child(c.chart, "legend"), "legendEntry") {
		if attrOr(child(le, "idx"), "val", "") == strconv.Itoa(idx) {
			return attrOr(child(le, "delete"), "val", "0") == "1"
		}
	}
	return false
}

// VaryColors reports whether a single-series plot colours each point,
// in which case the legend lists categories.
func (c *Chart) VaryColors() bool {
	ts := c.typeElements()
	if len(ts) == 0 {
		return false
	}
	switch ts[0].Tag {
	case "pieChart", "pie3DChart", "doughnutChart", "ofPieChart":
		return attrOr(child(ts[0], "varyColors"), "val", "1") != "0"
	}
	return attrOr(child(ts[0], "varyColors"), "val", "0") == "1"
}

// Series returns every c:ser across the plots in document order.
func (c *Chart) Series() []*Series {
	var out []*Series
	for _, t := range c.typeElements() {
		for _, ser := range children(t, "ser") {
			idx, err := strconv.Atoi(attrOr(child(ser, "idx"), "val", ""))
			if err != nil {
				idx = len(out)
			}
			out = append(out, &Series{Index: idx, el: ser, part: c.part})
		}
	}
	return out
}

// SetCategory rewrites category label idx in every series cache.
func (c *Chart) SetCategory(idx int, text string) bool {
	changed := false
	for _, s := range c.Series() {
		if s.setCategory(idx, text) {
			changed = true
		}
	}
	return changed
}

// Series wraps c:ser.
type Series struct {
	Index int
	el    *etree.Element
	part  *Part
}

func (s *Series) nameValue() *etree.Element {
	tx := child(s.el, "tx")
	if v := child(tx, "v"); v != nil {
		return v
	}
	return firstPointValue(descend(tx, "strRef", "strCache"))
}

// Name returns the cached series name.
func (s *Series) Name() (string, bool) {
	v := s.nameValue()
	if v == nil {
		return "", false
	}
	return v.Text(), true
}

// SetName rewrites the cached series name.
func (s *Series) SetName(name string) bool {
	v := s.nameValue()
	if v == nil || v.Text() == name {
		return false
	}
	v.SetText(name)
	s.part.MarkDirty()
	return true
}

func firstPointValue(cache *etree.Element) *etree.Element {
	for _, pt := range children(cache, "pt") {
		if attrOr(pt, "idx", "0") == "0" {
			return child(pt, "v")
		}
	}
	return nil
}

// categoryCache locates the cached category labels.
func (s *Series) categoryCache() *etree.Element {
	cat := child(s.el, "cat")
	if cat == nil {
		cat = child(s.el, "xVal")
	}
	if cat == nil {
		return nil
	}
	for _, p := range [][]string{
		{"strRef", "strCache"},
		{"strLit"},
		{"numRef", "numCache"},
		{"numLit"},
	} {
		if c := descend(cat, p...); c != nil {
			return c
		}
	}
	if ml := descend(cat, "multiLvlStrRef", "multiLvlStrCache", "lvl"); ml != nil {
		return ml
	}
	return nil
}

// Categories returns the category labels, indexed by point.
func (s *Series) Categories() []string {
	return cachedStrings(s.categoryCache())
}

// TextCategories reports whether the category labels are cached as text
// and can be rewritten.
func (s *Series) TextCategories() bool {
	cache := s.categoryCache()
	return cache != nil && !strings.HasPrefix(cache.Tag, "num")
}

func (s *Series) setCategory(idx int, text string) bool {
	if !s.TextCategories() {
		return false
	}
	cache := s.categoryCache()
	for _, pt := range children(cache, "pt") {
		if attrOr(pt, "idx", "") == strconv.Itoa(idx) {
			v := child(pt, "v")
			if v == nil || v.Text() == text {
				return false
			}
			v.SetText(text)
			s.part.MarkDirty()
			return true
		}
	}
	return false
}

// Values returns the cached numeric values; missing points are nil.
func (s *Series) Values() ([]*float64, error) {
	val := child(s.el, "val")
	if val == nil {
		val = child(s.el, "yVal")
	}
	cache := descend(val, "numRef", "numCache")
	if cache == nil {
		cache = child(val, "numLit")
	}
	if cache == nil {
		return nil, nil
	}
	out := make([]*float64, pointCount(cache))
	for _, pt := range children(cache, "pt") {
		idx, err := strconv.Atoi(attrOr(pt, "idx", ""))
		if err != nil || idx < 0 {
			return nil, &attrError{el: pt, key: "idx", value: attrOr(pt, "idx", ""), err: err}
		}
		raw := strings.TrimSpace(elementText(child(pt, "v")))
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &attrError{el: pt, key: "v", value: raw, err: err}
		}
		for idx >= len(out) {
			out = append(out, nil)
		}
		out[idx] = &f
	}
	return out, nil
}

func pointCount(cache *etree.Element) int {
	n, err := strconv.Atoi(attrOr(child(cache, "ptCount"), "val", "0"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func cachedStrings(cache *etree.Element) []string {
	if cache == nil {
		return nil
	}
	out := make([]string, pointCount(cache))
	for _, pt := range children(cache, "pt") {
		idx, err := strconv.Atoi(attrOr(pt, "idx", ""))
		if err != nil || idx < 0 {
			continue
		}
		for idx >= len(out) {
			out = append(out, "")
		}
		out[idx] = elementText(child(pt, "v"))
	}
	return out
}

// DataLabel is a per-point label with custom rich text.
type DataLabel struct {
	Point int
	Frame *TextFrame
}

// DataLabels returns custom-text point labels ordered as in the file.
func (s *Series) DataLabels() []*DataLabel {
	var out []*DataLabel
	for _, dl := range children(child(s.el, "dLbls"), "dLbl") {
		if attrOr(child(dl, "delete"), "val", "0") == "1" {
			continue
		}
		rich := descend(dl, "tx", "rich")
		if rich == nil {
			continue
		}
		idx, err := strconv.Atoi(attrOr(child(dl, "idx"), "val", ""))
		if err != nil {
			continue
		}
		out = append(out, &DataLabel{Point: idx, Frame: newTextFrame(rich, s.part)})
	}
	return out
}

// DataLabel returns the custom label of point idx, or nil.
func (s *Series) DataLabel(point int) *TextFrame {
	for _, dl := range s.DataLabels() {
		if dl.Point == point {
			return dl.Frame
		}
	}
	return nil
}
