package content

import (
	"fmt"
)

// LeafKind names what a leaf points at.
type LeafKind string

const (
	LeafRun        LeafKind = "run"
	LeafChartTitle LeafKind = "chart_title"
	LeafAxisTitle  LeafKind = "axis_title"
	LeafCategory   LeafKind = "category"
	LeafSeriesName LeafKind = "series_name"
	LeafDataLabel  LeafKind = "data_label"
)

// Leaf is one translatable text of the tree. Path is unique within the
// document; Unit is the batching unit (one slide, master or layout).
type Leaf struct {
	Path        string
	Unit        string
	Kind        LeafKind
	ElementType string
	text        *string
}

// Text returns the current text.
func (l *Leaf) Text() string { return *l.text }

// SetText overwrites the text in the tree.
func (l *Leaf) SetText(s string) { *l.text = s }

// UnitMaster, UnitLayout and UnitSlide format batching unit names.
func UnitMaster(index int) string { return fmt.Sprintf("master[%d]", index) }
func UnitLayout(index int) string { return fmt.Sprintf("layout[%d]", index) }
func UnitSlide(index int) string  { return fmt.Sprintf("slide[%d]", index) }

// ShapePath is the path prefix of a top-level shape.
func ShapePath(unit string, id int) string {
	return fmt.Sprintf("%s/shape[%d]", unit, id)
}

type walker struct {
	unit   string
	leaves []*Leaf
}

func (w *walker) add(path string, kind LeafKind, elementType string, text *string) {
	w.leaves = append(w.leaves, &Leaf{Path: path, Unit: w.unit, Kind: kind, ElementType: elementType, text: text})
}

func (w *walker) paragraphs(prefix, elementType string, ps []*Paragraph) {
	for _, p := range ps {
		for _, r := range p.Runs {
			w.add(fmt.Sprintf("%s/p[%d]/r[%d]", prefix, p.Index, r.Index), LeafRun, elementType, &r.Text)
		}
	}
}

// shapes visits shapes depth-first; group members are visited before the
// next sibling, using an explicit stack.
func (w *walker) shapes(prefix string, roots []*ShapeElement) {
	type item struct {
		prefix string
		shape  *ShapeElement
	}
	stack := make([]item, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, item{prefix, roots[i]})
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		w.shape(it.prefix, it.shape)
		path := fmt.Sprintf("%s/shape[%d]", it.prefix, it.shape.ID)
		for i := len(it.shape.Shapes) - 1; i >= 0; i-- {
			stack = append(stack, item{path, it.shape.Shapes[i]})
		}
	}
}

func (w *walker) shape(prefix string, s *ShapeElement) {
	path := fmt.Sprintf("%s/shape[%d]", prefix, s.ID)
	w.paragraphs(path, s.ElementType, s.Paragraphs)
	if t := s.Table; t != nil {
		for _, c := range t.Cells {
			w.paragraphs(fmt.Sprintf("%s/cell[%d,%d]", path, c.Row, c.Column), s.ElementType, c.Paragraphs)
		}
	}
	if c := s.Chart; c != nil {
		if c.Title != nil {
			w.add(path+"/chart/title", LeafChartTitle, s.ElementType, &c.Title.Text)
		}
		for _, ax := range []struct {
			name  string
			title *ChartText
		}{{"category", c.CategoryAxisTitle}, {"value", c.ValueAxisTitle}, {"series", c.SeriesAxisTitle}} {
			if ax.title != nil {
				w.add(path+"/chart/axis["+ax.name+"]", LeafAxisTitle, s.ElementType, &ax.title.Text)
			}
		}
		for _, cat := range c.Categories {
			w.add(fmt.Sprintf("%s/chart/category[%d]", path, cat.Index), LeafCategory, s.ElementType, &cat.Text)
		}
		for _, ser := range c.Series {
			if ser.Name != "" {
				w.add(fmt.Sprintf("%s/chart/series[%d]/name", path, ser.Index), LeafSeriesName, s.ElementType, &ser.Name)
			}
			for _, dl := range ser.DataLabels {
				w.add(fmt.Sprintf("%s/chart/series[%d]/label[%d]", path, ser.Index, dl.Point), LeafDataLabel, s.ElementType, &dl.Text)
			}
		}
	}
	if sa := s.SmartArt; sa != nil {
		for _, n := range sa.Nodes {
			w.paragraphs(fmt.Sprintf("%s/node[%s]", path, n.ModelID), s.ElementType, n.Paragraphs)
		}
	}
}

// Leaves returns every translatable leaf in document order: masters,
// layouts, then slides with their notes last.
func (d *DocumentContent) Leaves() []*Leaf {
	w := &walker{}
	for _, m := range d.Masters {
		w.unit = UnitMaster(m.Index)
		w.shapes(w.unit, m.Shapes)
	}
	for _, l := range d.Layouts {
		w.unit = UnitLayout(l.Index)
		w.shapes(w.unit, l.Shapes)
	}
	for _, s := range d.Slides {
		w.unit = UnitSlide(s.Index)
		w.shapes(w.unit, s.Shapes)
		if s.Notes != nil {
			w.paragraphs(fmt.Sprintf("%s/notes/shape[%d]", w.unit, s.Notes.ShapeID), "Notes", s.Notes.Paragraphs)
		}
	}
	return w.leaves
}

// Units groups leaves by batching unit, keeping document order.
func Units(leaves []*Leaf) [][]*Leaf {
	var out [][]*Leaf
	pos := make(map[string]int)
	for _, l := range leaves {
		i, ok := pos[l.Unit]
		if !ok {
			i = len(out)
			pos[l.Unit] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], l)
	}
	return out
}

// WalkShapes calls fn for every shape of every container, group members
// included, in document order.
func (d *DocumentContent) WalkShapes(fn func(unit string, s *ShapeElement)) {
	visit := func(unit string, roots []*ShapeElement) {
		stack := make([]*ShapeElement, 0, len(roots))
		for i := len(roots) - 1; i >= 0; i-- {
			stack = append(stack, roots[i])
		}
		for len(stack) > 0 {
			s := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			fn(unit, s)
			for i := len(s.Shapes) - 1; i >= 0; i-- {
				stack = append(stack, s.Shapes[i])
			}
		}
	}
	for _, m := range d.Masters {
		visit(UnitMaster(m.Index), m.Shapes)
	}
	for _, l := range d.Layouts {
		visit(UnitLayout(l.Index), l.Shapes)
	}
	for _, s := range d.Slides {
		visit(UnitSlide(s.Index), s.Shapes)
	}
}

// RefreshDerived recomputes the convenience text fields from the runs,
// and chart legends and series categories from their leaves.
func (d *DocumentContent) RefreshDerived() {
	d.WalkShapes(func(_ string, s *ShapeElement) {
		if s.HasTextFrame && len(s.Paragraphs) > 0 {
			s.FullText = ParagraphsText(s.Paragraphs)
		}
		if s.Chart != nil {
			s.Chart.refreshDerived()
		}
		if s.Table != nil {
			for _, c := range s.Table.Cells {
				c.Text = ParagraphsText(c.Paragraphs)
			}
		}
		if s.SmartArt != nil {
			for _, n := range s.SmartArt.Nodes {
				n.Text = ParagraphsText(n.Paragraphs)
			}
		}
	})
	for _, s := range d.Slides {
		if s.Notes != nil {
			s.Notes.FullText = ParagraphsText(s.Notes.Paragraphs)
		}
	}
}

func (c *ChartElement) refreshDerived() {
	cats := make(map[int]string, len(c.Categories))
	for _, cat := range c.Categories {
		cats[cat.Index] = cat.Text
	}
	names := make(map[int]string, len(c.Series))
	for _, ser := range c.Series {
		names[ser.Index] = ser.Name
		for i := range ser.Categories {
			if t, ok := cats[i]; ok {
				ser.Categories[i] = t
			}
		}
	}
	for _, le := range c.Legend {
		switch le.Source {
		case LegendCategory:
			if t, ok := cats[le.Index]; ok {
				le.Text = t
			}
		default:
			if t, ok := names[le.Index]; ok && t != "" {
				le.Text = t
			}
		}
	}
}
