package pptx

import "github.com/beevik/etree"

// Table wraps a:tbl.
type Table struct {
	el   *etree.Element
	part *Part
}

// Rows returns the number of a:tr rows.
func (t *Table) Rows() int {
	return len(children(t.el, "tr"))
}

// Columns returns the number of grid columns.
func (t *Table) Columns() int {
	if n := len(children(child(t.el, "tblGrid"), "gridCol")); n > 0 {
		return n
	}
	max := 0
	for _, tr := range children(t.el, "tr") {
		if n := len(children(tr, "tc")); n > max {
			max = n
		}
	}
	return max
}

// Cell returns the cell at (row, col), or nil when out of range.
func (t *Table) Cell(row, col int) *Cell {
	rows := children(t.el, "tr")
	if row < 0 || row >= len(rows) {
		return nil
	}
	cells := children(rows[row], "tc")
	if col < 0 || col >= len(cells) {
		return nil
	}
	return &Cell{Row: row, Column: col, el: cells[col], part: t.part}
}

// Cells returns every cell in row-major order.
func (t *Table) Cells() []*Cell {
	var out []*Cell
	for r, tr := range children(t.el, "tr") {
		for c, tc := range children(tr, "tc") {
			out = append(out, &Cell{Row: r, Column: c, el: tc, part: t.part})
		}
	}
	return out
}

// Cell wraps a:tc.
type Cell struct {
	Row    int
	Column int
	el     *etree.Element
	part   *Part
}

// TextFrame returns the cell's a:txBody, or nil.
func (c *Cell) TextFrame() *TextFrame {
	return newTextFrame(child(c.el, "txBody"), c.part)
}

// Merge describes how a cell takes part in a merged region.
type Merge struct {
	GridSpan int  `json:"grid_span,omitempty"`
	RowSpan  int  `json:"row_span,omitempty"`
	HMerge   bool `json:"h_merge,omitempty"`
	VMerge   bool `json:"v_merge,omitempty"`
}

// Merge returns merge attributes, or nil for an ordinary cell.
func (c *Cell) Merge() (*Merge, error) {
	m := &Merge{
		HMerge: attrOr(c.el, "hMerge", "") == "1",
		VMerge: attrOr(c.el, "vMerge", "") == "1",
	}
	var err error
	if m.GridSpan, _, err = intAttr(c.el, "gridSpan"); err != nil {
		return nil, err
	}
	if m.RowSpan, _, err = intAttr(c.el, "rowSpan"); err != nil {
		return nil, err
	}
	if *m == (Merge{}) {
		return nil, nil
	}
	return m, nil
}
