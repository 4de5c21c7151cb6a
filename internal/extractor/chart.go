package extractor

import (
	"fmt"
	"strings"

	"pptx-translator/internal/content"
	"pptx-translator/internal/pptx"
)

// chartText reads a rich-text chart label. Line breaks inside a paragraph
// become spaces so the text can be written back into a single run.
func chartText(tf *pptx.TextFrame) *content.ChartText {
	if tf == nil {
		return nil
	}
	return &content.ChartText{Text: strings.ReplaceAll(tf.Text(), "\v", " ")}
}

// chart extracts title, axis titles, legend entries, series data and
// custom data labels. Missing parts stay nil.
func (x *Extractor) chart(sp *pptx.SlidePart, s *pptx.Shape, fail func(string, error)) (*content.ChartElement, error) {
	c, err := x.pres.Chart(sp, s)
	if err != nil {
		return nil, err
	}
	ce := &content.ChartElement{
		ChartType:         c.Type(),
		Part:              c.PartName(),
		Title:             chartText(c.Title()),
		CategoryAxisTitle: chartText(c.AxisTitle(pptx.AxisCategory)),
		ValueAxisTitle:    chartText(c.AxisTitle(pptx.AxisValue)),
		SeriesAxisTitle:   chartText(c.AxisTitle(pptx.AxisSeries)),
	}

	series := c.Series()
	for _, ser := range series {
		cs := &content.ChartSeries{Index: ser.Index, Categories: ser.Categories()}
		cs.Name, _ = ser.Name()
		vals, err := ser.Values()
		if err != nil {
			fail(fmt.Sprintf("series[%d] values", ser.Index), err)
		} else {
			cs.Values = vals
		}
		for _, dl := range ser.DataLabels() {
			cs.DataLabels = append(cs.DataLabels, &content.DataLabel{Point: dl.Point, Text: chartText(dl.Frame).Text})
		}
		ce.Series = append(ce.Series, cs)
	}

	ce.Categories = categories(series)
	if c.HasLegend() {
		ce.Legend = legend(c, series)
	}
	return ce, nil
}

// categories returns the non-empty text categories of the first series
// that caches them as text. Numeric and date axes have none.
func categories(series []*pptx.Series) []*content.CategoryLabel {
	for _, ser := range series {
		if !ser.TextCategories() {
			continue
		}
		var out []*content.CategoryLabel
		for i, cat := range ser.Categories() {
			if cat != "" {
				out = append(out, &content.CategoryLabel{Index: i, Text: cat})
			}
		}
		return out
	}
	return nil
}

// legend lists the visible legend entries. A single vary-colours series
// (pie, doughnut) shows one entry per category; otherwise one per series.
// Entries repeat category or series text, which is translated there.
func legend(c *pptx.Chart, series []*pptx.Series) []*content.LegendEntry {
	var out []*content.LegendEntry
	if c.VaryColors() && len(series) == 1 {
		for i, cat := range series[0].Categories() {
			if c.LegendEntryDeleted(i) {
				continue
			}
			out = append(out, &content.LegendEntry{Index: i, Source: content.LegendCategory, Text: cat})
		}
		return out
	}
	for _, ser := range series {
		name, ok := ser.Name()
		if !ok || c.LegendEntryDeleted(ser.Index) {
			continue
		}
		out = append(out, &content.LegendEntry{Index: ser.Index, Source: content.LegendSeries, Text: name})
	}
	return out
}

// smartArt extracts every content node of a diagram with its hierarchy.
func (x *Extractor) smartArt(sp *pptx.SlidePart, s *pptx.Shape, fail func(string, error)) (*content.SmartArtElement, error) {
	d, err := x.pres.Diagram(sp, s)
	if err != nil {
		return nil, err
	}
	sa := &content.SmartArtElement{
		DataPart:   d.DataPartName(),
		LayoutType: d.LayoutType(),
		Nodes:      []*content.SmartArtNode{},
	}
	for _, n := range d.Nodes() {
		node := &content.SmartArtNode{ModelID: n.ModelID, Type: n.Type, ParentID: n.ParentID, Level: n.Level}
		// Node hyperlinks live in the data part's own relationships.
		ps, err := x.paragraphs(nil, n.Frame, nil, true)
		if err != nil {
			fail(fmt.Sprintf("node[%s]", n.ModelID), err)
			ps, _ = x.paragraphs(nil, n.Frame, nil, false)
		}
		node.Paragraphs = ps
		node.Text = content.ParagraphsText(ps)
		sa.Nodes = append(sa.Nodes, node)
	}
	return sa, nil
}
