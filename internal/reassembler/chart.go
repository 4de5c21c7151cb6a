package reassembler

import (
	"fmt"
	"strings"

	"pptx-translator/internal/content"
	"pptx-translator/internal/pptx"
	"pptx-translator/internal/types"
)

// chart writes title, axis titles, category labels, series names and
// data labels. Categories and names live in the chart part's caches,
// which is also where the legend reads them.
func (r *Reassembler) chart(sp *pptx.SlidePart, target *pptx.Shape, ce *content.ChartElement, path string) bool {
	c, err := r.pres.Chart(sp, target)
	if err != nil {
		r.mismatch(path+"/chart", err)
		return false
	}
	updated := false
	label := func(lpath string, tf *pptx.TextFrame, text *content.ChartText) {
		if text == nil {
			return
		}
		if tf == nil {
			r.mismatch(lpath, types.Errorf(types.ErrStructuralMismatch, "chart label not present"))
			return
		}
		if r.label(tf, text.Text) {
			r.stats.Runs++
			updated = true
		}
	}

	label(path+"/chart/title", c.Title(), ce.Title)
	label(path+"/chart/axis[category]", c.AxisTitle(pptx.AxisCategory), ce.CategoryAxisTitle)
	label(path+"/chart/axis[value]", c.AxisTitle(pptx.AxisValue), ce.ValueAxisTitle)
	label(path+"/chart/axis[series]", c.AxisTitle(pptx.AxisSeries), ce.SeriesAxisTitle)

	for _, cat := range ce.Categories {
		if c.SetCategory(cat.Index, cat.Text) {
			r.stats.Runs++
			updated = true
		}
	}

	series := make(map[int]*pptx.Series)
	for _, s := range c.Series() {
		series[s.Index] = s
	}
	for _, cs := range ce.Series {
		spath := fmt.Sprintf("%s/chart/series[%d]", path, cs.Index)
		s := series[cs.Index]
		if s == nil {
			if cs.Name != "" || len(cs.DataLabels) > 0 {
				r.mismatch(spath, types.Errorf(types.ErrStructuralMismatch, "series not present"))
			}
			continue
		}
		if cs.Name != "" && s.SetName(cs.Name) {
			r.stats.Runs++
			updated = true
		}
		for _, dl := range cs.DataLabels {
			label(fmt.Sprintf("%s/label[%d]", spath, dl.Point), s.DataLabel(dl.Point), &content.ChartText{Text: dl.Text})
		}
	}
	return updated
}

// label writes a single-string chart label. Lines map onto paragraphs
// when the counts agree; otherwise the text goes into the first
// paragraph. Within a paragraph the first run carries the text and later
// runs are emptied.
func (r *Reassembler) label(tf *pptx.TextFrame, text string) bool {
	if strings.ReplaceAll(tf.Text(), "\v", " ") == text {
		return false
	}
	ps := tf.Paragraphs()
	if len(ps) == 0 {
		return false
	}
	lines := strings.Split(text, "\n")
	if len(lines) != len(ps) {
		lines = []string{strings.Join(lines, " ")}
	}
	changed := false
	for i, p := range ps {
		line := ""
		if i < len(lines) {
			line = lines[i]
		}
		if strings.ReplaceAll(p.Text(), "\v", " ") == line {
			continue
		}
		runs := p.Runs()
		if len(runs) == 0 {
			if line == "" {
				continue
			}
			runs = []*pptx.Run{p.AppendRun()}
		}
		for j, run := range runs {
			t := ""
			if j == 0 {
				t = line
			}
			run.SetText(t)
		}
		changed = true
		if r.rtl {
			p.SetRTL()
			for _, run := range runs {
				run.SetRTL()
			}
		}
	}
	return changed
}

// smartArt writes node text into the data model and mirrors it into the
// cached drawing PowerPoint shows until the diagram is re-laid out.
func (r *Reassembler) smartArt(sp *pptx.SlidePart, target *pptx.Shape, sa *content.SmartArtElement, path string) bool {
	d, err := r.pres.Diagram(sp, target)
	if err != nil {
		r.mismatch(path+"/smartart", err)
		return false
	}
	updated := false
	for _, n := range sa.Nodes {
		npath := fmt.Sprintf("%s/node[%s]", path, n.ModelID)
		node := d.Node(n.ModelID)
		if node == nil {
			r.missing(npath, types.NewAppErrorWithDetails(types.ErrIdentityNotFound, "diagram node not found", n.ModelID, nil))
			continue
		}
		if !r.frame(npath, node.Frame, n.Paragraphs, false) {
			continue
		}
		updated = true
		text := content.ParagraphsText(n.Paragraphs)
		for _, tf := range d.DrawingFrames(n.ModelID) {
			if len(r.quietParagraphs(tf, n.Paragraphs)) == 0 {
				r.label(tf, text)
			}
			if r.fit {
				tf.EnableShrinkToFit()
			}
		}
	}
	return updated
}

// quietParagraphs is paragraphs for derived copies: a layout mismatch is
// not an issue, the caller falls back to plain text.
func (r *Reassembler) quietParagraphs(tf *pptx.TextFrame, ps []*content.Paragraph) []*pptx.Paragraph {
	live := tf.Paragraphs()
	for _, p := range ps {
		if p.Index < 0 || p.Index >= len(live) || len(live[p.Index].Runs()) != len(p.Runs) {
			return nil
		}
		for _, tr := range p.Runs {
			if tr.Index < 0 || tr.Index >= len(p.Runs) {
				return nil
			}
		}
	}
	var changed []*pptx.Paragraph
	for _, p := range ps {
		lp := live[p.Index]
		runs := lp.Runs()
		var updated []*pptx.Run
		for _, tr := range p.Runs {
			if runs[tr.Index].SetText(tr.Text) {
				updated = append(updated, runs[tr.Index])
			}
		}
		if len(updated) == 0 {
			continue
		}
		if r.rtl {
			lp.SetRTL()
			for _, run := range updated {
				run.SetRTL()
			}
		}
		changed = append(changed, lp)
	}
	return changed
}
