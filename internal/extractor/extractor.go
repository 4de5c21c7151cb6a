// Package extractor turns an opened presentation into a content tree.
package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"pptx-translator/internal/content"
	"pptx-translator/internal/errors"
	"pptx-translator/internal/logger"
	"pptx-translator/internal/pptx"
	"pptx-translator/internal/types"
)

// Extractor walks masters, layouts and slides in document order.
type Extractor struct {
	pres *pptx.Presentation
	errs *errors.ErrorManager
	log  logger.Logger
}

// New creates an extractor. errs may be nil.
func New(pres *pptx.Presentation, errs *errors.ErrorManager) *Extractor {
	if errs == nil {
		errs = errors.NewErrorManager()
	}
	return &Extractor{pres: pres, errs: errs, log: logger.Named("extractor")}
}

// Extract is a convenience wrapper around New(...).Extract.
func Extract(ctx context.Context, pres *pptx.Presentation, errs *errors.ErrorManager) (*content.DocumentContent, error) {
	return New(pres, errs).Extract(ctx)
}

// Extract builds the content tree. Per-element problems are recorded and
// degrade the element; only cancellation aborts.
func (x *Extractor) Extract(ctx context.Context) (*content.DocumentContent, error) {
	doc := &content.DocumentContent{
		Version: content.FormatVersion,
		Source:  filepath.Base(x.pres.Package().Path()),
	}

	for _, m := range x.pres.Masters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		unit := content.UnitMaster(m.Index + 1)
		doc.Masters = append(doc.Masters, &content.MasterRecord{
			Index:  m.Index + 1,
			Part:   m.PartName(),
			Name:   m.Name,
			Shapes: x.shapes(m, unit, nil),
		})
	}
	for _, l := range x.pres.Layouts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		unit := content.UnitLayout(l.Index + 1)
		doc.Layouts = append(doc.Layouts, &content.LayoutRecord{
			Index:  l.Index + 1,
			Part:   l.PartName(),
			Name:   l.Name,
			Master: l.MasterPart,
			Shapes: x.shapes(l, unit, nil),
		})
	}
	for _, s := range x.pres.Slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		unit := content.UnitSlide(s.Index + 1)
		links := &linkSet{}
		rec := &content.SlideRecord{
			Index:  s.Index + 1,
			Part:   s.PartName(),
			Layout: s.LayoutPart,
			Shapes: x.shapes(s, unit, links),
		}
		if s.Notes != nil {
			rec.Notes = x.notes(s.Notes, unit, links)
		}
		rec.Hyperlinks = links.urls
		doc.Slides = append(doc.Slides, rec)
	}

	x.log.Info("extraction complete",
		logger.Int("masters", len(doc.Masters)),
		logger.Int("layouts", len(doc.Layouts)),
		logger.Int("slides", len(doc.Slides)),
		logger.Int("leaves", len(doc.Leaves())))
	return doc, nil
}

// linkSet collects the distinct hyperlink targets of a slide.
type linkSet struct {
	seen map[string]bool
	urls []string
}

func (l *linkSet) add(url string) {
	if l == nil || url == "" {
		return
	}
	if l.seen == nil {
		l.seen = make(map[string]bool)
	}
	if !l.seen[url] {
		l.seen[url] = true
		l.urls = append(l.urls, url)
	}
}

// shapes mirrors a shape tree. Groups are expanded with an explicit work
// list so records nest exactly like the source.
func (x *Extractor) shapes(sp *pptx.SlidePart, unit string, links *linkSet) []*content.ShapeElement {
	type frame struct {
		prefix string
		src    []*pptx.Shape
		dst    *[]*content.ShapeElement
	}
	var roots []*content.ShapeElement
	seen := make(map[int]bool)
	work := []frame{{prefix: unit, src: sp.Shapes, dst: &roots}}
	for len(work) > 0 {
		f := work[0]
		work = work[1:]
		for _, s := range f.src {
			path := fmt.Sprintf("%s/shape[%d]", f.prefix, s.ID)
			if seen[s.ID] {
				x.errs.RecordError(types.StageExtract, types.ErrExtractionDegraded, path,
					"duplicate shape id; reassembly will only address the first occurrence")
			}
			seen[s.ID] = true
			el := x.shape(sp, s, path, links)
			*f.dst = append(*f.dst, el)
			if len(s.Children()) > 0 {
				work = append(work, frame{prefix: path, src: s.Children(), dst: &el.Shapes})
			}
		}
	}
	return roots
}

// shape builds one record. Text capture never depends on the kind: every
// shape exposing a text frame gets full paragraph and run extraction.
func (x *Extractor) shape(sp *pptx.SlidePart, s *pptx.Shape, path string, links *linkSet) *content.ShapeElement {
	el := &content.ShapeElement{
		ID:           s.ID,
		Name:         s.Name,
		ElementType:  string(s.Kind),
		HasTextFrame: s.HasTextFrame(),
		Hidden:       s.Hidden(),
		Description:  s.Description(),
	}
	var failures []string
	fail := func(what string, err error) {
		failures = append(failures, what+": "+err.Error())
	}

	if g, err := s.Geometry(); err != nil {
		fail("geometry", err)
	} else {
		el.Geometry = g
	}
	if ph, err := s.Placeholder(); err != nil {
		fail("placeholder", err)
	} else {
		el.Placeholder = ph
	}
	if st, err := s.Style(); err != nil {
		fail("style", err)
	} else {
		el.Style = st
	}

	if el.HasTextFrame {
		tf := s.TextFrame()
		if fp, err := tf.Properties(); err != nil {
			fail("text frame", err)
		} else {
			el.Frame = &fp
		}
		ps, err := x.paragraphs(sp, tf, links, true)
		if err != nil {
			fail("text formatting", err)
			ps, _ = x.paragraphs(sp, tf, links, false)
		}
		el.Paragraphs = ps
		el.FullText = content.ParagraphsText(ps)
	}

	switch s.Kind {
	case pptx.KindTable:
		if t := s.Table(); t != nil {
			el.Table = x.table(sp, t, links, fail)
		}
	case pptx.KindChart:
		ch, err := x.chart(sp, s, fail)
		if err != nil {
			fail("chart", err)
		}
		el.Chart = ch
	case pptx.KindSmartArt:
		sa, err := x.smartArt(sp, s, fail)
		if err != nil {
			fail("smartart", err)
		}
		el.SmartArt = sa
	}

	if len(failures) > 0 {
		el.Degraded = true
		msg := strings.Join(failures, "; ")
		x.errs.RecordError(types.StageExtract, types.ErrExtractionDegraded, path, msg)
		x.log.Warn("element degraded to text-only capture",
			logger.String("location", path),
			logger.String("kind", el.ElementType),
			logger.String("reason", msg))
	}
	return el
}

// paragraphs captures every paragraph and run of a frame. With format
// false only text is read, which cannot fail.
func (x *Extractor) paragraphs(sp *pptx.SlidePart, tf *pptx.TextFrame, links *linkSet, format bool) ([]*content.Paragraph, error) {
	if tf == nil {
		return nil, nil
	}
	var out []*content.Paragraph
	for i, p := range tf.Paragraphs() {
		cp := &content.Paragraph{Index: i, Runs: []*content.TextRun{}}
		if format {
			pp, err := p.Properties()
			if err != nil {
				return nil, fmt.Errorf("p[%d]: %w", i, err)
			}
			cp.Format = &pp
		}
		for j, r := range p.Runs() {
			tr := &content.TextRun{Index: j, Text: r.Text()}
			if format {
				rp, err := r.Properties()
				if err != nil {
					return nil, fmt.Errorf("p[%d]/r[%d]: %w", i, j, err)
				}
				tr.Style = &rp
				if rp.HyperlinkID != "" {
					tr.Link = sp.Hyperlink(rp.HyperlinkID)
					links.add(tr.Link)
				}
			}
			cp.Runs = append(cp.Runs, tr)
		}
		out = append(out, cp)
	}
	return out, nil
}

// table extracts every cell by (row, column).
func (x *Extractor) table(sp *pptx.SlidePart, t *pptx.Table, links *linkSet, fail func(string, error)) *content.TableElement {
	te := &content.TableElement{Rows: t.Rows(), Columns: t.Columns(), Cells: []*content.TableCell{}}
	for _, c := range t.Cells() {
		cell := &content.TableCell{Row: c.Row, Column: c.Column, Paragraphs: []*content.Paragraph{}}
		if m, err := c.Merge(); err != nil {
			fail(fmt.Sprintf("cell[%d,%d] merge", c.Row, c.Column), err)
		} else {
			cell.Merge = m
		}
		if tf := c.TextFrame(); tf != nil {
			ps, err := x.paragraphs(sp, tf, links, true)
			if err != nil {
				fail(fmt.Sprintf("cell[%d,%d]", c.Row, c.Column), err)
				ps, _ = x.paragraphs(sp, tf, links, false)
			}
			cell.Paragraphs = ps
		}
		cell.Text = content.ParagraphsText(cell.Paragraphs)
		te.Cells = append(te.Cells, cell)
	}
	return te
}

// notes extracts the speaker notes body placeholder.
func (x *Extractor) notes(ns *pptx.SlidePart, unit string, links *linkSet) *content.NotesRecord {
	body := ns.NotesBody()
	if body == nil {
		return nil
	}
	rec := &content.NotesRecord{Part: ns.PartName(), ShapeID: body.ID}
	ps, err := x.paragraphs(ns, body.TextFrame(), links, true)
	if err != nil {
		path := fmt.Sprintf("%s/notes/shape[%d]", unit, body.ID)
		x.errs.RecordError(types.StageExtract, types.ErrExtractionDegraded, path, err.Error())
		ps, _ = x.paragraphs(ns, body.TextFrame(), links, false)
	}
	rec.Paragraphs = ps
	rec.FullText = content.ParagraphsText(ps)
	return rec
}
