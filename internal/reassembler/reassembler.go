// Package reassembler writes translated content back into a presentation.
// Shapes are located by identity; paragraphs, runs, cells, chart labels
// and diagram nodes by index. Only text is written.
package reassembler

import (
	"context"
	"fmt"

	"pptx-translator/internal/content"
	"pptx-translator/internal/errors"
	"pptx-translator/internal/locator"
	"pptx-translator/internal/logger"
	"pptx-translator/internal/pptx"
	"pptx-translator/internal/types"
)

// Options controls reassembly.
type Options struct {
	// RTL forces right-to-left handling; it is also on when the content
	// declares an RTL target language.
	RTL bool
	// ShrinkToFit turns on shrink-on-overflow for fixed-size frames that
	// receive translated text.
	ShrinkToFit bool
	// Errors receives per-element issues. May be nil.
	Errors *errors.ErrorManager
}

// Stats counts what reassembly did.
type Stats struct {
	Shapes        int `json:"shapes"`
	UpdatedShapes int `json:"updated_shapes"`
	Runs          int `json:"runs"`
	RTLParagraphs int `json:"rtl_paragraphs"`
	ShrunkFrames  int `json:"shrunk_frames"`
	Missing       int `json:"missing"`
	Mismatches    int `json:"mismatches"`
}

// Reassembler applies one content tree to one presentation.
type Reassembler struct {
	pres  *pptx.Presentation
	errs  *errors.ErrorManager
	rtl   bool
	fit   bool
	stats *Stats
	log   logger.Logger
}

// Reassemble writes doc into pres. Per-element failures are recorded and
// skipped; only cancellation and an unusable document return an error.
func Reassemble(ctx context.Context, pres *pptx.Presentation, doc *content.DocumentContent, opts Options) (*Stats, error) {
	errs := opts.Errors
	if errs == nil {
		errs = errors.NewErrorManager()
	}
	r := &Reassembler{
		pres:  pres,
		errs:  errs,
		rtl:   opts.RTL || doc.RTL,
		fit:   opts.ShrinkToFit,
		stats: &Stats{},
		log:   logger.Named("reassembler"),
	}
	if err := r.apply(ctx, doc); err != nil {
		return nil, err
	}
	r.log.Info("reassembly complete",
		logger.Int("shapes", r.stats.Shapes),
		logger.Int("updatedShapes", r.stats.UpdatedShapes),
		logger.Int("runs", r.stats.Runs),
		logger.Int("missing", r.stats.Missing),
		logger.Int("mismatches", r.stats.Mismatches),
		logger.Bool("rtl", r.rtl))
	return r.stats, nil
}

// container pairs a content record with the live parts of its kind.
type container struct {
	unit   string
	index  int
	part   string
	parts  []*pptx.SlidePart
	shapes []*content.ShapeElement
	notes  *content.NotesRecord
}

func (r *Reassembler) apply(ctx context.Context, doc *content.DocumentContent) error {
	if doc == nil {
		return types.NewAppError(types.ErrInvalidInput, "no content to reassemble", nil)
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	var work []container
	for _, m := range doc.Masters {
		work = append(work, container{unit: content.UnitMaster(m.Index), index: m.Index, part: m.Part, parts: r.pres.Masters, shapes: m.Shapes})
	}
	for _, l := range doc.Layouts {
		work = append(work, container{unit: content.UnitLayout(l.Index), index: l.Index, part: l.Part, parts: r.pres.Layouts, shapes: l.Shapes})
	}
	for _, s := range doc.Slides {
		work = append(work, container{unit: content.UnitSlide(s.Index), index: s.Index, part: s.Part, parts: r.pres.Slides, shapes: s.Shapes, notes: s.Notes})
	}

	for _, c := range work {
		if err := ctx.Err(); err != nil {
			return err
		}
		sp, err := c.resolve()
		if err != nil {
			r.mismatch(c.unit, err)
			continue
		}
		r.shapes(sp, c)
		if c.notes != nil {
			r.notes(sp, c.unit, c.notes)
		}
	}
	return nil
}

// resolve finds the live part by index, checking the part name when the
// content recorded one.
func (c container) resolve() (*pptx.SlidePart, error) {
	if c.index < 1 || c.index > len(c.parts) {
		return nil, types.Errorf(types.ErrStructuralMismatch,
			"%s does not exist in the presentation (%d present)", c.unit, len(c.parts))
	}
	sp := c.parts[c.index-1]
	if c.part != "" && c.part != sp.PartName() {
		return nil, types.Errorf(types.ErrStructuralMismatch,
			"%s is %s in the presentation, content expects %s", c.unit, sp.PartName(), c.part)
	}
	return sp, nil
}

// shapes walks the content records of one container. Group members are
// located on their own, so a missing group does not hide its members.
func (r *Reassembler) shapes(sp *pptx.SlidePart, c container) {
	loc := locator.New(c.unit, sp.Shapes)
	type item struct {
		prefix string
		el     *content.ShapeElement
	}
	stack := make([]item, 0, len(c.shapes))
	for i := len(c.shapes) - 1; i >= 0; i-- {
		stack = append(stack, item{prefix: c.unit, el: c.shapes[i]})
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		path := fmt.Sprintf("%s/shape[%d]", it.prefix, it.el.ID)
		for i := len(it.el.Shapes) - 1; i >= 0; i-- {
			stack = append(stack, item{prefix: path, el: it.el.Shapes[i]})
		}

		target, err := loc.Claim(it.el.ID)
		if err != nil {
			if types.IsCode(err, types.ErrIdentityNotFound) {
				r.missing(path, err)
			} else {
				r.mismatch(path, err)
			}
			continue
		}
		r.stats.Shapes++
		if r.shape(sp, target, it.el, path) {
			r.stats.UpdatedShapes++
		}
	}
}

// shape applies one record and reports whether any text changed.
func (r *Reassembler) shape(sp *pptx.SlidePart, target *pptx.Shape, el *content.ShapeElement, path string) bool {
	updated := false
	if len(el.Paragraphs) > 0 {
		if !target.HasTextFrame() {
			r.mismatch(path, types.Errorf(types.ErrStructuralMismatch, "shape has no text frame"))
		} else if r.frame(path, target.TextFrame(), el.Paragraphs, true) {
			updated = true
		}
	}

	switch {
	case el.Table != nil:
		if r.table(path, target, el.Table) {
			updated = true
		}
	case el.Chart != nil:
		if r.chart(sp, target, el.Chart, path) {
			updated = true
		}
	case el.SmartArt != nil:
		if r.smartArt(sp, target, el.SmartArt, path) {
			updated = true
		}
	}
	return updated
}

// frame writes paragraphs into a text frame, then applies RTL and
// shrink-to-fit when something changed.
func (r *Reassembler) frame(path string, tf *pptx.TextFrame, ps []*content.Paragraph, fit bool) bool {
	if tf == nil {
		return false
	}
	changed := r.paragraphs(path, tf, ps)
	if len(changed) == 0 {
		return false
	}
	if fit && r.fit && tf.EnableShrinkToFit() {
		r.stats.ShrunkFrames++
	}
	return true
}

// paragraphs writes run texts by index. A paragraph whose run count
// differs from the live one is left untouched and reported. It returns
// the paragraphs that changed.
func (r *Reassembler) paragraphs(path string, tf *pptx.TextFrame, ps []*content.Paragraph) []*pptx.Paragraph {
	live := tf.Paragraphs()
	var changed []*pptx.Paragraph
	for _, p := range ps {
		ppath := fmt.Sprintf("%s/p[%d]", path, p.Index)
		if p.Index < 0 || p.Index >= len(live) {
			r.mismatch(ppath, types.Errorf(types.ErrStructuralMismatch,
				"paragraph index out of range (%d paragraphs)", len(live)))
			continue
		}
		lp := live[p.Index]
		runs := lp.Runs()
		if len(runs) != len(p.Runs) {
			r.mismatch(ppath, types.Errorf(types.ErrStructuralMismatch,
				"run count %d, translated content has %d", len(runs), len(p.Runs)))
			continue
		}
		var updated []*pptx.Run
		for _, tr := range p.Runs {
			if tr.Index < 0 || tr.Index >= len(runs) {
				r.mismatch(fmt.Sprintf("%s/r[%d]", ppath, tr.Index),
					types.Errorf(types.ErrStructuralMismatch, "run index out of range"))
				continue
			}
			if runs[tr.Index].SetText(tr.Text) {
				updated = append(updated, runs[tr.Index])
			}
		}
		if len(updated) == 0 {
			continue
		}
		r.stats.Runs += len(updated)
		if r.rtl {
			lp.SetRTL()
			for _, run := range updated {
				run.SetRTL()
			}
			r.stats.RTLParagraphs++
		}
		changed = append(changed, lp)
	}
	return changed
}

// table writes every cell by (row, column). Cells grow with their text,
// so no autofit is applied.
func (r *Reassembler) table(path string, target *pptx.Shape, te *content.TableElement) bool {
	t := target.Table()
	if t == nil {
		r.mismatch(path, types.Errorf(types.ErrStructuralMismatch, "shape is not a table"))
		return false
	}
	updated := false
	for _, c := range te.Cells {
		cpath := fmt.Sprintf("%s/cell[%d,%d]", path, c.Row, c.Column)
		cell := t.Cell(c.Row, c.Column)
		if cell == nil {
			r.mismatch(cpath, types.Errorf(types.ErrStructuralMismatch,
				"cell out of range (%dx%d table)", t.Rows(), t.Columns()))
			continue
		}
		tf := cell.TextFrame()
		if tf == nil {
			if len(c.Paragraphs) > 0 {
				r.mismatch(cpath, types.Errorf(types.ErrStructuralMismatch, "cell has no text body"))
			}
			continue
		}
		if r.frame(cpath, tf, c.Paragraphs, false) {
			updated = true
		}
	}
	return updated
}

// notes writes the speaker notes body.
func (r *Reassembler) notes(sp *pptx.SlidePart, unit string, rec *content.NotesRecord) {
	path := fmt.Sprintf("%s/notes/shape[%d]", unit, rec.ShapeID)
	if sp.Notes == nil {
		r.missing(path, types.Errorf(types.ErrIdentityNotFound, "slide has no notes"))
		return
	}
	body := sp.Notes.NotesBody()
	if body == nil || body.ID != rec.ShapeID {
		r.missing(path, types.Errorf(types.ErrIdentityNotFound, "notes body placeholder not found"))
		return
	}
	r.stats.Shapes++
	if r.frame(path, body.TextFrame(), rec.Paragraphs, true) {
		r.stats.UpdatedShapes++
	}
}

func (r *Reassembler) missing(path string, err error) {
	r.stats.Missing++
	r.errs.RecordError(types.StageReassemble, types.ErrIdentityNotFound, path, err.Error())
	r.log.Warn("shape not found, skipped", logger.String("location", path))
}

func (r *Reassembler) mismatch(path string, err error) {
	r.stats.Mismatches++
	r.errs.Record(types.StageReassemble, path, err)
	r.log.Warn("structure mismatch, left untouched",
		logger.String("location", path),
		logger.Err(err))
}
