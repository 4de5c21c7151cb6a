package pptx

import (
	"context"
	"fmt"

	"pptx-translator/internal/logger"
	"pptx-translator/internal/types"
)

// SlideKind distinguishes the shape-bearing parts of a presentation.
type SlideKind string

const (
	SlideKindMaster SlideKind = "master"
	SlideKindLayout SlideKind = "layout"
	SlideKindSlide  SlideKind = "slide"
	SlideKindNotes  SlideKind = "notes"
)

// SlidePart is a slide, layout, master or notes slide with its shape tree.
type SlidePart struct {
	Kind   SlideKind
	Index  int // 0-based position among parts of the same kind
	Name   string
	Part   *Part
	Rels   *Relationships
	Shapes []*Shape

	// LayoutPart is set on slides, MasterPart on layouts.
	LayoutPart string
	MasterPart string
	// Notes is the notes slide of a slide, when it has one.
	Notes *SlidePart
}

// PartName returns the package part name.
func (sp *SlidePart) PartName() string { return sp.Part.Name }

// Hyperlink resolves a run hyperlink relationship to its target. A nil
// part resolves nothing.
func (sp *SlidePart) Hyperlink(relID string) string {
	if sp == nil || relID == "" || sp.Rels == nil {
		return ""
	}
	return sp.Rels.TargetURL(relID)
}

// NotesBody returns the body placeholder of a notes slide, which holds
// the speaker notes.
func (sp *SlidePart) NotesBody() *Shape {
	for _, s := range sp.Shapes {
		ph, _ := s.Placeholder()
		if ph != nil && ph.Type == "body" && s.HasTextFrame() {
			return s
		}
	}
	return nil
}

// Presentation is an opened .pptx document. It owns the in-memory package;
// Close releases it.
type Presentation struct {
	pkg      *Package
	mainPart string

	Masters []*SlidePart
	Layouts []*SlidePart
	Slides  []*SlidePart
}

// Open reads and indexes the presentation at path. The source file is only
// read; all edits happen in memory until SaveAs.
func Open(path string) (*Presentation, error) {
	pkg, err := OpenPackage(path)
	if err != nil {
		return nil, err
	}
	pres, err := load(pkg)
	if err != nil {
		pkg.Close()
		return nil, err
	}
	logger.Debug("presentation opened",
		logger.String("path", path),
		logger.Int("masters", len(pres.Masters)),
		logger.Int("layouts", len(pres.Layouts)),
		logger.Int("slides", len(pres.Slides)))
	return pres, nil
}

// OpenBytes indexes a presentation held in memory.
func OpenBytes(data []byte) (*Presentation, error) {
	pkg, err := NewPackage(data)
	if err != nil {
		return nil, err
	}
	pres, err := load(pkg)
	if err != nil {
		pkg.Close()
		return nil, err
	}
	return pres, nil
}

func load(pkg *Package) (*Presentation, error) {
	rootRels, err := pkg.Rels("")
	if err != nil {
		return nil, err
	}
	mainPart := "ppt/presentation.xml"
	if rel := rootRels.FirstOfType(RelTypeOfficeDocument); rel != nil {
		mainPart = resolvePartName("", rel.Target)
	}
	if !pkg.HasPart(mainPart) {
		return nil, types.NewAppErrorWithDetails(types.ErrIO, "not a presentation", "missing "+mainPart, nil)
	}

	main, err := pkg.Part(mainPart)
	if err != nil {
		return nil, err
	}
	mainRels, err := pkg.Rels(mainPart)
	if err != nil {
		return nil, err
	}

	pres := &Presentation{pkg: pkg, mainPart: mainPart}
	seenLayouts := make(map[string]bool)

	for _, id := range children(child(main.Root(), "sldMasterIdLst"), "sldMasterId") {
		name := mainRels.TargetPart(relAttr(id, "id"))
		if name == "" {
			continue
		}
		master, err := pres.loadSlidePart(name, SlideKindMaster, len(pres.Masters))
		if err != nil {
			return nil, err
		}
		pres.Masters = append(pres.Masters, master)

		for _, lid := range children(child(master.Part.Root(), "sldLayoutIdLst"), "sldLayoutId") {
			lname := master.Rels.TargetPart(relAttr(lid, "id"))
			if lname == "" || seenLayouts[lname] {
				continue
			}
			seenLayouts[lname] = true
			layout, err := pres.loadSlidePart(lname, SlideKindLayout, len(pres.Layouts))
			if err != nil {
				return nil, err
			}
			layout.MasterPart = name
			pres.Layouts = append(pres.Layouts, layout)
		}
	}

	for _, id := range children(child(main.Root(), "sldIdLst"), "sldId") {
		name := mainRels.TargetPart(relAttr(id, "id"))
		if name == "" {
			continue
		}
		slide, err := pres.loadSlidePart(name, SlideKindSlide, len(pres.Slides))
		if err != nil {
			return nil, err
		}
		if rel := slide.Rels.FirstOfType(RelTypeSlideLayout); rel != nil {
			slide.LayoutPart = resolvePartName(name, rel.Target)
		}
		if rel := slide.Rels.FirstOfType(RelTypeNotesSlide); rel != nil {
			notesName := resolvePartName(name, rel.Target)
			if pkg.HasPart(notesName) {
				notes, err := pres.loadSlidePart(notesName, SlideKindNotes, slide.Index)
				if err != nil {
					return nil, err
				}
				slide.Notes = notes
			}
		}
		pres.Slides = append(pres.Slides, slide)
	}
	return pres, nil
}

func (p *Presentation) loadSlidePart(name string, kind SlideKind, index int) (*SlidePart, error) {
	part, err := p.pkg.Part(name)
	if err != nil {
		return nil, err
	}
	rels, err := p.pkg.Rels(name)
	if err != nil {
		return nil, err
	}
	sp := &SlidePart{Kind: kind, Index: index, Part: part, Rels: rels}
	cSld := child(part.Root(), "cSld")
	sp.Name = attrOr(cSld, "name", "")
	if tree := child(cSld, "spTree"); tree != nil {
		sp.Shapes = buildShapes(tree, part)
	}
	return sp, nil
}

// Package exposes the underlying container.
func (p *Presentation) Package() *Package { return p.pkg }

// AllParts returns masters, layouts and slides in document order.
func (p *Presentation) AllParts() []*SlidePart {
	out := make([]*SlidePart, 0, len(p.Masters)+len(p.Layouts)+len(p.Slides))
	out = append(out, p.Masters...)
	out = append(out, p.Layouts...)
	return append(out, p.Slides...)
}

// Chart loads the chart referenced by a chart graphic frame.
func (p *Presentation) Chart(sp *SlidePart, s *Shape) (*Chart, error) {
	relID := s.ChartRelID()
	name := sp.Rels.TargetPart(relID)
	if name == "" {
		return nil, types.NewAppErrorWithDetails(types.ErrIO, "chart relationship not found", fmt.Sprintf("%s shape %d rel %q", sp.PartName(), s.ID, relID), nil)
	}
	part, err := p.pkg.Part(name)
	if err != nil {
		return nil, err
	}
	return newChart(part), nil
}

// Diagram loads the SmartArt data model (and cached drawing) of a frame.
func (p *Presentation) Diagram(sp *SlidePart, s *Shape) (*Diagram, error) {
	relID := s.DiagramRelID()
	name := sp.Rels.TargetPart(relID)
	if name == "" {
		return nil, types.NewAppErrorWithDetails(types.ErrIO, "diagram relationship not found", fmt.Sprintf("%s shape %d rel %q", sp.PartName(), s.ID, relID), nil)
	}
	data, err := p.pkg.Part(name)
	if err != nil {
		return nil, err
	}
	d := &Diagram{data: data}
	if drawingName := sp.Rels.TargetPart(drawingRelID(data)); drawingName != "" && p.pkg.HasPart(drawingName) {
		if drawing, err := p.pkg.Part(drawingName); err == nil {
			d.drawing = drawing
		}
	}
	return d, nil
}

// SaveAs writes the (possibly modified) presentation atomically to path.
func (p *Presentation) SaveAs(ctx context.Context, path string) error {
	return p.pkg.SaveAs(ctx, path)
}

// Close releases the presentation.
func (p *Presentation) Close() error {
	return p.pkg.Close()
}
