package pptx

import (
	"github.com/beevik/etree"
)

// Diagram wraps a SmartArt data model part and, when present, the cached
// drawing PowerPoint renders from.
type Diagram struct {
	data    *Part
	drawing *Part
}

// DataPartName returns the data model part name.
func (d *Diagram) DataPartName() string { return d.data.Name }

// HasDrawing reports whether a cached drawing part was found.
func (d *Diagram) HasDrawing() bool { return d.drawing != nil }

// DiagramNode is a text-bearing point of the data model.
type DiagramNode struct {
	ModelID  string
	Type     string
	ParentID string
	Level    int
	Frame    *TextFrame
}

func (d *Diagram) points() []*etree.Element {
	return children(child(d.data.Root(), "ptLst"), "pt")
}

// LayoutType returns the layout identifier recorded on the document point.
func (d *Diagram) LayoutType() string {
	for _, pt := range d.points() {
		if attrOr(pt, "type", "") == "doc" {
			return attrOr(child(pt, "prSet"), "loTypeId", "")
		}
	}
	return ""
}

// parents maps child model id to parent model id using parOf connections.
func (d *Diagram) parents() map[string]string {
	out := make(map[string]string)
	for _, cxn := range children(child(d.data.Root(), "cxnLst"), "cxn") {
		if t := attrOr(cxn, "type", "parOf"); t != "parOf" {
			continue
		}
		out[attrOr(cxn, "destId", "")] = attrOr(cxn, "srcId", "")
	}
	return out
}

func isContentPoint(pt *etree.Element) bool {
	switch attrOr(pt, "type", "node") {
	case "node", "asst":
		return true
	}
	return false
}

// Nodes returns the text-bearing content points in data model order.
func (d *Diagram) Nodes() []*DiagramNode {
	parents, docs := d.parents(), d.docIDs()
	var out []*DiagramNode
	for _, pt := range d.points() {
		if !isContentPoint(pt) {
			continue
		}
		t := child(pt, "t")
		if t == nil {
			continue
		}
		id := attrOr(pt, "modelId", "")
		out = append(out, &DiagramNode{
			ModelID:  id,
			Type:     attrOr(pt, "type", "node"),
			ParentID: parents[id],
			Level:    depth(id, parents, docs),
			Frame:    newTextFrame(t, d.data),
		})
	}
	return out
}

func (d *Diagram) docIDs() map[string]bool {
	ids := make(map[string]bool)
	for _, pt := range d.points() {
		if attrOr(pt, "type", "") == "doc" {
			ids[attrOr(pt, "modelId", "")] = true
		}
	}
	return ids
}

// depth counts parOf hops up to the document point; top-level nodes are 0.
func depth(id string, parents map[string]string, docs map[string]bool) int {
	level := 0
	seen := map[string]bool{id: true}
	for {
		p, ok := parents[id]
		if !ok || docs[p] || seen[p] {
			return level
		}
		seen[p] = true
		id = p
		level++
	}
}

// Node returns the content point with the given model id.
func (d *Diagram) Node(modelID string) *DiagramNode {
	for _, n := range d.Nodes() {
		if n.ModelID == modelID {
			return n
		}
	}
	return nil
}

// DrawingFrames returns the cached drawing text bodies that render the
// node, matched through the presentation points' presAssocID.
func (d *Diagram) DrawingFrames(modelID string) []*TextFrame {
	if d.drawing == nil {
		return nil
	}
	renders := map[string]bool{modelID: true}
	for _, pt := range d.points() {
		if attrOr(pt, "type", "") == "pres" && attrOr(child(pt, "prSet"), "presAssocID", "") == modelID {
			renders[attrOr(pt, "modelId", "")] = true
		}
	}
	var out []*TextFrame
	for _, sp := range children(child(d.drawing.Root(), "spTree"), "sp") {
		if !renders[attrOr(sp, "modelId", "")] {
			continue
		}
		if tf := newTextFrame(child(sp, "txBody"), d.drawing); tf != nil {
			out = append(out, tf)
		}
	}
	return out
}

// drawingRelID returns the slide relationship id of the cached drawing
// (dsp:dataModelExt/@relId).
func drawingRelID(data *Part) string {
	for _, ext := range children(child(data.Root(), "extLst"), "ext") {
		if dme := child(ext, "dataModelExt"); dme != nil {
			return attrOr(dme, "relId", "")
		}
	}
	return ""
}
