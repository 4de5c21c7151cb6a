package pptx

import (
	"encoding/xml"
	"path"
	"strings"
)

// Relationship type URIs used by presentations.
const (
	relNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	RelTypeOfficeDocument = relNS + "/officeDocument"
	RelTypeSlide          = relNS + "/slide"
	RelTypeSlideLayout    = relNS + "/slideLayout"
	RelTypeSlideMaster    = relNS + "/slideMaster"
	RelTypeNotesSlide     = relNS + "/notesSlide"
	RelTypeChart          = relNS + "/chart"
	RelTypeDiagramData    = relNS + "/diagramData"
	RelTypeHyperlink      = relNS + "/hyperlink"
	RelTypeImage          = relNS + "/image"

	RelTypeDiagramDrawing = "http://schemas.microsoft.com/office/2007/relationships/diagramDrawing"
)

// Relationships is the parsed _rels entry of one part.
type Relationships struct {
	XMLName       xml.Name       `xml:"Relationships"`
	Relationships []Relationship `xml:"Relationship"`

	source string
}

// Relationship defines a single relationship
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

// External reports whether the target lies outside the package.
func (r *Relationship) External() bool {
	return r.TargetMode == "External"
}

func (r *Relationships) parse(data []byte) error {
	return xml.Unmarshal(data, r)
}

// Get returns a relationship by ID
func (r *Relationships) Get(id string) *Relationship {
	for i := range r.Relationships {
		if r.Relationships[i].ID == id {
			return &r.Relationships[i]
		}
	}
	return nil
}

// ByType returns the relationships of one type in document order.
func (r *Relationships) ByType(relType string) []*Relationship {
	var out []*Relationship
	for i := range r.Relationships {
		if r.Relationships[i].Type == relType {
			out = append(out, &r.Relationships[i])
		}
	}
	return out
}

// FirstOfType returns the first relationship of a type, or nil.
func (r *Relationships) FirstOfType(relType string) *Relationship {
	if all := r.ByType(relType); len(all) > 0 {
		return all[0]
	}
	return nil
}

// TargetPart resolves an internal relationship to a package part name.
// External and unknown ids resolve to "".
func (r *Relationships) TargetPart(id string) string {
	rel := r.Get(id)
	if rel == nil || rel.External() {
		return ""
	}
	return resolvePartName(r.source, rel.Target)
}

// TargetURL returns the raw target of a relationship (hyperlinks).
func (r *Relationships) TargetURL(id string) string {
	if rel := r.Get(id); rel != nil {
		return rel.Target
	}
	return ""
}

// resolvePartName joins a relative target onto the directory of source.
func resolvePartName(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return strings.TrimPrefix(path.Join(path.Dir(source), target), "/")
}
