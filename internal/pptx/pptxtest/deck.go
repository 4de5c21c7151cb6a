// Package pptxtest builds small but well-formed .pptx packages for tests.
package pptxtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

const (
	NSA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	NSR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NSP   = "http://schemas.openxmlformats.org/presentationml/2006/main"
	NSC   = "http://schemas.openxmlformats.org/drawingml/2006/chart"
	NSDGM = "http://schemas.openxmlformats.org/drawingml/2006/diagram"
	NSDSP = "http://schemas.microsoft.com/office/drawing/2008/diagram"

	relBase = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"
	xmlDecl = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
)

// Diagram is a SmartArt data part and optional cached drawing.
type Diagram struct {
	Data    string
	Drawing string
}

// Slide describes one slide. Charts are referenced as rIdChart1..N,
// diagrams as rIdDm1..N (drawings rIdDd1..N) and links by their map key.
type Slide struct {
	Shapes   string
	Notes    string
	Charts   []string
	Diagrams []Diagram
	Links    map[string]string
}

// Deck is a whole presentation with a single master and layout.
type Deck struct {
	MasterShapes string
	LayoutShapes string
	Slides       []Slide
}

type entry struct {
	name string
	data string
}

// Bytes renders the deck as a zip container.
func (d Deck) Bytes() ([]byte, error) {
	var entries []entry
	add := func(name, data string) { entries = append(entries, entry{name, data}) }

	overrides := []string{
		`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`,
		`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`,
		`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`,
	}

	add("_rels/.rels", rels(map[string][2]string{
		"rId1": {"officeDocument", "ppt/presentation.xml"},
	}))

	var sldIDs strings.Builder
	presRels := map[string][2]string{"rId1": {"slideMaster", "slideMasters/slideMaster1.xml"}}
	for i := range d.Slides {
		rid := fmt.Sprintf("rId%d", i+2)
		fmt.Fprintf(&sldIDs, `<p:sldId id="%d" r:id="%s"/>`, 256+i, rid)
		presRels[rid] = [2]string{"slide", fmt.Sprintf("slides/slide%d.xml", i+1)}
	}
	add("ppt/presentation.xml", xmlDecl+`<p:presentation xmlns:a="`+NSA+`" xmlns:r="`+NSR+`" xmlns:p="`+NSP+`">`+
		`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`+
		`<p:sldIdLst>`+sldIDs.String()+`</p:sldIdLst>`+
		`<p:sldSz cx="12192000" cy="6858000"/><p:notesSz cx="6858000" cy="9144000"/></p:presentation>`)
	add("ppt/_rels/presentation.xml.rels", rels(presRels))

	add("ppt/slideMasters/slideMaster1.xml", xmlDecl+`<p:sldMaster xmlns:a="`+NSA+`" xmlns:r="`+NSR+`" xmlns:p="`+NSP+`">`+
		cSld("", d.MasterShapes)+
		`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst></p:sldMaster>`)
	add("ppt/slideMasters/_rels/slideMaster1.xml.rels", rels(map[string][2]string{
		"rId1": {"slideLayout", "../slideLayouts/slideLayout1.xml"},
	}))
	add("ppt/slideLayouts/slideLayout1.xml", xmlDecl+`<p:sldLayout xmlns:a="`+NSA+`" xmlns:r="`+NSR+`" xmlns:p="`+NSP+`">`+
		cSld("Title and Content", d.LayoutShapes)+`</p:sldLayout>`)
	add("ppt/slideLayouts/_rels/slideLayout1.xml.rels", rels(map[string][2]string{
		"rId1": {"slideMaster", "../slideMasters/slideMaster1.xml"},
	}))

	chartN, diagramN := 0, 0
	for i, s := range d.Slides {
		n := i + 1
		slideRels := map[string][2]string{"rId1": {"slideLayout", "../slideLayouts/slideLayout1.xml"}}
		overrides = append(overrides, fmt.Sprintf(`<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, n))

		for j, c := range s.Charts {
			chartN++
			name := fmt.Sprintf("ppt/charts/chart%d.xml", chartN)
			add(name, xmlDecl+c)
			slideRels[fmt.Sprintf("rIdChart%d", j+1)] = [2]string{"chart", "../charts/" + filepath.Base(name)}
		}
		for j, dg := range s.Diagrams {
			diagramN++
			data := fmt.Sprintf("ppt/diagrams/data%d.xml", diagramN)
			add(data, xmlDecl+dg.Data)
			slideRels[fmt.Sprintf("rIdDm%d", j+1)] = [2]string{"diagramData", "../diagrams/" + filepath.Base(data)}
			if dg.Drawing != "" {
				drawing := fmt.Sprintf("ppt/diagrams/drawing%d.xml", diagramN)
				add(drawing, xmlDecl+dg.Drawing)
				slideRels[fmt.Sprintf("rIdDd%d", j+1)] = [2]string{"!http://schemas.microsoft.com/office/2007/relationships/diagramDrawing", "../diagrams/" + filepath.Base(drawing)}
			}
		}
		for rid, url := range s.Links {
			slideRels[rid] = [2]string{"@hyperlink", url}
		}
		if s.Notes != "" {
			notes := fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", n)
			add(notes, xmlDecl+`<p:notes xmlns:a="`+NSA+`" xmlns:r="`+NSR+`" xmlns:p="`+NSP+`">`+
				cSld("", NotesImage(2)+NotesBody(3, s.Notes))+`</p:notes>`)
			add(fmt.Sprintf("ppt/notesSlides/_rels/notesSlide%d.xml.rels", n), rels(map[string][2]string{
				"rId1": {"slide", fmt.Sprintf("../slides/slide%d.xml", n)},
			}))
			slideRels["rIdNotes"] = [2]string{"notesSlide", fmt.Sprintf("../notesSlides/notesSlide%d.xml", n)}
		}

		add(fmt.Sprintf("ppt/slides/slide%d.xml", n), xmlDecl+`<p:sld xmlns:a="`+NSA+`" xmlns:r="`+NSR+`" xmlns:p="`+NSP+`">`+
			cSld("", s.Shapes)+`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
		add(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), rels(slideRels))
	}

	ct := xmlDecl + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		strings.Join(overrides, "") + `</Types>`
	entries = append([]entry{{"[Content_Types].xml", ct}}, entries...)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(e.data)); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders the deck into dir/name and returns the path.
func Write(tb testing.TB, dir, name string, d Deck) string {
	tb.Helper()
	data, err := d.Bytes()
	if err != nil {
		tb.Fatalf("failed to build deck: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		tb.Fatalf("failed to write deck: %v", err)
	}
	return path
}

// rels renders a relationships part. A type starting with "@" is an
// external relationship; "!" marks a full type URI.
func rels(m map[string][2]string) string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var sb strings.Builder
	sb.WriteString(xmlDecl + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, id := range ids {
		typ, target := m[id][0], m[id][1]
		mode := ""
		switch {
		case strings.HasPrefix(typ, "@"):
			typ = relBase + typ[1:]
			mode = ` TargetMode="External"`
		case strings.HasPrefix(typ, "!"):
			typ = typ[1:]
		default:
			typ = relBase + typ
		}
		fmt.Fprintf(&sb, `<Relationship Id="%s" Type="%s" Target="%s"%s/>`, id, typ, Escape(target), mode)
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}

func cSld(name, shapes string) string {
	attr := ""
	if name != "" {
		attr = ` name="` + Escape(name) + `"`
	}
	return `<p:cSld` + attr + `><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
		`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>` +
		shapes + `</p:spTree></p:cSld>`
}

// Escape escapes XML special characters.
func Escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
