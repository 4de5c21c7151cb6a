package pptxtest

import (
	"fmt"
	"strings"
)

// R renders a run with plain text.
func R(text string) string {
	return `<a:r><a:rPr lang="en-US" dirty="0"/><a:t>` + Escape(text) + `</a:t></a:r>`
}

// RWith renders a run with raw rPr attributes and children, e.g.
// RWith(`sz="2400" b="1"`, `<a:latin typeface="Arial"/>`, "Hello").
func RWith(attrs, inner, text string) string {
	return `<a:r><a:rPr lang="en-US" ` + attrs + `>` + inner + `</a:rPr><a:t>` + Escape(text) + `</a:t></a:r>`
}

// P renders a paragraph from runs.
func P(runs ...string) string {
	return `<a:p>` + strings.Join(runs, "") + `</a:p>`
}

// PWith renders a paragraph with raw pPr content.
func PWith(pPr string, runs ...string) string {
	return `<a:p>` + pPr + strings.Join(runs, "") + `</a:p>`
}

// Body renders a p:txBody with a fixed-size body.
func Body(paragraphs ...string) string {
	return `<p:txBody><a:bodyPr wrap="square"/><a:lstStyle/>` + strings.Join(paragraphs, "") + `</p:txBody>`
}

func nvSp(id int, name, cNvSpPr, nvPr string) string {
	return fmt.Sprintf(`<p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr%s/><p:nvPr>%s</p:nvPr></p:nvSpPr>`, id, Escape(name), cNvSpPr, nvPr)
}

func xfrm(x, y, cx, cy int) string {
	return fmt.Sprintf(`<a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`, x, y, cx, cy)
}

// TextBox renders a text box shape.
func TextBox(id int, name string, paragraphs ...string) string {
	return `<p:sp>` + nvSp(id, name, ` txBox="1"`, "") +
		`<p:spPr>` + xfrm(914400, 914400, 4572000, 914400) + `<a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr>` +
		Body(paragraphs...) + `</p:sp>`
}

// Placeholder renders a placeholder shape of the given type.
func Placeholder(id int, name, phType string, paragraphs ...string) string {
	return `<p:sp>` + nvSp(id, name, "", `<p:ph type="`+phType+`"/>`) + `<p:spPr/>` +
		`<p:txBody><a:bodyPr/><a:lstStyle/>` + strings.Join(paragraphs, "") + `</p:txBody></p:sp>`
}

// AutoShape renders a preset-geometry shape with a solid fill.
func AutoShape(id int, name, fill string, x, y int, paragraphs ...string) string {
	return `<p:sp>` + nvSp(id, name, "", "") +
		`<p:spPr>` + xfrm(x, y, 1828800, 914400) + `<a:prstGeom prst="roundRect"><a:avLst/></a:prstGeom>` +
		`<a:solidFill><a:srgbClr val="` + fill + `"/></a:solidFill><a:ln w="12700"><a:solidFill><a:srgbClr val="000000"/></a:solidFill></a:ln></p:spPr>` +
		Body(paragraphs...) + `</p:sp>`
}

// Freeform renders a custom-geometry shape.
func Freeform(id int, name string, paragraphs ...string) string {
	return `<p:sp>` + nvSp(id, name, "", "") +
		`<p:spPr>` + xfrm(0, 0, 914400, 914400) + `<a:custGeom><a:pathLst><a:path w="10" h="10"><a:moveTo><a:pt x="0" y="0"/></a:moveTo><a:lnTo><a:pt x="10" y="10"/></a:lnTo></a:path></a:pathLst></a:custGeom></p:spPr>` +
		Body(paragraphs...) + `</p:sp>`
}

// Group renders a group shape around members.
func Group(id int, name string, members ...string) string {
	return fmt.Sprintf(`<p:grpSp><p:nvGrpSpPr><p:cNvPr id="%d" name="%s"/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>`, id, Escape(name)) +
		`<p:grpSpPr>` + xfrm(0, 0, 6096000, 3429000) + `</p:grpSpPr>` + strings.Join(members, "") + `</p:grpSp>`
}

// Picture renders a picture with alternative text.
func Picture(id int, name, descr string) string {
	return fmt.Sprintf(`<p:pic><p:nvPicPr><p:cNvPr id="%d" name="%s" descr="%s"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>`, id, Escape(name), Escape(descr)) +
		`<p:blipFill><a:blip r:embed="rIdImg"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>` +
		`<p:spPr>` + xfrm(0, 0, 914400, 914400) + `<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`
}

func graphicFrame(id int, name, uri, data string) string {
	return fmt.Sprintf(`<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="%d" name="%s"/><p:cNvGraphicFramePr/><p:nvPr/></p:nvGraphicFramePr>`, id, Escape(name)) +
		`<p:xfrm><a:off x="0" y="0"/><a:ext cx="6096000" cy="2743200"/></p:xfrm>` +
		`<a:graphic><a:graphicData uri="` + uri + `">` + data + `</a:graphicData></a:graphic></p:graphicFrame>`
}

// Table renders a table whose cells each hold one run of text.
func Table(id int, name string, rows [][]string) string {
	var sb strings.Builder
	sb.WriteString(`<a:tbl><a:tblPr firstRow="1"/><a:tblGrid>`)
	if len(rows) > 0 {
		for range rows[0] {
			sb.WriteString(`<a:gridCol w="1524000"/>`)
		}
	}
	sb.WriteString(`</a:tblGrid>`)
	for _, row := range rows {
		sb.WriteString(`<a:tr h="370840">`)
		for _, cell := range row {
			sb.WriteString(`<a:tc><a:txBody><a:bodyPr/><a:lstStyle/>` + P(R(cell)) + `</a:txBody><a:tcPr/></a:tc>`)
		}
		sb.WriteString(`</a:tr>`)
	}
	sb.WriteString(`</a:tbl>`)
	return graphicFrame(id, name, "http://schemas.openxmlformats.org/drawingml/2006/table", sb.String())
}

// ChartFrame renders a chart graphic frame pointing at relationship rID.
func ChartFrame(id int, name, rID string) string {
	return graphicFrame(id, name, "http://schemas.openxmlformats.org/drawingml/2006/chart",
		`<c:chart xmlns:c="`+NSC+`" r:id="`+rID+`"/>`)
}

// DiagramFrame renders a SmartArt graphic frame pointing at data rel dmRID.
func DiagramFrame(id int, name, dmRID string) string {
	return graphicFrame(id, name, "http://schemas.openxmlformats.org/drawingml/2006/diagram",
		`<dgm:relIds xmlns:dgm="`+NSDGM+`" r:dm="`+dmRID+`" r:lo="rIdLo" r:qs="rIdQs" r:cs="rIdCs"/>`)
}

// Connector renders a connector shape (no text).
func Connector(id int, name string) string {
	return fmt.Sprintf(`<p:cxnSp><p:nvCxnSpPr><p:cNvPr id="%d" name="%s"/><p:cNvCxnSpPr/><p:nvPr/></p:nvCxnSpPr>`, id, Escape(name)) +
		`<p:spPr>` + xfrm(0, 0, 914400, 0) + `<a:prstGeom prst="line"><a:avLst/></a:prstGeom></p:spPr></p:cxnSp>`
}

// NotesImage renders the slide image placeholder of a notes slide.
func NotesImage(id int) string {
	return `<p:sp>` + nvSp(id, "Slide Image Placeholder", "", `<p:ph type="sldImg"/>`) + `<p:spPr/></p:sp>`
}

// NotesBody renders the notes body placeholder; each line becomes a paragraph.
func NotesBody(id int, text string) string {
	var ps []string
	for _, line := range strings.Split(text, "\n") {
		ps = append(ps, P(R(line)))
	}
	return Placeholder(id, "Notes Placeholder", "body", ps...)
}
