package pptx

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pt "pptx-translator/internal/pptx/pptxtest"
	"pptx-translator/internal/types"
)

func sampleDeck() pt.Deck {
	return pt.Deck{
		MasterShapes: pt.Placeholder(2, "Title Placeholder 1", "title", pt.P(pt.R("Click to edit Master title style"))),
		LayoutShapes: pt.Placeholder(2, "Title 1", "title", pt.P(pt.R("Click to edit title"))),
		Slides: []pt.Slide{
			{
				Shapes: pt.TextBox(2, "Title", pt.P(pt.R("Hello "), pt.RWith(`sz="2400" b="1"`, `<a:solidFill><a:srgbClr val="FF0000"/></a:solidFill><a:latin typeface="Arial"/><a:hlinkClick r:id="rIdLink"/>`, "World"))) +
					pt.Group(10, "Outer",
						pt.Group(11, "Inner",
							pt.AutoShape(42, "Brain", "4472C4", 100, 200, pt.P(pt.R("Brain"))))) +
					pt.Table(20, "Table 1", [][]string{{"A1", "B1"}, {"A2", "B2"}}) +
					pt.ChartFrame(30, "Chart 1", "rIdChart1") +
					pt.Picture(40, "Logo", "Company logo") +
					pt.Freeform(50, "Freeform 1", pt.P(pt.R("Custom Label"))) +
					pt.DiagramFrame(60, "Diagram 1", "rIdDm1"),
				Notes: "Speaker notes here",
				Charts: []string{pt.ChartXML(pt.ChartSpec{
					Title:      "Revenue",
					CatTitle:   "Quarter",
					ValTitle:   "Millions",
					Categories: []string{"Q1", "Q2"},
					Series:     []pt.SeriesSpec{{Name: "North", Values: []float64{1.5, 2}, Labels: map[int]string{1: "Peak"}}},
					Legend:     true,
				})},
				Diagrams: []pt.Diagram{pt.DiagramXML([]pt.NodeSpec{
					{ID: "n1", Text: "Plan"},
					{ID: "n2", Parent: "n1", Text: "Build"},
				})},
				Links: map[string]string{"rIdLink": "https://example.com"},
			},
			{Shapes: pt.TextBox(2, "Second", pt.P(pt.R("Second slide")))},
		},
	}
}

func openSample(t *testing.T) (*Presentation, string) {
	t.Helper()
	path := pt.Write(t, t.TempDir(), "deck.pptx", sampleDeck())
	pres, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { pres.Close() })
	return pres, path
}

func TestOpenStructure(t *testing.T) {
	pres, _ := openSample(t)

	if len(pres.Masters) != 1 || len(pres.Layouts) != 1 || len(pres.Slides) != 2 {
		t.Fatalf("got %d masters, %d layouts, %d slides", len(pres.Masters), len(pres.Layouts), len(pres.Slides))
	}
	if pres.Layouts[0].Name != "Title and Content" || pres.Layouts[0].MasterPart != "ppt/slideMasters/slideMaster1.xml" {
		t.Errorf("layout metadata = %q %q", pres.Layouts[0].Name, pres.Layouts[0].MasterPart)
	}
	slide := pres.Slides[0]
	if slide.LayoutPart != "ppt/slideLayouts/slideLayout1.xml" {
		t.Errorf("slide layout = %q", slide.LayoutPart)
	}

	want := []struct {
		id   int
		kind ShapeKind
	}{
		{2, KindTextBox}, {10, KindGroup}, {20, KindTable}, {30, KindChart},
		{40, KindPicture}, {50, OtherKind("freeform")}, {60, KindSmartArt},
	}
	if len(slide.Shapes) != len(want) {
		t.Fatalf("got %d shapes, want %d", len(slide.Shapes), len(want))
	}
	for i, w := range want {
		if s := slide.Shapes[i]; s.ID != w.id || s.Kind != w.kind {
			t.Errorf("shape %d = (%d, %s), want (%d, %s)", i, s.ID, s.Kind, w.id, w.kind)
		}
	}

	inner := slide.Shapes[1].Children()
	if len(inner) != 1 || inner[0].ID != 11 || inner[0].Kind != KindGroup {
		t.Fatalf("unexpected group members %+v", inner)
	}
	brain := inner[0].Children()[0]
	if brain.ID != 42 || brain.Kind != KindAutoShape || brain.TextFrame().Text() != "Brain" {
		t.Errorf("nested shape = %d %s %q", brain.ID, brain.Kind, brain.TextFrame().Text())
	}
	if !slide.Shapes[5].Kind.IsOther() || !slide.Shapes[5].HasTextFrame() {
		t.Error("freeform should be Other_ with a text frame")
	}
}

func TestRunProperties(t *testing.T) {
	pres, _ := openSample(t)
	slide := pres.Slides[0]
	runs := slide.Shapes[0].TextFrame().Paragraphs()[0].Runs()
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	rp, err := runs[1].Properties()
	if err != nil {
		t.Fatal(err)
	}
	if rp.Size == nil || *rp.Size != 24 || rp.Bold == nil || !*rp.Bold {
		t.Errorf("size/bold = %v %v", rp.Size, rp.Bold)
	}
	if rp.Font != "Arial" || rp.Color != "srgb:FF0000" || rp.Language != "en-US" {
		t.Errorf("font/color/lang = %q %q %q", rp.Font, rp.Color, rp.Language)
	}
	if got := slide.Hyperlink(rp.HyperlinkID); got != "https://example.com" {
		t.Errorf("hyperlink = %q", got)
	}
}

func TestMalformedAttributes(t *testing.T) {
	deck := pt.Deck{Slides: []pt.Slide{{Shapes: pt.TextBox(2, "Bad", pt.P(pt.RWith(`sz="big"`, "", "text")))}}}
	pres, err := OpenBytes(mustBytes(t, deck))
	if err != nil {
		t.Fatal(err)
	}
	defer pres.Close()
	run := pres.Slides[0].Shapes[0].TextFrame().Paragraphs()[0].Runs()[0]
	if _, err := run.Properties(); err == nil || !strings.Contains(err.Error(), "sz") {
		t.Errorf("expected attribute error, got %v", err)
	}
	if run.Text() != "text" {
		t.Errorf("text still readable, got %q", run.Text())
	}
}

func TestTableChartDiagramNotes(t *testing.T) {
	pres, _ := openSample(t)
	slide := pres.Slides[0]

	tbl := slide.Shapes[2].Table()
	if tbl.Rows() != 2 || tbl.Columns() != 2 {
		t.Fatalf("table %dx%d", tbl.Rows(), tbl.Columns())
	}
	if got := tbl.Cell(1, 0).TextFrame().Text(); got != "A2" {
		t.Errorf("cell(1,0) = %q", got)
	}
	if tbl.Cell(2, 0) != nil {
		t.Error("out of range cell should be nil")
	}

	chart, err := pres.Chart(slide, slide.Shapes[3])
	if err != nil {
		t.Fatalf("Chart() error = %v", err)
	}
	if chart.Type() != "barChart" || chart.Title().Text() != "Revenue" {
		t.Errorf("chart type/title = %s %q", chart.Type(), chart.Title().Text())
	}
	if chart.AxisTitle(AxisCategory).Text() != "Quarter" || chart.AxisTitle(AxisValue).Text() != "Millions" || chart.AxisTitle(AxisSeries) != nil {
		t.Error("axis titles mismatch")
	}
	series := chart.Series()
	if len(series) != 1 {
		t.Fatalf("series = %d", len(series))
	}
	name, _ := series[0].Name()
	vals, err := series[0].Values()
	if err != nil || name != "North" || len(vals) != 2 || *vals[0] != 1.5 {
		t.Errorf("series name/values = %q %v %v", name, vals, err)
	}
	if cats := series[0].Categories(); len(cats) != 2 || cats[1] != "Q2" {
		t.Errorf("categories = %v", cats)
	}
	if dl := series[0].DataLabel(1); dl == nil || dl.Text() != "Peak" {
		t.Error("data label for point 1 missing")
	}
	if !chart.HasLegend() || chart.VaryColors() {
		t.Error("legend flags mismatch")
	}

	diagram, err := pres.Diagram(slide, slide.Shapes[6])
	if err != nil {
		t.Fatalf("Diagram() error = %v", err)
	}
	nodes := diagram.Nodes()
	if len(nodes) != 2 || nodes[1].ParentID != "n1" || nodes[1].Level != 1 || nodes[0].Level != 0 {
		t.Fatalf("nodes = %+v", nodes)
	}
	if !diagram.HasDrawing() || len(diagram.DrawingFrames("n2")) != 1 {
		t.Error("drawing frame for n2 not resolved")
	}

	if slide.Notes == nil || slide.Notes.NotesBody() == nil {
		t.Fatal("notes body missing")
	}
	if got := slide.Notes.NotesBody().TextFrame().Text(); got != "Speaker notes here" {
		t.Errorf("notes = %q", got)
	}
	if pres.Slides[1].Notes != nil {
		t.Error("second slide has no notes")
	}
}

func readEntries(t *testing.T, path string) map[string][]byte {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	out := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		out[f.Name] = data
	}
	return out
}

func TestSaveAsUnmodifiedCopiesEntries(t *testing.T) {
	pres, src := openSample(t)
	dest := filepath.Join(t.TempDir(), "out", "copy.pptx")
	if err := pres.SaveAs(context.Background(), dest); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}
	before, after := readEntries(t, src), readEntries(t, dest)
	if len(before) != len(after) {
		t.Fatalf("entry count %d != %d", len(before), len(after))
	}
	for name, data := range before {
		if !bytes.Equal(data, after[name]) {
			t.Errorf("entry %s changed", name)
		}
	}
}

func TestSaveAsWritesOnlyDirtyParts(t *testing.T) {
	pres, src := openSample(t)
	run := pres.Slides[0].Shapes[0].TextFrame().Paragraphs()[0].Runs()[0]
	if !run.SetText("Bonjour ") {
		t.Fatal("SetText should report a change")
	}
	if run.SetText("Bonjour ") {
		t.Error("identical text should not count as a change")
	}
	if got := pres.Package().DirtyParts(); len(got) != 1 || got[0] != "ppt/slides/slide1.xml" {
		t.Errorf("dirty parts = %v", got)
	}

	dest := filepath.Join(t.TempDir(), "out.pptx")
	if err := pres.SaveAs(context.Background(), dest); err != nil {
		t.Fatal(err)
	}
	before, after := readEntries(t, src), readEntries(t, dest)
	for name, data := range before {
		changed := !bytes.Equal(data, after[name])
		if changed != (name == "ppt/slides/slide1.xml") {
			t.Errorf("entry %s changed=%v", name, changed)
		}
	}
	if !bytes.Contains(after["ppt/slides/slide1.xml"], []byte("<a:t>Bonjour </a:t>")) {
		t.Error("new text not written")
	}

	reopened, err := Open(dest)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if got := reopened.Slides[0].Shapes[0].TextFrame().Text(); got != "Bonjour World" {
		t.Errorf("reopened text = %q", got)
	}
}

func TestSaveAsCancelledLeavesNothing(t *testing.T) {
	pres, _ := openSample(t)
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pres.SaveAs(ctx, filepath.Join(dir, "out.pptx")); err == nil {
		t.Fatal("expected cancellation error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("output directory should be empty, found %d entries", len(entries))
	}
}

func TestOpenErrors(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.pptx")); !types.IsCode(err, types.ErrFileNotFound) {
		t.Errorf("missing file: %v", err)
	}
	bad := filepath.Join(t.TempDir(), "bad.pptx")
	os.WriteFile(bad, []byte("not a zip"), 0644)
	if _, err := Open(bad); !types.IsCode(err, types.ErrIO) {
		t.Errorf("bad zip: %v", err)
	}
}

func TestShrinkAndRTL(t *testing.T) {
	pres, _ := openSample(t)
	tf := pres.Slides[0].Shapes[0].TextFrame()

	if !tf.EnableShrinkToFit() {
		t.Fatal("fixed frame should accept shrink-to-fit")
	}
	if tf.EnableShrinkToFit() {
		t.Error("second call should be a no-op")
	}
	if fp, _ := tf.Properties(); fp.Autofit != "normal" {
		t.Errorf("autofit = %q", fp.Autofit)
	}

	p := tf.Paragraphs()[0]
	p.SetRTL()
	pp, _ := p.Properties()
	if !pp.RTL || pp.Alignment != "r" {
		t.Errorf("paragraph props = %+v", pp)
	}
	r := p.Runs()[0]
	r.SetRTL()
	rp, _ := r.Properties()
	if !rp.RTL {
		t.Error("run should be RTL")
	}
	if other, _ := p.Runs()[1].Properties(); other.RTL {
		t.Error("sibling run must not change")
	}
}

func TestResolvePartName(t *testing.T) {
	tests := []struct{ source, target, want string }{
		{"", "ppt/presentation.xml", "ppt/presentation.xml"},
		{"ppt/slides/slide1.xml", "../charts/chart1.xml", "ppt/charts/chart1.xml"},
		{"ppt/presentation.xml", "slides/slide2.xml", "ppt/slides/slide2.xml"},
		{"ppt/slides/slide1.xml", "/ppt/media/image1.png", "ppt/media/image1.png"},
	}
	for _, tt := range tests {
		if got := resolvePartName(tt.source, tt.target); got != tt.want {
			t.Errorf("resolvePartName(%q, %q) = %q, want %q", tt.source, tt.target, got, tt.want)
		}
	}
}

func mustBytes(t *testing.T, d pt.Deck) []byte {
	t.Helper()
	data, err := d.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	return data
}
