package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pptx-translator/internal/pptx"
	"pptx-translator/internal/types"
)

func para(index int, texts ...string) *Paragraph {
	p := &Paragraph{Index: index}
	for i, t := range texts {
		p.Runs = append(p.Runs, &TextRun{Index: i, Text: t})
	}
	return p
}

func sampleContent() *DocumentContent {
	bold := true
	return &DocumentContent{
		Version: FormatVersion,
		Source:  "deck.pptx",
		Masters: []*MasterRecord{{Index: 1, Part: "ppt/slideMasters/slideMaster1.xml", Shapes: []*ShapeElement{
			{ID: 2, ElementType: "TextBox", HasTextFrame: true, Paragraphs: []*Paragraph{para(0, "Master title")}},
		}}},
		Layouts: []*LayoutRecord{{Index: 1, Part: "ppt/slideLayouts/slideLayout1.xml"}},
		Slides: []*SlideRecord{{
			Index: 1,
			Part:  "ppt/slides/slide1.xml",
			Shapes: []*ShapeElement{
				{ID: 2, ElementType: "TextBox", HasTextFrame: true, Paragraphs: []*Paragraph{
					{Index: 0, Runs: []*TextRun{{Index: 0, Text: "Hello ", Style: &pptx.RunProps{Font: "Arial", Bold: &bold}}, {Index: 1, Text: "<World> & co"}}},
				}},
				{ID: 10, ElementType: "Group", Shapes: []*ShapeElement{
					{ID: 11, ElementType: "Group", Shapes: []*ShapeElement{
						{ID: 42, ElementType: "AutoShape", HasTextFrame: true, Paragraphs: []*Paragraph{para(0, "Brain")}},
					}},
					{ID: 12, ElementType: "TextBox", HasTextFrame: true, Paragraphs: []*Paragraph{para(0, "Sibling")}},
				}},
				{ID: 20, ElementType: "Table", Table: &TableElement{Rows: 1, Columns: 2, Cells: []*TableCell{
					{Row: 0, Column: 0, Paragraphs: []*Paragraph{para(0, "A1")}},
					{Row: 0, Column: 1, Paragraphs: []*Paragraph{para(0, "B1")}},
				}}},
				{ID: 30, ElementType: "Chart", Chart: &ChartElement{
					ChartType:      "barChart",
					Title:          &ChartText{Text: "Revenue"},
					ValueAxisTitle: &ChartText{Text: "Millions"},
					Categories:     []*CategoryLabel{{Index: 0, Text: "Q1"}},
					Legend:         []*LegendEntry{{Index: 0, Source: LegendSeries, Text: "North"}},
					Series: []*ChartSeries{{
						Index:      0,
						Name:       "North",
						Categories: []string{"Q1"},
						DataLabels: []*DataLabel{{Point: 1, Text: "Peak"}},
					}},
				}},
				{ID: 60, ElementType: "SmartArt", SmartArt: &SmartArtElement{Nodes: []*SmartArtNode{
					{ModelID: "{A}", Type: "node", Paragraphs: []*Paragraph{para(0, "Plan")}},
				}}},
			},
			Notes: &NotesRecord{ShapeID: 3, Paragraphs: []*Paragraph{para(0, "Say hi")}},
		}},
	}
}

func TestLeavesOrderAndPaths(t *testing.T) {
	leaves := sampleContent().Leaves()
	want := []struct {
		path string
		kind LeafKind
		text string
	}{
		{"master[1]/shape[2]/p[0]/r[0]", LeafRun, "Master title"},
		{"slide[1]/shape[2]/p[0]/r[0]", LeafRun, "Hello "},
		{"slide[1]/shape[2]/p[0]/r[1]", LeafRun, "<World> & co"},
		{"slide[1]/shape[10]/shape[11]/shape[42]/p[0]/r[0]", LeafRun, "Brain"},
		{"slide[1]/shape[10]/shape[12]/p[0]/r[0]", LeafRun, "Sibling"},
		{"slide[1]/shape[20]/cell[0,0]/p[0]/r[0]", LeafRun, "A1"},
		{"slide[1]/shape[20]/cell[0,1]/p[0]/r[0]", LeafRun, "B1"},
		{"slide[1]/shape[30]/chart/title", LeafChartTitle, "Revenue"},
		{"slide[1]/shape[30]/chart/axis[value]", LeafAxisTitle, "Millions"},
		{"slide[1]/shape[30]/chart/category[0]", LeafCategory, "Q1"},
		{"slide[1]/shape[30]/chart/series[0]/name", LeafSeriesName, "North"},
		{"slide[1]/shape[30]/chart/series[0]/label[1]", LeafDataLabel, "Peak"},
		{"slide[1]/shape[60]/node[{A}]/p[0]/r[0]", LeafRun, "Plan"},
		{"slide[1]/notes/shape[3]/p[0]/r[0]", LeafRun, "Say hi"},
	}
	if len(leaves) != len(want) {
		t.Fatalf("got %d leaves, want %d", len(leaves), len(want))
	}
	for i, w := range want {
		l := leaves[i]
		if l.Path != w.path || l.Kind != w.kind || l.Text() != w.text {
			t.Errorf("leaf %d = (%s, %s, %q), want (%s, %s, %q)", i, l.Path, l.Kind, l.Text(), w.path, w.kind, w.text)
		}
	}
}

func TestLeafSetTextWritesTree(t *testing.T) {
	doc := sampleContent()
	for _, l := range doc.Leaves() {
		if l.Text() == "Brain" {
			l.SetText("Cerveau")
		}
		if l.Kind == LeafAxisTitle {
			l.SetText("Millions (FR)")
		}
	}
	brain := doc.Slides[0].Shapes[1].Shapes[0].Shapes[0]
	if brain.Paragraphs[0].Runs[0].Text != "Cerveau" {
		t.Errorf("nested run = %q", brain.Paragraphs[0].Runs[0].Text)
	}
	if doc.Slides[0].Shapes[3].Chart.ValueAxisTitle.Text != "Millions (FR)" {
		t.Error("axis title not updated")
	}
}

func TestUnits(t *testing.T) {
	units := Units(sampleContent().Leaves())
	if len(units) != 2 {
		t.Fatalf("got %d units, want 2", len(units))
	}
	if units[0][0].Unit != "master[1]" || len(units[1]) != 13 {
		t.Errorf("unexpected units: %s / %d", units[0][0].Unit, len(units[1]))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	doc := sampleContent()
	path := filepath.Join(t.TempDir(), "nested", "content.json")
	if err := Save(path, doc); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), "<World> & co") {
		t.Error("text should not be HTML-escaped")
	}
	if leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".content-*")); len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
	if err := Save(path, doc); err != nil {
		t.Fatalf("overwriting Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := CheckIsomorphic(doc, loaded); err != nil {
		t.Errorf("round trip changed structure: %v", err)
	}
	for i, l := range loaded.Leaves() {
		if want := doc.Leaves()[i].Text(); l.Text() != want {
			t.Errorf("leaf %d = %q, want %q", i, l.Text(), want)
		}
	}
	if st := loaded.Slides[0].Shapes[0].Paragraphs[0].Runs[0].Style; st == nil || st.Font != "Arial" || st.Bold == nil || !*st.Bold {
		t.Errorf("style lost: %+v", st)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.json")); !types.IsCode(err, types.ErrFileNotFound) {
		t.Errorf("missing file: %v", err)
	}
	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{"), 0644)
	if _, err := Load(bad); !types.IsCode(err, types.ErrInvalidInput) {
		t.Errorf("bad json: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DocumentContent)
		ok     bool
	}{
		{"valid", func(*DocumentContent) {}, true},
		{"duplicate id in group", func(d *DocumentContent) {
			d.Slides[0].Shapes[1].Shapes[1].ID = 2
		}, true},
		{"null group member", func(d *DocumentContent) {
			d.Slides[0].Shapes[1].Shapes[1] = nil
		}, false},
		{"duplicate run index", func(d *DocumentContent) {
			d.Slides[0].Shapes[0].Paragraphs[0].Runs[1].Index = 0
		}, false},
		{"null run", func(d *DocumentContent) {
			d.Slides[0].Notes.Paragraphs[0].Runs[0] = nil
		}, false},
		{"null chart series", func(d *DocumentContent) {
			d.Slides[0].Shapes[3].Chart.Series[0] = nil
		}, false},
		{"future version", func(d *DocumentContent) { d.Version = FormatVersion + 1 }, false},
		{"same id in different slides", func(d *DocumentContent) {
			d.Slides = append(d.Slides, &SlideRecord{Index: 2, Shapes: []*ShapeElement{{ID: 2}}})
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := sampleContent()
			tt.mutate(doc)
			err := doc.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() error = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestCheckIsomorphic(t *testing.T) {
	a := sampleContent()

	b := a.Clone()
	b.Slides[0].Shapes[0].Paragraphs[0].Runs[0].Text = "Bonjour "
	if err := CheckIsomorphic(a, b); err != nil {
		t.Errorf("text-only change reported: %v", err)
	}

	c := a.Clone()
	c.Slides[0].Shapes[0].Paragraphs[0].Runs = c.Slides[0].Shapes[0].Paragraphs[0].Runs[:1]
	if err := CheckIsomorphic(a, c); !types.IsCode(err, types.ErrStructuralMismatch) {
		t.Errorf("dropped run not reported: %v", err)
	}

	d := a.Clone()
	d.Slides[0].Shapes[1].Shapes[0].Shapes[0].ID = 43
	if err := CheckIsomorphic(a, d); err == nil {
		t.Error("changed identity not reported")
	}
}

func TestCloneIsDeep(t *testing.T) {
	a := sampleContent()
	b := a.Clone()
	b.Slides[0].Shapes[0].Paragraphs[0].Runs[0].Text = "changed"
	b.Slides[0].Shapes[0].Paragraphs[0].Runs[0].Style.Font = "Times"
	if a.Slides[0].Shapes[0].Paragraphs[0].Runs[0].Text != "Hello " {
		t.Error("clone shares runs")
	}
	if a.Slides[0].Shapes[0].Paragraphs[0].Runs[0].Style.Font != "Arial" {
		t.Error("clone shares styles")
	}
}

func TestRefreshDerived(t *testing.T) {
	doc := sampleContent()
	doc.Slides[0].Shapes[0].Paragraphs = append(doc.Slides[0].Shapes[0].Paragraphs, para(1, "Second"))
	doc.Slides[0].Shapes[2].Table.Cells[0].Paragraphs[0].Runs[0].Text = "X"
	doc.RefreshDerived()

	if got := doc.Slides[0].Shapes[0].FullText; got != "Hello <World> & co\nSecond" {
		t.Errorf("FullText = %q", got)
	}
	if got := doc.Slides[0].Shapes[2].Table.Cell(0, 0).Text; got != "X" {
		t.Errorf("cell text = %q", got)
	}
	if got := doc.Slides[0].Notes.FullText; got != "Say hi" {
		t.Errorf("notes = %q", got)
	}
	if doc.Slides[0].Shapes[1].FullText != "" {
		t.Error("group without text frame should keep an empty FullText")
	}
}

func TestRefreshDerivedChartLegend(t *testing.T) {
	doc := sampleContent()
	for _, l := range doc.Leaves() {
		switch l.Kind {
		case LeafSeriesName:
			l.SetText("Nord")
		case LeafCategory:
			l.SetText("T1")
		}
	}
	doc.RefreshDerived()

	chart := doc.Slides[0].Shapes[3].Chart
	if chart.Legend[0].Text != "Nord" {
		t.Errorf("legend = %q, want the translated series name", chart.Legend[0].Text)
	}
	if chart.Series[0].Categories[0] != "T1" {
		t.Errorf("series categories = %v", chart.Series[0].Categories)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleContent())
	if s.Shapes != 9 || s.ElementTypes["Group"] != 2 || s.ElementTypes["TextBox"] != 3 {
		t.Errorf("shape counts = %d %v", s.Shapes, s.ElementTypes)
	}
	if s.Leaves != 14 || s.Tables != 1 || s.Charts != 1 || s.SmartArt != 1 || s.Notes != 1 {
		t.Errorf("summary = %+v", s)
	}
	if s.Fonts["Arial"] != 1 {
		t.Errorf("fonts = %v", s.Fonts)
	}
	if keys := SortedKeys(map[string]int{"b": 1, "a": 1, "c": 5}); strings.Join(keys, ",") != "c,a,b" {
		t.Errorf("SortedKeys = %v", keys)
	}
}
