package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"pptx-translator/internal/content"
	"pptx-translator/internal/errors"
	"pptx-translator/internal/types"
)

// MaxCellWidth bounds a rendered cell; longer text is truncated.
const MaxCellWidth = 60

// Table is a plain-text table. Column widths are measured in terminal
// cells, so CJK and Arabic text stay aligned.
type Table struct {
	Title  string
	Header []string
	Rows   [][]string
	// RightAlign marks numeric columns.
	RightAlign map[int]bool
}

// Render writes the table with a rule under the header.
func (t *Table) Render(w io.Writer) error {
	cols := len(t.Header)
	for _, r := range t.Rows {
		cols = max(cols, len(r))
	}
	if cols == 0 {
		return nil
	}
	cell := func(row []string, c int) string {
		if c >= len(row) {
			return ""
		}
		s := strings.NewReplacer("\n", " ", "\v", " ", "\t", " ").Replace(row[c])
		return runewidth.Truncate(s, MaxCellWidth, "…")
	}

	widths := make([]int, cols)
	for c := range widths {
		widths[c] = runewidth.StringWidth(cell(t.Header, c))
		for _, r := range t.Rows {
			widths[c] = max(widths[c], runewidth.StringWidth(cell(r, c)))
		}
	}

	var sb strings.Builder
	line := func(row []string) {
		for c := 0; c < cols; c++ {
			if c > 0 {
				sb.WriteString("  ")
			}
			s := cell(row, c)
			switch {
			case t.RightAlign[c]:
				sb.WriteString(runewidth.FillLeft(s, widths[c]))
			case c == cols-1:
				sb.WriteString(s)
			default:
				sb.WriteString(runewidth.FillRight(s, widths[c]))
			}
		}
		sb.WriteString("\n")
	}

	if t.Title != "" {
		sb.WriteString(t.Title)
		sb.WriteString("\n")
	}
	if len(t.Header) > 0 {
		line(t.Header)
		rule := make([]string, cols)
		for c := range rule {
			rule[c] = strings.Repeat("-", widths[c])
		}
		line(rule)
	}
	for _, r := range t.Rows {
		line(r)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// countTable lists map entries by descending count.
func countTable(title, label string, m map[string]int) *Table {
	t := &Table{Title: title, Header: []string{label, "Count"}, RightAlign: map[int]bool{1: true}}
	for _, k := range content.SortedKeys(m) {
		t.Rows = append(t.Rows, []string{k, strconv.Itoa(m[k])})
	}
	return t
}

// WriteSummary renders an extraction summary.
func WriteSummary(w io.Writer, s *content.Summary) error {
	totals := &Table{
		Title:      "Content",
		Header:     []string{"Item", "Count"},
		RightAlign: map[int]bool{1: true},
	}
	for _, kv := range []struct {
		k string
		v int
	}{
		{"masters", s.Masters},
		{"layouts", s.Layouts},
		{"slides", s.Slides},
		{"shapes", s.Shapes},
		{"paragraphs", s.Paragraphs},
		{"runs", s.Runs},
		{"translatable texts", s.Leaves},
		{"characters", s.Characters},
		{"tables", s.Tables},
		{"charts", s.Charts},
		{"smartart", s.SmartArt},
		{"notes", s.Notes},
		{"hyperlinks", s.Hyperlinks},
		{"degraded", s.Degraded},
	} {
		totals.Rows = append(totals.Rows, []string{kv.k, strconv.Itoa(kv.v)})
	}

	tables := []*Table{totals, countTable("Element types", "Type", s.ElementTypes)}
	if len(s.Fonts) > 0 {
		tables = append(tables, countTable("Fonts", "Font", s.Fonts))
	}
	if len(s.Bullets) > 0 {
		tables = append(tables, countTable("Bullets", "Bullet", s.Bullets))
	}
	for i, t := range tables {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := t.Render(w); err != nil {
			return err
		}
	}
	return nil
}

// WriteIssues renders issue records, one row each.
func WriteIssues(w io.Writer, records []errors.ErrorRecord) error {
	if len(records) == 0 {
		_, err := io.WriteString(w, "No issues.\n")
		return err
	}
	t := &Table{
		Title:  fmt.Sprintf("Issues (%d)", len(records)),
		Header: []string{"Stage", "Code", "Location", "Message"},
	}
	for _, r := range records {
		t.Rows = append(t.Rows, []string{string(r.Stage), string(r.Code), r.Location, r.Message})
	}
	return t.Render(w)
}

// WriteIssueSummary renders issue counts by stage and code, stages in
// pipeline order.
func WriteIssueSummary(w io.Writer, s *errors.Summary) error {
	t := &Table{
		Title:      fmt.Sprintf("Issue summary (%d)", s.Total),
		Header:     []string{"Stage", "Code", "Count"},
		RightAlign: map[int]bool{2: true},
	}
	for _, st := range []types.Stage{types.StageExtract, types.StageTranslate, types.StageReassemble, types.StageReport} {
		for _, code := range s.Codes() {
			if n := s.ByStage[st][code]; n > 0 {
				t.Rows = append(t.Rows, []string{string(st), errors.GetCodeDisplayName(code), strconv.Itoa(n)})
			}
		}
	}
	return t.Render(w)
}
