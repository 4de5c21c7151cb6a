// Package report renders translation records and run summaries: an xlsx
// workbook pairing every source leaf with its translation, and aligned
// plain-text tables for the terminal.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"pptx-translator/internal/content"
	"pptx-translator/internal/translator"
	"pptx-translator/internal/types"
)

// Record statuses.
const (
	StatusTranslated = "translated"
	StatusUnchanged  = "unchanged"
	StatusEmpty      = "empty"
)

// Record pairs one source leaf with its translation.
type Record struct {
	Location    string
	Unit        string
	ElementType string
	Kind        content.LeafKind
	Original    string
	Translated  string
	Status      string
	RTL         bool
}

// BuildRecords pairs the leaves of two isomorphic trees in document order.
func BuildRecords(source, translated *content.DocumentContent) ([]Record, error) {
	if source == nil || translated == nil {
		return nil, types.NewAppError(types.ErrInvalidInput, "both content trees are required", nil)
	}
	if err := content.CheckIsomorphic(source, translated); err != nil {
		return nil, err
	}
	src, dst := source.Leaves(), translated.Leaves()
	records := make([]Record, len(src))
	for i, l := range src {
		rec := Record{
			Location:    l.Path,
			Unit:        l.Unit,
			ElementType: l.ElementType,
			Kind:        l.Kind,
			Original:    l.Text(),
			Translated:  dst[i].Text(),
			RTL:         translator.ContainsRTL(dst[i].Text()),
		}
		switch {
		case strings.TrimSpace(rec.Original) == "":
			rec.Status = StatusEmpty
		case rec.Original == rec.Translated:
			rec.Status = StatusUnchanged
		default:
			rec.Status = StatusTranslated
		}
		records[i] = rec
	}
	return records, nil
}

// RecordCounts tallies records by status.
func RecordCounts(records []Record) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Status]++
	}
	return counts
}

const (
	recordsSheet = "Translations"
	summarySheet = "Summary"
)

var recordHeader = []interface{}{"Location", "Unit", "Element Type", "Kind", "Original", "Translated", "Status", "RTL"}

// WriteRecords writes the records workbook to path. The file appears only
// once it is complete.
func WriteRecords(path string, records []Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := fillRecords(f, records); err != nil {
		return types.NewAppError(types.ErrInternal, "failed to build records workbook", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return types.NewAppError(types.ErrIO, "failed to create output directory", err)
	}
	tmp, err := os.CreateTemp(dir, ".records-*.xlsx")
	if err != nil {
		return types.NewAppError(types.ErrIO, "failed to create temp file", err)
	}
	tmpName := tmp.Name()
	if err := f.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return types.NewAppError(types.ErrIO, "failed to write records workbook", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return types.NewAppError(types.ErrIO, "failed to write records workbook", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return types.NewAppError(types.ErrIO, "failed to move records workbook into place", err)
	}
	return nil
}

func fillRecords(f *excelize.File, records []Record) error {
	if err := f.SetSheetName("Sheet1", recordsSheet); err != nil {
		return err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDE4EE"}},
	})
	if err != nil {
		return err
	}
	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return err
	}
	rtl, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top", Horizontal: "right", ReadingOrder: 2},
	})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(recordsSheet, "A1", &recordHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(recordsSheet, "A1", "H1", header); err != nil {
		return err
	}
	for i, r := range records {
		row := i + 2
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		rtlMark := ""
		if r.RTL {
			rtlMark = "yes"
		}
		values := []interface{}{r.Location, r.Unit, r.ElementType, string(r.Kind), r.Original, r.Translated, r.Status, rtlMark}
		if err := f.SetSheetRow(recordsSheet, cell, &values); err != nil {
			return err
		}
		if err := f.SetCellStyle(recordsSheet, fmt.Sprintf("E%d", row), fmt.Sprintf("E%d", row), wrap); err != nil {
			return err
		}
		style := wrap
		if r.RTL {
			style = rtl
		}
		if err := f.SetCellStyle(recordsSheet, fmt.Sprintf("F%d", row), fmt.Sprintf("F%d", row), style); err != nil {
			return err
		}
	}

	for _, w := range []struct {
		col   string
		width float64
	}{{"A", 48}, {"B", 12}, {"C", 16}, {"D", 14}, {"E", 50}, {"F", 50}, {"G", 12}, {"H", 6}} {
		if err := f.SetColWidth(recordsSheet, w.col, w.col, w.width); err != nil {
			return err
		}
	}
	if err := f.SetPanes(recordsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	if len(records) > 0 {
		if err := f.AutoFilter(recordsSheet, fmt.Sprintf("A1:H%d", len(records)+1), nil); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	counts := RecordCounts(records)
	rows := [][]interface{}{
		{"Status", "Count"},
		{StatusTranslated, counts[StatusTranslated]},
		{StatusUnchanged, counts[StatusUnchanged]},
		{StatusEmpty, counts[StatusEmpty]},
		{"total", len(records)},
	}
	for i, row := range rows {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", "B1", header); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "A", "A", 16)
}
