// Package content defines the serializable content tree shared by the
// extract, translate and reassemble stages. The tree mirrors the shape
// tree of the presentation: shape ids are the only join key between
// stages, everything below a shape is addressed by index.
package content

import (
	"strings"

	"pptx-translator/internal/pptx"
)

// FormatVersion is written into every saved tree.
const FormatVersion = 2

// DocumentContent 文档内容
type DocumentContent struct {
	Version        int             `json:"version"`
	Source         string          `json:"source"`
	TargetLanguage string          `json:"target_language,omitempty"`
	RTL            bool            `json:"rtl,omitempty"`
	Masters        []*MasterRecord `json:"masters"`
	Layouts        []*LayoutRecord `json:"layouts"`
	Slides         []*SlideRecord  `json:"slides"`
}

// MasterRecord is a slide master. Index is 1-based.
type MasterRecord struct {
	Index  int             `json:"index"`
	Part   string          `json:"part"`
	Name   string          `json:"name,omitempty"`
	Shapes []*ShapeElement `json:"shapes"`
}

// LayoutRecord is a slide layout.
type LayoutRecord struct {
	Index  int             `json:"index"`
	Part   string          `json:"part"`
	Name   string          `json:"name,omitempty"`
	Master string          `json:"master,omitempty"`
	Shapes []*ShapeElement `json:"shapes"`
}

// SlideRecord is a slide with its optional speaker notes.
type SlideRecord struct {
	Index      int             `json:"index"`
	Part       string          `json:"part"`
	Layout     string          `json:"layout,omitempty"`
	Shapes     []*ShapeElement `json:"shapes"`
	Notes      *NotesRecord    `json:"notes,omitempty"`
	Hyperlinks []string        `json:"hyperlinks,omitempty"`
}

// NotesRecord is the body placeholder of a notes slide.
type NotesRecord struct {
	Part       string       `json:"part"`
	ShapeID    int          `json:"shape_id"`
	Paragraphs []*Paragraph `json:"paragraphs"`
	FullText   string       `json:"full_text"`
}

// ShapeElement 形状元素. Group shapes nest their members in Shapes.
type ShapeElement struct {
	ID           int               `json:"shape_id"`
	Name         string            `json:"name"`
	ElementType  string            `json:"element_type"`
	HasTextFrame bool              `json:"has_text_frame"`
	Hidden       bool              `json:"hidden,omitempty"`
	Description  string            `json:"description,omitempty"`
	Geometry     *pptx.Geometry    `json:"geometry,omitempty"`
	Placeholder  *pptx.Placeholder `json:"placeholder,omitempty"`
	Style        *pptx.Style       `json:"style,omitempty"`
	Frame        *pptx.FrameProps  `json:"frame,omitempty"`
	Paragraphs   []*Paragraph      `json:"paragraphs,omitempty"`
	FullText     string            `json:"full_text,omitempty"`
	Table        *TableElement     `json:"table,omitempty"`
	Chart        *ChartElement     `json:"chart,omitempty"`
	SmartArt     *SmartArtElement  `json:"smartart,omitempty"`
	Shapes       []*ShapeElement   `json:"shapes,omitempty"`
	// Degraded is set when formatting could not be read and only text
	// was captured.
	Degraded bool `json:"degraded,omitempty"`
}

// ShapeID returns the shape identity.
func (s *ShapeElement) ShapeID() int { return s.ID }

// Children returns the members of a group.
func (s *ShapeElement) Children() []*ShapeElement { return s.Shapes }

// Paragraph is an ordered sequence of runs.
type Paragraph struct {
	Index  int                  `json:"index"`
	Format *pptx.ParagraphProps `json:"format,omitempty"`
	Runs   []*TextRun           `json:"runs"`
}

// Text concatenates the run texts.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// TextRun is the unit of translation.
type TextRun struct {
	Index int            `json:"index"`
	Text  string         `json:"text"`
	Style *pptx.RunProps `json:"style,omitempty"`
	Link  string         `json:"link,omitempty"`
}

// TableElement holds every cell keyed by (row, column).
type TableElement struct {
	Rows    int          `json:"rows"`
	Columns int          `json:"columns"`
	Cells   []*TableCell `json:"cells"`
}

// Cell returns the cell at (row, col), or nil.
func (t *TableElement) Cell(row, col int) *TableCell {
	for _, c := range t.Cells {
		if c.Row == row && c.Column == col {
			return c
		}
	}
	return nil
}

// TableCell is one grid cell.
type TableCell struct {
	Row        int          `json:"row"`
	Column     int          `json:"column"`
	Merge      *pptx.Merge  `json:"merge,omitempty"`
	Paragraphs []*Paragraph `json:"paragraphs"`
	Text       string       `json:"text"`
}

// ChartElement 图表元素. Absent titles are nil, never empty.
type ChartElement struct {
	ChartType         string           `json:"chart_type"`
	Part              string           `json:"part"`
	Title             *ChartText       `json:"title,omitempty"`
	CategoryAxisTitle *ChartText       `json:"category_axis_title,omitempty"`
	ValueAxisTitle    *ChartText       `json:"value_axis_title,omitempty"`
	SeriesAxisTitle   *ChartText       `json:"series_axis_title,omitempty"`
	Categories        []*CategoryLabel `json:"categories,omitempty"`
	Legend            []*LegendEntry   `json:"legend,omitempty"`
	Series            []*ChartSeries   `json:"series,omitempty"`
}

// CategoryLabel is one text category of the plot, shared by every series.
type CategoryLabel struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// ChartText is a rich-text chart label; paragraphs are joined with "\n".
type ChartText struct {
	Text string `json:"text"`
}

// Legend entry sources.
const (
	LegendSeries   = "series"
	LegendCategory = "category"
)

// LegendEntry is one visible legend line. Index is the series index or,
// for vary-colours charts, the category index. The text mirrors the
// series name or category label and is not translated on its own.
type LegendEntry struct {
	Index  int    `json:"index"`
	Source string `json:"source"`
	Text   string `json:"text"`
}

// ChartSeries holds the cached series data; its name and labels are leaves.
type ChartSeries struct {
	Index      int          `json:"index"`
	Name       string       `json:"name,omitempty"`
	Values     []*float64   `json:"values,omitempty"`
	Categories []string     `json:"categories,omitempty"`
	DataLabels []*DataLabel `json:"data_labels,omitempty"`
}

// DataLabel is a custom per-point label.
type DataLabel struct {
	Point int    `json:"point"`
	Text  string `json:"text"`
}

// SmartArtElement holds the nodes of a diagram data part.
type SmartArtElement struct {
	DataPart   string          `json:"data_part"`
	LayoutType string          `json:"layout_type,omitempty"`
	Nodes      []*SmartArtNode `json:"nodes"`
}

// SmartArtNode is a content point of the data model.
type SmartArtNode struct {
	ModelID    string       `json:"model_id"`
	Type       string       `json:"type"`
	ParentID   string       `json:"parent_id,omitempty"`
	Level      int          `json:"level"`
	Paragraphs []*Paragraph `json:"paragraphs"`
	Text       string       `json:"text"`
}

// ParagraphsText joins paragraph texts the way text frames display them.
func ParagraphsText(ps []*Paragraph) string {
	lines := make([]string, len(ps))
	for i, p := range ps {
		lines[i] = p.Text()
	}
	return strings.Join(lines, "\n")
}
