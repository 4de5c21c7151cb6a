package content

import "sort"

// Summary counts what an extraction captured.
type Summary struct {
	Masters      int            `json:"masters"`
	Layouts      int            `json:"layouts"`
	Slides       int            `json:"slides"`
	Shapes       int            `json:"shapes"`
	ElementTypes map[string]int `json:"element_types"`
	Paragraphs   int            `json:"paragraphs"`
	Runs         int            `json:"runs"`
	Leaves       int            `json:"leaves"`
	Characters   int            `json:"characters"`
	Fonts        map[string]int `json:"fonts"`
	Bullets      map[string]int `json:"bullets"`
	Tables       int            `json:"tables"`
	Charts       int            `json:"charts"`
	SmartArt     int            `json:"smartart"`
	Notes        int            `json:"notes"`
	Hyperlinks   int            `json:"hyperlinks"`
	Degraded     int            `json:"degraded"`
}

// Summarize walks the tree once and counts element kinds, fonts and
// bullet styles.
func Summarize(d *DocumentContent) *Summary {
	s := &Summary{
		Masters:      len(d.Masters),
		Layouts:      len(d.Layouts),
		Slides:       len(d.Slides),
		ElementTypes: make(map[string]int),
		Fonts:        make(map[string]int),
		Bullets:      make(map[string]int),
	}
	countParagraphs := func(ps []*Paragraph) {
		for _, p := range ps {
			s.Paragraphs++
			if p.Format != nil && p.Format.Bullet != nil {
				s.Bullets[p.Format.Bullet.Type]++
			}
			for _, r := range p.Runs {
				s.Runs++
				if r.Style != nil && r.Style.Font != "" {
					s.Fonts[r.Style.Font]++
				}
			}
		}
	}
	d.WalkShapes(func(_ string, sh *ShapeElement) {
		s.Shapes++
		s.ElementTypes[sh.ElementType]++
		if sh.Degraded {
			s.Degraded++
		}
		countParagraphs(sh.Paragraphs)
		if sh.Table != nil {
			s.Tables++
			for _, c := range sh.Table.Cells {
				countParagraphs(c.Paragraphs)
			}
		}
		if sh.Chart != nil {
			s.Charts++
		}
		if sh.SmartArt != nil {
			s.SmartArt++
			for _, n := range sh.SmartArt.Nodes {
				countParagraphs(n.Paragraphs)
			}
		}
	})
	for _, sl := range d.Slides {
		s.Hyperlinks += len(sl.Hyperlinks)
		if sl.Notes != nil {
			s.Notes++
			countParagraphs(sl.Notes.Paragraphs)
		}
	}
	for _, l := range d.Leaves() {
		s.Leaves++
		s.Characters += len([]rune(l.Text()))
	}
	return s
}

// SortedKeys returns map keys ordered by descending count, then name.
func SortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
