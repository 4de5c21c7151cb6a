package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"pptx-translator/internal/types"
)

// Marshal encodes the tree as indented JSON without HTML escaping, so
// "<", ">" and "&" in slide text stay readable.
func Marshal(d *DocumentContent) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the tree to path through a temp file in the same
// directory, so an interrupted save never leaves a truncated file.
func Save(path string, d *DocumentContent) error {
	data, err := Marshal(d)
	if err != nil {
		return types.NewAppError(types.ErrInternal, "failed to encode content", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return types.NewAppError(types.ErrIO, "failed to create output directory", err)
	}
	tmp, err := os.CreateTemp(dir, ".content-*.json")
	if err != nil {
		return types.NewAppErrorWithDetails(types.ErrIO, "failed to create temp file", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return types.NewAppErrorWithDetails(types.ErrIO, "failed to write content file", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return types.NewAppErrorWithDetails(types.ErrIO, "failed to write content file", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return types.NewAppErrorWithDetails(types.ErrIO, "failed to write content file", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return types.NewAppErrorWithDetails(types.ErrIO, "failed to move content file into place", path, err)
	}
	return nil
}

// Load reads and validates a tree.
func Load(path string) (*DocumentContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewAppErrorWithDetails(types.ErrFileNotFound, "content file not found", path, err)
		}
		return nil, types.NewAppErrorWithDetails(types.ErrIO, "failed to read content file", path, err)
	}
	return Unmarshal(data)
}

// Unmarshal decodes and validates a tree.
func Unmarshal(data []byte) (*DocumentContent, error) {
	var d DocumentContent
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, types.NewAppError(types.ErrInvalidInput, "content is not valid JSON", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Clone returns a deep copy.
func (d *DocumentContent) Clone() *DocumentContent {
	data, err := json.Marshal(d)
	if err != nil {
		panic(fmt.Sprintf("content: clone: %v", err))
	}
	var out DocumentContent
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("content: clone: %v", err))
	}
	return &out
}

// Validate checks the structural rules a deserialized tree must follow:
// no nil nodes and unique paragraph and run indices. Duplicate shape ids
// are legal input; reassembly addresses the first occurrence and records
// the rest.
func (d *DocumentContent) Validate() error {
	if d.Version > FormatVersion {
		return types.Errorf(types.ErrInvalidInput, "unsupported content version %d", d.Version)
	}
	check := func(unit string, roots []*ShapeElement) error {
		stack := append([]*ShapeElement(nil), roots...)
		for len(stack) > 0 {
			s := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if s == nil {
				return types.Errorf(types.ErrInvalidInput, "%s: null shape", unit)
			}
			path := ShapePath(unit, s.ID)
			if err := validParagraphs(path, s.Paragraphs); err != nil {
				return err
			}
			if s.Table != nil {
				for _, c := range s.Table.Cells {
					if c == nil {
						return types.Errorf(types.ErrInvalidInput, "%s: null table cell", path)
					}
					if err := validParagraphs(path, c.Paragraphs); err != nil {
						return err
					}
				}
			}
			if c := s.Chart; c != nil {
				if err := validChart(path, c); err != nil {
					return err
				}
			}
			if s.SmartArt != nil {
				for _, n := range s.SmartArt.Nodes {
					if n == nil {
						return types.Errorf(types.ErrInvalidInput, "%s: null diagram node", path)
					}
					if err := validParagraphs(path, n.Paragraphs); err != nil {
						return err
					}
				}
			}
			stack = append(stack, s.Shapes...)
		}
		return nil
	}
	for i, m := range d.Masters {
		if m == nil {
			return types.Errorf(types.ErrInvalidInput, "master %d is null", i)
		}
		if err := check(UnitMaster(m.Index), m.Shapes); err != nil {
			return err
		}
	}
	for i, l := range d.Layouts {
		if l == nil {
			return types.Errorf(types.ErrInvalidInput, "layout %d is null", i)
		}
		if err := check(UnitLayout(l.Index), l.Shapes); err != nil {
			return err
		}
	}
	for i, s := range d.Slides {
		if s == nil {
			return types.Errorf(types.ErrInvalidInput, "slide %d is null", i)
		}
		if err := check(UnitSlide(s.Index), s.Shapes); err != nil {
			return err
		}
		if s.Notes != nil {
			if err := validParagraphs(UnitSlide(s.Index)+"/notes", s.Notes.Paragraphs); err != nil {
				return err
			}
		}
	}
	return nil
}

func validChart(path string, c *ChartElement) error {
	for _, cat := range c.Categories {
		if cat == nil {
			return types.Errorf(types.ErrInvalidInput, "%s/chart: null category", path)
		}
	}
	for _, le := range c.Legend {
		if le == nil {
			return types.Errorf(types.ErrInvalidInput, "%s/chart: null legend entry", path)
		}
	}
	for _, ser := range c.Series {
		if ser == nil {
			return types.Errorf(types.ErrInvalidInput, "%s/chart: null series", path)
		}
		for _, dl := range ser.DataLabels {
			if dl == nil {
				return types.Errorf(types.ErrInvalidInput, "%s/chart/series[%d]: null data label", path, ser.Index)
			}
		}
	}
	return nil
}

func validParagraphs(path string, ps []*Paragraph) error {
	seenP := make(map[int]bool, len(ps))
	for _, p := range ps {
		if p == nil {
			return types.Errorf(types.ErrInvalidInput, "%s: null paragraph", path)
		}
		if p.Index < 0 || seenP[p.Index] {
			return types.Errorf(types.ErrInvalidInput, "%s: bad paragraph index %d", path, p.Index)
		}
		seenP[p.Index] = true
		seenR := make(map[int]bool, len(p.Runs))
		for _, r := range p.Runs {
			if r == nil {
				return types.Errorf(types.ErrInvalidInput, "%s/p[%d]: null run", path, p.Index)
			}
			if r.Index < 0 || seenR[r.Index] {
				return types.Errorf(types.ErrInvalidInput, "%s/p[%d]: bad run index %d", path, p.Index, r.Index)
			}
			seenR[r.Index] = true
		}
	}
	return nil
}

// CheckIsomorphic reports the first structural difference between two
// trees, comparing leaf paths in order. Texts may differ.
func CheckIsomorphic(a, b *DocumentContent) error {
	la, lb := a.Leaves(), b.Leaves()
	n := min(len(la), len(lb))
	for i := 0; i < n; i++ {
		if la[i].Path != lb[i].Path {
			return types.NewAppErrorWithDetails(types.ErrStructuralMismatch, "content trees differ",
				fmt.Sprintf("leaf %d: %s vs %s", i, la[i].Path, lb[i].Path), nil)
		}
	}
	if len(la) != len(lb) {
		return types.NewAppErrorWithDetails(types.ErrStructuralMismatch, "content trees differ",
			fmt.Sprintf("%d leaves vs %d", len(la), len(lb)), nil)
	}
	return nil
}
