package pptx

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// TextFrame wraps a CT_TextBody: p:txBody on shapes, a:txBody in table
// cells, c:rich in charts, dgm:t in diagram data and dsp:txBody in
// diagram drawings.
type TextFrame struct {
	el   *etree.Element
	part *Part
}

func newTextFrame(el *etree.Element, part *Part) *TextFrame {
	if el == nil {
		return nil
	}
	return &TextFrame{el: el, part: part}
}

// Element returns the underlying text body element.
func (tf *TextFrame) Element() *etree.Element {
	return tf.el
}

// Paragraphs returns the a:p children in order.
func (tf *TextFrame) Paragraphs() []*Paragraph {
	ps := children(tf.el, "p")
	out := make([]*Paragraph, len(ps))
	for i, p := range ps {
		out[i] = &Paragraph{el: p, part: tf.part}
	}
	return out
}

// Text joins paragraph texts with newlines.
func (tf *TextFrame) Text() string {
	ps := tf.Paragraphs()
	lines := make([]string, len(ps))
	for i, p := range ps {
		lines[i] = p.Text()
	}
	return strings.Join(lines, "\n")
}

// FrameProps are the text body properties of interest (a:bodyPr).
type FrameProps struct {
	Wrap     string `json:"wrap,omitempty"`
	Autofit  string `json:"autofit,omitempty"` // none, shape, normal
	Anchor   string `json:"anchor,omitempty"`
	Vertical string `json:"vertical,omitempty"`
	// FontScale is the shrink factor PowerPoint stored for normAutofit, in percent.
	FontScale   *float64 `json:"font_scale,omitempty"`
	InsetLeft   *int64   `json:"inset_left,omitempty"`
	InsetRight  *int64   `json:"inset_right,omitempty"`
	InsetTop    *int64   `json:"inset_top,omitempty"`
	InsetBottom *int64   `json:"inset_bottom,omitempty"`
}

func (tf *TextFrame) bodyPr() *etree.Element {
	return child(tf.el, "bodyPr")
}

// Properties reads a:bodyPr.
func (tf *TextFrame) Properties() (FrameProps, error) {
	var fp FrameProps
	bp := tf.bodyPr()
	if bp == nil {
		return fp, nil
	}
	fp.Wrap = attrOr(bp, "wrap", "")
	fp.Anchor = attrOr(bp, "anchor", "")
	fp.Vertical = attrOr(bp, "vert", "")
	switch {
	case child(bp, "normAutofit") != nil:
		fp.Autofit = "normal"
		if n, ok, err := intAttr(child(bp, "normAutofit"), "fontScale"); err != nil {
			return fp, err
		} else if ok {
			scale := float64(n) / 1000
			fp.FontScale = &scale
		}
	case child(bp, "spAutoFit") != nil:
		fp.Autofit = "shape"
	case child(bp, "noAutofit") != nil:
		fp.Autofit = "none"
	}
	for key, dst := range map[string]**int64{"lIns": &fp.InsetLeft, "rIns": &fp.InsetRight, "tIns": &fp.InsetTop, "bIns": &fp.InsetBottom} {
		n, ok, err := int64Attr(bp, key)
		if err != nil {
			return fp, err
		}
		if ok {
			v := n
			*dst = &v
		}
	}
	return fp, nil
}

// EnableShrinkToFit turns on "shrink text on overflow" for a frame whose
// size is fixed. Frames that already autofit (shape resize or shrink) are
// left alone. It reports whether the frame changed.
func (tf *TextFrame) EnableShrinkToFit() bool {
	bp := tf.bodyPr()
	if bp == nil {
		// bodyPr is DrawingML even inside p:txBody; borrow the prefix of a:p.
		bp = etree.NewElement("a:bodyPr")
		if p := child(tf.el, "p"); p != nil {
			bp = newElement(p, "bodyPr")
		}
		insertFirst(tf.el, bp)
	}
	if child(bp, "normAutofit") != nil || child(bp, "spAutoFit") != nil {
		return false
	}
	if no := child(bp, "noAutofit"); no != nil {
		bp.RemoveChild(no)
	}
	fit := newElement(bp, "normAutofit")
	if warp := child(bp, "prstTxWarp"); warp != nil {
		bp.InsertChildAt(warp.Index()+1, fit)
	} else {
		insertFirst(bp, fit)
	}
	if attrOr(bp, "wrap", "") == "none" {
		bp.CreateAttr("wrap", "square")
	}
	tf.part.MarkDirty()
	return true
}

// Paragraph wraps a:p.
type Paragraph struct {
	el   *etree.Element
	part *Part
}

// Runs returns the a:r children in order. Fields (a:fld) and breaks are
// not runs.
func (p *Paragraph) Runs() []*Run {
	rs := children(p.el, "r")
	out := make([]*Run, len(rs))
	for i, r := range rs {
		out[i] = &Run{el: r, part: p.part}
	}
	return out
}

// Text concatenates run texts; a:br contributes a vertical tab like
// PowerPoint's own plain-text export.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, c := range p.el.ChildElements() {
		switch c.Tag {
		case "r", "fld":
			sb.WriteString(elementText(child(c, "t")))
		case "br":
			sb.WriteString("\v")
		}
	}
	return sb.String()
}

// Bullet describes a paragraph bullet.
type Bullet struct {
	Type    string `json:"type"` // char, autonum, picture, none
	Char    string `json:"char,omitempty"`
	Scheme  string `json:"scheme,omitempty"`
	StartAt int    `json:"start_at,omitempty"`
	Font    string `json:"font,omitempty"`
}

// Spacing is a paragraph spacing value in percent (1/1000) or points (1/100).
type Spacing struct {
	Unit  string `json:"unit"` // pct or pts
	Value int    `json:"value"`
}

// ParagraphProps are the a:pPr attributes of interest.
type ParagraphProps struct {
	Alignment   string   `json:"alignment,omitempty"`
	Level       int      `json:"level,omitempty"`
	MarginLeft  *int64   `json:"margin_left,omitempty"`
	MarginRight *int64   `json:"margin_right,omitempty"`
	Indent      *int64   `json:"indent,omitempty"`
	RTL         bool     `json:"rtl,omitempty"`
	Bullet      *Bullet  `json:"bullet,omitempty"`
	SpaceBefore *Spacing `json:"space_before,omitempty"`
	SpaceAfter  *Spacing `json:"space_after,omitempty"`
	LineSpacing *Spacing `json:"line_spacing,omitempty"`
}

func (p *Paragraph) pPr() *etree.Element {
	return child(p.el, "pPr")
}

// Properties reads a:pPr.
func (p *Paragraph) Properties() (ParagraphProps, error) {
	var pp ParagraphProps
	pr := p.pPr()
	if pr == nil {
		return pp, nil
	}
	pp.Alignment = attrOr(pr, "algn", "")
	lvl, _, err := intAttr(pr, "lvl")
	if err != nil {
		return pp, err
	}
	pp.Level = lvl
	if pp.RTL, _, err = boolAttr(pr, "rtl"); err != nil {
		return pp, err
	}
	for key, dst := range map[string]**int64{"marL": &pp.MarginLeft, "marR": &pp.MarginRight, "indent": &pp.Indent} {
		n, ok, err := int64Attr(pr, key)
		if err != nil {
			return pp, err
		}
		if ok {
			v := n
			*dst = &v
		}
	}

	switch {
	case child(pr, "buNone") != nil:
		pp.Bullet = &Bullet{Type: "none"}
	case child(pr, "buChar") != nil:
		pp.Bullet = &Bullet{Type: "char", Char: attrOr(child(pr, "buChar"), "char", "")}
	case child(pr, "buAutoNum") != nil:
		an := child(pr, "buAutoNum")
		start, _, err := intAttr(an, "startAt")
		if err != nil {
			return pp, err
		}
		pp.Bullet = &Bullet{Type: "autonum", Scheme: attrOr(an, "type", ""), StartAt: start}
	case child(pr, "buBlip") != nil:
		pp.Bullet = &Bullet{Type: "picture"}
	}
	if pp.Bullet != nil {
		pp.Bullet.Font = attrOr(child(pr, "buFont"), "typeface", "")
	}

	for local, dst := range map[string]**Spacing{"spcBef": &pp.SpaceBefore, "spcAft": &pp.SpaceAfter, "lnSpc": &pp.LineSpacing} {
		sp, err := readSpacing(child(pr, local))
		if err != nil {
			return pp, err
		}
		*dst = sp
	}
	return pp, nil
}

func readSpacing(e *etree.Element) (*Spacing, error) {
	if e == nil {
		return nil, nil
	}
	for _, unit := range []string{"spcPct", "spcPts"} {
		if c := child(e, unit); c != nil {
			n, _, err := intAttr(c, "val")
			if err != nil {
				return nil, err
			}
			return &Spacing{Unit: strings.TrimPrefix(strings.ToLower(unit), "spc"), Value: n}, nil
		}
	}
	return nil, nil
}

// SetRTL marks the paragraph right-to-left. Left or unspecified alignment
// becomes right alignment; centred and justified text keep theirs.
func (p *Paragraph) SetRTL() bool {
	pr := p.pPr()
	if pr == nil {
		pr = newElement(p.el, "pPr")
		insertFirst(p.el, pr)
	}
	changed := attrOr(pr, "rtl", "") != "1"
	pr.CreateAttr("rtl", "1")
	if algn := attrOr(pr, "algn", ""); algn == "" || algn == "l" {
		pr.CreateAttr("algn", "r")
		changed = true
	}
	if changed {
		p.part.MarkDirty()
	}
	return changed
}

// AppendRun adds an empty run, used when a paragraph without runs must
// receive text. The run copies the paragraph's end-of-paragraph formatting.
func (p *Paragraph) AppendRun() *Run {
	r := newElement(p.el, "r")
	if end := child(p.el, "endParaRPr"); end != nil {
		rpr := end.Copy()
		rpr.Tag = "rPr"
		r.AddChild(rpr)
	}
	r.AddChild(newElement(p.el, "t"))
	insertBefore(p.el, r, "endParaRPr")
	p.part.MarkDirty()
	return &Run{el: r, part: p.part}
}

// Run wraps a:r.
type Run struct {
	el   *etree.Element
	part *Part
}

// Text returns the a:t content.
func (r *Run) Text() string {
	return elementText(child(r.el, "t"))
}

// SetText replaces the a:t content and reports whether it changed.
func (r *Run) SetText(s string) bool {
	t := child(r.el, "t")
	if t == nil {
		t = newElement(r.el, "t")
		r.el.AddChild(t)
	} else if t.Text() == s {
		return false
	}
	t.SetText(s)
	r.part.MarkDirty()
	return true
}

// RunProps are the a:rPr attributes of interest.
type RunProps struct {
	Language  string   `json:"language,omitempty"`
	Font      string   `json:"font,omitempty"`
	FontEA    string   `json:"font_east_asian,omitempty"`
	FontCS    string   `json:"font_complex,omitempty"`
	Size      *float64 `json:"size,omitempty"` // points
	Bold      *bool    `json:"bold,omitempty"`
	Italic    *bool    `json:"italic,omitempty"`
	Underline string   `json:"underline,omitempty"`
	Strike    string   `json:"strike,omitempty"`
	Caps      string   `json:"caps,omitempty"`
	Baseline  *int     `json:"baseline,omitempty"`
	Spacing   *int     `json:"spacing,omitempty"`
	Color     string   `json:"color,omitempty"`
	Highlight string   `json:"highlight,omitempty"`
	RTL       bool     `json:"rtl,omitempty"`
	// HyperlinkID is the relationship id of a click hyperlink.
	HyperlinkID string `json:"-"`
}

func (r *Run) rPr() *etree.Element {
	return child(r.el, "rPr")
}

// Properties reads a:rPr.
func (r *Run) Properties() (RunProps, error) {
	var rp RunProps
	pr := r.rPr()
	if pr == nil {
		return rp, nil
	}
	rp.Language = attrOr(pr, "lang", "")
	rp.Underline = attrOr(pr, "u", "")
	rp.Strike = attrOr(pr, "strike", "")
	rp.Caps = attrOr(pr, "cap", "")
	rp.Font = attrOr(child(pr, "latin"), "typeface", "")
	rp.FontEA = attrOr(child(pr, "ea"), "typeface", "")
	rp.FontCS = attrOr(child(pr, "cs"), "typeface", "")
	rp.Color = colorOf(child(pr, "solidFill"))
	rp.Highlight = colorOf(child(pr, "highlight"))
	rp.HyperlinkID = relAttr(child(pr, "hlinkClick"), "id")

	sz, ok, err := intAttr(pr, "sz")
	if err != nil {
		return rp, err
	}
	if ok {
		pts := float64(sz) / 100
		rp.Size = &pts
	}
	for key, dst := range map[string]**bool{"b": &rp.Bold, "i": &rp.Italic} {
		v, ok, err := boolAttr(pr, key)
		if err != nil {
			return rp, err
		}
		if ok {
			b := v
			*dst = &b
		}
	}
	for key, dst := range map[string]**int{"baseline": &rp.Baseline, "spc": &rp.Spacing} {
		n, ok, err := intAttr(pr, key)
		if err != nil {
			return rp, err
		}
		if ok {
			v := n
			*dst = &v
		}
	}
	if rtl := child(pr, "rtl"); rtl != nil {
		rp.RTL = attrOr(rtl, "val", "1") != "0"
	}
	return rp, nil
}

// SetRTL sets the run-level right-to-left flag (a:rPr/a:rtl).
func (r *Run) SetRTL() bool {
	pr := r.rPr()
	if pr == nil {
		pr = newElement(r.el, "rPr")
		insertFirst(r.el, pr)
	}
	if rtl := child(pr, "rtl"); rtl != nil {
		if attrOr(rtl, "val", "1") != "0" {
			return false
		}
		rtl.CreateAttr("val", "1")
	} else {
		rtl = newElement(pr, "rtl")
		rtl.CreateAttr("val", "1")
		insertBefore(pr, rtl, "extLst")
	}
	r.part.MarkDirty()
	return true
}

// colorOf describes a fill colour as "srgb:RRGGBB" or "scheme:name".
func colorOf(fill *etree.Element) string {
	if fill == nil {
		return ""
	}
	for _, c := range fill.ChildElements() {
		switch c.Tag {
		case "srgbClr":
			return "srgb:" + attrOr(c, "val", "")
		case "schemeClr":
			return "scheme:" + attrOr(c, "val", "")
		case "sysClr":
			return "sys:" + attrOr(c, "lastClr", attrOr(c, "val", ""))
		case "prstClr":
			return "preset:" + attrOr(c, "val", "")
		case "scrgbClr", "hslClr":
			return c.Tag
		}
	}
	return ""
}

// lineWidthPoints converts an EMU width attribute to points.
func lineWidthPoints(e *etree.Element) (*float64, error) {
	n, ok, err := int64Attr(e, "w")
	if err != nil || !ok {
		return nil, err
	}
	pts, _ := strconv.ParseFloat(strconv.FormatFloat(float64(n)/12700, 'f', 2, 64), 64)
	return &pts, nil
}
