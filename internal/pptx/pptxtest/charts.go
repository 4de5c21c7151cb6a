package pptxtest

import (
	"fmt"
	"strings"
)

// SeriesSpec describes one chart series.
type SeriesSpec struct {
	Name   string
	Values []float64
	// Labels maps point index to custom data label text.
	Labels map[int]string
}

// ChartSpec describes a category chart.
type ChartSpec struct {
	Type       string // barChart (default), lineChart, pieChart
	Title      string
	CatTitle   string
	ValTitle   string
	Categories []string
	Series     []SeriesSpec
	Legend     bool
	// DeletedLegend lists legend entry indices the author removed.
	DeletedLegend []int
}

func rich(text string) string {
	return `<c:tx><c:rich><a:bodyPr/><a:lstStyle/>` + P(R(text)) + `</c:rich></c:tx>`
}

func title(text string) string {
	if text == "" {
		return ""
	}
	return `<c:title>` + rich(text) + `<c:overlay val="0"/></c:title>`
}

// ChartXML renders a chart part.
func ChartXML(spec ChartSpec) string {
	typ := spec.Type
	if typ == "" {
		typ = "barChart"
	}
	var sb strings.Builder
	sb.WriteString(`<c:chartSpace xmlns:c="` + NSC + `" xmlns:a="` + NSA + `" xmlns:r="` + NSR + `"><c:chart>`)
	sb.WriteString(title(spec.Title))
	sb.WriteString(`<c:autoTitleDeleted val="0"/><c:plotArea><c:layout/>`)
	sb.WriteString(`<c:` + typ + `>`)
	if typ == "barChart" {
		sb.WriteString(`<c:barDir val="col"/><c:grouping val="clustered"/>`)
	}
	vary := "0"
	if typ == "pieChart" {
		vary = "1"
	}
	sb.WriteString(`<c:varyColors val="` + vary + `"/>`)
	for i, s := range spec.Series {
		fmt.Fprintf(&sb, `<c:ser><c:idx val="%d"/><c:order val="%d"/>`, i, i)
		fmt.Fprintf(&sb, `<c:tx><c:strRef><c:f>Sheet1!$%c$1</c:f><c:strCache><c:ptCount val="1"/><c:pt idx="0"><c:v>%s</c:v></c:pt></c:strCache></c:strRef></c:tx>`, 'B'+i, Escape(s.Name))
		if len(s.Labels) > 0 {
			sb.WriteString(`<c:dLbls>`)
			for p := 0; p < len(s.Values); p++ {
				if text, ok := s.Labels[p]; ok {
					fmt.Fprintf(&sb, `<c:dLbl><c:idx val="%d"/>%s<c:showVal val="1"/></c:dLbl>`, p, rich(text))
				}
			}
			sb.WriteString(`<c:showVal val="0"/></c:dLbls>`)
		}
		fmt.Fprintf(&sb, `<c:cat><c:strRef><c:f>Sheet1!$A$2:$A$%d</c:f><c:strCache><c:ptCount val="%d"/>`, len(spec.Categories)+1, len(spec.Categories))
		for j, c := range spec.Categories {
			fmt.Fprintf(&sb, `<c:pt idx="%d"><c:v>%s</c:v></c:pt>`, j, Escape(c))
		}
		sb.WriteString(`</c:strCache></c:strRef></c:cat>`)
		fmt.Fprintf(&sb, `<c:val><c:numRef><c:f>Sheet1!$%c$2:$%c$%d</c:f><c:numCache><c:formatCode>General</c:formatCode><c:ptCount val="%d"/>`, 'B'+i, 'B'+i, len(s.Values)+1, len(s.Values))
		for j, v := range s.Values {
			fmt.Fprintf(&sb, `<c:pt idx="%d"><c:v>%g</c:v></c:pt>`, j, v)
		}
		sb.WriteString(`</c:numCache></c:numRef></c:val></c:ser>`)
	}
	if typ != "pieChart" {
		sb.WriteString(`<c:axId val="1001"/><c:axId val="1002"/>`)
	}
	sb.WriteString(`</c:` + typ + `>`)
	if typ != "pieChart" {
		sb.WriteString(`<c:catAx><c:axId val="1001"/><c:scaling><c:orientation val="minMax"/></c:scaling><c:delete val="0"/><c:axPos val="b"/>` + title(spec.CatTitle) + `<c:crossAx val="1002"/></c:catAx>`)
		sb.WriteString(`<c:valAx><c:axId val="1002"/><c:scaling><c:orientation val="minMax"/></c:scaling><c:delete val="0"/><c:axPos val="l"/>` + title(spec.ValTitle) + `<c:crossAx val="1001"/></c:valAx>`)
	}
	sb.WriteString(`</c:plotArea>`)
	if spec.Legend {
		sb.WriteString(`<c:legend><c:legendPos val="r"/>`)
		for _, idx := range spec.DeletedLegend {
			fmt.Fprintf(&sb, `<c:legendEntry><c:idx val="%d"/><c:delete val="1"/></c:legendEntry>`, idx)
		}
		sb.WriteString(`<c:overlay val="0"/></c:legend>`)
	}
	sb.WriteString(`<c:plotVisOnly val="1"/></c:chart></c:chartSpace>`)
	return sb.String()
}

// NodeSpec is a SmartArt content point; Parent "" attaches it to the root.
type NodeSpec struct {
	ID     string
	Parent string
	Text   string
}

// DiagramXML renders a data model part and a matching cached drawing.
// Each node gets a presentation point "pres-<id>" and a drawing shape
// whose modelId is that presentation point.
func DiagramXML(nodes []NodeSpec) Diagram {
	var pts, cxns, sps strings.Builder
	pts.WriteString(`<dgm:pt modelId="doc" type="doc"><dgm:prSet loTypeId="urn:microsoft.com/office/officeart/2005/8/layout/hierarchy1"/><dgm:spPr/><dgm:t><a:bodyPr/><a:lstStyle/><a:p><a:endParaRPr lang="en-US"/></a:p></dgm:t></dgm:pt>`)
	for i, n := range nodes {
		fmt.Fprintf(&pts, `<dgm:pt modelId="%s"><dgm:prSet phldrT="[Text]"/><dgm:spPr/><dgm:t><a:bodyPr/><a:lstStyle/>%s</dgm:t></dgm:pt>`, n.ID, P(R(n.Text)))
		fmt.Fprintf(&pts, `<dgm:pt modelId="pres-%s" type="pres"><dgm:prSet presAssocID="%s" presName="node"/><dgm:spPr/></dgm:pt>`, n.ID, n.ID)
		parent := n.Parent
		if parent == "" {
			parent = "doc"
		}
		fmt.Fprintf(&cxns, `<dgm:cxn modelId="cxn%d" srcId="%s" destId="%s" srcOrd="%d" destOrd="0"/>`, i, parent, n.ID, i)
		fmt.Fprintf(&sps, `<dsp:sp modelId="pres-%s"><dsp:nvSpPr><dsp:cNvPr id="0" name=""/><dsp:cNvSpPr/></dsp:nvSpPr><dsp:spPr/><dsp:txBody><a:bodyPr/><a:lstStyle/>%s</dsp:txBody></dsp:sp>`, n.ID, P(R(n.Text)))
	}
	data := `<dgm:dataModel xmlns:dgm="` + NSDGM + `" xmlns:a="` + NSA + `" xmlns:r="` + NSR + `">` +
		`<dgm:ptLst>` + pts.String() + `</dgm:ptLst><dgm:cxnLst>` + cxns.String() + `</dgm:cxnLst><dgm:bg/><dgm:whole/>` +
		`<dgm:extLst><a:ext uri="http://schemas.microsoft.com/office/drawing/2008/diagram"><dsp:dataModelExt xmlns:dsp="` + NSDSP + `" relId="rIdDd1" minVer="http://schemas.openxmlformats.org/drawingml/2006/diagram"/></a:ext></dgm:extLst>` +
		`</dgm:dataModel>`
	drawing := `<dsp:drawing xmlns:dgm="` + NSDGM + `" xmlns:dsp="` + NSDSP + `" xmlns:a="` + NSA + `"><dsp:spTree><dsp:nvGrpSpPr><dsp:cNvPr id="0" name=""/><dsp:cNvGrpSpPr/></dsp:nvGrpSpPr><dsp:grpSpPr/>` +
		sps.String() + `</dsp:spTree></dsp:drawing>`
	return Diagram{Data: data, Drawing: drawing}
}
