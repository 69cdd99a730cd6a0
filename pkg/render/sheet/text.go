package sheet

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/matzehuels/carepath/pkg/flow"
)

const defaultFont = "Helvetica, Arial, sans-serif"

const (
	fontTitle = 32.0
	fontLane  = 20.0
	fontBody  = 16.0
	fontSmall = 13.0
	fontBadge = 11.0

	charWidth  = 0.55
	lineHeight = 1.25
	recPadding = 14.0
	recLineGap = 6.0
)

const (
	colorPage       = "#ffffff"
	colorStroke     = "#333333"
	colorStart      = "#d7f5dd"
	colorEnd        = "#333333"
	colorAction     = "#eef4fb"
	colorEvaluation = "#fff6db"
	colorLane       = "#f6f6f6"
	colorLaneLine   = "#777777"
)

var classColors = map[flow.Classification]string{
	flow.ClassFormal:       "#2e7d32",
	flow.ClassInformal:     "#f9a825",
	flow.ClassGoodPractice: "#1565c0",
}

func classColor(c flow.Classification) string {
	if col, ok := classColors[c]; ok {
		return col
	}
	return colorLaneLine
}

// EscapeXML escapes s for use in SVG text and attribute values.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// Truncate shortens s to at most maxChars runes, marking the cut with "..".
func Truncate(s string, maxChars int) string {
	maxChars = max(3, maxChars)
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	return string(r[:maxChars-2]) + ".."
}

// Wrap breaks s into lines of at most maxChars runes at word boundaries.
// Words longer than a line are truncated.
func Wrap(s string, maxChars int) []string {
	maxChars = max(3, maxChars)
	var lines []string
	var cur strings.Builder
	for _, word := range strings.Fields(s) {
		word = Truncate(word, maxChars)
		n := len([]rune(cur.String()))
		if n > 0 && n+1+len([]rune(word)) > maxChars {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

func (r *renderer) renderText(buf *bytes.Buffer, text string, x, y, size float64, anchor, weight string) {
	if text == "" {
		return
	}
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" font-family="%s" font-size="%.0f" font-weight="%s" text-anchor="%s" dominant-baseline="middle" fill="%s">%s</text>`+"\n",
		x, y, EscapeXML(r.font), size, weight, anchor, colorStroke, EscapeXML(text))
}

// renderWrapped draws text centred vertically on cy, wrapped to width.
func (r *renderer) renderWrapped(buf *bytes.Buffer, text string, cx, cy, width, size float64, anchor string) {
	lines := Wrap(text, int(width/(size*charWidth)))
	if len(lines) == 0 {
		return
	}
	step := size * lineHeight
	top := cy - step*float64(len(lines)-1)/2
	for i, line := range lines {
		r.renderText(buf, line, cx, top+step*float64(i), size, anchor, "normal")
	}
}
