package reports

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	HighlightFillColor = "FFD8E4BC"

	defaultFontFamily = "Calibri"
	defaultFontSize   = 10
	borderColor       = "000000"

	numFmtGeneral  = 0
	numFmtTwoPlace = 2 // builtin "0.00"
)

// CellStyle describes how one cell looks. It is a comparable value so it can key the style cache
// and be asserted on directly in tests.
type CellStyle struct {
	Bold       bool
	Border     bool
	FillColor  string // ARGB, e.g. FFD8E4BC
	WrapText   bool
	Horizontal string
	Vertical   string
	NumFmt     int
	FontSize   float64
}

var (
	StyleNone = CellStyle{}

	styleHeader = CellStyle{
		Bold:       true,
		Border:     true,
		Horizontal: "center",
		Vertical:   "center",
		FontSize:   defaultFontSize,
	}
	styleText = CellStyle{
		Border:   true,
		Vertical: "center",
		FontSize: defaultFontSize,
	}
	styleNumber = CellStyle{
		Border:     true,
		Horizontal: "center",
		Vertical:   "center",
		FontSize:   defaultFontSize,
	}
	styleMoney = CellStyle{
		Border:     true,
		Horizontal: "right",
		Vertical:   "center",
		NumFmt:     numFmtTwoPlace,
		FontSize:   defaultFontSize,
	}
)

func (s CellStyle) IsZero() bool {
	return s == StyleNone
}

func (s CellStyle) WithBold() CellStyle {
	s.Bold = true
	return s
}

func (s CellStyle) WithFill(argb string) CellStyle {
	s.FillColor = argb
	return s
}

func (s CellStyle) WithWrap() CellStyle {
	s.WrapText = true
	return s
}

// ExcelizeStyle converts the value into the excelize representation.
func (s CellStyle) ExcelizeStyle() *excelize.Style {
	style := &excelize.Style{
		Font: &excelize.Font{
			Bold:   s.Bold,
			Family: defaultFontFamily,
			Size:   s.FontSize,
		},
		NumFmt: s.NumFmt,
	}
	if s.FontSize == 0 {
		style.Font.Size = defaultFontSize
	}
	if s.Border {
		style.Border = []excelize.Border{
			{Type: "left", Color: borderColor, Style: 1},
			{Type: "top", Color: borderColor, Style: 1},
			{Type: "right", Color: borderColor, Style: 1},
			{Type: "bottom", Color: borderColor, Style: 1},
		}
	}
	if s.FillColor != "" {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Color:   []string{rgbFromARGB(s.FillColor)},
			Pattern: 1,
		}
	}
	if s.Horizontal != "" || s.Vertical != "" || s.WrapText {
		style.Alignment = &excelize.Alignment{
			Horizontal: s.Horizontal,
			Vertical:   s.Vertical,
			WrapText:   s.WrapText,
		}
	}
	return style
}

// excelize takes RGB; the alpha byte of an ARGB colour is dropped.
func rgbFromARGB(color string) string {
	color = strings.TrimPrefix(strings.ToUpper(color), "#")
	if len(color) == 8 {
		return color[2:]
	}
	return color
}

// styleCache registers each distinct CellStyle once per workbook.
type styleCache struct {
	f   *excelize.File
	ids map[CellStyle]int
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{f: f, ids: make(map[CellStyle]int)}
}

func (c *styleCache) id(s CellStyle) (int, error) {
	if id, ok := c.ids[s]; ok {
		return id, nil
	}
	id, err := c.f.NewStyle(s.ExcelizeStyle())
	if err != nil {
		return 0, err
	}
	c.ids[s] = id
	return id, nil
}
