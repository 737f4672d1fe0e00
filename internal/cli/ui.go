package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Terminal palette (ANSI 256).
var (
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleLink renders URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	// StyleDim renders secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)
	// StyleValue renders file names and values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)
	// StyleWarning renders warnings.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleOK     = lipgloss.NewStyle().Foreground(colorGreen)
	styleMuted  = lipgloss.NewStyle().Foreground(colorGray)
	styleKey    = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCached = styleOK
)

// status line markers
const (
	markOK    = "✓"
	markWarn  = "!"
	markInfo  = "›"
	markArrow = "→"
	sep       = " · "
)

func printLine(mark lipgloss.Style, icon, msg string) {
	fmt.Println(mark.Render(icon) + " " + msg)
}

func printSuccess(format string, args ...any) {
	printLine(styleOK, markOK, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	printLine(StyleWarning, markWarn, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	printLine(styleMuted, markInfo, fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output file.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(markArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a label in a fixed-width column followed by value.
func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printStats summarises a render: "3 structures · 1 images · fresh".
func printStats(structures, images int, cached bool) {
	var parts []string
	if structures > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d structures", structures)))
	}
	if images > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d images", images)))
	}
	if cached {
		parts = append(parts, styleCached.Render("cached"))
	} else {
		parts = append(parts, styleMuted.Render("fresh"))
	}
	fmt.Println("  " + strings.Join(parts, StyleDim.Render(sep)))
}
