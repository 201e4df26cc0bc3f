package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/mapped-types/catalog"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

var listHeader = []string{"NAME", "KIND", "REAL TYPE", "SIZE", "ALIGN", "REF", "VALUES"}

// runList prints one row per type. The values column is cut to fit width.
func runList(w io.Writer, set *catalog.Set, width int, color bool) error {
	rows := [][]string{listHeader}
	for _, e := range set.Entries() {
		ref := "no"
		if e.Type.IsReferenceRequired() {
			ref = "yes"
		}
		rows = append(rows, []string{
			e.Name,
			e.Kind,
			e.Type.RealType().String(),
			strconv.FormatUint(uint64(e.Type.Size()), 10),
			strconv.FormatUint(uint64(e.Type.Align()), 10),
			ref,
			strings.Join(symbols(e), ","),
		})
	}

	widths := make([]int, len(listHeader))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}
	used := 0
	for _, cw := range widths[:len(widths)-1] {
		used += cw + 2
	}
	last := len(widths) - 1
	widths[last] = max(min(widths[last], width-used), len(listHeader[last]))

	title := fmt.Sprintf("%d types, %s", set.Len(), set.Registry().Model())
	if color {
		title = titleStyle.Render("mapinfo") + " " + title
	}
	fmt.Fprintln(w, title)

	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cell = truncate(cell, widths[i])
			cell += strings.Repeat(" ", widths[i]-len(cell))
			if color && r > 0 {
				switch i {
				case 0:
					cell = nameStyle.Render(cell)
				case 2:
					cell = typeStyle.Render(cell)
				}
			}
			cells[i] = cell
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
