package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/skalibog/indcalc/internal/calculation"
	"github.com/skalibog/indcalc/pkg/models"
)

// Стили вывода
var (
	primaryColor = lipgloss.Color("#0077cc")
	errorColor   = lipgloss.Color("#cc3300")
	successColor = lipgloss.Color("#33cc33")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(primaryColor).
			Padding(0, 1)
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(successColor)
	failStyle   = lipgloss.NewStyle().Foreground(errorColor)
)

func render(w io.Writer, resp calculation.Response, table *models.Table, tail int) {
	status := okStyle.Render("OK")
	if !resp.Success {
		status = failStyle.Render("FAIL")
	}

	summary := []string{
		fmt.Sprintf("%s %s", headerStyle.Render("Статус:"), status),
		fmt.Sprintf("%s %s", headerStyle.Render("Движок:"), valueOr(resp.Engine, "-")),
		fmt.Sprintf("%s %s", headerStyle.Render("Параметры:"), valueOr(resp.Parameters.String(), "-")),
		fmt.Sprintf("%s %t", headerStyle.Render("Кэш:"), resp.CacheHit),
		fmt.Sprintf("%s %s", headerStyle.Render("Время:"), resp.ComputationTime),
	}
	if resp.Error != "" {
		summary = append(summary, failStyle.Render(resp.Error))
	}

	fmt.Fprintln(w, titleStyle.Render(resp.Name))
	fmt.Fprintln(w, boxStyle.Render(strings.Join(summary, "\n")))
	if !resp.Success || tail <= 0 {
		return
	}

	names := resp.Result.Names()
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-20s", "time")))
	for _, n := range names {
		b.WriteString(headerStyle.Render(fmt.Sprintf("%14s", n)))
	}
	b.WriteByte('\n')

	start := table.Len() - tail
	if start < 0 {
		start = 0
	}
	for i := start; i < table.Len(); i++ {
		fmt.Fprintf(&b, "%-20s", table.Timestamps[i].Format("2006-01-02 15:04"))
		for _, n := range names {
			fmt.Fprintf(&b, "%14s", formatValue(resp.Result[n][i]))
		}
		b.WriteByte('\n')
	}
	fmt.Fprint(w, boxStyle.Render(strings.TrimRight(b.String(), "\n")), "\n")
}

func printCatalog(w io.Writer, svc *calculation.Service) {
	var b strings.Builder
	for _, e := range svc.Engines() {
		state := okStyle.Render("available")
		if !e.Available {
			state = failStyle.Render("unavailable")
		}
		fmt.Fprintf(&b, "%-10s %s (%d)\n", e.Name, state, e.Supported)
	}
	b.WriteString(strings.Join(svc.SupportedIndicators(), " "))
	fmt.Fprintln(w, titleStyle.Render("Движки"))
	fmt.Fprintln(w, boxStyle.Render(b.String()))
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.4f", v)
}

func valueOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
