// Package observability provides Prometheus metrics for the analysis pipeline and
// formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/proposal-analyst/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content. Long lines wrap at
// word boundaries.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		for _, wrapped := range wrap(line, inner) {
			fmt.Fprintf(p.out, "│ %s │\n", pad(wrapped, inner))
		}
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintAnalysis outputs the full report for one proposal.
func (p *Printer) PrintAnalysis(result *types.AnalysisResult) {
	if result == nil {
		return
	}

	p.printBox("NEUTRAL SUMMARY", result.Summary)
	p.PrintFlags(result.LoadedLanguage, result.Stakeholders)

	var sb strings.Builder
	if len(result.EquityConcerns) == 0 {
		sb.WriteString("No concerns returned.")
	}
	for i, c := range result.EquityConcerns {
		sb.WriteString(fmt.Sprintf("%d. %s", i+1, c))
		if i < len(result.EquityConcerns)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox("QUESTIONS FOR CONSIDERATION", sb.String())

	p.PrintFacts(&result.ObjectiveFacts)
}

// PrintFlags outputs the deterministic scan results.
func (p *Printer) PrintFlags(loaded, stakeholders []string) {
	var sb strings.Builder
	sb.WriteString("Loaded language:\n")
	writeList(&sb, loaded)
	sb.WriteString("\nStakeholders mentioned:\n")
	writeList(&sb, stakeholders)
	p.printBox("BIAS REPORT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFacts outputs the extracted objective facts.
func (p *Printer) PrintFacts(facts *types.ObjectiveFacts) {
	if facts == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Objective: %s\n", facts.MainObjective))
	sb.WriteString(fmt.Sprintf("Cost:      %s\n", facts.Cost))
	sb.WriteString(fmt.Sprintf("Timeline:  %s\n", facts.Timeline))

	if len(facts.KeyActions) > 0 {
		sb.WriteString("\nKey actions:\n")
		writeList(&sb, facts.KeyActions)
	}
	if len(facts.QuantitativeData) > 0 {
		sb.WriteString("\nFigures:\n")
		keys := facts.QuantitativeData.Keys()
		count := min(len(keys), maxItemsToShow)
		for _, k := range keys[:count] {
			sb.WriteString(fmt.Sprintf("  • %s: %s\n", k, facts.QuantitativeData[k]))
		}
		if len(keys) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(keys)-maxItemsToShow))
		}
	}
	if len(facts.TargetGroups) > 0 {
		sb.WriteString("\nTarget groups:\n")
		writeList(&sb, facts.TargetGroups)
	}
	if len(facts.ResourcesRequired) > 0 {
		sb.WriteString("\nResources required:\n")
		writeList(&sb, facts.ResourcesRequired)
	}

	p.printBox("OBJECTIVE FACTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBatch outputs one line per batch item followed by a tally.
func (p *Printer) PrintBatch(results []types.BatchResult) {
	if len(results) == 0 {
		return
	}

	var sb strings.Builder
	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
			summary := ""
			if r.Result != nil {
				summary = r.Result.Summary
			}
			sb.WriteString(fmt.Sprintf("✓ %s  %s\n", r.ID, truncate(summary, 40)))
			continue
		}
		msg := "unknown error"
		if r.Err != nil {
			msg = r.Err.Error()
		}
		sb.WriteString(fmt.Sprintf("✗ %s  %s\n", r.ID, truncate(msg, 40)))
	}
	sb.WriteString(fmt.Sprintf("\n%d of %d succeeded", succeeded, len(results)))

	p.printBox("BATCH RESULTS", sb.String())
}

func writeList(sb *strings.Builder, items []string) {
	if len(items) == 0 {
		sb.WriteString("  (none)\n")
		return
	}
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
}

func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-3]) + "..."
}

// wrap splits line into pieces no wider than width runes, breaking at spaces
// where possible.
func wrap(line string, width int) []string {
	if utf8.RuneCountInString(line) <= width {
		return []string{line}
	}

	indent := line[:len(line)-len(strings.TrimLeft(line, " "))]
	var out []string
	current := ""
	for _, word := range strings.Fields(line) {
		for utf8.RuneCountInString(word) > width-len(indent) {
			if current != "" {
				out = append(out, current)
				current = ""
			}
			r := []rune(word)
			out = append(out, indent+string(r[:width-len(indent)]))
			word = string(r[width-len(indent):])
		}
		if word == "" {
			continue
		}
		switch {
		case current == "":
			current = indent + word
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= width:
			current += " " + word
		default:
			out = append(out, current)
			current = indent + word
		}
	}
	if current != "" {
		out = append(out, current)
	}
	return out
}
