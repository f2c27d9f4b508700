package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jonathan/proposal-analyst/internal/types"
	"github.com/stretchr/testify/assert"
)

func sampleResult() *types.AnalysisResult {
	return &types.AnalysisResult{
		Summary:        "The proposal extends library hours to midnight on weekdays starting in September.",
		LoadedLanguage: []string{"clearly"},
		Stakeholders:   []string{"commuter students", "support staff"},
		EquityConcerns: []string{"Who staffs the late shift?", "How do commuter students get home safely?"},
		ObjectiveFacts: types.ObjectiveFacts{
			MainObjective:     "Extend library hours",
			KeyActions:        []string{"Hire two night staff"},
			QuantitativeData:  types.QuantitativeData{"new_closing_time": "midnight", "extra_hours_per_week": "15"},
			Cost:              "$40,000 per year",
			Timeline:          types.NotSpecified,
			TargetGroups:      []string{"students"},
			ResourcesRequired: []string{"night staff"},
		},
	}
}

func TestPrintAnalysis(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAnalysis(sampleResult())
	output := buf.String()

	assert.Contains(t, output, "NEUTRAL SUMMARY")
	assert.Contains(t, output, "BIAS REPORT")
	assert.Contains(t, output, "QUESTIONS FOR CONSIDERATION")
	assert.Contains(t, output, "OBJECTIVE FACTS")
	assert.Contains(t, output, "• clearly")
	assert.Contains(t, output, "• commuter students")
	assert.Contains(t, output, "1. Who staffs the late shift?")
	assert.Contains(t, output, "extra_hours_per_week: 15")
	assert.Contains(t, output, "Timeline:  not specified")
}

func TestPrintAnalysis_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAnalysis(nil)

	assert.Empty(t, buf.String())
}

func TestPrintFlags_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintFlags([]string{}, nil)

	assert.Equal(t, 2, strings.Count(buf.String(), "(none)"))
}

func TestPrintFlags_TruncatesLongLists(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintFlags([]string{"a", "b", "c", "d", "e", "f", "g"}, nil)

	assert.Contains(t, buf.String(), "... and 2 more")
}

func TestPrintBatch(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintBatch([]types.BatchResult{
		{ID: types.NewItemID("a"), Success: true, Result: sampleResult()},
		{ID: types.NewItemID("b"), Err: errors.New("Proposal text must be at least 50 characters long")},
	})
	output := buf.String()

	assert.Contains(t, output, "BATCH RESULTS")
	assert.Contains(t, output, "✓ a")
	assert.Contains(t, output, "✗ b")
	assert.Contains(t, output, "1 of 2 succeeded")
}

func TestPrintBox_WrapsLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("word ", 40)+strings.Repeat("x", 130))
	output := strings.TrimSuffix(buf.String(), "\n")

	for _, line := range strings.Split(output, "\n") {
		assert.Equal(t, boxWidth, utf8.RuneCountInString(line), line)
	}
	assert.True(t, strings.Contains(output, "┌"))
	assert.True(t, strings.Contains(output, "└"))
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"short"}, wrap("short", 10))
	assert.Equal(t, []string{"one two", "three"}, wrap("one two three", 9))
	assert.Equal(t, []string{"  aa bb", "  cc"}, wrap("  aa bb cc", 7))
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, wrap("abcdefghij", 4))
}
