// Package ingestion loads proposal text from local files for the CLI.
package ingestion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jonathan/proposal-analyst/internal/types"
)

var (
	innerSpace  = regexp.MustCompile(`\s+`)
	blankStreak = regexp.MustCompile(`\n\n\n+`)
)

// Input formats recognized by IngestFromFile.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// CleanText cleans and normalizes text content while preserving structure
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	cleanedLines := make([]string, 0, len(lines))
	for _, line := range lines {
		cleanedLines = append(cleanedLines, cleanLine(line))
	}

	result := strings.Join(cleanedLines, "\n")
	result = blankStreak.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine cleans a single line while preserving structure
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	if strings.TrimSpace(line) == "" {
		return ""
	}

	trimmed := strings.TrimLeft(line, " \t")
	// Markdown headings lose their indentation
	if strings.HasPrefix(trimmed, "#") {
		return trimmed
	}
	// List items keep indentation and inner spacing
	if isBulletLine(trimmed) {
		return line[:len(line)-len(trimmed)] + trimmed
	}

	leadingSpace := len(line) - len(trimmed)
	content := innerSpace.ReplaceAllString(strings.TrimSpace(line), " ")
	if leadingSpace > 0 {
		return strings.Repeat(" ", leadingSpace) + content
	}
	return content
}

// isBulletLine checks if a line is a bullet list item
func isBulletLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	return strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") ||
		strings.HasPrefix(trimmed, "• ") || strings.HasPrefix(trimmed, "· ")
}

// DetectFormat picks an input format from the file extension.
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return FormatHTML
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return FormatText
	}
}

// IngestFromFile reads a proposal file, extracts text from HTML if needed,
// cleans it, and returns the text with metadata.
func IngestFromFile(path string) (string, *Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("file not found: %w", err)
		}
		return "", nil, fmt.Errorf("failed to read file: %w", err)
	}

	format := DetectFormat(path)
	text := string(content)
	if format == FormatHTML {
		text, err = ExtractHTMLText(text)
		if err != nil {
			return "", nil, err
		}
	}

	cleanedText := CleanText(text)
	return cleanedText, NewMetadata(cleanedText, path, format), nil
}

// LoadBatch reads a batch request file of the form {"proposals": [...]} and
// checks its shape. Individual items are validated during analysis.
func LoadBatch(path string) ([]types.BatchItem, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var req types.BatchRequest
	dec := json.NewDecoder(bytes.NewReader(content))
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to parse batch file %s: %w", path, err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req.Proposals, nil
}

// WriteJSON writes v as indented JSON to path, creating parent directories.
func WriteJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
