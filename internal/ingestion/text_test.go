package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/proposal-analyst/internal/types"
)

func TestCleanText_PreserveMarkdownHeadings(t *testing.T) {
	input := "# Title\n## Subtitle\nContent here"
	result := CleanText(input)

	assert.Contains(t, result, "# Title")
	assert.Contains(t, result, "## Subtitle")
	assert.Contains(t, result, "Content here")
}

func TestCleanText_PreserveBulletLists(t *testing.T) {
	input := "- Item 1\n- Item 2\n* Item 3"
	result := CleanText(input)

	assert.Contains(t, result, "- Item 1")
	assert.Contains(t, result, "- Item 2")
	assert.Contains(t, result, "* Item 3")
}

func TestCleanText_NormalizeWhitespace(t *testing.T) {
	input := "Line    with    multiple    spaces"
	result := CleanText(input)

	assert.Contains(t, result, "Line with multiple spaces")
	assert.NotContains(t, result, "    ") // Should not have 4 spaces
}

func TestCleanText_RemoveExcessiveBlankLines(t *testing.T) {
	input := "Line 1\n\n\n\n\nLine 2"
	result := CleanText(input)

	// Should have max 2 consecutive newlines
	assert.NotContains(t, result, "\n\n\n\n")
	// But should preserve up to 2
	assert.Contains(t, result, "\n\n")
}

func TestCleanText_NormalizeLineEndings(t *testing.T) {
	input := "Line 1\r\nLine 2\rLine 3\nLine 4"
	result := CleanText(input)

	// All should be normalized to LF
	assert.NotContains(t, result, "\r\n")
	assert.NotContains(t, result, "\r")
	assert.Contains(t, result, "\n")
}

func TestCleanText_DeterministicOutput(t *testing.T) {
	input := "Test content   with   spaces\n\n\nMultiple   blank   lines"
	result1 := CleanText(input)
	result2 := CleanText(input)

	// Same input should produce identical output
	assert.Equal(t, result1, result2)
}

func TestCleanText_EmptyInput(t *testing.T) {
	result := CleanText("")
	assert.Empty(t, result)
}

func TestCleanText_OnlyWhitespace(t *testing.T) {
	result := CleanText("   \n  \n  ")
	assert.Empty(t, result)
}

func TestCleanText_SpecialCharacters(t *testing.T) {
	input := "Test with émojis 🚀 and spéciàl chàracters"
	result := CleanText(input)

	assert.Contains(t, result, "émojis")
	assert.Contains(t, result, "🚀")
	assert.Contains(t, result, "spéciàl chàracters")
}

func TestCleanText_PreserveIndentation(t *testing.T) {
	input := "    Indented line\n  Less indented"
	result := CleanText(input)

	// Should preserve relative indentation
	assert.Contains(t, result, "Indented")
	assert.Contains(t, result, "Less indented")
}

func TestIngestFromFile_Success(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "proposal.md")
	testContent := "# Library Hours\n\nExtend    opening hours to midnight."
	require.NoError(t, os.WriteFile(testFile, []byte(testContent), 0644))

	cleanedText, metadata, err := IngestFromFile(testFile)
	require.NoError(t, err)

	assert.Equal(t, "# Library Hours\n\nExtend opening hours to midnight.", cleanedText)
	require.NotNil(t, metadata)
	assert.Equal(t, FormatMarkdown, metadata.Format)
	assert.Equal(t, testFile, metadata.Source)
	assert.Len(t, metadata.Hash, 64)
	assert.Equal(t, len([]rune(cleanedText)), metadata.Characters)
}

func TestIngestFromFile_HTML(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "proposal.html")
	html := `<html><body>
<nav>Home | About</nav>
<main><h1>Parking Proposal</h1><p>Convert lot B to    permit parking.</p><ul><li>Issue 200 permits</li></ul></main>
<footer>Copyright</footer>
</body></html>`
	require.NoError(t, os.WriteFile(testFile, []byte(html), 0644))

	text, metadata, err := IngestFromFile(testFile)
	require.NoError(t, err)

	assert.Equal(t, FormatHTML, metadata.Format)
	assert.Contains(t, text, "Parking Proposal")
	assert.Contains(t, text, "Convert lot B to permit parking.")
	assert.Contains(t, text, "- Issue 200 permits")
	assert.NotContains(t, text, "Home | About")
	assert.NotContains(t, text, "Copyright")
}

func TestIngestFromFile_FileNotFound(t *testing.T) {
	cleanedText, metadata, err := IngestFromFile("/nonexistent/file.txt")

	assert.Error(t, err)
	assert.Empty(t, cleanedText)
	assert.Nil(t, metadata)
	assert.Contains(t, err.Error(), "file not found")
}

func TestIngestFromFile_HashUniqueness(t *testing.T) {
	tmpDir := t.TempDir()

	testFile1 := filepath.Join(tmpDir, "test1.txt")
	testFile2 := filepath.Join(tmpDir, "test2.txt")
	require.NoError(t, os.WriteFile(testFile1, []byte("Content 1"), 0644))
	require.NoError(t, os.WriteFile(testFile2, []byte("Content 2"), 0644))

	_, metadata1, err := IngestFromFile(testFile1)
	require.NoError(t, err)
	_, metadata2, err := IngestFromFile(testFile2)
	require.NoError(t, err)
	_, metadata1Again, err := IngestFromFile(testFile1)
	require.NoError(t, err)

	assert.NotEqual(t, metadata1.Hash, metadata2.Hash)
	assert.Equal(t, metadata1.Hash, metadata1Again.Hash)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatHTML, DetectFormat("a/b/Proposal.HTML"))
	assert.Equal(t, FormatHTML, DetectFormat("x.htm"))
	assert.Equal(t, FormatMarkdown, DetectFormat("x.md"))
	assert.Equal(t, FormatText, DetectFormat("x.txt"))
	assert.Equal(t, FormatText, DetectFormat("noext"))
}

func TestLoadBatch(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "batch.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"proposals": [{"id": 1, "text": "first"}, {"id": "two", "text": "second"}]}`), 0644))

	items, err := LoadBatch(path)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ID.String())
	assert.Equal(t, "two", items[1].ID.String())
	assert.Equal(t, "second", *items[1].Text)
}

func TestLoadBatch_Invalid(t *testing.T) {
	tmpDir := t.TempDir()

	missing := filepath.Join(tmpDir, "missing.json")
	require.NoError(t, os.WriteFile(missing, []byte(`{"items": []}`), 0644))
	_, err := LoadBatch(missing)
	assert.True(t, types.IsValidationError(err))

	malformed := filepath.Join(tmpDir, "malformed.json")
	require.NoError(t, os.WriteFile(malformed, []byte(`{"proposals": [`), 0644))
	_, err = LoadBatch(malformed)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse batch file")

	_, err = LoadBatch(filepath.Join(tmpDir, "nope.json"))
	assert.Contains(t, err.Error(), "file not found")
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")

	require.NoError(t, WriteJSON(path, map[string]any{"success": true}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success": true}`, string(data))
}
