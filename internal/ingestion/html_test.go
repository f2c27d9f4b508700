package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractHTMLText_PrefersProposalContainer(t *testing.T) {
	html := `<html><body>
<main><p>Site banner text</p><div class="proposal"><p>Build a new bike lane.</p></div></main>
</body></html>`

	text, err := ExtractHTMLText(html)
	require.NoError(t, err)
	assert.Equal(t, "Build a new bike lane.", text)
}

func TestExtractHTMLText_RemovesScriptAndStyle(t *testing.T) {
	html := `<html><head><style>p{color:red}</style></head><body>
<script>var x = 1;</script><article><p>First paragraph.</p><p>Second paragraph.</p></article>
</body></html>`

	text, err := ExtractHTMLText(html)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\nSecond paragraph.", text)
	assert.NotContains(t, text, "var x")
	assert.NotContains(t, text, "color:red")
}

func TestExtractHTMLText_FallbackToBody(t *testing.T) {
	text, err := ExtractHTMLText(`<html><body><p>Plain body proposal.</p></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Plain body proposal.", text)
}

func TestExtractHTMLText_ListItems(t *testing.T) {
	text, err := ExtractHTMLText(`<main><ul><li>One</li><li>Two</li></ul></main>`)
	require.NoError(t, err)
	assert.Equal(t, "- One\n- Two", text)
}
