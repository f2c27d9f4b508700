package ingestion

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// noise elements removed before text extraction
const noiseSelector = "nav, footer, header, script, style, noscript, form, aside, .sidebar, .cookie-banner, .popup"

// ProposalSelectors returns selectors tried in order to find the proposal body.
func ProposalSelectors() []string {
	return []string{
		".proposal",
		"#proposal",
		"[data-role='proposal']",
		"main",
		"article",
		".content",
		"#content",
	}
}

// ExtractHTMLText parses an HTML document and returns the readable text of
// its main content. Block elements are separated by newlines. If no proposal
// selector matches, the whole body is used.
func ExtractHTMLText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(noiseSelector).Remove()

	var main *goquery.Selection
	for _, selector := range ProposalSelectors() {
		if sel := doc.Find(selector); sel.Length() > 0 {
			main = sel.First()
			break
		}
	}
	if main == nil {
		main = doc.Find("body")
	}

	// Keep paragraph and list boundaries visible to CleanText.
	main.Find("p, li, h1, h2, h3, h4, h5, h6, div, br, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	main.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("- ")
	})

	return collapseBlankLines(main.Text()), nil
}

// collapseBlankLines trims each line and drops empty ones.
func collapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
