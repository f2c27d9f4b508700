// Package lexicon flags fixed vocabulary terms (loaded language, stakeholder groups) in proposal text.
package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var defaultVocabulary []byte

// Vocabulary is the on-disk form of the term lists.
type Vocabulary struct {
	LoadedLanguage []string `yaml:"loaded_language"`
	Stakeholders   []string `yaml:"stakeholders"`
}

// Lexicon holds one Flagger per vocabulary. It is read-only after construction
// and safe for concurrent use.
type Lexicon struct {
	Loaded       *Flagger
	Stakeholders *Flagger
}

// Default builds the lexicon from the embedded vocabulary.
func Default() (*Lexicon, error) {
	return Parse(defaultVocabulary)
}

// MustDefault is like Default but panics on error. The embedded data is fixed,
// so this only fails if the binary was built with a broken vocabulary file.
func MustDefault() *Lexicon {
	lex, err := Default()
	if err != nil {
		panic(fmt.Sprintf("failed to load embedded vocabulary: %v", err))
	}
	return lex
}

// Load reads a vocabulary YAML file. An empty path returns the default lexicon.
func Load(path string) (*Lexicon, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a lexicon from YAML content.
func Parse(data []byte) (*Lexicon, error) {
	var vocab Vocabulary
	if err := yaml.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	if len(vocab.LoadedLanguage) == 0 {
		return nil, fmt.Errorf("vocabulary error: 'loaded_language' must not be empty")
	}
	if len(vocab.Stakeholders) == 0 {
		return nil, fmt.Errorf("vocabulary error: 'stakeholders' must not be empty")
	}

	loaded, err := NewFlagger("loaded_language", vocab.LoadedLanguage)
	if err != nil {
		return nil, err
	}
	stakeholders, err := NewFlagger("stakeholders", vocab.Stakeholders)
	if err != nil {
		return nil, err
	}
	return &Lexicon{Loaded: loaded, Stakeholders: stakeholders}, nil
}

// Flagger matches a closed list of terms as whole words or phrases.
type Flagger struct {
	name  string
	terms []term
}

// RE2's \b only knows ASCII word characters, so boundaries are spelled out
// with Unicode classes; "perfecté" must not match "perfect".
const (
	wordStart = `(?:^|[^\p{L}\p{M}\p{N}_])`
	wordEnd   = `(?:$|[^\p{L}\p{M}\p{N}_])`
)

type term struct {
	text    string
	pattern *regexp.Regexp
}

// NewFlagger compiles terms into word-boundary patterns. Terms are lowercased;
// blanks and duplicates are dropped, keeping the first occurrence.
func NewFlagger(name string, terms []string) (*Flagger, error) {
	f := &Flagger{name: name, terms: make([]term, 0, len(terms))}
	seen := make(map[string]bool, len(terms))

	for _, raw := range terms {
		t := strings.ToLower(strings.TrimSpace(raw))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true

		pattern, err := regexp.Compile(wordStart + regexp.QuoteMeta(t) + wordEnd)
		if err != nil {
			return nil, fmt.Errorf("invalid %s term %q: %w", name, raw, err)
		}
		f.terms = append(f.terms, term{text: t, pattern: pattern})
	}
	return f, nil
}

// Name returns the vocabulary name.
func (f *Flagger) Name() string {
	return f.name
}

// Terms returns a copy of the vocabulary in definition order.
func (f *Flagger) Terms() []string {
	out := make([]string, len(f.terms))
	for i, t := range f.terms {
		out[i] = t.text
	}
	return out
}

// Scan returns every term present in text, in vocabulary order, each at most once.
// The result is never nil.
func (f *Flagger) Scan(text string) []string {
	lower := strings.ToLower(text)
	found := make([]string, 0)
	for _, t := range f.terms {
		if t.pattern.MatchString(lower) {
			found = append(found, t.text)
		}
	}
	return found
}
