// Package prompts provides a loader for externalized LLM prompt templates.
// Prompts are stored as JSON files of role-tagged templates and embedded at compile time.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jonathan/proposal-analyst/internal/llm"
)

//go:embed *.json
var promptFiles embed.FS

// AnalysisFile holds the prompts for the analysis stages.
const AnalysisFile = "analysis.json"

// Template is a prompt split by role. Either part may contain {{.Key}} placeholders.
type Template struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// Messages renders the template into role-tagged messages. An empty system part
// is omitted.
func (t Template) Messages(data map[string]string) []llm.Message {
	msgs := make([]llm.Message, 0, 2)
	if t.System != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: Format(t.System, data)})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: Format(t.User, data)})
	return msgs
}

// cache stores parsed prompt files to avoid repeated JSON parsing
var (
	cache   = make(map[string]map[string]Template)
	cacheMu sync.RWMutex
)

// Get retrieves a prompt by filename and key.
// The filename should not include the path (e.g., "analysis.json").
// Returns an error if the file or key is not found.
func Get(filename, key string) (Template, error) {
	prompts, err := loadFile(filename)
	if err != nil {
		return Template{}, err
	}

	prompt, exists := prompts[key]
	if !exists {
		return Template{}, fmt.Errorf("prompt key %q not found in %s", key, filename)
	}

	return prompt, nil
}

// MustGet retrieves a prompt by filename and key, panicking if not found.
// Use this for prompts that are required at initialization time.
func MustGet(filename, key string) Template {
	prompt, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return prompt
}

// Format replaces placeholders in the form {{.Key}} with values from data.
// Substitution is a single pass, so placeholder-like text inside a value is
// left as is.
func Format(template string, data map[string]string) string {
	if len(data) == 0 {
		return template
	}
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// loadFile loads and caches a prompt file.
func loadFile(filename string) (map[string]Template, error) {
	cacheMu.RLock()
	if prompts, exists := cache[filename]; exists {
		cacheMu.RUnlock()
		return prompts, nil
	}
	cacheMu.RUnlock()

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}

	var prompts map[string]Template
	if err := json.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}
	for key, p := range prompts {
		if strings.TrimSpace(p.User) == "" {
			return nil, fmt.Errorf("prompt %q in %s has no user template", key, filename)
		}
	}

	cacheMu.Lock()
	cache[filename] = prompts
	cacheMu.Unlock()

	return prompts, nil
}

// ClearCache clears the prompt cache. Useful for testing.
func ClearCache() {
	cacheMu.Lock()
	cache = make(map[string]map[string]Template)
	cacheMu.Unlock()
}

// List returns all available prompt keys in a file, sorted.
func List(filename string) ([]string, error) {
	prompts, err := loadFile(filename)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(prompts))
	for key := range prompts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
