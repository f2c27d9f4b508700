package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// NotSpecified is the sentinel used for cost and timeline when the proposal gives none.
const NotSpecified = "not specified"

// ObjectiveFacts is the fixed-schema record of verifiable facts extracted from a proposal.
type ObjectiveFacts struct {
	MainObjective     string           `json:"main_objective"`
	KeyActions        []string         `json:"key_actions"`
	QuantitativeData  QuantitativeData `json:"quantitative_data"`
	Cost              string           `json:"cost"`
	Timeline          string           `json:"timeline"`
	TargetGroups      []string         `json:"target_groups"`
	ResourcesRequired []string         `json:"resources_required"`
}

// QuantitativeData maps a label to its value. Scalar JSON values of any type are
// accepted and kept in their textual form.
type QuantitativeData map[string]string

// UnmarshalJSON accepts an object whose values are strings, numbers, booleans or null.
func (q *QuantitativeData) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*q = QuantitativeData{}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	out := make(QuantitativeData, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			out[key] = v
		case json.Number:
			out[key] = v.String()
		case bool:
			out[key] = strconv.FormatBool(v)
		case nil:
			out[key] = NotSpecified
		default:
			return fmt.Errorf("quantitative_data[%q]: expected a scalar value", key)
		}
	}
	*q = out
	return nil
}

// Keys returns the labels in sorted order.
func (q QuantitativeData) Keys() []string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Normalize fills nil collections with empty ones so the record always
// serializes with every key present.
func (f *ObjectiveFacts) Normalize() {
	if f.KeyActions == nil {
		f.KeyActions = []string{}
	}
	if f.QuantitativeData == nil {
		f.QuantitativeData = QuantitativeData{}
	}
	if f.TargetGroups == nil {
		f.TargetGroups = []string{}
	}
	if f.ResourcesRequired == nil {
		f.ResourcesRequired = []string{}
	}
}

// AnalysisResult aggregates the output of every pipeline stage for one proposal.
type AnalysisResult struct {
	Summary        string         `json:"summary"`
	LoadedLanguage []string       `json:"loaded_language"`
	Stakeholders   []string       `json:"stakeholders"`
	EquityConcerns []string       `json:"equity_concerns"`
	ObjectiveFacts ObjectiveFacts `json:"objective_facts"`
}
