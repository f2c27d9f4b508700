package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ItemID is a caller-chosen batch item identifier. The raw JSON value
// (number or string) is kept so it can be echoed back unchanged.
type ItemID struct {
	raw json.RawMessage
}

// NewItemID returns a string-valued identifier.
func NewItemID(id string) ItemID {
	b, _ := json.Marshal(id)
	return ItemID{raw: b}
}

// UnmarshalJSON stores the raw value; null leaves the id unset.
func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		id.raw = nil
		return nil
	}
	id.raw = append(id.raw[:0], data...)
	return nil
}

// MarshalJSON writes the raw value back, or null when unset.
func (id ItemID) MarshalJSON() ([]byte, error) {
	if len(id.raw) == 0 {
		return []byte("null"), nil
	}
	return id.raw, nil
}

// IsZero reports whether the id was absent.
func (id ItemID) IsZero() bool {
	return len(id.raw) == 0
}

// String renders the id for logs: strings unquoted, other values verbatim.
func (id ItemID) String() string {
	if id.IsZero() {
		return "<none>"
	}
	var s string
	if err := json.Unmarshal(id.raw, &s); err == nil {
		return s
	}
	return string(id.raw)
}

// Messages for batch items that cannot be analyzed.
const (
	MsgItemMissingFields = "Each proposal must have id and text fields"
	MsgItemNotObject     = "Each proposal must be an object with id and text fields"
	MsgItemTextNotString = "Proposal text must be a string"
)

// BatchItem is one proposal inside a batch request.
type BatchItem struct {
	ID   ItemID  `json:"id"`
	Text *string `json:"text"`

	// invalid is set when the item's JSON could not be read as an item.
	invalid string
}

// UnmarshalJSON accepts any JSON value. A malformed item is recorded and
// reported by Validate so it fails on its own without rejecting the batch.
func (b *BatchItem) UnmarshalJSON(data []byte) error {
	*b = BatchItem{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		b.invalid = MsgItemNotObject
		return nil
	}
	if raw, ok := fields["id"]; ok {
		if err := b.ID.UnmarshalJSON(raw); err != nil {
			return err
		}
	}
	if raw, ok := fields["text"]; ok && !isNull(raw) {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			b.invalid = MsgItemTextNotString
			return nil
		}
		b.Text = &text
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Validate checks that the item was well formed and both id and text are present.
func (b *BatchItem) Validate() error {
	if b.invalid != "" {
		return &ValidationError{Field: "proposals", Message: b.invalid}
	}
	if b.ID.IsZero() || b.Text == nil {
		return &ValidationError{Field: "proposals", Message: MsgItemMissingFields}
	}
	return nil
}

// BatchResult is the outcome of analyzing one BatchItem. Exactly one of
// Result and Err is set.
type BatchResult struct {
	ID      ItemID
	Success bool
	Result  *AnalysisResult
	Err     error
}

// BatchRequest is the request body for batch analysis.
type BatchRequest struct {
	Proposals []BatchItem `json:"proposals" validate:"required"`
}

// Validate checks the proposals array is present and within MaxBatchSize.
// Individual items are validated later so their failures stay isolated.
func (r *BatchRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fieldError(err, "Missing or invalid field: proposals (must be an array)")
	}
	return ValidateBatchSize(len(r.Proposals))
}

// ValidateBatchSize rejects batches larger than MaxBatchSize.
func ValidateBatchSize(n int) error {
	if err := validate.Var(n, fmt.Sprintf("max=%d", MaxBatchSize)); err != nil {
		return &ValidationError{
			Field:   "proposals",
			Message: fmt.Sprintf("Maximum %d proposals per batch request", MaxBatchSize),
		}
	}
	return nil
}
