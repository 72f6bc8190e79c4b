package models

import (
	"bytes"
	"encoding/json"
)

// Text is a string field that the backend may send either as a JSON string
// or as a bare JSON number (age and marks).
type Text string

// UnmarshalJSON accepts "85", 85 and null.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

func (t Text) String() string { return string(t) }

// Student represents one roster record
type Student struct {
	Roll   string `json:"roll"`   // Unique identifier, immutable after creation
	Name   string `json:"name"`   // Student name
	Age    Text   `json:"age"`    // Integer-like string
	Branch string `json:"branch"` // One of the configured branches
	Marks  Text   `json:"marks"`  // Percentage 0-100, integer-like string
}

// Update is the body sent when editing a student. Roll is never resent.
type Update struct {
	Name   string `json:"name"`
	Age    string `json:"age"`
	Branch string `json:"branch"`
	Marks  string `json:"marks"`
}

// Stats is the aggregate summary computed by the backend. Values are kept
// as sent so they can be shown verbatim.
type Stats struct {
	Total    Text `json:"total"`
	AvgMarks Text `json:"avg_marks"`
	TopMarks Text `json:"top_marks"`
	Branches Text `json:"branches"`
}

// Result is the outcome of a mutating call
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
