package card

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Source mirrors one object of the record provider's JSON export.
type Source struct {
	ID         FlexID `json:"id"`
	Code       string `json:"student_code"`
	Name       string `json:"std_eng_name"`
	LocalName  string `json:"std_khmer_name"`
	Department string `json:"department_name"`
	Batch      string `json:"batch_code"`
	Photo      string `json:"profile_image"`
}

// Record projects the source object onto a card Record.
func (s Source) Record() Record {
	return NewRecord(Fields{
		ID:         string(s.ID),
		Code:       s.Code,
		Name:       s.Name,
		LocalName:  s.LocalName,
		Department: s.Department,
		Batch:      s.Batch,
		Photo:      s.Photo,
	})
}

// FlexID accepts both numeric and string identifiers.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a number or string: %w", err)
	}
	*f = FlexID(n.String())
	return nil
}

// DecodeRecords reads a JSON array of records, or an object wrapping the
// array under "data".
func DecodeRecords(r io.Reader) ([]Record, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading records: %w", err)
	}
	raw = bytes.TrimSpace(raw)

	var sources []Source
	if len(raw) > 0 && raw[0] == '{' {
		var envelope struct {
			Data []Source `json:"data"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, fmt.Errorf("error parsing records: %w", err)
		}
		sources = envelope.Data
	} else if err := json.Unmarshal(raw, &sources); err != nil {
		return nil, fmt.Errorf("error parsing records: %w", err)
	}

	records := make([]Record, 0, len(sources))
	for _, s := range sources {
		records = append(records, s.Record())
	}
	return records, nil
}

// LoadRecords reads records from a JSON file.
func LoadRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening records file: %w", err)
	}
	defer f.Close()

	return DecodeRecords(f)
}

// Selection narrows a record list the way the records page filters do.
type Selection struct {
	Batch      string   // Keep only this batch code
	Department string   // Keep only this department
	Codes      []string // Keep only these student codes, in record order
}

// Apply returns the records matching the selection, preserving order.
func (s Selection) Apply(records []Record) []Record {
	codes := make(map[string]bool, len(s.Codes))
	for _, c := range s.Codes {
		if c = strings.TrimSpace(c); c != "" {
			codes[c] = true
		}
	}

	var out []Record
	for _, r := range records {
		if s.Batch != "" && !strings.EqualFold(r.Batch(), s.Batch) {
			continue
		}
		if s.Department != "" && !strings.EqualFold(r.Department(), s.Department) {
			continue
		}
		if len(codes) > 0 && !codes[r.Code()] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Find returns the record with the given student code.
func Find(records []Record, code string) (Record, error) {
	for _, r := range records {
		if r.Code() == code {
			return r, nil
		}
	}
	return Record{}, fmt.Errorf("record not found: %s", code)
}
