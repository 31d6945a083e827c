package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/sma-habit-api/internal/models"
)

// MismatchError describes how a detail set departs from its schema.
type MismatchError struct {
	Key       Key
	Missing   []string
	Extra     []string
	WrongType []string
	Invalid   []string
}

func (e *MismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ","))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "unexpected "+strings.Join(e.Extra, ","))
	}
	if len(e.WrongType) > 0 {
		parts = append(parts, "wrong type "+strings.Join(e.WrongType, ","))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid value "+strings.Join(e.Invalid, ","))
	}
	key := string(e.Key)
	if key == "" {
		key = "<none>"
	}
	return fmt.Sprintf("detail schema %s mismatch: %s", key, strings.Join(parts, "; "))
}

func (e *MismatchError) empty() bool {
	return len(e.Missing) == 0 && len(e.Extra) == 0 && len(e.WrongType) == 0 && len(e.Invalid) == 0
}

// Build turns raw submission input into one detail row per schema field, in
// declaration order. Fields absent from input are kept with no value so the
// stored set always equals the schema.
func (s Schema) Build(input map[string]any) ([]models.ActivityDetail, error) {
	mismatch := &MismatchError{Key: s.Key}
	for name := range input {
		if _, ok := s.Field(name); !ok {
			mismatch.Extra = append(mismatch.Extra, name)
		}
	}

	details := make([]models.ActivityDetail, 0, len(s.Fields))
	for i, f := range s.Fields {
		d := models.ActivityDetail{FieldName: f.Name, FieldLabel: f.Label, FieldType: f.Type, Position: i}
		raw, present := input[f.Name]
		if present && raw != nil {
			switch f.Type {
			case models.FieldBoolean:
				b, ok := toBool(raw)
				if !ok {
					mismatch.WrongType = append(mismatch.WrongType, f.Name)
					break
				}
				d.BoolValue = &b
			case models.FieldChoice:
				text, ok := raw.(string)
				if !ok {
					mismatch.WrongType = append(mismatch.WrongType, f.Name)
					break
				}
				text = strings.TrimSpace(text)
				if text == "" {
					break
				}
				if !f.allows(text) {
					mismatch.Invalid = append(mismatch.Invalid, f.Name)
					break
				}
				d.TextValue = &text
			}
		}
		details = append(details, d)
	}

	if !mismatch.empty() {
		sort.Strings(mismatch.Extra)
		return nil, mismatch
	}
	return details, nil
}

// Validate checks that details carry exactly the schema's fields with
// matching types.
func (s Schema) Validate(details []models.ActivityDetail) error {
	mismatch := &MismatchError{Key: s.Key}
	seen := make(map[string]bool, len(details))
	for _, d := range details {
		f, ok := s.Field(d.FieldName)
		if !ok || seen[d.FieldName] {
			mismatch.Extra = append(mismatch.Extra, d.FieldName)
			continue
		}
		seen[d.FieldName] = true
		if f.Type != d.FieldType {
			mismatch.WrongType = append(mismatch.WrongType, d.FieldName)
			continue
		}
		if f.Type == models.FieldBoolean && d.TextValue != nil {
			mismatch.WrongType = append(mismatch.WrongType, d.FieldName)
		}
		if f.Type == models.FieldChoice && d.BoolValue != nil {
			mismatch.WrongType = append(mismatch.WrongType, d.FieldName)
		}
	}
	for _, f := range s.Fields {
		if !seen[f.Name] {
			mismatch.Missing = append(mismatch.Missing, f.Name)
		}
	}
	if mismatch.empty() {
		return nil
	}
	return mismatch
}

// Render returns the report cell for this field given a submission's details.
func (f Field) Render(details []models.ActivityDetail) string {
	for _, d := range details {
		if d.FieldName != f.Name {
			continue
		}
		switch f.Type {
		case models.FieldBoolean:
			if d.BoolValue == nil {
				return MarkNotRecord
			}
			if *d.BoolValue {
				return MarkTrue
			}
			return MarkFalse
		default:
			if d.TextValue == nil || *d.TextValue == "" {
				return ChoiceNotGiven
			}
			return *d.TextValue
		}
	}
	if f.Type == models.FieldBoolean {
		return MarkNotRecord
	}
	return ChoiceNotGiven
}

// Row renders every field of the schema for one submission.
func (s Schema) Row(details []models.ActivityDetail) []string {
	cells := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cells[i] = f.Render(details)
	}
	return cells
}

func (f Field) allows(value string) bool {
	if len(f.Options) == 0 {
		return true
	}
	for _, opt := range f.Options {
		if strings.EqualFold(opt, value) {
			return true
		}
	}
	return false
}

func toBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case float64:
		return v != 0, true
	case int:
		return v != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "ya", "y", "yes":
			return true, true
		case "tidak", "no":
			return false, true
		}
		b, err := strconv.ParseBool(v)
		return b, err == nil
	}
	return false, false
}
