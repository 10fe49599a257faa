package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// LocalizedString holds the three storefront languages for a single field.
// Stored as a jsonb column.
type LocalizedString struct {
	Ka string `json:"ka,omitempty"`
	En string `json:"en,omitempty"`
	Ru string `json:"ru,omitempty"`
}

// LocalizedUpdate is the optional-override form used by update payloads.
// A nil field preserves the stored value; a non-nil field overwrites it,
// including a present-but-empty string.
type LocalizedUpdate struct {
	Ka *string `json:"ka,omitempty"`
	En *string `json:"en,omitempty"`
	Ru *string `json:"ru,omitempty"`
}

// IsZero reports whether no language carries a value.
func (l LocalizedString) IsZero() bool {
	return l.Ka == "" && l.En == "" && l.Ru == ""
}

// Any returns the first non-empty translation, preferring en, then ka, then ru.
func (l LocalizedString) Any() string {
	if l.En != "" {
		return l.En
	}
	if l.Ka != "" {
		return l.Ka
	}
	return l.Ru
}

// Merge applies the optional-override update on top of the receiver.
func (l LocalizedString) Merge(update *LocalizedUpdate) LocalizedString {
	if update == nil {
		return l
	}
	merged := l
	if update.Ka != nil {
		merged.Ka = strings.TrimSpace(*update.Ka)
	}
	if update.En != nil {
		merged.En = strings.TrimSpace(*update.En)
	}
	if update.Ru != nil {
		merged.Ru = strings.TrimSpace(*update.Ru)
	}
	return merged
}

// Value marshals the localized field for storage.
func (l LocalizedString) Value() (driver.Value, error) {
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("localized string: %w", err)
	}
	return string(raw), nil
}

// Scan decodes the stored jsonb payload.
func (l *LocalizedString) Scan(value interface{}) error {
	if value == nil {
		*l = LocalizedString{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("localized string: unsupported scan type %T", value)
	}
}
