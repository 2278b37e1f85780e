package portfolio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Payload keys with dedicated handling.
const (
	KeyID                   = "id"
	KeyCode                 = "code"
	KeyName                 = "name"
	KeyPortfolioType        = "portfolioType"
	KeyNumberOfConstituents = "numberOfConstituents"
	KeyOrganizationCode     = "organizationCode"
	KeyLastModified         = "lastModifiedDateTime"
	KeyCreated              = "createdDateTime"
	KeyExtendedProperties   = "extendedProperties"
	KeyAccessibility        = "accessibility"
)

// ExtendedProperties is the nested classification object of a header.
type ExtendedProperties struct {
	Family string
	Extra  map[string]json.RawMessage
}

// Header is one entry of the search response's portfolioHeaders array.
//
// Recognised keys decode into typed fields; anything else, including a
// recognised key whose value has an unexpected JSON type, lands in Extra.
// The payload key order is kept so columns follow the provider's layout.
type Header struct {
	ID                   string
	Code                 string
	Name                 string
	PortfolioType        string
	NumberOfConstituents *int64
	OrganizationCode     string
	LastModifiedDateTime string
	CreatedDateTime      string
	ExtendedProperties   *ExtendedProperties
	Accessibility        json.RawMessage

	Extra map[string]json.RawMessage

	keys  []string
	typed map[string]bool
}

// UnmarshalJSON decodes a header object while recording key order.
// A JSON null leaves h unchanged.
func (h *Header) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	keys, values, err := decodeOrdered(data)
	if err != nil {
		return err
	}
	*h = Header{keys: keys, typed: make(map[string]bool)}
	for _, key := range keys {
		raw := values[key]
		if h.decodeKnown(key, raw) {
			h.typed[key] = true
			continue
		}
		if h.Extra == nil {
			h.Extra = make(map[string]json.RawMessage)
		}
		h.Extra[key] = raw
	}
	return nil
}

func (h *Header) decodeKnown(key string, raw json.RawMessage) bool {
	switch key {
	case KeyID:
		return decodeString(raw, &h.ID)
	case KeyCode:
		return decodeString(raw, &h.Code)
	case KeyName:
		return decodeString(raw, &h.Name)
	case KeyPortfolioType:
		return decodeString(raw, &h.PortfolioType)
	case KeyOrganizationCode:
		return decodeString(raw, &h.OrganizationCode)
	case KeyLastModified:
		return decodeString(raw, &h.LastModifiedDateTime)
	case KeyCreated:
		return decodeString(raw, &h.CreatedDateTime)
	case KeyNumberOfConstituents:
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return false
		}
		h.NumberOfConstituents = &n
		return true
	case KeyExtendedProperties:
		if !isObject(raw) {
			return false
		}
		_, props, err := decodeOrdered(raw)
		if err != nil {
			return false
		}
		ext := &ExtendedProperties{}
		for k, v := range props {
			if k == "family" {
				ext.Family = FormatValue(v)
				continue
			}
			if ext.Extra == nil {
				ext.Extra = make(map[string]json.RawMessage)
			}
			ext.Extra[k] = v
		}
		h.ExtendedProperties = ext
		return true
	case KeyAccessibility:
		h.Accessibility = raw
		return true
	}
	return false
}

// Keys returns the payload keys in their original order.
func (h Header) Keys() []string {
	return append([]string(nil), h.keys...)
}

// Has reports whether key was present in the payload.
func (h Header) Has(key string) bool {
	if h.typed[key] {
		return true
	}
	_, ok := h.Extra[key]
	return ok
}

// IsObject reports whether the value stored under key is a JSON object.
func (h Header) IsObject(key string) bool {
	if key == KeyExtendedProperties && h.typed[key] {
		return true
	}
	return isObject(h.Extra[key])
}

// Family returns the extended properties family, or "" when absent.
func (h Header) Family() string {
	if h.ExtendedProperties == nil {
		return ""
	}
	return h.ExtendedProperties.Family
}

// Value returns the display text for key.
func (h Header) Value(key string) string {
	if !h.typed[key] {
		return FormatValue(h.Extra[key])
	}
	switch key {
	case KeyID:
		return h.ID
	case KeyCode:
		return h.Code
	case KeyName:
		return h.Name
	case KeyPortfolioType:
		return h.PortfolioType
	case KeyOrganizationCode:
		return h.OrganizationCode
	case KeyLastModified:
		return h.LastModifiedDateTime
	case KeyCreated:
		return h.CreatedDateTime
	case KeyNumberOfConstituents:
		if h.NumberOfConstituents == nil {
			return ""
		}
		return strconv.FormatInt(*h.NumberOfConstituents, 10)
	case KeyAccessibility:
		return FormatValue(h.Accessibility)
	case KeyExtendedProperties:
		return h.Family()
	}
	return ""
}

// FormatValue renders a raw JSON scalar for display. Strings are unquoted,
// null is empty and composite values are shown as compact JSON.
func FormatValue(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err == nil {
		return compact.String()
	}
	return string(trimmed)
}

func decodeString(raw json.RawMessage, dst *string) bool {
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return true
	}
	return json.Unmarshal(trimmed, dst) == nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// decodeOrdered splits a JSON object into its keys (first-seen order) and raw values.
func decodeOrdered(data []byte) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("decode header: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("decode header: expected object, got %v", tok)
	}

	var keys []string
	values := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("decode header key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("decode header: unexpected key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("decode header %q: %w", key, err)
		}
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, fmt.Errorf("decode header: %w", err)
	}
	return keys, values, nil
}

// label renames technical field names to their display labels.
func label(key string) string {
	switch key {
	case KeyNumberOfConstituents:
		return "# constituents"
	case KeyOrganizationCode:
		return "org code"
	case KeyLastModified:
		return "modified date"
	case KeyCreated:
		return "create date"
	}
	return strings.TrimSpace(key)
}
