// Package bike
package bike

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Bicycle is a rentable bicycle as reported by the inventory API. It is never
// written back.
type Bicycle struct {
	// ID is the inventory identifier. The API may send it as a number; it is
	// always kept in its string form.
	ID    string `json:"id"`
	Brand string `json:"brand"`
	Model string `json:"model"`
	Type  Type   `json:"type"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Reserved is the server-reported flag. It is never reconciled with the
	// local ledger.
	Reserved bool `json:"reserved"`
}

// Title is the label shown on a map marker.
func (b Bicycle) Title() string {
	return strings.TrimSpace(b.Brand + " " + b.Model)
}

type Type int

const (
	Other Type = iota
	Electric
	Mountain
	Road
)

func (t Type) String() string {
	switch t {
	case Electric:
		return "Electric"
	case Mountain:
		return "Mountain"
	case Road:
		return "Road"
	}
	return "Other"
}

// ParseType maps a wire value to a Type. Anything unrecognised is Other.
func ParseType(s string) Type {
	switch s {
	case "Electric":
		return Electric
	case "Mountain":
		return Mountain
	case "Road":
		return Road
	}
	return Other
}

func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Type) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = Other
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("bike type: %w", err)
	}
	*t = ParseType(s)
	return nil
}

// PinColor is the marker color used for a bicycle type on the map.
func PinColor(t Type) string {
	switch t {
	case Electric:
		return "blue"
	case Mountain:
		return "green"
	case Road:
		return "yellow"
	}
	return "red"
}

// Filter selects bicycles by type. The zero value matches everything.
type Filter struct {
	Type *Type
}

// All matches every bicycle.
var All = Filter{}

// OfType returns a filter matching a single type.
func OfType(t Type) Filter {
	return Filter{Type: &t}
}

// ParseFilter accepts "all" (or an empty string) and the type names.
func ParseFilter(s string) (Filter, error) {
	switch s {
	case "", "all", "All":
		return All, nil
	case "Electric", "Mountain", "Road", "Other":
		return OfType(ParseType(s)), nil
	}
	return All, fmt.Errorf("unknown bike type %q", s)
}

func (f Filter) String() string {
	if f.Type == nil {
		return "all"
	}
	return f.Type.String()
}

func (f Filter) Match(b Bicycle) bool {
	return f.Type == nil || *f.Type == b.Type
}

// FilterByType returns the bicycles matching f, preserving order.
func FilterByType(bikes []Bicycle, f Filter) []Bicycle {
	if f.Type == nil {
		return bikes
	}
	out := make([]Bicycle, 0, len(bikes))
	for _, b := range bikes {
		if f.Match(b) {
			out = append(out, b)
		}
	}
	return out
}

var (
	errMissingID = errors.New("missing id")
	errLatitude  = errors.New("latitude out of range")
	errLongitude = errors.New("longitude out of range")
)

// wireBicycle is the raw API shape before validation.
type wireBicycle struct {
	ID        json.RawMessage `json:"id"`
	Brand     string          `json:"brand"`
	Model     string          `json:"model"`
	Type      Type            `json:"type"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Reserved  bool            `json:"reserved"`
}

// toBicycle validates a decoded record.
func (w wireBicycle) toBicycle() (Bicycle, error) {
	id, err := decodeID(w.ID)
	if err != nil {
		return Bicycle{}, err
	}
	if w.Latitude < -90 || w.Latitude > 90 {
		return Bicycle{}, fmt.Errorf("bike %s: %w", id, errLatitude)
	}
	if w.Longitude < -180 || w.Longitude > 180 {
		return Bicycle{}, fmt.Errorf("bike %s: %w", id, errLongitude)
	}
	return Bicycle{
		ID:        id,
		Brand:     w.Brand,
		Model:     w.Model,
		Type:      w.Type,
		Latitude:  w.Latitude,
		Longitude: w.Longitude,
		Reserved:  w.Reserved,
	}, nil
}

func decodeID(raw json.RawMessage) (string, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return "", errMissingID
	}
	if s[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", fmt.Errorf("id: %w", err)
		}
		if id == "" {
			return "", errMissingID
		}
		return id, nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return "", fmt.Errorf("id %s is neither a string nor a number", s)
	}
	return s, nil
}
