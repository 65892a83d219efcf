// Package audit implements the read-only validation pass over an OSM export.
package audit

import (
	"regexp"
	"slices"
	"strings"
)

// KeyClass is the syntactic class of a tag key.
type KeyClass string

// Key classes, in the order they are tested.
const (
	KeyLower           KeyClass = "lower"
	KeyLowerColon      KeyClass = "lower_colon"
	KeyLowerMultiColon KeyClass = "lower_multi_colon"
	KeyOther           KeyClass = "other"
)

var (
	lowerPattern      = regexp.MustCompile(`^[a-z_-]*$`)
	lowerColonPattern = regexp.MustCompile(`^[a-z_-]*:[a-z_-]*$`)
)

// ClassifyKey returns the class of a raw tag key.
func ClassifyKey(key string) KeyClass {
	switch {
	case lowerPattern.MatchString(key):
		return KeyLower
	case lowerColonPattern.MatchString(key):
		return KeyLowerColon
	case strings.Count(key, ":") > 1:
		return KeyLowerMultiColon
	default:
		return KeyOther
	}
}

// KeyReport counts tag keys per class and keeps the distinct keys of the other class.
type KeyReport struct {
	Counts    map[KeyClass]int
	OtherKeys map[string]struct{}
}

// NewKeyReport returns an empty report with every class at zero.
func NewKeyReport() KeyReport {
	return KeyReport{
		Counts: map[KeyClass]int{
			KeyLower:           0,
			KeyLowerColon:      0,
			KeyLowerMultiColon: 0,
			KeyOther:           0,
		},
		OtherKeys: map[string]struct{}{},
	}
}

// Add classifies key and records it.
func (r *KeyReport) Add(key string) KeyClass {
	class := ClassifyKey(key)
	r.Counts[class]++

	if class == KeyOther {
		r.OtherKeys[key] = struct{}{}
	}

	return class
}

// Other returns the distinct keys of the other class, sorted.
func (r *KeyReport) Other() []string {
	keys := make([]string, 0, len(r.OtherKeys))
	for k := range r.OtherKeys {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
