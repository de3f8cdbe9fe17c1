// Package tagmap converts flat string maps to and from the line- and
// comma-oriented key=value text used by ovs-vsctl.
//
// Both serializations describe the same mapping:
//
//	purpose=mgmt        purpose=mgmt,owner=ops
//	owner=ops
//
// Keys and values must not contain the separator characters ',' or '='.
// Encode rejects such input instead of producing text that would decode to a
// different map.
package tagmap

import (
	"maps"
	"slices"
	"strings"
)

const (
	// PairSeparator separates key=value pairs in the comma-joined form.
	PairSeparator = ","
	// KeyValueSeparator separates a key from its value.
	KeyValueSeparator = "="
)

// Encode joins the entries of tags as key=value pairs separated by commas.
// Keys are emitted in sorted order so equal maps encode identically.
func Encode(tags map[string]string) (string, error) {
	keys := slices.Sorted(maps.Keys(tags))

	var b strings.Builder
	for i, key := range keys {
		value := tags[key]
		if err := validatePair(key, value); err != nil {
			return "", err
		}
		if i > 0 {
			b.WriteString(PairSeparator)
		}
		b.WriteString(key)
		b.WriteString(KeyValueSeparator)
		b.WriteString(value)
	}
	return b.String(), nil
}

// Decode parses the comma-joined form. Each segment is split on its first
// '='. Empty input yields an empty map.
func Decode(text string) (map[string]string, error) {
	tags := make(map[string]string)
	if text == "" {
		return tags, nil
	}

	for _, segment := range strings.Split(text, PairSeparator) {
		key, value, found := strings.Cut(segment, KeyValueSeparator)
		if !found {
			return nil, &DecodingError{Segment: segment, Reason: "missing '='"}
		}
		if key == "" {
			return nil, &DecodingError{Segment: segment, Reason: "empty key"}
		}
		tags[key] = value
	}
	return tags, nil
}

// NormalizeLines converts one-pair-per-line tool output into the comma-joined
// form. Blank lines and trailing carriage returns are dropped; everything else
// is kept verbatim.
func NormalizeLines(text string) string {
	lines := strings.Split(text, "\n")
	pairs := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		pairs = append(pairs, line)
	}
	return strings.Join(pairs, PairSeparator)
}

// DecodeLines parses one-pair-per-line tool output.
func DecodeLines(text string) (map[string]string, error) {
	return Decode(NormalizeLines(text))
}

// Validate checks that tags can be encoded without ambiguity.
func Validate(tags map[string]string) error {
	for _, key := range slices.Sorted(maps.Keys(tags)) {
		if err := validatePair(key, tags[key]); err != nil {
			return err
		}
	}
	return nil
}

// Equal reports whether a and b hold the same entries. A nil map equals an empty one.
func Equal(a, b map[string]string) bool {
	return maps.Equal(a, b)
}

func validatePair(key, value string) error {
	if key == "" {
		return &EncodingError{Key: key, Value: value, Reason: "empty key"}
	}
	if strings.ContainsAny(key, PairSeparator+KeyValueSeparator) {
		return &EncodingError{Key: key, Value: value, Reason: "key contains a separator character"}
	}
	if strings.ContainsAny(value, PairSeparator+KeyValueSeparator) {
		return &EncodingError{Key: key, Value: value, Reason: "value contains a separator character"}
	}
	return nil
}
