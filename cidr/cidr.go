// Package cidr validates IPv4 CIDR notation as it appears in source range
// files. Values are checked as text and never normalized.
package cidr

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError describes which part of a candidate CIDR was rejected.
type ParseError struct {
	Input   string
	Segment string // "format", "octet 1".."octet 4" or "prefix"
	Value   string
	Reason  string
}

func (e *ParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid CIDR %q: %s: %s", e.Input, e.Segment, e.Reason)
	}
	return fmt.Sprintf("invalid CIDR %q: %s %q: %s", e.Input, e.Segment, e.Value, e.Reason)
}

// IsValid reports whether line is a valid IPv4 CIDR.
func IsValid(line string) bool {
	return Validate(line) == nil
}

// Validate checks that s is four decimal octets in [0,255] joined by dots,
// followed by "/" and a prefix length in [0,32]. Leading zeros, whitespace
// and any surrounding text are rejected.
func Validate(s string) error {
	addr, prefix, ok := strings.Cut(s, "/")
	if !ok {
		return &ParseError{Input: s, Segment: "format", Reason: "missing prefix length"}
	}

	octets := strings.Split(addr, ".")
	if len(octets) != 4 {
		return &ParseError{Input: s, Segment: "format", Value: addr, Reason: fmt.Sprintf("expected 4 octets, got %d", len(octets))}
	}
	for i, o := range octets {
		if reason := checkNumber(o, 3, 255); reason != "" {
			return &ParseError{Input: s, Segment: fmt.Sprintf("octet %d", i+1), Value: o, Reason: reason}
		}
	}

	if reason := checkNumber(prefix, 2, 32); reason != "" {
		return &ParseError{Input: s, Segment: "prefix", Value: prefix, Reason: reason}
	}
	return nil
}

// checkNumber returns an empty string when v is a decimal number of at most
// maxDigits digits, without a leading zero, not greater than limit.
func checkNumber(v string, maxDigits, limit int) string {
	if v == "" {
		return "empty"
	}
	if len(v) > maxDigits {
		return fmt.Sprintf("more than %d digits", maxDigits)
	}
	for _, c := range v {
		if c < '0' || c > '9' {
			return "not a decimal number"
		}
	}
	if len(v) > 1 && v[0] == '0' {
		return "leading zero"
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return err.Error()
	}
	if n > limit {
		return fmt.Sprintf("out of range [0,%d]", limit)
	}
	return ""
}
