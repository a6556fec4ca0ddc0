package cidr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsValid_AllOctetValues(t *testing.T) {
	for v := 0; v <= 255; v++ {
		for _, s := range []string{
			fmt.Sprintf("%d.0.0.0/8", v),
			fmt.Sprintf("10.%d.0.0/16", v),
			fmt.Sprintf("10.0.%d.0/24", v),
			fmt.Sprintf("10.0.0.%d/32", v),
		} {
			if !IsValid(s) {
				t.Errorf("IsValid(%q) = false, want true", s)
			}
		}
	}
}

func TestIsValid_AllPrefixLengths(t *testing.T) {
	for p := 0; p <= 32; p++ {
		s := fmt.Sprintf("192.168.1.0/%d", p)
		if !IsValid(s) {
			t.Errorf("IsValid(%q) = false, want true", s)
		}
	}
}

func TestIsValid_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"octet above 255", "999.1.1.1/24"},
		{"octet 256", "10.0.0.256/32"},
		{"prefix above 32", "10.0.0.0/33"},
		{"prefix 99", "10.0.0.0/99"},
		{"non numeric", "abc"},
		{"empty", ""},
		{"comment", "# 10.0.0.0/8"},
		{"missing prefix", "10.0.0.0"},
		{"empty prefix", "10.0.0.0/"},
		{"three octets", "10.0.0/8"},
		{"five octets", "10.0.0.0.0/8"},
		{"empty octet", "10..0.0/8"},
		{"leading zero octet", "010.0.0.0/8"},
		{"leading zero prefix", "10.0.0.0/08"},
		{"trailing garbage", "10.0.0.0/8abc"},
		{"trailing space", "10.0.0.0/8 "},
		{"leading space", " 10.0.0.0/8"},
		{"leading garbage", "x10.0.0.0/8"},
		{"double prefix", "10.0.0.0/8/8"},
		{"negative", "-1.0.0.0/8"},
		{"plus sign", "+1.0.0.0/8"},
		{"ipv6", "2001:db8::/32"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if IsValid(tt.input) {
				t.Errorf("IsValid(%q) = true, want false", tt.input)
			}
		})
	}
}

func TestValidate_ReportsSegment(t *testing.T) {
	tests := []struct {
		input   string
		segment string
		value   string
	}{
		{"999.1.1.1/24", "octet 1", "999"},
		{"1.2.300.4/24", "octet 3", "300"},
		{"10.0.0.0/33", "prefix", "33"},
		{"abc", "format", ""},
		{"1.2.3/8", "format", "1.2.3"},
		{"x10.0.0.0/8", "octet 1", "x10"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := Validate(tt.input)
			if err == nil {
				t.Fatalf("Validate(%q) = nil, want error", tt.input)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if perr.Segment != tt.segment {
				t.Errorf("Segment = %q, want %q", perr.Segment, tt.segment)
			}
			if perr.Value != tt.value {
				t.Errorf("Value = %q, want %q", perr.Value, tt.value)
			}
			if perr.Input != tt.input {
				t.Errorf("Input = %q, want %q", perr.Input, tt.input)
			}
		})
	}
}

func TestValidate_Valid(t *testing.T) {
	for _, s := range []string{"0.0.0.0/0", "255.255.255.255/32", "10.0.0.0/8", "1.2.3.4/19"} {
		if err := Validate(s); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", s, err)
		}
	}
}
