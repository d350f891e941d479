package core

import "testing"

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0300-1234567", true},
		{"0421-0000000", true},
		{"03001234567", false}, // missing hyphen
		{"1300-1234567", false},
		{"0300-123456", false},
		{"0300-12345678", false},
		{" 0300-1234567", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidPhone(tt.in); got != tt.want {
			t.Errorf("IsValidPhone(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsValidNationalID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"12345-1234567-1", true},
		{"1234512345671", false},
		{"12345-1234567-12", false},
		{"1234-1234567-1", false},
		{"abcde-1234567-1", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidNationalID(tt.in); got != tt.want {
			t.Errorf("IsValidNationalID(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
