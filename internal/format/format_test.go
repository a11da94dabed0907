package format

import (
	"strings"
	"testing"
)

func TestNormalizePhoneNumber_LocalFormats(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"09171234567", "639171234567"},
		{"9171234567", "639171234567"},
		{"639171234567", "639171234567"},
		{"+639171234567", "639171234567"},
		{"0917-123-4567", "639171234567"},
		{"0917 123 4567", "639171234567"},
		{"(0917) 123 4567", "639171234567"},
	}

	for _, tc := range cases {
		if got := NormalizePhoneNumber(tc.in); got != tc.want {
			t.Errorf("NormalizePhoneNumber(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizePhoneNumber_Idempotent(t *testing.T) {
	inputs := []string{
		"09171234567",
		"9171234567",
		"639171234567",
		"+63 917 123 4567",
		"12345",
		"",
		"landline 8-7000",
	}

	for _, in := range inputs {
		once := NormalizePhoneNumber(in)
		twice := NormalizePhoneNumber(once)
		if once != twice {
			t.Errorf("normalization not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizePhoneNumber_Total(t *testing.T) {
	// Garbage in, digits (possibly empty) out, never a panic.
	if got := NormalizePhoneNumber("no digits here"); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
	if got := NormalizePhoneNumber("02-8123-4567"); got != "0281234567" {
		t.Errorf("expected bare digits for non-mobile number, got %q", got)
	}
}

func TestFormatMessageBody_PrependsPrefixOnce(t *testing.T) {
	got := FormatMessageBody("Your appointment is tomorrow.", "HealthConnect:")
	want := "HealthConnect: Your appointment is tomorrow."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	// Formatting an already-formatted body is stable.
	if again := FormatMessageBody(got, "HealthConnect:"); again != want {
		t.Fatalf("re-formatting changed body: %q", again)
	}
}

func TestFormatMessageBody_EmptyAndWhitespace(t *testing.T) {
	if got := FormatMessageBody("", "HC:"); got != "" {
		t.Errorf("expected empty result for empty body, got %q", got)
	}
	if got := FormatMessageBody("   ", "HC:"); got != "" {
		t.Errorf("expected empty result for whitespace body, got %q", got)
	}
	if got := FormatMessageBody("hello", ""); got != "hello" {
		t.Errorf("expected body unchanged with empty prefix, got %q", got)
	}
}

func TestSegmentCount(t *testing.T) {
	if got := SegmentCount(""); got != 0 {
		t.Errorf("SegmentCount(\"\") = %d, want 0", got)
	}
	if got := SegmentCount(strings.Repeat("a", 160)); got != 1 {
		t.Errorf("SegmentCount(160 chars) = %d, want 1", got)
	}
	if got := SegmentCount(strings.Repeat("a", 161)); got != 2 {
		t.Errorf("SegmentCount(161 chars) = %d, want 2", got)
	}

	if ExceedsSingleSegment(strings.Repeat("a", 160)) {
		t.Errorf("160 chars should fit a single segment")
	}
	if !ExceedsSingleSegment(strings.Repeat("a", 161)) {
		t.Errorf("161 chars should exceed a single segment")
	}
}
