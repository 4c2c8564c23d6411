package goIdentity

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		raw  string
		kind IdentifierKind
	}{
		{"alice@example.com", KindEmail},
		{"a.b+tag@sub.example.co", KindEmail},
		{"  alice@example.com  ", KindEmail},
		{"+12025550123", KindMobile},
		{"+12", KindMobile},
		{"+123456789012345", KindMobile},
		{"alice", KindUsername},
		{"alice_01", KindUsername},
		{"12025550123", KindUsername}, // digits without + are not a mobile
		{"+1234567890123456", KindUsername},
		{"+abc", KindUsername},
		{"alice@", KindUsername}, // not an email, shape rejected later
		{"", KindInvalid},
		{"   ", KindInvalid},
	}

	for _, tc := range cases {
		got := Classify(tc.raw)
		if got.Kind != tc.kind {
			t.Fatalf("Classify(%q).Kind = %v, want %v", tc.raw, got.Kind, tc.kind)
		}
	}
}

func TestClassifyTrimsValue(t *testing.T) {
	id := Classify("  alice  ")
	if id.Kind != KindUsername || id.Value != "alice" {
		t.Fatalf("got %+v, want trimmed username", id)
	}
}

func TestUsernameShaped(t *testing.T) {
	cases := []struct {
		raw string
		ok  bool
	}{
		{"alice", true},
		{"alice01", true},
		{"alice@", false},       // looks like a broken email
		{"123456", false},       // all digits, likely a missing country code
		{"al ice", false},       // whitespace
		{"a", true},
	}

	for _, tc := range cases {
		if got := usernameShaped(tc.raw); got != tc.ok {
			t.Fatalf("usernameShaped(%q) = %v, want %v", tc.raw, got, tc.ok)
		}
	}
}

func TestInvalidIdentifierHints(t *testing.T) {
	cases := []struct {
		raw  string
		hint string
	}{
		{"alice@", "Enter Valid Email/Gmail"},
		{"123456", "Enter Valid Username or select country code for mobile number"},
		{"al ice", "Enter Valid Username"},
	}

	for _, tc := range cases {
		err := &InvalidIdentifierError{Raw: tc.raw}
		if got := err.Hint(); got != tc.hint {
			t.Fatalf("Hint(%q) = %q, want %q", tc.raw, got, tc.hint)
		}
	}
}
