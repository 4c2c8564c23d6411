package goIdentity

import (
	"regexp"
	"strings"
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobilePattern = regexp.MustCompile(`^\+[0-9]{2,15}$`)
)

// Classify decides what kind of identifier a raw caller-supplied string
// denotes. It is total and deterministic; the decision order is fixed
// because it changes behavior:
//
//  1. local@domain.tld shape is an email.
//  2. "+" followed by 2-15 digits is a mobile number. The leading "+" is
//     mandatory so bare numeric usernames can never be misread as phone
//     numbers.
//  3. Any remaining non-empty string is a candidate username; downstream
//     lookup fails cleanly when no such account exists.
//
// Empty or whitespace-only input classifies as invalid.
func Classify(raw string) Identifier {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Identifier{Kind: KindInvalid, Value: trimmed}
	}

	if emailPattern.MatchString(trimmed) {
		return Identifier{Kind: KindEmail, Value: trimmed}
	}
	if mobilePattern.MatchString(trimmed) {
		return Identifier{Kind: KindMobile, Value: trimmed}
	}

	return Identifier{Kind: KindUsername, Value: trimmed}
}

// usernameShaped reports whether a username-classified identifier is a
// plausible username at all. Strings containing "@" are malformed emails,
// bare digit runs are mobile numbers missing their country code, and
// embedded whitespace is never legal; all of these are rejected before
// any repository lookup so the caller gets a tailored hint instead of a
// not-found answer.
func usernameShaped(value string) bool {
	if strings.Contains(value, "@") {
		return false
	}
	if allDigits(value) {
		return false
	}
	if strings.ContainsAny(value, " \t\r\n") {
		return false
	}
	return true
}
