// Package phone normalizes Brazilian phone numbers into the digits-only
// E.164 form the WhatsApp API expects (country code, no plus sign).
package phone

import "strings"

const brCountryCode = "55"

// digitsOnly strips every non-digit rune from the input.
func digitsOnly(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeBR converts user input into a digits-only number with the Brazilian
// country code prepended when missing.
func NormalizeBR(input string) string {
	digits := digitsOnly(input)
	if strings.HasPrefix(digits, brCountryCode) {
		return digits
	}
	return brCountryCode + digits
}

// CandidatesBR expands a number into the set of stored forms it may match.
//
// Brazilian mobile numbers carry an extra '9' after the area code
// (55 + DDD + 9 + 8 digits, 13 total), but webhook callbacks sometimes omit
// it (12 total). Both forms are returned so lookups match either storage
// convention.
func CandidatesBR(input string) []string {
	digits := digitsOnly(input)
	if digits == "" {
		return nil
	}

	seen := map[string]bool{digits: true}
	candidates := []string{digits}
	add := func(c string) {
		if !seen[c] {
			seen[c] = true
			candidates = append(candidates, c)
		}
	}

	if !strings.HasPrefix(digits, brCountryCode) {
		add(brCountryCode + digits)
		return candidates
	}

	if len(digits) < 4 {
		return candidates
	}
	ddd := digits[2:4]
	rest := digits[4:]

	if len(digits) == 12 {
		add(brCountryCode + ddd + "9" + rest)
	}
	if len(digits) == 13 && strings.HasPrefix(rest, "9") {
		add(brCountryCode + ddd + rest[1:])
	}

	return candidates
}
