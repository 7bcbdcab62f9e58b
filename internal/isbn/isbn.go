package isbn

import "strings"

// Normalize strips hyphens and spaces from a raw ISBN candidate.
func Normalize(raw string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, raw)
}

// To13 converts an ISBN-10 to its ISBN-13 form. Returns ok=false on
// malformed input instead of guessing.
func To13(isbn10 string) (string, bool) {
	s := Normalize(isbn10)
	if len(s) != 10 {
		return "", false
	}
	core := "978" + s[:9]
	sum := 0
	for i, r := range core {
		if r < '0' || r > '9' {
			return "", false
		}
		d := int(r - '0')
		if i%2 == 0 {
			sum += d
		} else {
			sum += d * 3
		}
	}
	check := (10 - sum%10) % 10
	return core + string(rune('0'+check)), true
}

// To10 converts a 978-prefixed ISBN-13 back to ISBN-10. Returns ok=false
// for other prefixes (979 books have no ISBN-10 form) or malformed input.
func To10(isbn13 string) (string, bool) {
	s := Normalize(isbn13)
	if len(s) != 13 || !strings.HasPrefix(s, "978") {
		return "", false
	}
	core := s[3:12]
	sum := 0
	for i, r := range core {
		if r < '0' || r > '9' {
			return "", false
		}
		sum += int(r-'0') * (10 - i)
	}
	var check byte
	switch rem := sum % 11; rem {
	case 0:
		check = '0'
	case 1:
		check = 'X'
	default:
		check = byte('0' + 11 - rem)
	}
	return core + string(check), true
}
