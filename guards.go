package frid

import "unicode"

// Identifier and quote-free-string grammar, ported directly from
// original_source/frid/guards.py so the loader and dumper agree byte-for-byte
// on when a naked (unquoted) token is legal.

// IsIdentifierHead reports whether r may start an identifier: a letter or
// underscore.
func IsIdentifierHead(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

// IsIdentifierChar reports whether r may appear in the middle of an
// identifier: alphanumeric, or one of "_.+-".
func IsIdentifierChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.' || r == '+' || r == '-'
}

// IsIdentifierTail reports whether r may end an identifier: alphanumeric or
// underscore (not ".+-").
func IsIdentifierTail(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// IsFridIdentifier reports whether s is a valid FRID identifier: starts with
// a letter or underscore, contains letters/digits/"_.+-", and does not end
// with '.', '+', or '-'.
func IsFridIdentifier(s string) bool {
	if s == "" {
		return false
	}
	r := []rune(s)
	if !IsIdentifierHead(r[0]) {
		return false
	}
	for i := 1; i < len(r)-1; i++ {
		if !IsIdentifierChar(r[i]) {
			return false
		}
	}
	return IsIdentifierTail(r[len(r)-1])
}

// IsQuoteFreeHead reports whether r may start a quote-free string: a letter,
// underscore, or dollar sign.
func IsQuoteFreeHead(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '$'
}

// IsQuoteFreeChar reports whether r may appear in the middle of a
// quote-free string: alphanumeric, a single space, or one of "_.+-$@%".
func IsQuoteFreeChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) ||
		r == ' ' || r == '_' || r == '.' || r == '+' || r == '-' || r == '$' || r == '@' || r == '%'
}

// IsQuoteFreeTail reports whether r may end a quote-free string:
// alphanumeric or one of "_.+-%" (not '$' or '@').
func IsQuoteFreeTail(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) ||
		r == '_' || r == '.' || r == '+' || r == '-' || r == '%'
}

// IsFridQuoteFree reports whether s may be written naked (without quotes) in
// FRID text: starts with a letter/"_$", is built from
// alphanumerics/"._+-@$%"/single spaces, ends without '$'/'@', and never
// contains two consecutive spaces.
func IsFridQuoteFree(s string) bool {
	if s == "" {
		return false
	}
	r := []rune(s)
	if !IsQuoteFreeHead(r[0]) {
		return false
	}
	for i := 1; i < len(r)-1; i++ {
		if !IsQuoteFreeChar(r[i]) {
			return false
		}
	}
	if !IsQuoteFreeTail(r[len(r)-1]) {
		return false
	}
	for i := 0; i+1 < len(r); i++ {
		if r[i] == ' ' && r[i+1] == ' ' {
			return false
		}
	}
	return true
}
