// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

package manipulate

const upperhex = "0123456789ABCDEF"

// QuoteString percent-encodes value with the legacy two-pass scheme the
// partner feeds compare against: a standard quote-plus pass (spaces
// become "+", unreserved "_.-" kept) followed by a second pass that
// re-encodes the literal "." "-" "_" survivors as %2E, %2D and %5F.
//
// The output must stay byte-for-byte stable; partner systems diff
// against it. Do not replace this with net/url escaping.
func QuoteString(value string) string {
	var b []byte
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c == ' ':
			b = append(b, '+')
		case isAlnum(c):
			b = append(b, c)
		case c == '.':
			b = append(b, '%', '2', 'E')
		case c == '-':
			b = append(b, '%', '2', 'D')
		case c == '_':
			b = append(b, '%', '5', 'F')
		default:
			b = append(b, '%', upperhex[c>>4], upperhex[c&0xf])
		}
	}
	return string(b)
}

// quotePath mirrors the legacy path-style escape used when rebuilding
// merged query strings: alphanumerics, "_.-" and "/" pass through,
// everything else (including spaces) becomes %XX with uppercase hex.
func quotePath(value string) string {
	var b []byte
	for i := 0; i < len(value); i++ {
		c := value[i]
		if isAlnum(c) || c == '_' || c == '.' || c == '-' || c == '/' {
			b = append(b, c)
			continue
		}
		b = append(b, '%', upperhex[c>>4], upperhex[c&0xf])
	}
	return string(b)
}

// unquotePlus reverses form encoding: "+" becomes a space and valid
// %XX sequences are decoded. Malformed escapes are passed through
// untouched rather than rejected, matching the tolerant read side the
// merger depends on.
func unquotePlus(value string) string {
	var b []byte
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c == '+':
			b = append(b, ' ')
		case c == '%' && i+2 < len(value) && isHex(value[i+1]) && isHex(value[i+2]):
			b = append(b, unhex(value[i+1])<<4|unhex(value[i+2]))
			i += 2
		default:
			b = append(b, c)
		}
	}
	return string(b)
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
