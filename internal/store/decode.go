package store

import (
	"bytes"
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// Decode normalizes a stored value to JSON. Plain JSON is returned as is;
// base64 text and JSON framed inside binary data are unwrapped. ok is false
// when none of these apply.
//
// A value that opens like JSON but does not parse is a torn write and is
// never searched for an inner object.
func Decode(raw []byte) ([]byte, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false
	}
	if gjson.ValidBytes(trimmed) {
		return trimmed, true
	}
	if looksLikeJSON(trimmed) {
		return nil, false
	}

	if decoded, err := tryBase64Decode(string(trimmed)); err == nil {
		decoded = bytes.TrimSpace(decoded)
		if len(decoded) > 0 && gjson.ValidBytes(decoded) {
			return decoded, true
		}
		if looksLikeJSON(decoded) {
			return nil, false
		}
		if isBinary(decoded) {
			if embedded, found := extractJSONFromBinary(decoded); found {
				return embedded, true
			}
		}
	}

	if isBinary(trimmed) {
		if embedded, found := extractJSONFromBinary(trimmed); found {
			return embedded, true
		}
	}
	return nil, false
}

func looksLikeJSON(data []byte) bool {
	return len(data) > 0 && (data[0] == '{' || data[0] == '[')
}

// isBinary reports whether data is framed rather than text: invalid UTF-8
// or carrying control bytes other than whitespace.
func isBinary(data []byte) bool {
	if !utf8.Valid(data) {
		return true
	}
	for _, c := range data {
		if c < 0x20 && c != '\t' && c != '\n' && c != '\r' {
			return true
		}
	}
	return false
}

// tryBase64Decode attempts standard, URL-safe and unpadded base64.
func tryBase64Decode(s string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return decoded, nil
	}
	decoded, err = base64.URLEncoding.DecodeString(s)
	if err == nil {
		return decoded, nil
	}
	if len(s)%4 != 0 {
		return base64.StdEncoding.DecodeString(s + strings.Repeat("=", 4-len(s)%4))
	}
	return nil, err
}

// extractJSONFromBinary finds the first balanced JSON object in data.
func extractJSONFromBinary(data []byte) ([]byte, bool) {
	for start := bytes.IndexByte(data, '{'); start != -1; {
		depth := 0
		inString := false
		escapeNext := false

		for i := start; i < len(data); i++ {
			c := data[i]
			if escapeNext {
				escapeNext = false
				continue
			}
			if inString {
				switch c {
				case '\\':
					escapeNext = true
				case '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
			}
			if depth == 0 {
				if candidate := data[start : i+1]; gjson.ValidBytes(candidate) {
					return candidate, true
				}
				break
			}
		}

		next := bytes.IndexByte(data[start+1:], '{')
		if next == -1 {
			break
		}
		start += next + 1
	}
	return nil, false
}
