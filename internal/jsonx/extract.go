// Package jsonx extracts JSON from free-form text.
//
// Some generation backends cannot be constrained to pure JSON output and
// wrap the payload in prose or markdown fences. ExtractBlock pulls out the
// first balanced {...} or [...] block so callers get a single, documented
// tolerant-parse point instead of ad hoc regexes at every call site.
package jsonx

// ExtractBlock returns the first balanced top-level JSON object or array
// found in s. The second return value is false when no balanced block
// exists. Brackets inside JSON string literals are ignored.
func ExtractBlock(s string) (string, bool) {
	start := -1
	var open, close byte
	for i := 0; i < len(s); i++ {
		if s[i] == '{' || s[i] == '[' {
			start = i
			open = s[i]
			if open == '{' {
				close = '}'
			} else {
				close = ']'
			}
			break
		}
	}
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
