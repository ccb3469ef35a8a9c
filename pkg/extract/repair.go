package extract

import "strings"

// repair rewrites common non-JSON output into JSON:
//
//   - 'single quoted' strings become "double quoted" strings
//   - a bare None becomes the string "None"
//   - bare True and False become true and false
//   - a comma directly before '}' or ']' is dropped
//
// Double-quoted strings are copied untouched, so apostrophes and commas
// inside them survive.
func repair(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '"':
			i = copyDoubleQuoted(&b, s, i)
		case c == '\'':
			i = convertSingleQuoted(&b, s, i)
		case c == ',':
			j := skipSpace(s, i+1)
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				i++
				continue
			}
			b.WriteByte(c)
			i++
		case isIdentByte(c):
			j := i
			for j < len(s) && isIdentByte(s[j]) {
				j++
			}
			switch word := s[i:j]; word {
			case "None":
				b.WriteString(`"None"`)
			case "True":
				b.WriteString("true")
			case "False":
				b.WriteString("false")
			default:
				b.WriteString(word)
			}
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// copyDoubleQuoted writes the string literal starting at s[i] and returns
// the index just past it. An unterminated literal runs to the end.
func copyDoubleQuoted(b *strings.Builder, s string, i int) int {
	j := i + 1
	for j < len(s) {
		switch s[j] {
		case '\\':
			j += 2
			continue
		case '"':
			j++
			b.WriteString(s[i:j])
			return j
		}
		j++
	}
	b.WriteString(s[i:])
	return len(s)
}

// convertSingleQuoted rewrites the 'literal' starting at s[i] as a JSON
// string and returns the index just past it.
func convertSingleQuoted(b *strings.Builder, s string, i int) int {
	b.WriteByte('"')
	j := i + 1
	for j < len(s) {
		c := s[j]
		switch {
		case c == '\\' && j+1 < len(s) && s[j+1] == '\'':
			b.WriteByte('\'')
			j += 2
		case c == '\\' && j+1 < len(s):
			b.WriteString(s[j : j+2])
			j += 2
		case c == '"':
			b.WriteString(`\"`)
			j++
		case c == '\'':
			b.WriteByte('"')
			return j + 1
		default:
			b.WriteByte(c)
			j++
		}
	}
	b.WriteByte('"')
	return len(s)
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

func isIdentByte(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
