package ponder

import "strings"

// ParseArgs splits a command's raw argument string into its arguments.
//
// Arguments are separated by top-level commas. A double quote opens a quoted
// argument which runs, commas and newlines included, until the next unescaped
// double quote. Inside quotes the sequence \" stands for a literal quote; any
// other backslash is kept as written, so JSON fragments pass through intact.
// Unquoted arguments are trimmed of surrounding whitespace.
//
// An empty or all-whitespace input yields no arguments. An unterminated
// quote yields a *MalformedArgumentError.
func ParseArgs(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var args []string
	i := 0
	for {
		start := skipSpace(raw, i)
		if start < len(raw) && raw[start] == '"' {
			value, end, ok := readQuoted(raw, start)
			if !ok {
				return nil, &MalformedArgumentError{Input: raw, Offset: start}
			}

			// Anything between the closing quote and the separator is kept;
			// whitespace there is dropped.
			comma := strings.IndexByte(raw[end:], ',')
			var tail string
			if comma < 0 {
				tail = raw[end:]
			} else {
				tail = raw[end : end+comma]
			}
			args = append(args, value+strings.TrimSpace(tail))

			if comma < 0 {
				return args, nil
			}
			i = end + comma + 1
			continue
		}

		comma := strings.IndexByte(raw[i:], ',')
		if comma < 0 {
			return append(args, strings.TrimSpace(raw[i:])), nil
		}
		args = append(args, strings.TrimSpace(raw[i:i+comma]))
		i += comma + 1
	}
}

// readQuoted reads the quoted argument opening at raw[open]. It returns the
// unescaped value and the offset just past the closing quote.
func readQuoted(raw string, open int) (string, int, bool) {
	var b strings.Builder
	for k := open + 1; k < len(raw); k++ {
		c := raw[k]
		switch {
		case c == '\\' && k+1 < len(raw) && raw[k+1] == '"':
			b.WriteByte('"')
			k++
		case c == '"':
			return b.String(), k + 1, true
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, false
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

// QuoteArg renders s as a quoted argument that ParseArgs reads back as s.
// Strings ending in a backslash have no quoted form; see CanQuote.
func QuoteArg(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// CanQuote reports whether QuoteArg(s) parses back to s.
func CanQuote(s string) bool {
	return !strings.HasSuffix(s, `\`)
}

// FormatCommand renders a command invocation, quoting every argument.
func FormatCommand(name string, args ...string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = QuoteArg(a)
	}
	return name + "(" + strings.Join(quoted, ", ") + ")"
}
