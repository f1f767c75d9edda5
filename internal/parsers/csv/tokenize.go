package csv

import "strings"

// SplitLine splits one CSV line into trimmed cells. Double-quoted fields
// may contain literal commas, and a doubled quote inside a quoted field is
// an escaped literal quote. Malformed quoting never errors: a stray quote
// simply toggles the in-quotes state, which degrades gracefully on the
// ragged exports some banks produce. encoding/csv is deliberately not used
// here because it rejects bare quotes even with LazyQuotes set.
func SplitLine(line string) []string {
	var cells []string
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	cells = append(cells, strings.TrimSpace(cur.String()))

	return cells
}

// stripQuotes removes one layer of surrounding double quotes from a header
// cell after tokenizing
func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}
