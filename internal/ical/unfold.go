package ical

// Unfold collapses RFC 5545 line folding: a CRLF or LF immediately
// followed by a space or tab is removed (the whitespace is swallowed
// along with the line break), while every other newline is preserved.
// Grounded on original_source/common/src/calendar/icloud/utils.rs's
// unfold_ics.
func Unfold(input []byte) []byte {
	out := make([]byte, 0, len(input))

	i := 0
	for i < len(input) {
		c := input[i]

		if c == '\r' {
			i++
			if i < len(input) && input[i] == '\n' {
				i++
			}
			if i < len(input) && (input[i] == ' ' || input[i] == '\t') {
				i++ // swallow folding whitespace
				continue
			}
			out = append(out, '\n')
			continue
		}

		if c == '\n' {
			i++
			if i < len(input) && (input[i] == ' ' || input[i] == '\t') {
				i++
				continue
			}
			out = append(out, '\n')
			continue
		}

		out = append(out, c)
		i++
	}

	return out
}
