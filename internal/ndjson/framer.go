package ndjson

import "strings"

// Framer buffers decoded text and splits it into complete lines. The segment
// after the last newline is held back as pending: it has no terminator yet and
// may still grow.
type Framer struct {
	pending strings.Builder
}

// Feed appends text and returns every line completed by it, in order. Lines
// are trimmed of surrounding whitespace and blank lines are dropped.
func (f *Framer) Feed(text string) []string {
	if text == "" {
		return nil
	}
	if !strings.Contains(text, "\n") {
		f.pending.WriteString(text)
		return nil
	}

	f.pending.WriteString(text)
	buf := f.pending.String()
	f.pending.Reset()

	var lines []string
	for {
		line, rest, found := strings.Cut(buf, "\n")
		if !found {
			f.pending.WriteString(buf)
			break
		}
		buf = rest
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Pending returns the buffered text that has not yet formed a line.
func (f *Framer) Pending() string {
	return f.pending.String()
}

// Discard drops the pending text and returns it. At end of stream the
// residual is a truncated record and must not be parsed.
func (f *Framer) Discard() string {
	s := f.pending.String()
	f.pending.Reset()
	return s
}
