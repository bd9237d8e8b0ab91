package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/arin/ndstream/internal/ai"
)

// RenderStream reads deltas from ch and writes them to w as they arrive.
// It prepends prefix to the first token (e.g. "  ") for indentation and
// calls onFirst, if set, just before writing it. It returns the full text;
// the error is ai.ErrCancelled when the request was cancelled.
func RenderStream(w io.Writer, ch <-chan ai.StreamDelta, prefix string, onFirst func()) (string, error) {
	var full strings.Builder
	first := true

	finish := func() {
		if full.Len() > 0 && !strings.HasSuffix(full.String(), "\n") {
			fmt.Fprintln(w)
		}
	}

	for delta := range ch {
		if delta.Err != nil {
			finish()
			return full.String(), delta.Err
		}
		if delta.Cancelled {
			finish()
			return full.String(), ai.ErrCancelled
		}
		if delta.Done {
			break
		}
		if delta.Token == "" {
			continue
		}

		if first {
			if onFirst != nil {
				onFirst()
			}
			fmt.Fprint(w, prefix)
			first = false
		}

		// Keep continuation lines aligned under the prefix.
		tok := delta.Token
		if prefix != "" {
			tok = strings.ReplaceAll(tok, "\n", "\n"+prefix)
		}
		fmt.Fprint(w, tok)
		full.WriteString(delta.Token)
	}

	finish()
	return full.String(), nil
}
