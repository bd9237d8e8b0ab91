package ai

import (
	"encoding/json"
	"strings"
	"time"
)

// Record is one decoded line of the stream. Everything except Response and
// Done is passed through for callers and never interpreted while streaming.
type Record struct {
	Response string
	Done     bool

	Model              string
	CreatedAt          time.Time
	DoneReason         string
	TotalDuration      int64
	LoadDuration       int64
	PromptEvalCount    int
	PromptEvalDuration int64
	EvalCount          int
	EvalDuration       int64

	Raw json.RawMessage
}

// TokensPerSecond derives the generation rate from the timing stats the
// server attaches to its final record. Zero when the stats are absent.
func (r Record) TokensPerSecond() float64 {
	if r.EvalCount == 0 || r.EvalDuration <= 0 {
		return 0
	}
	return float64(r.EvalCount) / time.Duration(r.EvalDuration).Seconds()
}

// wireRecord accepts both /api/generate lines ("response") and /api/chat
// lines ("message.content"). Pointers tell a missing field from a zero one.
type wireRecord struct {
	Response *string `json:"response"`
	Message  *struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done  *bool  `json:"done"`
	Error string `json:"error"`

	Model              string    `json:"model"`
	CreatedAt          time.Time `json:"created_at"`
	DoneReason         string    `json:"done_reason"`
	TotalDuration      int64     `json:"total_duration"`
	LoadDuration       int64     `json:"load_duration"`
	PromptEvalCount    int       `json:"prompt_eval_count"`
	PromptEvalDuration int64     `json:"prompt_eval_duration"`
	EvalCount          int       `json:"eval_count"`
	EvalDuration       int64     `json:"eval_duration"`
}

// ParseRecord parses one complete line. A blank line yields ok == false and
// no error. Invalid JSON or a line with no record fields yields a
// *ParseError. A non-empty "error" field yields a *ServerError; ok is still
// true when the same line also carries record fields, so its text is kept.
func ParseRecord(line string) (rec Record, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Record{}, false, nil
	}

	var w wireRecord
	if err := json.Unmarshal([]byte(line), &w); err != nil {
		return Record{}, false, &ParseError{Line: line, Err: err}
	}
	hasFields := w.Response != nil || w.Message != nil || w.Done != nil
	if w.Error != "" {
		err = &ServerError{Message: w.Error}
		if !hasFields {
			return Record{}, false, err
		}
	} else if !hasFields {
		return Record{}, false, &ParseError{Line: line, Err: ErrMissingFields}
	}

	rec = Record{
		Model:              w.Model,
		CreatedAt:          w.CreatedAt,
		DoneReason:         w.DoneReason,
		TotalDuration:      w.TotalDuration,
		LoadDuration:       w.LoadDuration,
		PromptEvalCount:    w.PromptEvalCount,
		PromptEvalDuration: w.PromptEvalDuration,
		EvalCount:          w.EvalCount,
		EvalDuration:       w.EvalDuration,
		Raw:                json.RawMessage(line),
	}
	switch {
	case w.Response != nil:
		rec.Response = *w.Response
	case w.Message != nil:
		rec.Response = w.Message.Content
	}
	if w.Done != nil {
		rec.Done = *w.Done
	}
	return rec, true, err
}
