package ui

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/arin/ndstream/internal/ai"
)

func feed(deltas ...ai.StreamDelta) <-chan ai.StreamDelta {
	ch := make(chan ai.StreamDelta, len(deltas))
	for _, d := range deltas {
		ch <- d
	}
	close(ch)
	return ch
}

func TestRenderStream_BasicTokens(t *testing.T) {
	ch := feed(
		ai.StreamDelta{Token: "hello"},
		ai.StreamDelta{Token: " world"},
		ai.StreamDelta{Done: true, Text: "hello world"},
	)

	var buf bytes.Buffer
	result, err := RenderStream(&buf, ch, "  ", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "hello world" {
		t.Errorf("expected 'hello world', got %q", result)
	}
	// Output should start with the prefix.
	if !strings.HasPrefix(buf.String(), "  hello") {
		t.Errorf("expected output to start with prefix, got %q", buf.String())
	}
}

func TestRenderStream_EmptyPrefix(t *testing.T) {
	ch := feed(ai.StreamDelta{Token: "test"}, ai.StreamDelta{Done: true})

	var buf bytes.Buffer
	result, err := RenderStream(&buf, ch, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "test" {
		t.Errorf("expected 'test', got %q", result)
	}
	if buf.String() != "test\n" {
		t.Errorf("expected raw output, got %q", buf.String())
	}
}

func TestRenderStream_IndentsContinuationLines(t *testing.T) {
	ch := feed(ai.StreamDelta{Token: "one\ntwo"}, ai.StreamDelta{Done: true})

	var buf bytes.Buffer
	result, _ := RenderStream(&buf, ch, "  ", nil)
	if buf.String() != "  one\n  two\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
	if result != "one\ntwo" {
		t.Errorf("result should not contain the prefix, got %q", result)
	}
}

func TestRenderStream_OnFirstCalledOnce(t *testing.T) {
	ch := feed(
		ai.StreamDelta{Token: "a"},
		ai.StreamDelta{Token: "b"},
		ai.StreamDelta{Done: true},
	)

	calls := 0
	var buf bytes.Buffer
	RenderStream(&buf, ch, "", func() {
		calls++
		if buf.Len() != 0 {
			t.Error("onFirst should run before anything is written")
		}
	})
	if calls != 1 {
		t.Errorf("expected onFirst once, got %d", calls)
	}
}

func TestRenderStream_SkipsEmptyTokens(t *testing.T) {
	ch := feed(
		ai.StreamDelta{Token: ""},
		ai.StreamDelta{Token: "hello"},
		ai.StreamDelta{Token: ""},
		ai.StreamDelta{Done: true},
	)

	var buf bytes.Buffer
	result, err := RenderStream(&buf, ch, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "hello" {
		t.Errorf("expected 'hello', got %q", result)
	}
}

func TestRenderStream_Error(t *testing.T) {
	ch := feed(ai.StreamDelta{Token: "partial"}, ai.StreamDelta{Err: fmt.Errorf("stream broke")})

	var buf bytes.Buffer
	result, err := RenderStream(&buf, ch, "", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if result != "partial" {
		t.Errorf("expected partial 'partial', got %q", result)
	}
	if !strings.Contains(err.Error(), "stream broke") {
		t.Errorf("expected 'stream broke', got: %v", err)
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("partial output should be terminated with a newline")
	}
}

func TestRenderStream_Cancelled(t *testing.T) {
	ch := feed(ai.StreamDelta{Token: "half an ans"}, ai.StreamDelta{Cancelled: true})

	var buf bytes.Buffer
	result, err := RenderStream(&buf, ch, "", nil)
	if !errors.Is(err, ai.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if result != "half an ans" {
		t.Errorf("expected partial text, got %q", result)
	}
}

func TestRenderStream_EmptyStream(t *testing.T) {
	ch := feed(ai.StreamDelta{Done: true})

	var buf bytes.Buffer
	result, err := RenderStream(&buf, ch, ">> ", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "" {
		t.Errorf("expected empty result, got %q", result)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestRenderStream_ClosedChannel(t *testing.T) {
	ch := make(chan ai.StreamDelta)
	close(ch)

	var buf bytes.Buffer
	result, err := RenderStream(&buf, ch, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "" {
		t.Errorf("expected empty result, got %q", result)
	}
}

func TestRenderStream_PreservesExistingNewline(t *testing.T) {
	ch := feed(ai.StreamDelta{Token: "ends with newline\n"}, ai.StreamDelta{Done: true})

	var buf bytes.Buffer
	_, err := RenderStream(&buf, ch, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Should not double-newline.
	if strings.HasSuffix(buf.String(), "\n\n") {
		t.Errorf("should not double-newline, got %q", buf.String())
	}
}
