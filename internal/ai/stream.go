package ai

// StreamDelta represents a single event from a streaming response.
type StreamDelta struct {
	// Token is the text fragment.
	Token string
	// Done is true when the stream completed. Text then holds the answer.
	Done bool
	Text string
	// Cancelled is true when the request was cancelled.
	Cancelled bool
	// Err is non-nil if the request failed.
	Err error
}

// ChannelObserver is an Observer that forwards every event to a channel.
// The channel is closed after the terminal event. Consumers must drain it,
// since deltas are sent synchronously from the request goroutine.
type ChannelObserver struct {
	ch chan StreamDelta
}

var _ Observer = (*ChannelObserver)(nil)

// NewChannelObserver returns an observer whose channel has the given buffer.
func NewChannelObserver(buffer int) *ChannelObserver {
	return &ChannelObserver{ch: make(chan StreamDelta, buffer)}
}

// C returns the event channel.
func (c *ChannelObserver) C() <-chan StreamDelta {
	return c.ch
}

func (c *ChannelObserver) OnDelta(text string) {
	c.ch <- StreamDelta{Token: text}
}

func (c *ChannelObserver) OnComplete(finalText string) {
	c.ch <- StreamDelta{Done: true, Text: finalText}
	close(c.ch)
}

func (c *ChannelObserver) OnCancelled() {
	c.ch <- StreamDelta{Cancelled: true}
	close(c.ch)
}

func (c *ChannelObserver) OnError(err error) {
	c.ch <- StreamDelta{Err: err}
	close(c.ch)
}

// collectStream reads all tokens from a stream channel and returns the
// concatenated result.
func collectStream(ch <-chan StreamDelta) (string, error) {
	var result string
	for delta := range ch {
		if delta.Err != nil {
			return result, delta.Err
		}
		if delta.Cancelled {
			return result, ErrCancelled
		}
		result += delta.Token
	}
	return result, nil
}
