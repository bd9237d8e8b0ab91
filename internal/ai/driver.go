package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arin/ndstream/internal/logger"
	"github.com/arin/ndstream/internal/ndjson"
)

// DefaultReadSize is the buffer size used for each transport read.
const DefaultReadSize = 4096

// State is the lifecycle state of a stream.
type State int32

const (
	StateIdle      State = iota // Before the first read.
	StateReading                // Pulling chunks from the transport.
	StateCompleted              // done=true seen, or the server closed cleanly.
	StateCancelled              // The caller cancelled.
	StateFailed                 // Transport or server failure.
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReading:
		return "reading"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// Outcome is the result of one stream.
type Outcome struct {
	State State
	// Text is the concatenation, in arrival order, of every parsed fragment.
	Text string
	// Err is set when State is StateFailed.
	Err error

	Records       int
	ParseFailures int
	// Final is the done=true record, nil when the stream ended without one.
	Final              *Record
	EndedWithoutMarker bool
	// Discarded is the unterminated trailing text dropped at end of stream.
	Discarded string

	Started    time.Time
	FirstDelta time.Time
	Finished   time.Time
}

// TimeToFirstDelta is zero when no fragment arrived.
func (o Outcome) TimeToFirstDelta() time.Duration {
	if o.FirstDelta.IsZero() {
		return 0
	}
	return o.FirstDelta.Sub(o.Started)
}

// Elapsed is the wall time of the stream.
func (o Outcome) Elapsed() time.Duration {
	return o.Finished.Sub(o.Started)
}

// Driver pulls chunks from a response body and turns them into deltas.
// A Driver runs one stream at a time; its State may be read concurrently.
type Driver struct {
	readSize int
	log      *slog.Logger
	state    atomic.Int32
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithReadSize sets the transport read buffer size.
func WithReadSize(n int) DriverOption {
	return func(d *Driver) {
		if n > 0 {
			d.readSize = n
		}
	}
}

// WithDriverLogger sets the logger used for skipped lines.
func WithDriverLogger(l *slog.Logger) DriverOption {
	return func(d *Driver) {
		if l != nil {
			d.log = l
		}
	}
}

func NewDriver(opts ...DriverOption) *Driver {
	d := &Driver{readSize: DefaultReadSize, log: logger.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State returns the current state.
func (d *Driver) State() State {
	return State(d.state.Load())
}

// Run streams body until a done=true record, end of input, cancellation of
// ctx, or a read error. It only calls obs.OnDelta (and OnParseFailure when
// implemented); terminal notification is left to the caller.
//
// body is closed exactly once before Run returns, on every path. A read
// blocked when ctx is cancelled is unblocked by closing body.
func (d *Driver) Run(ctx context.Context, body io.ReadCloser, obs Observer) Outcome {
	if obs == nil {
		obs = ObserverFuncs{}
	}
	release := sync.OnceValue(body.Close)
	stop := context.AfterFunc(ctx, func() { _ = release() })
	defer stop()

	d.state.Store(int32(StateReading))
	out := Outcome{Started: time.Now()}

	var (
		dec    = ndjson.NewDecoder()
		framer ndjson.Framer
		acc    strings.Builder
		buf    = make([]byte, d.readSize)
	)

	finish := func(s State, err error) Outcome {
		if cerr := release(); cerr != nil && s != StateCancelled {
			d.log.Debug("closing stream body", "error", cerr)
		}
		d.state.Store(int32(s))
		out.State = s
		out.Err = err
		out.Text = acc.String()
		out.Finished = time.Now()
		return out
	}

	for {
		if ctx.Err() != nil {
			return finish(StateCancelled, nil)
		}

		n, rerr := body.Read(buf)
		if n > 0 {
			for _, line := range framer.Feed(dec.Decode(buf[:n])) {
				if ctx.Err() != nil {
					return finish(StateCancelled, nil)
				}

				rec, ok, perr := ParseRecord(line)
				if perr != nil {
					out.ParseFailures++
					d.log.Warn("skipping malformed record", "line", truncate(line, 200), "error", perr)
					if pf, isPF := obs.(ParseFailureObserver); isPF {
						pf.OnParseFailure(line, perr)
					}
				}
				if !ok {
					continue
				}

				out.Records++
				if rec.Response != "" {
					if out.FirstDelta.IsZero() {
						out.FirstDelta = time.Now()
					}
					acc.WriteString(rec.Response)
					obs.OnDelta(rec.Response)
				}
				if rec.Done {
					out.Final = &rec
					return finish(StateCompleted, nil)
				}
			}
		}

		if rerr != nil {
			if ctx.Err() != nil {
				return finish(StateCancelled, nil)
			}
			if errors.Is(rerr, io.EOF) {
				out.EndedWithoutMarker = true
				if framer.Pending() != "" || dec.Pending() > 0 {
					d.log.Debug("discarding unterminated trailing line",
						"line", truncate(framer.Pending(), 200),
						"carried_bytes", dec.Pending(),
					)
				}
				out.Discarded = framer.Discard() + dec.Flush()
				return finish(StateCompleted, nil)
			}
			return finish(StateFailed, fmt.Errorf("read stream: %w", rerr))
		}
	}
}
