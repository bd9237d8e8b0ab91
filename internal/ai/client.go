package ai

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arin/ndstream/internal/config"
	"github.com/arin/ndstream/internal/logger"
)

// Client submits prompts to the inference server and streams the answers.
// Each submission gets its own Handle and Driver; handles share no mutable
// state and may run concurrently.
type Client struct {
	cfg       *config.Config
	transport Transport
	log       *slog.Logger
	readSize  int

	// err is a construction failure (e.g. a bad endpoint), reported by every
	// submission.
	err error
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTransport replaces the HTTP transport.
func WithTransport(t Transport) ClientOption {
	return func(c *Client) { c.transport = t }
}

// WithLogger sets the logger for the client and its drivers.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func NewClient(cfg *config.Config, opts ...ClientOption) *Client {
	if cfg == nil {
		cfg = config.Default()
	}
	c := &Client{
		cfg:      cfg,
		log:      logger.Nop(),
		readSize: cfg.ReadSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		t, err := NewOllamaTransport(cfg.Endpoint, cfg.ConnectTimeout,
			WithAPIKey(cfg.APIKey),
			WithTransportLogger(c.log),
		)
		if err != nil {
			c.err = err
		} else {
			c.transport = t
		}
	}
	return c
}

// Endpoint returns the configured server URL.
func (c *Client) Endpoint() string {
	if t, ok := c.transport.(*OllamaTransport); ok {
		return t.Endpoint()
	}
	return c.cfg.Endpoint
}

// Submit starts streaming the answer to prompt from model. An empty model
// falls back to the configured one. obs may be nil.
func (c *Client) Submit(ctx context.Context, prompt, model string, obs Observer) *Handle {
	return c.SubmitRequest(ctx, Request{Model: model, Prompt: prompt}, obs)
}

// SubmitRequest is Submit with the full request form.
func (c *Client) SubmitRequest(ctx context.Context, req Request, obs Observer) *Handle {
	if req.Model == "" {
		req.Model = c.cfg.Model
	}
	if obs == nil {
		obs = ObserverFuncs{}
	}

	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		id:      uuid.NewString(),
		request: req,
		cancel:  cancel,
		obs:     obs,
		done:    make(chan struct{}),
	}
	h.log = c.log.With("request_id", h.id, "model", req.Model)
	h.driver = NewDriver(WithReadSize(c.readSize), WithDriverLogger(h.log))

	go h.run(ctx, c)
	return h
}

// Generate blocks until the answer is complete and returns it.
func (c *Client) Generate(ctx context.Context, prompt, model string) (string, error) {
	obs := NewChannelObserver(64)
	c.Submit(ctx, prompt, model, obs)
	return collectStream(obs.C())
}

// Chat sends a conversation and blocks until the assistant reply is
// complete. The last message is expected to be the user's turn.
func (c *Client) Chat(ctx context.Context, history []ChatMessage) (string, error) {
	obs := NewChannelObserver(64)
	c.SubmitRequest(ctx, Request{Chat: true, Messages: history}, obs)
	return collectStream(obs.C())
}

// Models lists the models available on the server.
func (c *Client) Models(ctx context.Context) ([]Model, error) {
	ml, err := c.lister()
	if err != nil {
		return nil, err
	}
	return ml.Models(ctx)
}

// Version returns the server version.
func (c *Client) Version(ctx context.Context) (string, error) {
	ml, err := c.lister()
	if err != nil {
		return "", err
	}
	return ml.Version(ctx)
}

func (c *Client) lister() (ModelLister, error) {
	if c.err != nil {
		return nil, c.err
	}
	ml, ok := c.transport.(ModelLister)
	if !ok {
		return nil, errors.New("transport cannot list models")
	}
	return ml, nil
}

// Handle is one in-flight request.
type Handle struct {
	id      string
	request Request
	cancel  context.CancelFunc
	obs     Observer
	driver  *Driver
	log     *slog.Logger

	done    chan struct{}
	once    sync.Once
	outcome Outcome
}

// ID identifies the request in logs and history.
func (h *Handle) ID() string {
	return h.id
}

// Request returns the submitted request, with defaults applied.
func (h *Handle) Request() Request {
	return h.request
}

// Cancel asks the request to stop. It is safe to call any number of times,
// including after the request has finished, and never blocks.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done is closed after the terminal notification has been delivered.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the request has finished and returns its outcome.
func (h *Handle) Wait() Outcome {
	<-h.done
	return h.outcome
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	select {
	case <-h.done:
		return h.outcome.State
	default:
		return h.driver.State()
	}
}

func (h *Handle) run(ctx context.Context, c *Client) {
	defer close(h.done)
	defer h.cancel()

	started := time.Now()
	fail := func(err error) Outcome {
		out := Outcome{State: StateFailed, Err: err, Started: started, Finished: time.Now()}
		if ctx.Err() != nil {
			out.State, out.Err = StateCancelled, nil
		}
		return out
	}

	if c.err != nil {
		h.finish(fail(c.err))
		return
	}

	h.log.Debug("submitting request", "chat", h.request.IsChat())
	body, err := c.transport.Open(ctx, h.request)
	if err != nil {
		h.finish(fail(err))
		return
	}
	h.finish(h.driver.Run(ctx, body, h.obs))
}

// finish delivers the single terminal notification.
func (h *Handle) finish(out Outcome) {
	h.once.Do(func() {
		h.outcome = out
		switch out.State {
		case StateCompleted:
			h.log.Debug("request completed",
				"records", out.Records,
				"parse_failures", out.ParseFailures,
				"without_marker", out.EndedWithoutMarker,
				"elapsed", out.Elapsed(),
			)
			h.obs.OnComplete(out.Text)
		case StateCancelled:
			h.log.Debug("request cancelled", "records", out.Records)
			h.obs.OnCancelled()
		default:
			h.log.Debug("request failed", "error", out.Err)
			h.obs.OnError(out.Err)
		}
	})
}
