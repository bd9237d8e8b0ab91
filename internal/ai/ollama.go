package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arin/ndstream/internal/logger"
)

const (
	DefaultEndpoint       = "http://localhost:11434"
	DefaultConnectTimeout = 5 * time.Second

	generatePath = "/api/generate"
	chatPath     = "/api/chat"
	tagsPath     = "/api/tags"
	versionPath  = "/api/version"
)

// OllamaTransport implements Transport for an Ollama-compatible HTTP API.
type OllamaTransport struct {
	base       *url.URL
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger
}

// NewOllamaTransport creates a transport for the server at endpoint. The
// HTTP client has a dial timeout but no overall timeout, since a stream may
// legitimately run for minutes.
func NewOllamaTransport(endpoint string, connectTimeout time.Duration, opts ...OllamaOption) (*OllamaTransport, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	base, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}

	o := &OllamaTransport{
		base: base,
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:       http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
			},
		},
		log: logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// OllamaOption configures an OllamaTransport.
type OllamaOption func(*OllamaTransport)

// WithAPIKey sends the key as a bearer token, for servers behind an
// authenticating proxy.
func WithAPIKey(key string) OllamaOption {
	return func(o *OllamaTransport) { o.apiKey = key }
}

// WithTransportLogger sets the transport logger.
func WithTransportLogger(l *slog.Logger) OllamaOption {
	return func(o *OllamaTransport) {
		if l != nil {
			o.log = l
		}
	}
}

// Endpoint returns the server base URL.
func (o *OllamaTransport) Endpoint() string {
	return o.base.String()
}

func (o *OllamaTransport) url(path string) string {
	return o.base.JoinPath(path).String()
}

// Open posts the request and returns the NDJSON body once the response has
// been validated.
func (o *OllamaTransport) Open(ctx context.Context, req Request) (io.ReadCloser, error) {
	path, payload := generatePath, any(generateRequest{
		Model:   req.Model,
		Prompt:  req.Prompt,
		System:  req.System,
		Options: req.Options,
	})
	if req.IsChat() {
		path = chatPath
		payload = chatRequest{
			Model:    req.Model,
			Messages: chatMessages(req),
			Stream:   true,
			Options:  req.Options,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url(path), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/x-ndjson")
	o.authorize(httpReq)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w at %s (is it running? start with: ollama serve): %w", ErrUnreachable, o.Endpoint(), err)
	}

	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		return nil, statusError(resp, req.Model)
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		if resp.Body != nil {
			resp.Body.Close()
		}
		return nil, ErrNoBody
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "ndjson") && !strings.Contains(ct, "json") {
		o.log.Debug("unexpected content type for stream", "content_type", ct)
	}
	return resp.Body, nil
}

// Models lists the models installed on the server.
func (o *OllamaTransport) Models(ctx context.Context) ([]Model, error) {
	var tags tagsResponse
	if err := o.getJSON(ctx, tagsPath, &tags); err != nil {
		return nil, err
	}
	return tags.Models, nil
}

// Version returns the server version string.
func (o *OllamaTransport) Version(ctx context.Context) (string, error) {
	var v versionResponse
	if err := o.getJSON(ctx, versionPath, &v); err != nil {
		return "", err
	}
	return v.Version, nil
}

func (o *OllamaTransport) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.url(path), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	o.authorize(req)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w at %s: %w", ErrUnreachable, o.Endpoint(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp, "")
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (o *OllamaTransport) authorize(req *http.Request) {
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}
}

// statusError builds a *StatusError, pulling the message out of a JSON
// {"error": "..."} body when there is one.
func statusError(resp *http.Response, model string) error {
	serr := &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var er errorResponse
	if json.Unmarshal(raw, &er) == nil && er.Error != "" {
		serr.Message = er.Error
	} else {
		serr.Message = strings.TrimSpace(string(raw))
	}
	if resp.StatusCode == http.StatusNotFound && strings.Contains(serr.Message, "not found") {
		serr.Model = model
	}
	return serr
}

func chatMessages(req Request) []ChatMessage {
	msgs := make([]ChatMessage, 0, len(req.Messages)+2)
	if req.System != "" && (len(req.Messages) == 0 || req.Messages[0].Role != RoleSystem) {
		msgs = append(msgs, ChatMessage{Role: RoleSystem, Content: req.System})
	}
	msgs = append(msgs, req.Messages...)
	if req.Prompt != "" {
		msgs = append(msgs, ChatMessage{Role: RoleUser, Content: req.Prompt})
	}
	return msgs
}
