// Package request performs the HTTP transfers for the client. It separates
// the two failure channels the callers must tell apart: transport failures
// (connection, DNS, timeout) are ErrTransport-wrapped, while non-2xx API
// responses surface the status code and raw body. Validation never reaches
// this package; by the time an Item arrives it is fully formed.
package request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mmquant/bfx-go/nonce"
)

// DefaultTimeout is the fixed per-request transport timeout
const DefaultTimeout = 30 * time.Second

var (
	// ErrTransport wraps failures where the request never produced a
	// response: the exchange cannot have seen it
	ErrTransport = errors.New("transport failure")
	// ErrAPIStatus wraps responses the exchange answered with a non-2xx
	// status: the request arrived and was rejected
	ErrAPIStatus = errors.New("unsuccessful HTTP status")

	errRequesterIsNil = errors.New("requester is nil")
	errItemIsNil      = errors.New("request item is nil")
	errInvalidPath    = errors.New("invalid path")
)

// Item carries everything needed to perform one request
type Item struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    io.Reader
}

// Requester owns the injected HTTP client and the nonce counter for one
// credential set. A Requester serialises nonce issuance but otherwise holds
// no per-request state; the last transport status is kept atomically so the
// owning client can report it independently of semantic failures.
type Requester struct {
	Name       string
	HTTPClient *http.Client
	Nonce      nonce.Nonce

	log        *zap.Logger
	lastStatus int64
}

// New returns a Requester wrapping client. A zero client timeout means the
// fixed 30 second default; the supplied client is never mutated, a copy
// carries the adjusted timeout.
func New(name string, client *http.Client, log *zap.Logger) *Requester {
	switch {
	case client == nil:
		client = &http.Client{Timeout: DefaultTimeout}
	case client.Timeout == 0:
		clone := *client
		clone.Timeout = DefaultTimeout
		client = &clone
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Requester{
		Name:       name,
		HTTPClient: client,
		log:        log,
	}
}

// GetNonce issues the next nonce for this requester's credential set.
// Issuance is serialised; values strictly increase for the life of the
// process.
func (r *Requester) GetNonce() nonce.Value {
	return r.Nonce.GetInc()
}

// LastStatus returns the HTTP status code of the most recent response, or 0
// when the last request never produced one
func (r *Requester) LastStatus() int {
	return int(atomic.LoadInt64(&r.lastStatus))
}

// SendPayload performs one request and returns the raw response body. No
// retries: a transport error aborts immediately and the retry policy, if
// any, belongs to the caller.
func (r *Requester) SendPayload(ctx context.Context, item *Item) ([]byte, error) {
	if r == nil {
		return nil, errRequesterIsNil
	}
	if item == nil {
		return nil, errItemIsNil
	}
	if item.Path == "" {
		return nil, errInvalidPath
	}

	req, err := http.NewRequestWithContext(ctx, item.Method, item.Path, item.Body)
	if err != nil {
		return nil, err
	}
	for k, v := range item.Headers {
		req.Header.Set(k, v)
	}

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		atomic.StoreInt64(&r.lastStatus, 0)
		r.log.Error("request failed before reaching the exchange",
			zap.String("service", r.Name),
			zap.String("method", item.Method),
			zap.String("path", item.Path),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()
	atomic.StoreInt64(&r.lastStatus, int64(resp.StatusCode))

	contents, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", ErrTransport, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode > http.StatusAccepted {
		r.log.Error("exchange rejected the request",
			zap.String("service", r.Name),
			zap.String("method", item.Method),
			zap.String("path", item.Path),
			zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: %s code: %d raw response: %s",
			ErrAPIStatus, r.Name, resp.StatusCode, contents)
	}

	r.log.Debug("request complete",
		zap.String("service", r.Name),
		zap.String("method", item.Method),
		zap.String("path", item.Path),
		zap.Int("status", resp.StatusCode))
	return contents, nil
}
