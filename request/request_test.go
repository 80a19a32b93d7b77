package request

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewAppliesDefaultTimeout(t *testing.T) {
	r := New("test", nil, nil)
	assert.Equal(t, DefaultTimeout, r.HTTPClient.Timeout)

	custom := &http.Client{Timeout: 5 * time.Second}
	r = New("test", custom, zap.NewNop())
	assert.Equal(t, 5*time.Second, r.HTTPClient.Timeout)
}

func TestNewDoesNotMutateSuppliedClient(t *testing.T) {
	shared := &http.Client{}
	r := New("test", shared, nil)

	assert.Equal(t, DefaultTimeout, r.HTTPClient.Timeout)
	assert.Zero(t, shared.Timeout, "caller's client keeps its own timeout")
	assert.NotSame(t, shared, r.HTTPClient)
}

func TestSendPayloadValidation(t *testing.T) {
	var nilRequester *Requester
	_, err := nilRequester.SendPayload(context.Background(), &Item{Path: "x"})
	assert.Error(t, err)

	r := New("test", nil, nil)
	_, err = r.SendPayload(context.Background(), nil)
	assert.Error(t, err)

	_, err = r.SendPayload(context.Background(), &Item{})
	assert.Error(t, err)
}

func TestSendPayloadReturnsRawBody(t *testing.T) {
	var gotHeader string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotHeader = req.Header.Get("X-BFX-APIKEY")
		gotBody, _ = io.ReadAll(req.Body)
		w.Write([]byte(`{"result":"success"}`))
	}))
	defer srv.Close()

	r := New("test", nil, nil)
	body, err := r.SendPayload(context.Background(), &Item{
		Method:  http.MethodPost,
		Path:    srv.URL + "/v1/balances",
		Headers: map[string]string{"X-BFX-APIKEY": "key"},
		Body:    strings.NewReader("\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"result":"success"}`, string(body))
	assert.Equal(t, "key", gotHeader)
	assert.Equal(t, "\n", string(gotBody), "v1 POST body is a single newline")
	assert.Equal(t, http.StatusOK, r.LastStatus())
}

func TestSendPayloadAPIStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Invalid order"}`))
	}))
	defer srv.Close()

	r := New("test", nil, nil)
	_, err := r.SendPayload(context.Background(), &Item{
		Method: http.MethodPost,
		Path:   srv.URL,
	})
	require.ErrorIs(t, err, ErrAPIStatus)
	assert.NotErrorIs(t, err, ErrTransport, "channels never conflate")
	assert.Contains(t, err.Error(), "Invalid order")
	assert.Equal(t, http.StatusBadRequest, r.LastStatus())
}

func TestSendPayloadTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections

	r := New("test", nil, nil)
	_, err := r.SendPayload(context.Background(), &Item{
		Method: http.MethodGet,
		Path:   srv.URL,
	})
	require.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrAPIStatus)
	assert.Zero(t, r.LastStatus(), "no status when the request never arrived")
}

func TestGetNonceStrictlyIncreases(t *testing.T) {
	r := New("test", nil, nil)
	prev := r.GetNonce()
	for i := 0; i < 100; i++ {
		next := r.GetNonce()
		require.Greater(t, int64(next), int64(prev))
		prev = next
	}
}
