package bitfinex

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mmquant/bfx-go/nonce"
)

// payload builds the canonical JSON object of one authenticated call. The
// wire contract fixes the opening: {"request":"<versioned path>","nonce":"…"
// comes first, endpoint fields follow in insertion order. Values go through
// encoding/json so quoting is never hand-rolled; the one exception is the
// withdraw.conf fragment, which is spliced verbatim because its values are
// already serialised. A payload is built once per call and never mutated
// after signing.
type payload struct {
	buf bytes.Buffer
	err error
}

func newPayload(requestPath string, n nonce.Value) *payload {
	p := &payload{}
	p.buf.WriteString(`{"request":`)
	p.writeJSON(requestPath)
	p.buf.WriteString(`,"nonce":"`)
	p.buf.WriteString(n.String())
	p.buf.WriteByte('"')
	return p
}

// add appends ,"key":<marshalled value>
func (p *payload) add(key string, v interface{}) *payload {
	p.buf.WriteString(`,"`)
	p.buf.WriteString(key)
	p.buf.WriteString(`":`)
	p.writeJSON(v)
	return p
}

// addFragment splices a pre-serialised `,"key":value` fragment
func (p *payload) addFragment(frag string) *payload {
	p.buf.WriteString(frag)
	return p
}

func (p *payload) writeJSON(v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("marshalling payload value: %w", err)
		return
	}
	p.buf.Write(raw)
}

// bytes closes the object and returns the final JSON
func (p *payload) bytes() ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	return append(p.buf.Bytes(), '}'), nil
}
