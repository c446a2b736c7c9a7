package exchange

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"
)

// Outcome is the result of one probe. Either StatusCode is set (a response
// was received, whatever its status) or TransportError is, never both.
type Outcome struct {
	StatusCode int
	Status     string
	Proto      string
	Header     http.Header
	RawBody    []byte

	// ParsedBody holds the decoded body when Parsed is true. A JSON null
	// body leaves ParsedBody nil with Parsed set.
	ParsedBody interface{}
	Parsed     bool

	TransportError error
	Elapsed        time.Duration
}

// Succeeded reports whether a response was received.
func (o *Outcome) Succeeded() bool {
	return o.TransportError == nil
}

func (o *Outcome) RawText() string {
	return string(o.RawBody)
}

func newTransportFailure(err error, elapsed time.Duration) *Outcome {
	return &Outcome{
		TransportError: err,
		Elapsed:        elapsed,
	}
}

func newResponseOutcome(resp *http.Response, body []byte, elapsed time.Duration) *Outcome {
	o := &Outcome{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Proto:      resp.Proto,
		Header:     resp.Header,
		RawBody:    body,
		Elapsed:    elapsed,
	}
	o.ParsedBody, o.Parsed = decodeJSON(body)
	return o
}

// decodeJSON never fails: a body that is not a single JSON value is
// reported as unparsed.
func decodeJSON(body []byte) (interface{}, bool) {
	if !json.Valid(body) {
		return nil, false
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var v interface{}
	if err := decoder.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}
