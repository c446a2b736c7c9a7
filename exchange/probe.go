package exchange

import (
	"context"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/nojima/httpprobe/input"
	"github.com/pkg/errors"
)

// Probe sends exactly one request described by in and waits for the answer.
//
// The returned error is non-nil only when the descriptor cannot be turned
// into a request; nothing has been sent in that case. Network failures,
// including expiry of ctx, are reported through Outcome.TransportError.
// Any HTTP status is a successful outcome.
func Probe(ctx context.Context, client *http.Client, in *input.Descriptor, options *Options) (*Outcome, error) {
	r, err := BuildHTTPRequest(ctx, in, options)
	if err != nil {
		return nil, errors.Wrap(err, "building HTTP request")
	}

	start := time.Now()
	resp, err := client.Do(r)
	if err != nil {
		return newTransportFailure(errors.Wrap(err, "sending HTTP request"), time.Since(start)), nil
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return newTransportFailure(errors.Wrap(err, "reading response body"), time.Since(start)), nil
	}

	return newResponseOutcome(resp, body, time.Since(start)), nil
}

// Send builds a client from options and probes once with it.
func Send(ctx context.Context, in *input.Descriptor, options *Options) (*Outcome, error) {
	client, err := BuildHTTPClient(options)
	if err != nil {
		return nil, err
	}
	defer client.CloseIdleConnections()
	return Probe(ctx, client, in, options)
}
