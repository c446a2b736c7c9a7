package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/nojima/httpprobe/input"
)

func newDescriptor(t *testing.T, method, rawurl string) *input.Descriptor {
	return &input.Descriptor{
		Method: input.Method(method),
		URL:    parseURL(t, rawurl),
	}
}

func TestProbe_JSONResponse(t *testing.T) {
	// Setup
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"a":1}`)
	}))
	defer server.Close()

	// Exercise
	outcome, err := Probe(context.Background(), server.Client(), newDescriptor(t, "GET", server.URL), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	if outcome.TransportError != nil {
		t.Fatalf("unexpected transport error: %v", outcome.TransportError)
	}
	if outcome.StatusCode != 200 {
		t.Errorf("unexpected status code: expected=200, actual=%d", outcome.StatusCode)
	}
	if !outcome.Parsed {
		t.Fatalf("body should be parsed")
	}
	expected := map[string]interface{}{"a": json.Number("1")}
	if !reflect.DeepEqual(outcome.ParsedBody, expected) {
		t.Errorf("unexpected parsed body: expected=%#v, actual=%#v", expected, outcome.ParsedBody)
	}
	if outcome.RawText() != `{"a":1}` {
		t.Errorf("unexpected raw body: %s", outcome.RawText())
	}
}

func TestProbe_ServerErrorWithText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "not json")
	}))
	defer server.Close()

	outcome, err := Probe(context.Background(), server.Client(), newDescriptor(t, "GET", server.URL), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	if !outcome.Succeeded() {
		t.Fatalf("a 500 response must not be a transport error: %v", outcome.TransportError)
	}
	if outcome.StatusCode != 500 {
		t.Errorf("unexpected status code: expected=500, actual=%d", outcome.StatusCode)
	}
	if outcome.RawText() != "not json" {
		t.Errorf("unexpected raw body: %s", outcome.RawText())
	}
	if outcome.Parsed || outcome.ParsedBody != nil {
		t.Errorf("body should not be parsed: %#v", outcome.ParsedBody)
	}
}

func TestProbe_NullBodyIsParsed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "null")
	}))
	defer server.Close()

	outcome, err := Probe(context.Background(), server.Client(), newDescriptor(t, "GET", server.URL), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	if !outcome.Parsed || outcome.ParsedBody != nil {
		t.Errorf("unexpected parse result: parsed=%v, body=%#v", outcome.Parsed, outcome.ParsedBody)
	}
}

func TestProbe_Unreachable(t *testing.T) {
	// Setup: grab a free port and release it so nothing listens there.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	// Exercise
	outcome, err := Probe(context.Background(), http.DefaultClient, newDescriptor(t, "GET", "http://"+addr+"/"), &Options{})

	// Verify
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	if outcome.TransportError == nil {
		t.Fatalf("expected a transport error")
	}
	if outcome.StatusCode != 0 {
		t.Errorf("status code must be absent: actual=%d", outcome.StatusCode)
	}
	if outcome.Succeeded() {
		t.Errorf("outcome must not be successful")
	}
}

func TestProbe_DeadlineIsTransportError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	outcome, err := Probe(ctx, server.Client(), newDescriptor(t, "GET", server.URL), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	if outcome.TransportError == nil {
		t.Fatalf("expected a transport error")
	}
	if outcome.StatusCode != 0 {
		t.Errorf("status code must be absent: actual=%d", outcome.StatusCode)
	}
}

func TestProbe_InvalidDescriptor(t *testing.T) {
	outcome, err := Probe(context.Background(), http.DefaultClient, newDescriptor(t, "GET", "/relative"), &Options{})
	if err == nil {
		t.Fatalf("expected an error")
	}
	if outcome != nil {
		t.Errorf("unexpected outcome: %+v", outcome)
	}
}

func TestProbe_SendsDescriptor(t *testing.T) {
	// Setup
	type received struct {
		method      string
		contentType string
		auth        string
		body        string
	}
	ch := make(chan received, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := ioutil.ReadAll(r.Body)
		ch <- received{
			method:      r.Method,
			contentType: r.Header.Get("Content-Type"),
			auth:        r.Header.Get("Authorization"),
			body:        string(b),
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()
	value := map[string]interface{}{
		"model":    "tiny",
		"messages": []interface{}{map[string]interface{}{"role": "user", "content": "hi"}},
	}
	in := input.NewJSONDescriptor("", parseURL(t, server.URL+"/v1/chat/completions"), value)
	options := &Options{Auth: AuthOptions{Enabled: true, Type: BearerAuth, Token: "sk-test"}}

	// Exercise
	outcome, err := Probe(context.Background(), server.Client(), in, options)
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	if outcome.StatusCode != http.StatusCreated {
		t.Errorf("unexpected status code: %d", outcome.StatusCode)
	}
	if len(outcome.RawBody) != 0 || outcome.Parsed {
		t.Errorf("empty body should be unparsed: %q", outcome.RawBody)
	}
	got := <-ch
	if got.method != "POST" {
		t.Errorf("unexpected method: %s", got.method)
	}
	if got.contentType != "application/json" {
		t.Errorf("unexpected content type: %s", got.contentType)
	}
	if got.auth != "Bearer sk-test" {
		t.Errorf("unexpected authorization: %s", got.auth)
	}
	var sent interface{}
	if err := json.Unmarshal([]byte(got.body), &sent); err != nil {
		t.Fatalf("failed to unmarshal sent body: %v", err)
	}
	if !reflect.DeepEqual(sent, value) {
		t.Errorf("sent body differs: expected=%#v, actual=%#v", value, sent)
	}
}

func TestProbe_GetSendsEmptyBody(t *testing.T) {
	ch := make(chan int, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := ioutil.ReadAll(r.Body)
		ch <- len(b)
	}))
	defer server.Close()

	if _, err := Probe(context.Background(), server.Client(), newDescriptor(t, "GET", server.URL), &Options{}); err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	if n := <-ch; n != 0 {
		t.Errorf("GET must have an empty body: len=%d", n)
	}
}

func TestProbe_Concurrent(t *testing.T) {
	// Setup
	statuses := []int{200, 201, 202, 400, 404, 409, 500, 503}
	n := len(statuses)
	servers := make([]*httptest.Server, n)
	for i := 0; i < n; i++ {
		i := i
		servers[i] = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Later servers answer sooner so completions overlap out of order.
			time.Sleep(time.Duration(n-i) * 5 * time.Millisecond)
			w.WriteHeader(statuses[i])
			fmt.Fprintf(w, `{"server": %d}`, i)
		}))
		defer servers[i].Close()
	}
	client, err := BuildHTTPClient(&Options{})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Exercise
	outcomes := make([]*Outcome, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome, err := Probe(context.Background(), client, newDescriptor(t, "GET", servers[i].URL), &Options{})
			if err != nil {
				t.Errorf("unexpected error: err=%+v", err)
				return
			}
			outcomes[i] = outcome
		}(i)
	}
	wg.Wait()

	// Verify
	for i, outcome := range outcomes {
		if outcome == nil {
			continue
		}
		if outcome.StatusCode != statuses[i] {
			t.Errorf("server %d: unexpected status code %d", i, outcome.StatusCode)
		}
		expected := map[string]interface{}{"server": json.Number(fmt.Sprint(i))}
		if !reflect.DeepEqual(outcome.ParsedBody, expected) {
			t.Errorf("server %d: unexpected body %#v", i, outcome.ParsedBody)
		}
	}
}

func TestSend_DoesNotFollowRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusFound)
			return
		}
		fmt.Fprint(w, "moved here")
	}))
	defer server.Close()

	testCases := []struct {
		title        string
		follow       bool
		expectedCode int
	}{
		{title: "Default", follow: false, expectedCode: http.StatusFound},
		{title: "Follow", follow: true, expectedCode: http.StatusOK},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			options := &Options{FollowRedirects: tt.follow}
			outcome, err := Send(context.Background(), newDescriptor(t, "GET", server.URL+"/old"), options)
			if err != nil {
				t.Fatalf("unexpected error: err=%+v", err)
			}
			if outcome.StatusCode != tt.expectedCode {
				t.Errorf("unexpected status code: expected=%d, actual=%d", tt.expectedCode, outcome.StatusCode)
			}
		})
	}
}

func TestBuildHTTPClient(t *testing.T) {
	client, err := BuildHTTPClient(&Options{SkipVerify: true, ForceHTTP1: true})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	if client.Timeout != 0 {
		t.Errorf("no implicit timeout expected: actual=%v", client.Timeout)
	}
	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("unexpected transport type: %T", client.Transport)
	}
	if !transport.TLSClientConfig.InsecureSkipVerify {
		t.Errorf("InsecureSkipVerify should be set")
	}
	if !reflect.DeepEqual(transport.TLSClientConfig.NextProtos, []string{"http/1.1", "http/1.0"}) {
		t.Errorf("unexpected NextProtos: %v", transport.TLSClientConfig.NextProtos)
	}
}

func TestBuildHTTPClient_ClonesGivenTransport(t *testing.T) {
	given := &http.Transport{}

	client, err := BuildHTTPClient(&Options{Transport: given, SkipVerify: true})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	if client.Transport == given {
		t.Errorf("the given transport should not be modified in place")
	}
	if given.TLSClientConfig != nil && given.TLSClientConfig.InsecureSkipVerify {
		t.Errorf("SkipVerify leaked into the given transport")
	}
	cloned := client.Transport.(*http.Transport)
	if !cloned.TLSClientConfig.InsecureSkipVerify {
		t.Errorf("SkipVerify should be applied to the client transport")
	}
	if client.CheckRedirect == nil {
		t.Errorf("redirects should not be followed by default")
	}
}
