package exchange

import (
	"crypto/tls"
	"net/http"
)

// BuildHTTPClient returns a client that follows the redirect and TLS policy
// of options. The client has no timeout unless options.Timeout is set.
func BuildHTTPClient(options *Options) (*http.Client, error) {
	return &http.Client{
		CheckRedirect: redirectPolicy(options),
		Timeout:       options.Timeout,
		Transport:     buildTransport(options),
	}, nil
}

func redirectPolicy(options *Options) func(*http.Request, []*http.Request) error {
	if options.FollowRedirects {
		return nil
	}
	return func(req *http.Request, via []*http.Request) error {
		// Hand the 30x response back as the outcome
		return http.ErrUseLastResponse
	}
}

func buildTransport(options *Options) http.RoundTripper {
	var transport *http.Transport
	switch t := options.Transport.(type) {
	case nil:
		transport = http.DefaultTransport.(*http.Transport).Clone()
	case *http.Transport:
		transport = t.Clone()
	default:
		// Foreign round trippers are used as they are.
		return t
	}

	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	}
	transport.TLSClientConfig.InsecureSkipVerify = options.SkipVerify
	if options.ForceHTTP1 {
		transport.ForceAttemptHTTP2 = false
		transport.TLSClientConfig.NextProtos = []string{"http/1.1", "http/1.0"}
		transport.TLSNextProto = make(map[string]func(string, *tls.Conn) http.RoundTripper)
	}
	return transport
}
