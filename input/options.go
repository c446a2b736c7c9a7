package input

import "net/url"

type Options struct {
	ReadStdin bool

	// BaseURL resolves URL arguments that start with "/".
	BaseURL *url.URL
}
