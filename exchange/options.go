package exchange

import (
	"net/http"
	"time"
)

type Options struct {
	// Timeout bounds the whole exchange. Zero means no timeout.
	Timeout         time.Duration
	FollowRedirects bool
	Auth            AuthOptions
	SkipVerify      bool
	ForceHTTP1      bool
	Transport       http.RoundTripper
}

type AuthType int

const (
	BasicAuth AuthType = iota
	BearerAuth
)

type AuthOptions struct {
	Enabled  bool
	Type     AuthType
	UserName string
	Password string
	Token    string
}
