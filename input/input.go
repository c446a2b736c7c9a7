package input

import (
	"net/url"

	"github.com/pkg/errors"
)

// Descriptor holds everything needed to issue one HTTP request.
// It is built right before a probe and must not be modified afterwards.
type Descriptor struct {
	Method     Method
	URL        *url.URL
	Parameters []Field
	Header     Header
	Body       Body
}

type Method string

const DefaultMethod = Method("GET")

type Header struct {
	Fields []Field
}

type BodyType int

const (
	EmptyBody BodyType = iota
	JSONBody
	RawBody
)

func (t BodyType) String() string {
	switch t {
	case EmptyBody:
		return "empty"
	case JSONBody:
		return "json"
	case RawBody:
		return "raw"
	default:
		return "unknown"
	}
}

type Body struct {
	BodyType      BodyType
	Fields        []Field
	RawJSONFields []Field     // used only when BodyType == JSONBody
	Value         interface{} // used only when BodyType == JSONBody; takes precedence over fields
	Raw           []byte      // used only when BodyType == RawBody
}

type Field struct {
	Name   string
	Value  string
	IsFile bool
}

// NewJSONDescriptor returns a descriptor whose body is the JSON encoding of v.
func NewJSONDescriptor(method Method, u *url.URL, v interface{}) *Descriptor {
	return &Descriptor{
		Method: method,
		URL:    u,
		Body: Body{
			BodyType: JSONBody,
			Value:    v,
		},
	}
}

// Validate checks the constraints a descriptor must satisfy before it is sent.
func (d *Descriptor) Validate() error {
	if d.URL == nil {
		return errors.New("URL is required")
	}
	if !d.URL.IsAbs() || d.URL.Host == "" {
		return errors.Errorf("URL must be absolute: %s", d.URL)
	}
	if d.URL.Scheme != "http" && d.URL.Scheme != "https" {
		return errors.Errorf("unsupported URL scheme: %s", d.URL.Scheme)
	}
	if d.Method != "" && !reMethod.MatchString(string(d.Method)) {
		return errors.Errorf("METHOD must consist of alphabets: %s", d.Method)
	}
	return nil
}

// EffectiveMethod returns the method the request will be sent with.
func (d *Descriptor) EffectiveMethod() Method {
	if d.Method != "" {
		return d.Method
	}
	return guessMethod(d)
}
