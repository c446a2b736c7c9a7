package exchange

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"

	"github.com/nojima/httpprobe/input"
	"github.com/nojima/httpprobe/version"
	"github.com/pkg/errors"
)

const jsonContentType = "application/json"

// BuildHTTPRequest turns a descriptor into a request bound to ctx.
func BuildHTTPRequest(ctx context.Context, in *input.Descriptor, options *Options) (*http.Request, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	u, err := buildURL(in)
	if err != nil {
		return nil, err
	}

	header, err := buildHTTPHeader(in)
	if err != nil {
		return nil, err
	}

	bodyTuple, err := buildHTTPBody(in)
	if err != nil {
		return nil, err
	}

	if header.Get("Content-Type") == "" && bodyTuple.contentType != "" {
		header.Set("Content-Type", bodyTuple.contentType)
	}
	if header.Get("User-Agent") == "" {
		header.Set("User-Agent", version.UserAgent())
	}
	if options.Auth.Enabled && header.Get("Authorization") == "" {
		switch options.Auth.Type {
		case BasicAuth:
			credentials := options.Auth.UserName + ":" + options.Auth.Password
			header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(credentials)))
		case BearerAuth:
			header.Set("Authorization", "Bearer "+options.Auth.Token)
		default:
			return nil, errors.Errorf("unknown auth type: %v", options.Auth.Type)
		}
	}

	r := http.Request{
		Method:        string(in.EffectiveMethod()),
		URL:           u,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Host:          header.Get("Host"),
		Body:          bodyTuple.body,
		ContentLength: bodyTuple.contentLength,
	}
	if bodyTuple.body != nil {
		payload := bodyTuple.payload
		r.GetBody = func() (io.ReadCloser, error) {
			return ioutil.NopCloser(bytes.NewReader(payload)), nil
		}
	}
	return r.WithContext(ctx), nil
}

func buildURL(in *input.Descriptor) (*url.URL, error) {
	q, err := url.ParseQuery(in.URL.RawQuery)
	if err != nil {
		return nil, errors.Wrap(err, "parsing query string")
	}
	for _, field := range in.Parameters {
		value, err := resolveFieldValue(field)
		if err != nil {
			return nil, err
		}
		q.Add(field.Name, value)
	}

	u := *in.URL
	if len(in.Parameters) > 0 {
		u.RawQuery = q.Encode()
	}
	return &u, nil
}

func buildHTTPHeader(in *input.Descriptor) (http.Header, error) {
	header := make(http.Header)
	for _, field := range in.Header.Fields {
		value, err := resolveFieldValue(field)
		if err != nil {
			return nil, err
		}
		header.Add(field.Name, value)
	}
	return header, nil
}

type bodyTuple struct {
	body          io.ReadCloser
	payload       []byte
	contentLength int64
	contentType   string
}

func newBodyTuple(payload []byte, contentType string) bodyTuple {
	return bodyTuple{
		body:          ioutil.NopCloser(bytes.NewReader(payload)),
		payload:       payload,
		contentLength: int64(len(payload)),
		contentType:   contentType,
	}
}

func buildHTTPBody(in *input.Descriptor) (bodyTuple, error) {
	switch in.Body.BodyType {
	case input.EmptyBody:
		return bodyTuple{}, nil
	case input.JSONBody:
		return buildJSONBody(in)
	case input.RawBody:
		return buildRawBody(in)
	default:
		return bodyTuple{}, errors.Errorf("unknown body type: %v", in.Body.BodyType)
	}
}

func buildJSONBody(in *input.Descriptor) (bodyTuple, error) {
	if len(in.Body.Fields) == 0 && len(in.Body.RawJSONFields) == 0 {
		body, err := json.Marshal(in.Body.Value)
		if err != nil {
			return bodyTuple{}, errors.Wrap(err, "marshaling JSON of HTTP body")
		}
		return newBodyTuple(body, jsonContentType), nil
	}

	obj := map[string]interface{}{}
	for _, field := range in.Body.Fields {
		value, err := resolveFieldValue(field)
		if err != nil {
			return bodyTuple{}, err
		}
		obj[field.Name] = value
	}
	for _, field := range in.Body.RawJSONFields {
		value, err := resolveFieldValue(field)
		if err != nil {
			return bodyTuple{}, err
		}
		var v interface{}
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			return bodyTuple{}, errors.Wrapf(err, "parsing JSON value of '%s'", field.Name)
		}
		obj[field.Name] = v
	}
	body, err := json.Marshal(obj)
	if err != nil {
		return bodyTuple{}, errors.Wrap(err, "marshaling JSON of HTTP body")
	}
	return newBodyTuple(body, jsonContentType), nil
}

func buildRawBody(in *input.Descriptor) (bodyTuple, error) {
	return newBodyTuple(in.Body.Raw, jsonContentType), nil
}

func resolveFieldValue(field input.Field) (string, error) {
	if field.IsFile {
		if strings.HasPrefix(field.Value, "-") {
			return "", errors.Errorf("invalid file name for '%s': %s", field.Name, field.Value)
		}
		data, err := ioutil.ReadFile(field.Value)
		if err != nil {
			return "", errors.Wrapf(err, "reading field value of '%s'", field.Name)
		}
		return string(data), nil
	}
	return field.Value, nil
}
