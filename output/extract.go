package output

import (
	"github.com/nojima/httpprobe/exchange"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Extract returns the value at path in the response body. Strings are
// returned unquoted, anything else as its raw JSON text.
func Extract(outcome *exchange.Outcome, path string) (string, error) {
	if !outcome.Parsed {
		return "", errors.New("response body is not JSON")
	}
	result := gjson.GetBytes(outcome.RawBody, path)
	if !result.Exists() {
		return "", errors.Errorf("nothing matches '%s' in response body", path)
	}
	if result.Type == gjson.String {
		return result.String(), nil
	}
	return result.Raw, nil
}
