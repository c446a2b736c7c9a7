// Package config resolves settings and credentials from the environment,
// optionally seeded from a dotenv file.
package config

import (
	"net/url"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	DefaultEnvFile = ".env"
	prefix         = "HTTPPROBE_"
)

var (
	reNumber     = regexp.MustCompile(`^[0-9.]+$`)
	reProfileKey = regexp.MustCompile(`^` + prefix + `([A-Z0-9]+)_(BASE_URL|USERNAME|PASSWORD|TOKEN)$`)
)

type Config struct {
	Timeout        time.Duration
	LogFile        string
	DefaultProfile string
	profiles       map[string]*Profile
}

// Profile groups the connection settings of one target service.
type Profile struct {
	Name     string
	BaseURL  *url.URL
	UserName string
	Password string
	Token    string
}

// Load reads envFile (DefaultEnvFile when empty) and overlays the process
// environment on top of it. A missing default file is not an error.
func Load(envFile string) (*Config, error) {
	explicit := envFile != ""
	if !explicit {
		envFile = DefaultEnvFile
	}

	fileValues, err := godotenv.Read(envFile)
	if err != nil {
		if !explicit && os.IsNotExist(errors.Cause(err)) {
			fileValues = map[string]string{}
		} else {
			return nil, errors.Wrapf(err, "loading %s", envFile)
		}
	}
	return load(fileValues, os.Environ())
}

func load(fileValues map[string]string, environ []string) (*Config, error) {
	values := make(map[string]string, len(fileValues)+len(environ))
	for k, v := range fileValues {
		values[k] = v
	}
	for _, kv := range environ {
		i := strings.Index(kv, "=")
		if i < 0 {
			continue
		}
		values[kv[:i]] = kv[i+1:]
	}

	c := &Config{
		LogFile:        values[prefix+"LOG_FILE"],
		DefaultProfile: strings.ToLower(values[prefix+"PROFILE"]),
		profiles:       map[string]*Profile{},
	}

	if s := values[prefix+"TIMEOUT"]; s != "" {
		d, err := ParseDuration(s)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %sTIMEOUT", prefix)
		}
		c.Timeout = d
	}

	// Sorted so that errors are reported deterministically.
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		m := reProfileKey.FindStringSubmatch(k)
		if m == nil {
			continue
		}
		name := strings.ToLower(m[1])
		p, ok := c.profiles[name]
		if !ok {
			p = &Profile{Name: name}
			c.profiles[name] = p
		}
		v := values[k]
		switch m[2] {
		case "BASE_URL":
			u, err := parseBaseURL(v)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", k)
			}
			p.BaseURL = u
		case "USERNAME":
			p.UserName = v
		case "PASSWORD":
			p.Password = v
		case "TOKEN":
			p.Token = v
		}
	}

	if c.DefaultProfile != "" {
		if _, ok := c.profiles[c.DefaultProfile]; !ok {
			return nil, errors.Errorf("%sPROFILE names an undefined profile: %s", prefix, c.DefaultProfile)
		}
	}
	return c, nil
}

func parseBaseURL(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("base URL must start with http:// or https://: %s", s)
	}
	if u.Host == "" {
		return nil, errors.Errorf("base URL has no host: %s", s)
	}
	return u, nil
}

// Profile returns the named profile. An empty name selects DefaultProfile
// and yields nil when no default is configured.
func (c *Config) Profile(name string) (*Profile, error) {
	if name == "" {
		name = c.DefaultProfile
		if name == "" {
			return nil, nil
		}
	}
	p, ok := c.profiles[strings.ToLower(name)]
	if !ok {
		return nil, errors.Errorf("unknown profile: %s", name)
	}
	return p, nil
}

func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.profiles))
	for name := range c.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseDuration accepts either a Go duration string or a number of seconds.
func ParseDuration(s string) (time.Duration, error) {
	if reNumber.MatchString(s) {
		s += "s"
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Duration(0), errors.Errorf("must be a number or duration string: %v", s)
	}
	return d, nil
}
