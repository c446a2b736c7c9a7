package flags

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/nojima/httpprobe/config"
	"github.com/nojima/httpprobe/exchange"
	"github.com/nojima/httpprobe/input"
	"github.com/nojima/httpprobe/output"
	"github.com/pborman/getopt"
	"github.com/pkg/errors"
)

type FlagSet interface {
	Args() []string
	PrintUsage(w io.Writer)
}

type OptionSet struct {
	InputOptions    input.Options
	ExchangeOptions exchange.Options
	OutputOptions   output.Options

	// Timeout is nil when --timeout was not given.
	Timeout       *time.Duration
	Profile       string
	EnvFile       string
	LogFile       string
	PrintVersion  bool
	PrintLicenses bool
	PrintHelp     bool
}

type terminalInfo struct {
	stdinIsTerminal  bool
	stdoutIsTerminal bool
}

type usageError string

func (e usageError) Error() string {
	return string(e)
}

// IsUsageError reports whether err was caused by malformed flags.
func IsUsageError(err error) bool {
	_, ok := errors.Cause(err).(usageError)
	return ok
}

func Parse(args []string) ([]string, FlagSet, *OptionSet, error) {
	return parse(args, terminalInfo{
		stdinIsTerminal:  isatty.IsTerminal(os.Stdin.Fd()),
		stdoutIsTerminal: isatty.IsTerminal(os.Stdout.Fd()),
	})
}

func parse(args []string, terminalInfo terminalInfo) ([]string, FlagSet, *OptionSet, error) {
	inputOptions := input.Options{}
	outputOptions := output.Options{}
	exchangeOptions := exchange.Options{}
	optionSet := &OptionSet{}
	var ignoreStdin bool
	printFlag := "\000" // "\000" is a special value that indicates user did not specified --print
	prettyFlag := "\000"
	timeout := "\000"
	verifyFlag := "yes"
	authFlag := ""
	bearerFlag := ""

	flagSet := getopt.New()
	flagSet.SetParameters("[METHOD] URL [REQUEST_ITEM [REQUEST_ITEM ...]]")
	flagSet.StringVarLong(&printFlag, "print", 'p', "specifies what the output should contain (hbs)")
	flagSet.StringVarLong(&prettyFlag, "pretty", 0, "controls output formatting (all, colors, format, none)")
	flagSet.StringVarLong(&outputOptions.Extract, "extract", 'x', "print only the value at this JSON path of the response body")
	flagSet.BoolVarLong(&ignoreStdin, "ignore-stdin", 0, "do not attempt to read stdin")
	flagSet.StringVarLong(&timeout, "timeout", 0, "timeout seconds that you allow the whole operation to take (default: no timeout)")
	flagSet.BoolVarLong(&exchangeOptions.FollowRedirects, "follow", 'F', "follow 30x Location redirects")
	flagSet.StringVarLong(&verifyFlag, "verify", 0, "verify server certificates (yes, no)")
	flagSet.BoolVarLong(&exchangeOptions.ForceHTTP1, "http1", 0, "force HTTP/1.1 protocol")
	flagSet.StringVarLong(&authFlag, "auth", 'a', "colon-separated username and password for basic authentication")
	flagSet.StringVarLong(&bearerFlag, "bearer", 0, "token for bearer authentication (- to prompt for it)")
	flagSet.StringVarLong(&optionSet.Profile, "profile", 'P', "use base URL and credentials of the named profile")
	flagSet.StringVarLong(&optionSet.EnvFile, "env-file", 0, "read profiles and settings from this file (default: .env)")
	flagSet.StringVarLong(&optionSet.LogFile, "log-file", 0, "append a JSON log entry for the probe to this file")
	flagSet.BoolVarLong(&optionSet.PrintVersion, "version", 0, "print version and exit")
	flagSet.BoolVarLong(&optionSet.PrintLicenses, "licenses", 0, "print licenses of used libraries and exit")
	flagSet.BoolVarLong(&optionSet.PrintHelp, "help", 'h', "print this help and exit")
	if err := flagSet.Getopt(args, nil); err != nil {
		return nil, flagSet, nil, errors.WithStack(usageError(err.Error()))
	}

	// Check stdin
	if !ignoreStdin && !terminalInfo.stdinIsTerminal {
		inputOptions.ReadStdin = true
	}

	// Parse --print
	if err := parsePrintFlag(printFlag, terminalInfo, &outputOptions); err != nil {
		return nil, flagSet, nil, err
	}

	// Parse --pretty
	if err := parsePrettyFlag(prettyFlag, terminalInfo, &outputOptions); err != nil {
		return nil, flagSet, nil, err
	}

	// Parse --timeout
	if timeout != "\000" {
		d, err := config.ParseDuration(timeout)
		if err != nil {
			return nil, flagSet, nil, errors.WithStack(usageError("Value of --timeout " + err.Error()))
		}
		optionSet.Timeout = &d
	}

	// Parse --verify
	switch strings.ToLower(verifyFlag) {
	case "yes", "true":
		exchangeOptions.SkipVerify = false
	case "no", "false":
		exchangeOptions.SkipVerify = true
	default:
		return nil, flagSet, nil, errors.WithStack(usageError("Value of --verify must be yes or no: " + verifyFlag))
	}

	// Parse --auth and --bearer
	if authFlag != "" && bearerFlag != "" {
		return nil, flagSet, nil, errors.WithStack(usageError("You cannot specify both of --auth and --bearer"))
	}
	if authFlag != "" {
		authOptions, err := parseAuth(authFlag)
		if err != nil {
			return nil, flagSet, nil, err
		}
		exchangeOptions.Auth = *authOptions
	}
	if bearerFlag == "-" {
		token, err := askSecret("Token")
		if err != nil {
			return nil, flagSet, nil, err
		}
		bearerFlag = token
	}
	if bearerFlag != "" {
		exchangeOptions.Auth = exchange.AuthOptions{
			Enabled: true,
			Type:    exchange.BearerAuth,
			Token:   bearerFlag,
		}
	}

	optionSet.InputOptions = inputOptions
	optionSet.ExchangeOptions = exchangeOptions
	optionSet.OutputOptions = outputOptions
	return flagSet.Args(), flagSet, optionSet, nil
}

func parsePrintFlag(printFlag string, terminalInfo terminalInfo, outputOptions *output.Options) error {
	if printFlag == "\000" {
		// --print is not specified
		if terminalInfo.stdoutIsTerminal {
			outputOptions.PrintResponseHeader = true
			outputOptions.PrintResponseBody = true
		} else {
			outputOptions.PrintResponseBody = true
		}
		return nil
	}
	for _, c := range printFlag {
		switch c {
		case 'h':
			outputOptions.PrintResponseHeader = true
		case 'b':
			outputOptions.PrintResponseBody = true
		case 's':
			outputOptions.PrintSummary = true
		default:
			return errors.WithStack(usageError("Invalid char in --print value (must be consist of hbs): " + string(c)))
		}
	}
	return nil
}

func parsePrettyFlag(prettyFlag string, terminalInfo terminalInfo, outputOptions *output.Options) error {
	if prettyFlag == "\000" {
		// --pretty is not specified
		if terminalInfo.stdoutIsTerminal {
			prettyFlag = "all"
		} else {
			prettyFlag = "none"
		}
	}
	switch prettyFlag {
	case "all":
		outputOptions.EnableFormat = true
		outputOptions.EnableColor = true
	case "colors":
		outputOptions.EnableColor = true
	case "format":
		outputOptions.EnableFormat = true
	case "none":
	default:
		return errors.WithStack(usageError("Value of --pretty must be one of all, colors, format or none: " + prettyFlag))
	}
	return nil
}

func parseAuth(authFlag string) (*exchange.AuthOptions, error) {
	colonIndex := strings.Index(authFlag, ":")
	if colonIndex == -1 {
		password, err := askSecret("Password")
		if err != nil {
			return nil, err
		}
		return &exchange.AuthOptions{
			Enabled:  true,
			Type:     exchange.BasicAuth,
			UserName: authFlag,
			Password: password,
		}, nil
	}
	return &exchange.AuthOptions{
		Enabled:  true,
		Type:     exchange.BasicAuth,
		UserName: authFlag[:colonIndex],
		Password: authFlag[colonIndex+1:],
	}, nil
}
