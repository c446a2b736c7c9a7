package httpprobe

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"

	"github.com/nojima/httpprobe/config"
	"github.com/nojima/httpprobe/exchange"
	"github.com/nojima/httpprobe/flags"
	"github.com/nojima/httpprobe/input"
	"github.com/nojima/httpprobe/logging"
	"github.com/nojima/httpprobe/output"
	"github.com/nojima/httpprobe/version"
	"github.com/pkg/errors"
)

// ErrTransportFailure is returned by Main when no response was received.
// The failure itself has already been reported on Stderr.
var ErrTransportFailure = errors.New("transport failure")

type Options struct {
	// Args defaults to os.Args, the standard streams to their os counterparts.
	Args   []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Transport is used for the HTTP exchange instead of a clone of
	// http.DefaultTransport when set.
	Transport http.RoundTripper
}

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.Args == nil {
		opts.Args = os.Args
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return opts
}

func Main(options *Options) error {
	opts := options.withDefaults()

	// Parse flags
	args, flagSet, optionSet, err := flags.Parse(opts.Args)
	if flags.IsUsageError(err) {
		flagSet.PrintUsage(opts.Stderr)
		return err
	}
	if err != nil {
		return err
	}
	switch {
	case optionSet.PrintHelp:
		flagSet.PrintUsage(opts.Stdout)
		return nil
	case optionSet.PrintVersion:
		fmt.Fprintf(opts.Stdout, "httpprobe %s\n", version.Current())
		return nil
	case optionSet.PrintLicenses:
		version.PrintLicenses(opts.Stdout)
		return nil
	}

	// Load configuration
	cfg, err := config.Load(optionSet.EnvFile)
	if err != nil {
		return err
	}
	profile, err := cfg.Profile(optionSet.Profile)
	if err != nil {
		return err
	}
	applyConfig(cfg, profile, optionSet)
	optionSet.ExchangeOptions.Transport = opts.Transport

	logger, err := logging.New(optionSet.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Parse positional arguments
	in, err := input.ParseArgs(args, opts.Stdin, &optionSet.InputOptions)
	if _, ok := errors.Cause(err).(*input.UsageError); ok {
		flagSet.PrintUsage(opts.Stderr)
		return err
	}
	if err != nil {
		return err
	}

	// Send request and receive response
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	outcome, err := exchange.Send(ctx, in, &optionSet.ExchangeOptions)
	if err != nil {
		return err
	}
	logging.LogOutcome(logger, in, outcome)

	// Print response
	if !outcome.Succeeded() {
		printer := output.NewPrinter(opts.Stderr, &optionSet.OutputOptions)
		if err := output.Print(printer, outcome, &optionSet.OutputOptions); err != nil {
			return err
		}
		return errors.WithStack(ErrTransportFailure)
	}
	writer := bufio.NewWriter(opts.Stdout)
	defer writer.Flush()
	printer := output.NewPrinter(writer, &optionSet.OutputOptions)
	return output.Print(printer, outcome, &optionSet.OutputOptions)
}

// applyConfig fills in what the command line left unset from the
// environment configuration and the selected profile.
func applyConfig(cfg *config.Config, profile *config.Profile, optionSet *flags.OptionSet) {
	if optionSet.Timeout != nil {
		optionSet.ExchangeOptions.Timeout = *optionSet.Timeout
	} else {
		optionSet.ExchangeOptions.Timeout = cfg.Timeout
	}
	if optionSet.LogFile == "" {
		optionSet.LogFile = cfg.LogFile
	}
	if profile == nil {
		return
	}

	optionSet.InputOptions.BaseURL = profile.BaseURL
	if optionSet.ExchangeOptions.Auth.Enabled {
		return
	}
	switch {
	case profile.Token != "":
		optionSet.ExchangeOptions.Auth = exchange.AuthOptions{
			Enabled: true,
			Type:    exchange.BearerAuth,
			Token:   profile.Token,
		}
	case profile.UserName != "":
		optionSet.ExchangeOptions.Auth = exchange.AuthOptions{
			Enabled:  true,
			Type:     exchange.BasicAuth,
			UserName: profile.UserName,
			Password: profile.Password,
		}
	}
}
