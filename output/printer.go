package output

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/nojima/httpprobe/exchange"
)

type Printer interface {
	PrintStatusLine(proto string, status string, statusCode int) error
	PrintHeader(header http.Header) error
	PrintBody(outcome *exchange.Outcome) error
	PrintExtracted(value string) error
	PrintSummary(outcome *exchange.Outcome) error
	PrintTransportError(err error) error
}

func NewPrinter(writer io.Writer, options *Options) Printer {
	if options.EnableFormat || options.EnableColor {
		return NewPrettyPrinter(PrettyPrinterConfig{
			Writer:       writer,
			EnableColor:  options.EnableColor,
			EnableFormat: options.EnableFormat,
		})
	}
	return NewPlainPrinter(writer)
}

// Print writes the parts of outcome selected by options.
func Print(p Printer, outcome *exchange.Outcome, options *Options) error {
	if !outcome.Succeeded() {
		return p.PrintTransportError(outcome.TransportError)
	}
	if options.PrintResponseHeader {
		if err := p.PrintStatusLine(outcome.Proto, outcome.Status, outcome.StatusCode); err != nil {
			return err
		}
		if err := p.PrintHeader(outcome.Header); err != nil {
			return err
		}
	}
	if options.Extract != "" {
		value, err := Extract(outcome, options.Extract)
		if err != nil {
			return err
		}
		if err := p.PrintExtracted(value); err != nil {
			return err
		}
	} else if options.PrintResponseBody {
		if err := p.PrintBody(outcome); err != nil {
			return err
		}
	}
	if options.PrintSummary {
		if err := p.PrintSummary(outcome); err != nil {
			return err
		}
	}
	return nil
}

func formatSummary(outcome *exchange.Outcome) string {
	return fmt.Sprintf("%s  %s  %s",
		outcome.Status,
		bytefmt.ByteSize(uint64(len(outcome.RawBody))),
		outcome.Elapsed.Round(time.Millisecond))
}
