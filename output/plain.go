package output

import (
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/nojima/httpprobe/exchange"
	"github.com/pkg/errors"
)

type PlainPrinter struct {
	writer io.Writer
}

func NewPlainPrinter(writer io.Writer) Printer {
	return &PlainPrinter{
		writer: writer,
	}
}

func (p *PlainPrinter) PrintStatusLine(proto string, status string, statusCode int) error {
	fmt.Fprintf(p.writer, "%s %s\n", proto, status)
	return nil
}

func (p *PlainPrinter) PrintHeader(header http.Header) error {
	var names []string
	for name := range header {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, value := range header[name] {
			fmt.Fprintf(p.writer, "%s: %s\n", name, value)
		}
	}
	fmt.Fprintln(p.writer)
	return nil
}

func (p *PlainPrinter) PrintBody(outcome *exchange.Outcome) error {
	if _, err := p.writer.Write(outcome.RawBody); err != nil {
		return errors.Wrap(err, "printing response body")
	}
	return nil
}

func (p *PlainPrinter) PrintExtracted(value string) error {
	if _, err := fmt.Fprintln(p.writer, value); err != nil {
		return errors.Wrap(err, "printing extracted value")
	}
	return nil
}

func (p *PlainPrinter) PrintSummary(outcome *exchange.Outcome) error {
	fmt.Fprintln(p.writer, formatSummary(outcome))
	return nil
}

func (p *PlainPrinter) PrintTransportError(err error) error {
	fmt.Fprintf(p.writer, "transport error: %v\n", err)
	return nil
}
