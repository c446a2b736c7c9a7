package output

import (
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/logrusorgru/aurora"
	"github.com/nojima/httpprobe/exchange"
	"github.com/pkg/errors"
	"github.com/tidwall/pretty"
)

type PrettyPrinter struct {
	writer        io.Writer
	plain         Printer
	aurora        aurora.Aurora
	enableFormat  bool
	enableColor   bool
	headerPalette *HeaderPalette
	jsonStyle     *pretty.Style
}

type PrettyPrinterConfig struct {
	Writer       io.Writer
	EnableColor  bool
	EnableFormat bool
}

type HeaderPalette struct {
	Proto          aurora.Color
	StatusOK       aurora.Color
	StatusRedirect aurora.Color
	StatusError    aurora.Color
	FieldName      aurora.Color
	FieldValue     aurora.Color
	FieldSeparator aurora.Color
	Failure        aurora.Color
}

var defaultHeaderPalette = HeaderPalette{
	Proto:          aurora.BlueFg,
	StatusOK:       aurora.GreenFg | aurora.BoldFm,
	StatusRedirect: aurora.BrownFg | aurora.BoldFm,
	StatusError:    aurora.RedFg | aurora.BoldFm,
	FieldName:      aurora.BlackFg | aurora.BrightFg,
	FieldValue:     aurora.CyanFg,
	FieldSeparator: aurora.BlackFg | aurora.BrightFg,
	Failure:        aurora.RedFg | aurora.BoldFm,
}

type JSONPalette struct {
	Name    aurora.Color
	String  aurora.Color
	Number  aurora.Color
	Boolean aurora.Color
	Null    aurora.Color
	Escape  aurora.Color
}

var defaultJSONPalette = JSONPalette{
	Name:    aurora.BlueFg,
	String:  aurora.BrownFg,
	Number:  aurora.CyanFg,
	Boolean: aurora.MagentaFg,
	Null:    aurora.MagentaFg,
	Escape:  aurora.BlackFg | aurora.BrightFg,
}

func NewPrettyPrinter(config PrettyPrinterConfig) Printer {
	au := aurora.NewAurora(config.EnableColor)
	return &PrettyPrinter{
		writer:        config.Writer,
		plain:         NewPlainPrinter(config.Writer),
		aurora:        au,
		enableFormat:  config.EnableFormat,
		enableColor:   config.EnableColor,
		headerPalette: &defaultHeaderPalette,
		jsonStyle:     newJSONStyle(au, &defaultJSONPalette),
	}
}

func (p *PrettyPrinter) statusColor(statusCode int) aurora.Color {
	switch {
	case statusCode >= 400:
		return p.headerPalette.StatusError
	case statusCode >= 300:
		return p.headerPalette.StatusRedirect
	default:
		return p.headerPalette.StatusOK
	}
}

func (p *PrettyPrinter) PrintStatusLine(proto string, status string, statusCode int) error {
	fmt.Fprintf(p.writer, "%s %s\n",
		p.aurora.Colorize(proto, p.headerPalette.Proto),
		p.aurora.Colorize(status, p.statusColor(statusCode)))
	return nil
}

func (p *PrettyPrinter) PrintHeader(header http.Header) error {
	var names []string
	for name := range header {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		values := header[name]
		for _, value := range values {
			fmt.Fprintf(p.writer, "%s%s %s\n",
				p.aurora.Colorize(name, p.headerPalette.FieldName),
				p.aurora.Colorize(":", p.headerPalette.FieldSeparator),
				p.aurora.Colorize(value, p.headerPalette.FieldValue))
		}
	}

	fmt.Fprintln(p.writer)
	return nil
}

func (p *PrettyPrinter) PrintBody(outcome *exchange.Outcome) error {
	// Fallback to PlainPrinter when the body is not JSON
	if !p.enableFormat || !outcome.Parsed {
		return p.plain.PrintBody(outcome)
	}

	formatted := formatJSON(outcome.RawBody)
	if p.enableColor {
		formatted = pretty.Color(formatted, p.jsonStyle)
	}
	if _, err := p.writer.Write(formatted); err != nil {
		return errors.Wrap(err, "printing response body")
	}
	return nil
}

func (p *PrettyPrinter) PrintExtracted(value string) error {
	return p.plain.PrintExtracted(value)
}

func (p *PrettyPrinter) PrintSummary(outcome *exchange.Outcome) error {
	fmt.Fprintln(p.writer, p.aurora.Colorize(formatSummary(outcome), p.headerPalette.FieldName))
	return nil
}

func (p *PrettyPrinter) PrintTransportError(err error) error {
	fmt.Fprintf(p.writer, "%s %v\n",
		p.aurora.Colorize("transport error:", p.headerPalette.Failure),
		err)
	return nil
}
