package output

import (
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/tidwall/pretty"
)

const jsonIndent = "    "

// formatJSON re-indents body one element per line. Key order, number text
// and string escapes are kept as the server sent them.
func formatJSON(body []byte) []byte {
	return pretty.PrettyOptions(body, &pretty.Options{
		Width:  0, // never fold short arrays onto one line
		Indent: jsonIndent,
	})
}

func newJSONStyle(au aurora.Aurora, palette *JSONPalette) *pretty.Style {
	return &pretty.Style{
		Key:    colorPair(au, palette.Name),
		String: colorPair(au, palette.String),
		Number: colorPair(au, palette.Number),
		True:   colorPair(au, palette.Boolean),
		False:  colorPair(au, palette.Boolean),
		Null:   colorPair(au, palette.Null),
		Escape: colorPair(au, palette.Escape),
	}
}

// colorPair returns the escape sequences aurora puts around a value of
// the given color.
func colorPair(au aurora.Aurora, color aurora.Color) [2]string {
	s := au.Colorize("\x00", color).String()
	i := strings.IndexByte(s, 0)
	return [2]string{s[:i], s[i+1:]}
}
