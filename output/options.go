package output

type Options struct {
	PrintResponseHeader bool
	PrintResponseBody   bool
	PrintSummary        bool

	EnableFormat bool
	EnableColor  bool

	// Extract is a gjson path; when set only the matching value of the
	// response body is printed.
	Extract string
}
