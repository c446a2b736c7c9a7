package version

// current is replaced at release time:
//
//	go build -ldflags "-X github.com/nojima/httpprobe/version.current=1.2.3"
var current = "0.1.0"

// Current returns the version of httpprobe.
func Current() string {
	return current
}

// UserAgent is sent with every probe unless the request sets its own.
func UserAgent() string {
	return "httpprobe/" + current
}
