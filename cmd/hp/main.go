package main

import (
	"fmt"
	"os"

	_ "github.com/mtibben/androiddnsfix"
	"github.com/nojima/httpprobe"
	"github.com/pkg/errors"
)

func main() {
	err := httpprobe.Main(&httpprobe.Options{})
	if errors.Cause(err) == httpprobe.ErrTransportFailure {
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
