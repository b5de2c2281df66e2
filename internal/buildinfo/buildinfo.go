// Package buildinfo prints version data injected at link time.
//
// Build with:
//
//	go build -ldflags "-X 'github.com/dmitrijs2005/traintrack/internal/buildinfo.buildVersion=v1.0.0' \
//	  -X 'github.com/dmitrijs2005/traintrack/internal/buildinfo.buildDate=$(date +%Y-%m-%d)' \
//	  -X 'github.com/dmitrijs2005/traintrack/internal/buildinfo.buildCommit=$(git rev-parse --short HEAD)'"
package buildinfo

import (
	"fmt"
	"io"
)

var (
	buildVersion = "N/A"
	buildDate    = "N/A"
	buildCommit  = "N/A"
)

// PrintBuildData writes the build version, date and commit to w.
func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", buildVersion)
	fmt.Fprintf(w, "Build date: %s\n", buildDate)
	fmt.Fprintf(w, "Build commit: %s\n", buildCommit)
}
