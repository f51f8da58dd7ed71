// Package vars holds build-time variables populated via the linker (ldflags).
package vars

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// License of the project
const License = "AGPL-3.0"

var (
	// Name of the project
	Name = "mcscan"

	// Version of application (git tag) semver/tag, e.g. v1.2.3
	Version = "dev"

	// Commit is the current git commit, full or short git SHA
	Commit = "unknown"

	// Revision build, count of commits
	Revision = 0

	// BuildTime is the time of start build app, RFC3339 UTC
	BuildTime = time.Unix(0, 0)

	// URL to repository (https)
	URL = "https://github.com/woozymasta/mcscan"

	_revision  string
	_buildTime string
)

// BuildInfo exposes build metadata, e.g. for JSON scan reports.
type BuildInfo struct {
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Commit      string    `json:"commit"`
	CommitShort string    `json:"commit_short,omitempty"`
	Revision    int       `json:"revision,omitempty"`
	BuildTime   time.Time `json:"build_time,omitempty"`
	URL         string    `json:"url,omitempty"`
	License     string    `json:"license,omitempty"`
}

func init() {
	parseLinked(_revision, _buildTime)
}

func parseLinked(revision, buildTime string) {
	if n, err := strconv.Atoi(revision); err == nil {
		Revision = n
	}

	if buildTime != "" {
		if t, err := time.Parse(time.RFC3339, buildTime); err == nil {
			BuildTime = t.UTC()
		}
	}
}

// Print writes the build information to w.
func Print(w io.Writer) {
	_, _ = fmt.Fprintf(w, `name:     %s
url:      %s
file:     %s
version:  %s
commit:   %s
revision: %d
built:    %s
license:  %s
`, Name, URL, os.Args[0], Version, Commit, Revision, BuildTime.Format(time.RFC3339), License)
}

// Info returns a BuildInfo struct containing detailed build metadata.
func Info() BuildInfo {
	return BuildInfo{
		Name:        Name,
		Version:     Version,
		Commit:      Commit,
		CommitShort: CommitShort(),
		Revision:    Revision,
		BuildTime:   BuildTime,
		URL:         URL,
		License:     License,
	}
}

// UserAgent identifies the scanner in outgoing HTTP requests.
func UserAgent() string {
	return Name + "/" + Version + " (+" + URL + ")"
}

// CommitShort returns the first 7 characters of the git commit hash.
func CommitShort() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}

	return Commit
}
