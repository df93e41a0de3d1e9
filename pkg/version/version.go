// pkg/version/version.go - build information for the appbundle binary.

package version

import (
	"fmt"
	"io"
	"runtime"
)

// Set with -ldflags "-X github.com/windowsadmins/appbundle/pkg/version.version=...".
var (
	version   = "dev"
	branch    = "unknown"
	revision  = "unknown"
	buildDate = "unknown"
	appName   = "appbundle"
)

// Info is the version build information of the running binary.
type Info struct {
	Version   string `json:"version"`
	Branch    string `json:"branch"`
	Revision  string `json:"revision"`
	GoVersion string `json:"go_version"`
	BuildDate string `json:"build_date"`
}

// Version returns a structure with the current version information.
func Version() Info {
	return Info{
		Version:   version,
		Branch:    branch,
		Revision:  revision,
		GoVersion: runtime.Version(),
		BuildDate: buildDate,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("%s %s", appName, i.Version)
}

// PrintFull writes the application name and detailed version information.
func PrintFull(w io.Writer) {
	v := Version()
	fmt.Fprintln(w, v.String())
	fmt.Fprintf(w, "  branch: \t%s\n", v.Branch)
	fmt.Fprintf(w, "  revision: \t%s\n", v.Revision)
	fmt.Fprintf(w, "  build date: \t%s\n", v.BuildDate)
	fmt.Fprintf(w, "  go version: \t%s\n", v.GoVersion)
}
