package cmd

import (
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Build information, overridden with -ldflags "-X github.com/oneconcern/refstore/cmd/refstore/cmd.Version=..."
var (
	Version   string
	BuildDate string
	GitCommit string
	GitState  string
)

// VersionInfo describes the build of the binary
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	BuildDate string `json:"buildDate,omitempty" yaml:"buildDate,omitempty"`
	GitCommit string `json:"gitCommit,omitempty" yaml:"gitCommit,omitempty"`
	GitState  string `json:"gitState,omitempty" yaml:"gitState,omitempty"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
}

// NewVersionInfo collects the build information from the linker flags,
// then from the version control stamp of the go toolchain.
func NewVersionInfo() VersionInfo {
	ver := VersionInfo{
		Version:   "dev",
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GitState:  GitState,
		GoVersion: runtime.Version(),
	}
	if Version != "" {
		ver.Version = Version
		if ver.GitState == "" {
			ver.GitState = "clean"
		}
		return ver
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ver
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		ver.Version = v
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if ver.GitCommit == "" {
				ver.GitCommit = setting.Value
			}
		case "vcs.time":
			if ver.BuildDate == "" {
				ver.BuildDate = setting.Value
			}
		case "vcs.modified":
			if ver.GitState != "" {
				continue
			}
			ver.GitState = "clean"
			if setting.Value == "true" {
				ver.GitState = "dirty"
			}
		}
	}
	return ver
}

var versionFormatter = FormatterFunc(func(w io.Writer, data interface{}) error {
	v := data.(VersionInfo)
	return details(w, [][2]string{
		{"Version", v.Version},
		{"Build date", v.BuildDate},
		{"Commit", v.GitCommit},
		{"Working tree", v.GitState},
		{"Go", v.GoVersion},
	})
})

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of refstore",
	Long: `Print the version of refstore, with the commit it was built from.

When the binary was not built with release flags, the commit and its date come
from the version control information stamped by the go toolchain.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := render(NewVersionInfo(), versionFormatter); err != nil {
			wrapFatalln("print version", err)
		}
	},
}

func init() {
	rootCmd.Version = NewVersionInfo().Version
	rootCmd.AddCommand(versionCmd)
}
