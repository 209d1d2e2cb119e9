package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is set with -ldflags "-X github.com/abhisek/eslens/cmd.version=...".
var version = ""

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		info := readBuildInfo()
		fmt.Fprintf(cmd.OutOrStdout(), "eslens %s\n", info.version)
		if info.revision != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "commit %s%s\n", info.revision, info.dirty)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "built with %s\n", info.goVersion)
	},
}

type buildInfo struct {
	version   string
	revision  string
	dirty     string
	goVersion string
}

// readBuildInfo prefers the linker-set version, then the module version
// recorded by go install, then "(devel)".
func readBuildInfo() buildInfo {
	out := buildInfo{version: version}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		if out.version == "" {
			out.version = "(devel)"
		}
		return out
	}

	out.goVersion = bi.GoVersion
	if out.version == "" {
		out.version = bi.Main.Version
	}
	if out.version == "" {
		out.version = "(devel)"
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			out.revision = s.Value
			if len(out.revision) > 12 {
				out.revision = out.revision[:12]
			}
		case "vcs.modified":
			if s.Value == "true" {
				out.dirty = " (modified)"
			}
		}
	}
	return out
}
