package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Build-time variables (set by goreleaser or build scripts)
var (
	Version   = "dev"
	Commit    = "unknown"
	Date      = "unknown"
	BuiltBy   = "unknown"
	GoVersion = runtime.Version()
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display version information for jsonedit, including build details.`,
	Example: `
  jsonedit version               # Show basic version info
  jsonedit version --output json # Show version info as JSON`,
	Run: func(cmd *cobra.Command, args []string) {
		info := currentVersion()
		printOutput(cmd.OutOrStdout(), info, func(w io.Writer) {
			printVersionText(w, info)
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// VersionInfo represents version information
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"date" yaml:"date"`
	BuiltBy   string `json:"built_by" yaml:"built_by"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

func currentVersion() VersionInfo {
	return VersionInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		BuiltBy:   BuiltBy,
		GoVersion: GoVersion,
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

func printVersionText(w io.Writer, info VersionInfo) {
	if !viper.GetBool("verbose") {
		fmt.Fprintln(w, info.Version)
		return
	}
	printTable(w, []string{"Component", "Value"}, [][]string{
		{"version", info.Version},
		{"commit", info.Commit},
		{"date", info.Date},
		{"built by", info.BuiltBy},
		{"go", info.GoVersion},
		{"platform", info.Platform},
	})
}
