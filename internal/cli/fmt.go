package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lacquerai/jsonedit/internal/i18n"
	"github.com/lacquerai/jsonedit/internal/style"
	"github.com/lacquerai/jsonedit/internal/textdiff"
	"github.com/lacquerai/jsonedit/internal/value"
)

var (
	fmtWrite bool
	fmtDiff  bool
	fmtCheck bool
)

// fmtCmd rewrites documents in the layout the editor saves them in.
var fmtCmd = &cobra.Command{
	Use:   "fmt [files...]",
	Short: "Format JSON documents the way the editor saves them",
	Long: `Format JSON documents with four-space indentation, members kept in document order.

By default the formatted text is printed. Use --write to replace the files,
--diff to show what would change, or --check to fail when a file is not
formatted.

Examples:
  jsonedit fmt settings.json            # Print the formatted document
  jsonedit fmt --diff settings.json     # Show the changes formatting makes
  jsonedit fmt --write *.json           # Format files in place
  jsonedit fmt --check config/*.json    # Fail if any file needs formatting`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var unformatted int
		for _, file := range args {
			changed, err := formatFile(cmd.OutOrStdout(), file)
			if err != nil {
				return err
			}
			if changed {
				unformatted++
			}
		}
		if fmtCheck && unformatted > 0 {
			return fmt.Errorf("%d file(s) need formatting", unformatted)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fmtCmd)

	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "write the result back to the files")
	fmtCmd.Flags().BoolVarP(&fmtDiff, "diff", "d", false, "print a diff instead of the formatted text")
	fmtCmd.Flags().BoolVar(&fmtCheck, "check", false, "exit with an error when a file is not formatted")
}

// formatDocument returns text in the saved layout.
func formatDocument(text string) (string, error) {
	doc, err := value.ParseString(text)
	if err != nil {
		return "", err
	}
	return value.Encode(doc, value.SaveIndent), nil
}

func formatFile(w io.Writer, file string) (bool, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", file, err)
	}

	before := string(data)
	after, err := formatDocument(before)
	if err != nil {
		return false, fmt.Errorf("%s: %s", file, i18n.New().Get(i18n.Error, "invalidJson", i18n.Params{"error": err.Error()}))
	}
	diff := textdiff.Compute(before, after)

	switch {
	case fmtDiff:
		if diff.Changed() {
			fmt.Fprintln(w, style.FormatFilePath(file))
			fmt.Fprint(w, style.RenderDiff(diff.Unified(3)))
		}
	case fmtCheck:
		if diff.Changed() {
			fmt.Fprintln(w, file)
		}
	case !fmtWrite:
		fmt.Fprintln(w, after)
	}

	if fmtWrite && diff.Changed() {
		info, err := os.Stat(file)
		if err != nil {
			return false, err
		}
		if err := os.WriteFile(file, []byte(after), info.Mode().Perm()); err != nil {
			return false, fmt.Errorf("failed to write %s: %w", file, err)
		}
	}

	return diff.Changed(), nil
}
