package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lacquerai/jsonedit/internal/schema"
	"github.com/lacquerai/jsonedit/internal/style"
	"github.com/lacquerai/jsonedit/internal/value"
)

var seedSchema string

// seedCmd writes the document an empty field is seeded with.
var seedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Generate a starting document from a schema",
	Long: `Generate the document an empty field starts from when bound to a schema.

Every declared property is included, enums start at their first value and
strings that require content get a placeholder. With a file argument the
document is written there, but only when the file is missing or empty.

Examples:
  jsonedit seed --schema person.json             # Print the seed document
  jsonedit seed --schema person new-person.json  # Create a seeded file`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sch, err := resolveSchema(seedSchema)
		if err != nil {
			return err
		}
		text := seedDocument(sch)

		if len(args) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		}
		if err := writeSeed(args[0], text); err != nil {
			return err
		}
		if !viper.GetBool("quiet") {
			style.Success(cmd.OutOrStdout(), fmt.Sprintf("Seeded %s", style.FormatFilePath(args[0])))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVarP(&seedSchema, "schema", "s", "", "schema file, or schema name under schemas.dir")
	_ = seedCmd.MarkFlagRequired("schema")
}

func seedDocument(sch *schema.Node) string {
	return value.Encode(schema.DefaultValue(sch), value.SaveIndent)
}

func writeSeed(file, text string) error {
	data, err := os.ReadFile(file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("failed to read %s: %w", file, err)
	case strings.TrimSpace(string(data)) != "":
		return fmt.Errorf("%s is not empty", file)
	}

	if err := os.WriteFile(file, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", file, err)
	}
	return nil
}
