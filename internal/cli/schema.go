package cli

import (
	"fmt"
	"io"
	"reflect"

	json "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
	"github.com/stoewer/go-strcase"

	"github.com/lacquerai/jsonedit/internal/style"
	"github.com/lacquerai/jsonedit/internal/value"
)

// schemaCmd groups the schema helpers.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect schemas",
}

var schemaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the schemas under schemas.dir",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadSchemas()
		if err != nil {
			return err
		}
		names := reg.List()
		printOutput(cmd.OutOrStdout(), names, func(w io.Writer) {
			if len(names) == 0 {
				style.Info(w, "No schemas loaded")
				return
			}
			rows := make([][]string, len(names))
			for i, name := range names {
				node, _ := reg.Lookup(name)
				rows[i] = []string{name, node.Type(), node.Title}
			}
			printTable(w, []string{"Name", "Type", "Title"}, rows)
		})
		return nil
	},
}

var schemaShowCmd = &cobra.Command{
	Use:   "show <name|file>",
	Short: "Print a schema as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		node, err := resolveSchema(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), value.Encode(node.Source(), "  "))
		return nil
	},
}

var schemaConfigCmd = &cobra.Command{
	Use:    "config",
	Short:  "Output the JSON schema of the configuration file",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := configSchema()
		if err != nil {
			return fmt.Errorf("error generating schema: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.AddCommand(schemaListCmd, schemaShowCmd, schemaConfigCmd)
}

// configSchema describes config.yaml.
func configSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		FieldNameTag: "yaml",
		Namer: func(t reflect.Type) string {
			return strcase.KebabCase(t.Name())
		},
		ExpandedStruct: true,
		DoNotReference: true,
	}
	s := r.Reflect(&FileConfig{})
	s.Title = "jsonedit configuration"
	return json.MarshalIndent(s, "", "  ")
}
