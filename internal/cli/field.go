package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lacquerai/jsonedit/internal/store"
	"github.com/lacquerai/jsonedit/internal/style"
)

var (
	fieldSchema string
	fieldTitle  string
	fieldFrom   string
)

// fieldCmd manages the fields the editor host serves.
var fieldCmd = &cobra.Command{
	Use:   "field",
	Short: "Manage the fields in the store",
	Long: `Manage the JSON text fields served by 'jsonedit serve'.

Examples:
  jsonedit field list
  jsonedit field add prefs --schema settings         # Empty field, seeded on open
  jsonedit field add alice --from alice.json --title "Alice"
  jsonedit field rm prefs`,
}

var fieldListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored fields",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		fields, err := listFields(st)
		if err != nil {
			return err
		}
		printOutput(cmd.OutOrStdout(), fields, func(w io.Writer) {
			printFields(w, fields)
		})
		return nil
	},
}

var fieldAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Add a field, or replace its text and attributes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}

		var text string
		if fieldFrom != "" {
			data, err := os.ReadFile(fieldFrom)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", fieldFrom, err)
			}
			text = string(data)
		}

		f, err := st.Create(args[0], store.Meta{Schema: fieldSchema, Title: fieldTitle}, text)
		if err != nil {
			return err
		}
		if !viper.GetBool("quiet") {
			style.Success(cmd.OutOrStdout(), fmt.Sprintf("Stored field %s at %s", f.ID(), style.FormatFilePath(f.Path())))
		}
		return nil
	},
}

var fieldRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a field",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		if err := st.Remove(args[0]); err != nil {
			return err
		}
		if !viper.GetBool("quiet") {
			style.Success(cmd.OutOrStdout(), fmt.Sprintf("Removed field %s", args[0]))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fieldCmd)
	fieldCmd.AddCommand(fieldListCmd, fieldAddCmd, fieldRmCmd)

	fieldAddCmd.Flags().StringVarP(&fieldSchema, "schema", "s", "", "name of the schema bound to the field")
	fieldAddCmd.Flags().StringVar(&fieldTitle, "title", "", "popup title")
	fieldAddCmd.Flags().StringVar(&fieldFrom, "from", "", "file holding the initial text")
}

// FieldInfo describes one stored field.
type FieldInfo struct {
	ID     string `json:"id" yaml:"id"`
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
	Bytes  int    `json:"bytes" yaml:"bytes"`
}

func openStore() (*store.Store, error) {
	return store.New(viper.GetString("store.dir"))
}

func listFields(st *store.Store) ([]FieldInfo, error) {
	ids, err := st.List()
	if err != nil {
		return nil, err
	}
	fields := make([]FieldInfo, 0, len(ids))
	for _, id := range ids {
		f, err := st.Field(id)
		if err != nil {
			return nil, err
		}
		meta := f.Meta()
		fields = append(fields, FieldInfo{
			ID:     id,
			Schema: meta.Schema,
			Title:  meta.Title,
			Bytes:  len(f.Value()),
		})
	}
	return fields, nil
}

func printFields(w io.Writer, fields []FieldInfo) {
	if len(fields) == 0 {
		style.Info(w, "No fields stored")
		return
	}
	rows := make([][]string, len(fields))
	for i, f := range fields {
		rows[i] = []string{f.ID, f.Schema, f.Title, fmt.Sprintf("%d", f.Bytes)}
	}
	printTable(w, []string{"ID", "Schema", "Title", "Bytes"}, rows)
}
