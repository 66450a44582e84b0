package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lacquerai/jsonedit/internal/i18n"
	"github.com/lacquerai/jsonedit/internal/schema"
	"github.com/lacquerai/jsonedit/internal/style"
	"github.com/lacquerai/jsonedit/internal/validate"
	"github.com/lacquerai/jsonedit/internal/value"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate JSON documents against a schema",
	Long: `Validate JSON documents against a JSON Schema, the way the editor does on save.

This command checks:
- JSON syntax
- Types, enums and const values
- String length, pattern and format
- Numeric bounds
- Array size and uniqueness
- Required and undeclared object members

Examples:
  jsonedit validate --schema person.json alice.json        # Validate one document
  jsonedit validate --schema person ./people/*.json        # Schema by name from schemas.dir
  jsonedit validate -r --schema person.json ./people       # Validate a directory
  jsonedit validate --output json --schema s.json doc.json # JSON output for CI/CD`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sch, err := resolveSchema(validateSchema)
		if err != nil {
			return err
		}
		summary, err := validateDocuments(sch, args)
		if err != nil {
			return err
		}
		printOutput(cmd.OutOrStdout(), summary, func(w io.Writer) {
			printValidationSummary(w, summary)
		})
		if summary.Invalid > 0 {
			return fmt.Errorf("%d of %d document(s) failed validation", summary.Invalid, summary.Total)
		}
		return nil
	},
}

var (
	validateSchema string
	recursive      bool
	showAll        bool
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateSchema, "schema", "s", "", "schema file, or schema name under schemas.dir")
	validateCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "recursively validate files in directories")
	validateCmd.Flags().BoolVar(&showAll, "show-all", false, "show all validation results, including successful ones")
	_ = validateCmd.MarkFlagRequired("schema")
}

// Violation is one schema violation in a document.
type Violation struct {
	Path    string `json:"path" yaml:"path"`
	Kind    string `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
}

// ValidationResult represents the result of validating a document
type ValidationResult struct {
	File       string        `json:"file" yaml:"file"`
	Valid      bool          `json:"valid" yaml:"valid"`
	Duration   time.Duration `json:"duration_ms" yaml:"duration_ms"`
	Errors     []string      `json:"errors,omitempty" yaml:"errors,omitempty"`
	Violations []Violation   `json:"violations,omitempty" yaml:"violations,omitempty"`
}

// ValidationSummary represents the summary of all validation results
type ValidationSummary struct {
	Total    int                `json:"total" yaml:"total"`
	Valid    int                `json:"valid" yaml:"valid"`
	Invalid  int                `json:"invalid" yaml:"invalid"`
	Duration time.Duration      `json:"total_duration_ms" yaml:"total_duration_ms"`
	Results  []ValidationResult `json:"results" yaml:"results"`
}

func validateDocuments(sch *schema.Node, args []string) (ValidationSummary, error) {
	start := time.Now()

	files, err := collectFiles(args, recursive)
	if err != nil {
		return ValidationSummary{}, fmt.Errorf("failed to collect files: %w", err)
	}

	strs, err := loadStrings()
	if err != nil {
		return ValidationSummary{}, err
	}
	cfg := editorConfig()
	v := validate.New(validate.Options{
		LegacyZeroBounds: cfg.LegacyZeroBounds,
		PathStyle:        cfg.PathStyle,
		Strings:          strs,
	})

	summary := ValidationSummary{Results: make([]ValidationResult, 0, len(files))}
	for _, file := range files {
		result := validateSingleFile(v, strs, sch, file)
		summary.Results = append(summary.Results, result)
		if result.Valid {
			summary.Valid++
		} else {
			summary.Invalid++
		}
	}
	summary.Total = len(summary.Results)
	summary.Duration = time.Since(start)
	return summary, nil
}

func validateSingleFile(v *validate.Validator, strs *i18n.Table, sch *schema.Node, filename string) ValidationResult {
	start := time.Now()
	result := ValidationResult{File: filename, Valid: true}

	data, err := os.ReadFile(filename)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	doc, err := value.Parse(data)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, strs.Get(i18n.Error, "invalidJson", i18n.Params{"error": err.Error()}))
		result.Duration = time.Since(start)
		return result
	}

	pathStyle := editorConfig().PathStyle
	for _, e := range v.Validate(doc, sch) {
		result.Valid = false
		result.Violations = append(result.Violations, Violation{
			Path:    e.Path.Format(pathStyle),
			Kind:    string(e.Kind),
			Message: e.Message,
		})
	}
	result.Duration = time.Since(start)

	log.Debug().
		Str("file", filename).
		Bool("valid", result.Valid).
		Dur("duration", result.Duration).
		Msg("Validated document")

	return result
}

func collectFiles(args []string, recursive bool) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		if !recursive {
			return nil, fmt.Errorf("%s is a directory, use --recursive to validate directories", arg)
		}
		err = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && filepath.Ext(path) == ".json" {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error walking directory %s: %w", arg, err)
		}
	}

	return files, nil
}

func printValidationSummary(w io.Writer, summary ValidationSummary) {
	for _, result := range summary.Results {
		if result.Valid {
			if showAll {
				style.Success(w, fmt.Sprintf("%s (%v)", result.File, result.Duration))
			}
			continue
		}
		style.Error(w, style.FormatFilePath(result.File))
		for _, msg := range result.Errors {
			fmt.Fprintf(w, "  %s\n", msg)
		}
		for _, v := range result.Violations {
			fmt.Fprintln(w, style.FormatViolation(v.Path, v.Message))
		}
	}

	if viper.GetBool("quiet") {
		return
	}

	fmt.Fprintln(w)
	if summary.Invalid == 0 {
		style.Success(w, fmt.Sprintf("All %d document(s) are valid (%v)", summary.Total, summary.Duration))
	} else {
		style.Error(w, fmt.Sprintf("%d of %d document(s) failed validation (%v)", summary.Invalid, summary.Total, summary.Duration))
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(w, "\nDetailed results:\n")
		headers := []string{"File", "Status", "Violations", "Duration"}
		rows := make([][]string, len(summary.Results))
		for i, result := range summary.Results {
			status := "valid"
			if !result.Valid {
				status = "invalid"
			}
			rows[i] = []string{
				result.File,
				status,
				fmt.Sprintf("%d", len(result.Violations)+len(result.Errors)),
				result.Duration.String(),
			}
		}
		printTable(w, headers, rows)
	}
}
