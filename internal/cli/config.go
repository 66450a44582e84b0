package cli

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/lacquerai/jsonedit/internal/editor"
	"github.com/lacquerai/jsonedit/internal/i18n"
	"github.com/lacquerai/jsonedit/internal/path"
	"github.com/lacquerai/jsonedit/internal/schema"
)

// JSONEDIT_EDITOR_BLOCK_INVALID_SAVE maps to editor.block-invalid-save.
var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// FileConfig is the layout of config.yaml.
type FileConfig struct {
	Editor  editor.Config `yaml:"editor" jsonschema:"description=Editor session settings"`
	Schemas struct {
		Dir string `yaml:"dir" jsonschema:"description=Directory of schema files bound by name"`
	} `yaml:"schemas"`
	Strings struct {
		File string `yaml:"file" jsonschema:"description=YAML or JSON file overriding UI strings"`
	} `yaml:"strings"`
	Server struct {
		Host string `yaml:"host" jsonschema:"default=localhost"`
		Port int    `yaml:"port" jsonschema:"default=8080"`
	} `yaml:"server"`
	Store struct {
		Dir string `yaml:"dir" jsonschema:"description=Directory holding the field documents"`
	} `yaml:"store"`
	LogLevel string `yaml:"log-level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,enum=disabled"`
	Output   string `yaml:"output" jsonschema:"enum=text,enum=json,enum=yaml"`
}

func setConfigDefaults() {
	defaults := editor.DefaultConfig()
	viper.SetDefault("editor.insert-items", defaults.InsertItems)
	viper.SetDefault("editor.move-items", defaults.MoveItems)
	viper.SetDefault("editor.remove-items", defaults.RemoveItems)
	viper.SetDefault("editor.edit-keys", defaults.EditKeys)
	viper.SetDefault("editor.visible-schema", defaults.VisibleSchema)
	viper.SetDefault("editor.block-invalid-save", defaults.BlockInvalidSave)
	viper.SetDefault("editor.debounce", defaults.Debounce)
	viper.SetDefault("editor.path-style", defaults.PathStyle.String())
	viper.SetDefault("editor.legacy-zero-bounds", defaults.LegacyZeroBounds)
	viper.SetDefault("schemas.dir", "")
	viper.SetDefault("strings.file", "")
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("store.dir", "")
}

// editorConfig assembles the editor settings from the configuration.
func editorConfig() editor.Config {
	return editor.Config{
		InsertItems:      viper.GetBool("editor.insert-items"),
		MoveItems:        viper.GetBool("editor.move-items"),
		RemoveItems:      viper.GetBool("editor.remove-items"),
		EditKeys:         viper.GetBool("editor.edit-keys"),
		VisibleSchema:    viper.GetBool("editor.visible-schema"),
		BlockInvalidSave: viper.GetBool("editor.block-invalid-save"),
		Debounce:         viper.GetDuration("editor.debounce"),
		PathStyle:        path.ParseStyle(viper.GetString("editor.path-style")),
		LegacyZeroBounds: viper.GetBool("editor.legacy-zero-bounds"),
	}
}

// loadStrings returns the built-in string table merged with the overrides
// named by strings.file.
func loadStrings() (*i18n.Table, error) {
	table := i18n.New()
	file := viper.GetString("strings.file")
	if file == "" {
		return table, nil
	}
	if err := table.LoadFile(file); err != nil {
		return nil, err
	}
	log.Debug().Str("file", file).Msg("String overrides loaded")
	return table, nil
}

// loadSchemas registers every schema under schemas.dir.
func loadSchemas() (*schema.Registry, error) {
	reg := schema.NewRegistry()
	dir := viper.GetString("schemas.dir")
	if dir == "" {
		return reg, nil
	}
	if err := reg.LoadDir(dir); err != nil {
		return nil, err
	}
	return reg, nil
}

// resolveSchema accepts either a schema file or the name of a schema under
// schemas.dir.
func resolveSchema(ref string) (*schema.Node, error) {
	if ref == "" {
		return nil, nil
	}
	if isSchemaFile(ref) {
		return schema.ParseFile(ref)
	}
	reg, err := loadSchemas()
	if err != nil {
		return nil, err
	}
	node, err := reg.Get(ref)
	if err != nil {
		return nil, fmt.Errorf("%w (looked in %q)", err, viper.GetString("schemas.dir"))
	}
	return node, nil
}

func isSchemaFile(ref string) bool {
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		if strings.HasSuffix(ref, ext) {
			return true
		}
	}
	return false
}
