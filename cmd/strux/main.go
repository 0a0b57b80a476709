package main

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/strux-go/strux/dsl"
	"github.com/strux-go/strux/i18n"
)

var (
	// Global flags
	schemaPath string
	lang       string
	debug      bool

	// validate flags
	formatName string
	abortEarly bool
	watchMode  bool

	// schema flags
	printJSONSchema bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "strux",
	Short: "strux validates data files against schema documents",
	Long: `strux compiles a schema document (YAML or JSON) and validates data
files against it. Data files are decoded by extension: .json, .yaml/.yml,
.toml and .msgpack are supported.

Examples:
  strux validate -s schema.yaml order.json
  strux validate -s schema.yaml --watch --format json orders/*.json
  strux schema -s schema.yaml --print-json-schema`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debug {
			config := zap.NewProductionConfig()
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			l, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger = l
		}
		i18n.SetLanguage(lang)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [data files...]",
	Short: "Validate data files against the schema document",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect the schema document",
	RunE:  runSchema,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&schemaPath, "schema", "s", "", "schema document (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&lang, "lang", "en", "message language (en, ja)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	_ = rootCmd.MarkPersistentFlagRequired("schema")

	validateCmd.Flags().StringVar(&formatName, "format", "pretty", "output format (pretty, json)")
	validateCmd.Flags().BoolVar(&abortEarly, "abort-early", false, "stop at the first issue per file")
	validateCmd.Flags().BoolVar(&watchMode, "watch", false, "re-validate when the schema or data files change")

	schemaCmd.Flags().BoolVar(&printJSONSchema, "print-json-schema", false, "print the JSON Schema projection")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(schemaCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSchema(cmd *cobra.Command, args []string) error {
	s, err := loadSchema()
	if err != nil {
		return err
	}
	if printJSONSchema {
		doc, err := dsl.JSONSchema(s)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	fmt.Printf("%s: %s schema\n", schemaPath, s.TypeName())
	return nil
}
