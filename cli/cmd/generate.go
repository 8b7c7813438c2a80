package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vippsas/pgapigen"
	"github.com/vippsas/pgapigen/sqlparser"
)

var (
	schemaFile          string
	noHelpers           bool
	allowMissingSchemas bool

	generateCmd = &cobra.Command{
		Use:   "generate <functions.sql> <output.py>",
		Short: "Generate the Python wrapper module from a SQL functions file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				_ = cmd.Help()
				return errors.New("need the functions file and the output file as arguments")
			}
			functionsPath, outputPath := args[0], args[1]
			logger := logrus.StandardLogger()

			config, err := LoadConfig()
			if err != nil {
				return err
			}

			functionsSQL, err := os.ReadFile(functionsPath)
			if err != nil {
				return err
			}
			opts := pgapigen.Options{
				FunctionsSQL:        string(functionsSQL),
				FunctionsFile:       sqlparser.FileRef(functionsPath),
				OmitHelpers:         noHelpers,
				AllowMissingSchemas: allowMissingSchemas,
				Config:              config,
				Logger:              logger,
			}
			if schemaFile != "" {
				schemaSQL, err := os.ReadFile(schemaFile)
				if err != nil {
					return err
				}
				opts.SchemaSQL = string(schemaSQL)
				opts.SchemaFile = sqlparser.FileRef(schemaFile)
			}

			result, err := pgapigen.Generate(opts)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outputPath, []byte(result.Code), 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %s (%d functions)\n", outputPath, result.Functions)
			return nil
		},
	}
)

func init() {
	generateCmd.Flags().StringVarP(&schemaFile, "schema-file", "s", "", "path to a SQL file with CREATE TABLE / CREATE TYPE statements")
	generateCmd.Flags().BoolVar(&noHelpers, "no-helpers", false, "do not emit the get_optional/get_required helpers")
	generateCmd.Flags().BoolVar(&allowMissingSchemas, "allow-missing-schemas", false, "emit placeholders and Any fallbacks instead of failing on unknown tables and types (the generated code may fail at runtime)")
	rootCmd.AddCommand(generateCmd)
}
