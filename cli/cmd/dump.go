package cmd

import (
	"errors"
	"os"

	"github.com/alecthomas/repr"
	"github.com/spf13/cobra"

	"github.com/vippsas/pgapigen/sqlparser"
)

var (
	dumpSchemaFile string

	dumpCmd = &cobra.Command{
		Use:   "dump <functions.sql>",
		Short: "Parse a SQL file and dump the resulting document model to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				_ = cmd.Help()
				return errors.New("need the functions file as argument")
			}
			doc := sqlparser.NewDocument()
			if dumpSchemaFile != "" {
				schemaSQL, err := os.ReadFile(dumpSchemaFile)
				if err != nil {
					return err
				}
				doc.ParseSchema(sqlparser.FileRef(dumpSchemaFile), string(schemaSQL))
			}
			functionsSQL, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			doc.Parse(sqlparser.FileRef(args[0]), string(functionsSQL))
			doc.RecoverRecordColumns()

			for _, f := range doc.Functions {
				repr.Println(f)
			}
			for _, t := range doc.RowTypes {
				repr.Println(t)
			}
			for _, e := range doc.EnumTypes {
				repr.Println(e)
			}
			for _, w := range doc.Warnings() {
				repr.Println(w)
			}
			for _, e := range doc.Errors() {
				repr.Println(e)
			}
			return nil
		},
	}
)

func init() {
	dumpCmd.Flags().StringVarP(&dumpSchemaFile, "schema-file", "s", "", "path to a SQL file with CREATE TABLE / CREATE TYPE statements")
	rootCmd.AddCommand(dumpCmd)
}
