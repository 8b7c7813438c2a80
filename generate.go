// Package pgapigen turns PostgreSQL CREATE FUNCTION declarations into a
// typed asynchronous Python client module for psycopg.
package pgapigen

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vippsas/pgapigen/pygen"
	"github.com/vippsas/pgapigen/sqlparser"
)

// Options for one generator invocation. File contents are passed in as
// strings; all file I/O stays with the caller.
type Options struct {
	// FunctionsSQL is the functions file content; it may also contain
	// CREATE TABLE / CREATE TYPE statements.
	FunctionsSQL  string
	FunctionsFile sqlparser.FileRef

	// SchemaSQL optionally carries a dedicated schema file. Its
	// definitions are authoritative over duplicates in the functions file.
	SchemaSQL  string
	SchemaFile sqlparser.FileRef

	OmitHelpers         bool
	AllowMissingSchemas bool

	Config Config
	Logger logrus.FieldLogger
}

// Result of a successful generation.
type Result struct {
	Code      string
	Warnings  []string
	Functions int
}

// Generate runs the whole pipeline: parse the schema file, parse the
// functions file, recover trivial `RETURNS record` columns, then emit the
// Python module. Parse and emit errors abort with a non-nil error;
// survivable problems (skipped functions, permissive fallbacks) come back
// as warnings.
func Generate(opts Options) (Result, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	doc := sqlparser.NewDocument()
	if opts.SchemaSQL != "" {
		doc.ParseSchema(opts.SchemaFile, opts.SchemaSQL)
	}
	doc.Parse(opts.FunctionsFile, opts.FunctionsSQL)
	doc.RecoverRecordColumns()

	var warnings []string
	for _, w := range doc.Warnings() {
		warnings = append(warnings, w.Error())
		log.Warn(w.Error())
	}
	if doc.HasErrors() {
		return Result{Warnings: warnings}, ParseErrors{Errors: doc.Errors()}
	}

	if len(doc.Functions) == 0 {
		log.Warnf("no functions found in %s", opts.FunctionsFile)
		return Result{
			Code:     fmt.Sprintf("# No functions parsed successfully from %s.\n", opts.FunctionsFile),
			Warnings: warnings,
		}, nil
	}

	code, emitWarnings, err := pygen.Emit(doc, pygen.Options{
		SourceFile:          string(opts.FunctionsFile),
		OmitHelpers:         opts.OmitHelpers,
		AllowMissingSchemas: opts.AllowMissingSchemas,
		Namer:               opts.Config.Namer(),
		Logger:              log,
	})
	warnings = append(warnings, emitWarnings...)
	if err != nil {
		return Result{Warnings: warnings}, err
	}
	return Result{Code: code, Warnings: warnings, Functions: len(doc.Functions)}, nil
}
