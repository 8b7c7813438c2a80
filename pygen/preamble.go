package pygen

import (
	"fmt"
	"sort"
	"strings"
)

// renderPreamble writes the header comment and the consolidated import
// block. Imports come out in a fixed preference order: the database client
// first, then standard collections and scalar types, then the enum base,
// then the dataclass decorator.
func (g *generator) renderPreamble(w *writer) {
	source := g.opts.SourceFile
	if source == "" {
		source = "SQL source"
	}
	w.linef(0, "# Generated by pgapigen from %s", source)
	w.linef(0, "# DO NOT EDIT MANUALLY")

	var lines []string
	if g.imports.Has(ImportPsycopg) {
		lines = append(lines, "from psycopg import AsyncConnection")
	}
	if g.imports.Has(ImportJSON) {
		lines = append(lines, "import json")
	}
	if typing := g.typingNames(); len(typing) > 0 {
		lines = append(lines, fmt.Sprintf("from typing import %s", strings.Join(typing, ", ")))
	}
	if datetime := g.datetimeNames(); len(datetime) > 0 {
		lines = append(lines, fmt.Sprintf("from datetime import %s", strings.Join(datetime, ", ")))
	}
	if g.imports.Has(ImportDecimal) {
		lines = append(lines, "from decimal import Decimal")
	}
	if g.imports.Has(ImportUUID) {
		lines = append(lines, "from uuid import UUID")
	}
	if g.imports.Has(ImportEnum) {
		lines = append(lines, "from enum import Enum")
	}
	if g.imports.Has(ImportDataclass) {
		lines = append(lines, "from dataclasses import dataclass")
	}

	if len(lines) > 0 {
		w.blank()
		for _, line := range lines {
			w.linef(0, "%s", line)
		}
	}
}

func (g *generator) typingNames() []string {
	var names []string
	for key, name := range map[string]string{
		ImportAny:      "Any",
		ImportDict:     "Dict",
		ImportList:     "List",
		ImportOptional: "Optional",
		ImportTuple:    "Tuple",
	} {
		if g.imports.Has(key) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (g *generator) datetimeNames() []string {
	var names []string
	// fixed order: datetime, date, timedelta
	if g.imports.Has(ImportDatetime) {
		names = append(names, "datetime")
	}
	if g.imports.Has(ImportDate) {
		names = append(names, "date")
	}
	if g.imports.Has(ImportTimedelta) {
		names = append(names, "timedelta")
	}
	return names
}
