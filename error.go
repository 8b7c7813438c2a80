package pgapigen

import (
	"fmt"
	"strings"

	"github.com/vippsas/pgapigen/sqlparser"
)

// ParseErrors aggregates the positioned errors of a failed parse.
type ParseErrors struct {
	Errors []sqlparser.Error
}

func (e ParseErrors) Error() string {
	var msg strings.Builder
	msg.WriteString("SQL syntax error:\n\n")
	for _, err := range e.Errors {
		msg.WriteString(fmt.Sprintf("%s:%d:%d: %s\n", err.Pos.File, err.Pos.Line, err.Pos.Col, err.Message))
	}
	return msg.String()
}
