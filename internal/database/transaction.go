package database

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// varRef matches a $name parameter reference
var varRef = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// TxBuilder assembles statements into one BEGIN/COMMIT query. Parameters are
// renamed per statement ($id in the second statement becomes $s2_id) so
// statements can reuse names without clobbering each other.
type TxBuilder struct {
	statements []string
	vars       map[string]interface{}
}

func NewTxBuilder() *TxBuilder {
	return &TxBuilder{vars: make(map[string]interface{})}
}

// Add appends a statement and returns the original-to-renamed mapping of the
// parameters it references. Parameters in vars that the statement does not
// reference are not sent; references with no value in vars are left alone.
func (tb *TxBuilder) Add(query string, vars map[string]interface{}) map[string]string {
	prefix := fmt.Sprintf("s%d_", len(tb.statements)+1)
	renamed := make(map[string]string)

	stmt := varRef.ReplaceAllStringFunc(query, func(ref string) string {
		name := ref[1:]
		value, ok := vars[name]
		if !ok {
			return ref
		}
		to := prefix + name
		tb.vars[to] = value
		renamed[name] = to
		return "$" + to
	})

	stmt = strings.TrimSpace(stmt)
	if !strings.HasSuffix(stmt, ";") {
		stmt += ";"
	}
	tb.statements = append(tb.statements, stmt)
	return renamed
}

// Build returns the transaction query and its parameters, or "" when empty
func (tb *TxBuilder) Build() (string, map[string]interface{}) {
	if len(tb.statements) == 0 {
		return "", nil
	}
	query := "BEGIN TRANSACTION;\n" + strings.Join(tb.statements, "\n") + "\nCOMMIT TRANSACTION;"
	return query, tb.vars
}

// AtomicBatch is a chainable TxBuilder whose statements commit together or
// not at all.
type AtomicBatch struct {
	tx *TxBuilder
}

func NewAtomicBatch() *AtomicBatch {
	return &AtomicBatch{tx: NewTxBuilder()}
}

func (ab *AtomicBatch) Add(query string, vars map[string]interface{}) *AtomicBatch {
	ab.tx.Add(query, vars)
	return ab
}

// Guard aborts the batch with ErrConflict, carrying reason, when condition
// is true at execution time.
func (ab *AtomicBatch) Guard(condition string, vars map[string]interface{}, reason string) *AtomicBatch {
	return ab.Add(fmt.Sprintf("IF %s { THROW %q; }", condition, conflictPrefix+reason), vars)
}

// Execute sends the batch as one transaction. An empty batch is a no-op.
func (ab *AtomicBatch) Execute(ctx context.Context, db Database) error {
	query, vars := ab.tx.Build()
	if query == "" {
		return nil
	}
	_, err := db.Query(ctx, query, vars)
	return err
}
