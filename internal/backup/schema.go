package backup

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schema.cue
var schemaSource []byte

// ErrImportParse is the sentinel for any document that cannot be imported.
var ErrImportParse = errors.New("backup file is corrupt or in the wrong format")

// ParseError locates the first problem in an imported document.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString(ErrImportParse.Error())
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d:%d", e.Line, e.Column)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, ": %s", e.Path)
	}
	fmt.Fprintf(&b, ": %s", e.Message)
	return b.String()
}

// Unwrap makes errors.Is(err, ErrImportParse) hold.
func (e *ParseError) Unwrap() error { return ErrImportParse }

// validator holds the compiled schema. A cue.Context is not safe for
// concurrent use, so every check holds mu.
type validator struct {
	mu  sync.Mutex
	ctx *cue.Context
	def cue.Value
}

var loadValidator = sync.OnceValues(func() (*validator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile backup schema: %w", err)
	}
	def := v.LookupPath(cue.ParsePath("#Backup"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("compile backup schema: %w", err)
	}
	return &validator{ctx: ctx, def: def}, nil
})

// Validate checks data against the backup schema without decoding it.
// Any failure is a *ParseError.
func Validate(data []byte) error {
	val, err := loadValidator()
	if err != nil {
		return err
	}

	expr, err := cuejson.Extract("backup.json", data)
	if err != nil {
		return toParseError(err)
	}

	val.mu.Lock()
	defer val.mu.Unlock()

	doc := val.ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return toParseError(err)
	}
	if err := val.def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return toParseError(err)
	}
	return nil
}

// toParseError keeps the first CUE error and its position.
func toParseError(err error) *ParseError {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ParseError{Message: err.Error()}
	}

	first := errs[0]
	format, args := first.Msg()
	pe := &ParseError{
		Path:    strings.Join(first.Path(), "."),
		Message: fmt.Sprintf(format, args...),
	}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		pe.Line = positions[0].Line()
		pe.Column = positions[0].Column()
	}
	return pe
}
