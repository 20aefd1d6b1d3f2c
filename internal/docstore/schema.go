package docstore

import (
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// Schema validates documents against a CUE definition before they are decoded.
//
// A cue.Context is not safe for concurrent use, so validation is serialized.
type Schema struct {
	mu   sync.Mutex
	ctx  *cue.Context
	def  cue.Value
	name string
}

// CompileSchema compiles CUE source and selects the definition at path (e.g. "#Chapter").
func CompileSchema(src, path string) (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %s", formatCUEError(err))
	}
	def := v.LookupPath(cue.ParsePath(path))
	if !def.Exists() {
		return nil, fmt.Errorf("compile schema: definition %s not found", path)
	}
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %s", formatCUEError(err))
	}
	return &Schema{ctx: ctx, def: def, name: path}, nil
}

// MustCompileSchema is like CompileSchema but panics on error.
// Intended for package-level schema variables.
func MustCompileSchema(src, path string) *Schema {
	s, err := CompileSchema(src, path)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate unifies the document with the definition and requires a concrete result.
// Violations are returned as DECODE errors.
func (s *Schema) Validate(d Document) error {
	if s == nil {
		return nil
	}
	n, err := Normalize(d)
	if err != nil {
		return Decode("", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.ctx.Encode(map[string]any(n))
	if err := v.Err(); err != nil {
		return Decode("", fmt.Errorf("%s: %s", s.name, formatCUEError(err)))
	}
	u := s.def.Unify(v)
	if err := u.Validate(cue.Concrete(true)); err != nil {
		return Decode(firstErrorPath(err), fmt.Errorf("%s: %s", s.name, formatCUEError(err)))
	}
	return nil
}

// formatCUEError flattens a CUE error list into one line.
func formatCUEError(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func firstErrorPath(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return ""
	}
	return strings.Join(errs[0].Path(), ".")
}
