package config

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schema.cue
var schemaCUE string

// ValidateSchema checks a JSON config document against the embedded CUE
// schema. Schema violations report the offending path so a typo'd option
// is easy to find.
func ValidateSchema(raw []byte) error {
	ctx := cuecontext.New()

	compiled := ctx.CompileString(schemaCUE)
	if err := compiled.Err(); err != nil {
		return fmt.Errorf("config: compile schema: %w", err)
	}
	schema := compiled.LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config: schema definition: %w", err)
	}

	expr, err := cuejson.Extract("config", raw)
	if err != nil {
		return fmt.Errorf("config: parse json: %w", err)
	}
	doc := ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("config: build document: %w", err)
	}

	unified := schema.Unify(doc)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}
