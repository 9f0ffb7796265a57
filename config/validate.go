package config

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/jmgilman/go/drives/errors"
)

//go:embed schema.cue
var schemaSource string

// Issue is a single validation failure.
type Issue struct {
	// Path is the field path, e.g. "limits.listing".
	Path string

	Message string

	// Position is the schema position of the violated constraint, if known.
	Position token.Pos
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// A cue.Context is not safe for concurrent use; schemaMu serialises
// evaluation.
var (
	schemaMu    sync.Mutex
	schemaOnce  sync.Once
	schemaCtx   *cue.Context
	schemaValue cue.Value
)

// schema compiles the embedded schema once and returns the #Config definition.
func schema() (*cue.Context, cue.Value) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		schemaValue = schemaCtx.CompileString(schemaSource, cue.Filename("schema.cue")).
			LookupPath(cue.ParsePath("#Config"))
	})
	return schemaCtx, schemaValue
}

// Validate checks cfg against the configuration schema. All violations are
// reported at once; the returned error carries them under the "issues"
// context key.
func Validate(ctx context.Context, cfg *Config) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.CodeTimeout, "validation cancelled")
	}

	schemaMu.Lock()
	defer schemaMu.Unlock()

	cctx, def := schema()
	if err := def.Err(); err != nil {
		return errors.WrapWithContext(err, errors.CodeInternal, "configuration schema is invalid",
			map[string]interface{}{"issues": issuesOf(err)})
	}

	data := cctx.Encode(cfg)
	if err := data.Err(); err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "failed to encode configuration")
	}

	// Skip unified.Err() so that cue.All collects every violation.
	unified := def.Unify(data)
	if err := unified.Validate(cue.Concrete(true), cue.Final(), cue.All()); err != nil {
		issues := issuesOf(err)
		return errors.WrapWithContext(err, errors.CodeInvalidConfig,
			"invalid configuration: "+summarize(issues),
			map[string]interface{}{
				"issues":  issues,
				"details": cueerrors.Details(err, nil),
			})
	}
	return nil
}

func issuesOf(err error) []Issue {
	var issues []Issue
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()

		var pos token.Pos
		if positions := e.InputPositions(); len(positions) > 0 {
			pos = positions[0]
		}

		issues = append(issues, Issue{
			Path:     strings.Join(e.Path(), "."),
			Message:  fmt.Sprintf(format, args...),
			Position: pos,
		})
	}
	return issues
}

func summarize(issues []Issue) string {
	parts := make([]string, 0, len(issues))
	for _, issue := range issues {
		parts = append(parts, issue.String())
	}
	return strings.Join(parts, "; ")
}
