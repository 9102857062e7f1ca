// Package validate provides structural guards that classify untrusted sync
// payloads as well-formed before they reach merge logic.
//
// Validators return a boolean verdict and never panic or repair: callers at
// the transport boundary decide what "invalid" means to the user. The
// schemas live in schema.cue and are compiled once per process.
package validate

import (
	_ "embed"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schema.cue
var schemaCUE string

var (
	compileOnce sync.Once
	cuectx      *cue.Context
	schemas     cue.Value
)

func compile() {
	cuectx = cuecontext.New()
	schemas = cuectx.CompileString(schemaCUE, cue.Filename("schema.cue"))
}

// SyncRequest reports whether data is a structurally valid sync envelope:
// a non-empty device identifier, a boolean guest flag, and a present
// client-data object. Nested collections are not deep-validated here.
func SyncRequest(data []byte) bool {
	return conforms("#SyncRequest", data)
}

// Progress reports whether data is a structurally valid progress aggregate:
// a numeric version, a numeric total-sessions counter, and an array-shaped
// sessions field (which may be empty).
func Progress(data []byte) bool {
	return conforms("#Progress", data)
}

// Session reports whether data is a structurally valid session: a non-empty
// identifier and numeric minutes and breaths fields.
func Session(data []byte) bool {
	return conforms("#Session", data)
}

// conforms unifies the JSON payload with the named schema definition and
// checks that every required field is concretely satisfied. Any failure -
// unparseable JSON included - is simply "invalid".
func conforms(def string, data []byte) bool {
	compileOnce.Do(compile)
	if schemas.Err() != nil {
		return false
	}

	schema := schemas.LookupPath(cue.ParsePath(def))
	if !schema.Exists() {
		return false
	}

	expr, err := cuejson.Extract("payload", data)
	if err != nil {
		return false
	}
	value := cuectx.BuildExpr(expr)
	if value.Err() != nil {
		return false
	}

	return schema.Unify(value).Validate(cue.Concrete(true)) == nil
}
