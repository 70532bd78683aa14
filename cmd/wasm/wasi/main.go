//go:build wasip1

// Command imagicomplex-wasi is the WASI (wasip1) entrypoint for presentation
// layers written in any language that can host WebAssembly.
//
// Protocol: single JSON object on stdin → single JSON object on stdout.
//
//	stdin:  { "expression": "sin(z)/z",
//	          "region": {"minX": -5, "maxX": 5, "minY": -5, "maxY": 5},
//	          "resolution": 0.5,
//	          "grids": [{"kind": "radial-angle", "radiusIncrement": 1, "angle": 30}] }
//	stdout: { "expression": ..., "lattice": {...}, "grids": [[...]] }   on success
//	        { "error": {"code": "S0205", "message": ..., "position": 0} } on failure (exit code 1)
//
// Singular points do not fail the request; they appear in the lattice with
// an "error" instead of a "w" value. An invalid grid does not fail it either:
// "grids" then holds null in its slot and "gridErrors" its diagnostic.
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -o imagicomplex.wasm ./cmd/wasm/wasi/
//
// Usage with wasmtime CLI:
//
//	echo '{"expression":"1/z","region":{"minX":-1,"maxX":1,"minY":-1,"maxY":1},"resolution":1}' | wasmtime imagicomplex.wasm
package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/imagicomplex/imagicomplex/pkg/wire"
)

func writeResponse(r wire.Response, exitCode int) {
	_ = json.NewEncoder(os.Stdout).Encode(r)
	os.Exit(exitCode)
}

func main() {
	var req wire.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(wire.InvalidRequest(err), 1)
	}

	resp := wire.Handle(context.Background(), req)
	if resp.Error != nil {
		writeResponse(resp, 1)
	}

	writeResponse(resp, 0)
}
