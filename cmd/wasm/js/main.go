//go:build js && wasm

// Command imagicomplex-js is the WebAssembly entrypoint for browser and Node.js.
//
// It exposes a global `imagicomplex` object with the following API:
//
//	imagicomplex.version()                  → string
//	imagicomplex.check(expression)          → null, or diagnostic JSON
//	imagicomplex.render(requestJSON)        → responseJSON  (see cmd/wasm/wasi)
//	imagicomplex.compile(expression)        → { source, eval(re, im) → [re, im] } or { error }
//
// Failures never throw. render reports them in the response's "error" field;
// compile and eval return an object whose "error" field holds the diagnostic
// ({ code, category, message, position }).
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o imagicomplex.wasm ./cmd/wasm/js/
//
// Usage in browser:
//
//	<script src="wasm_exec.js"></script>
//	<script>
//	  const go = new Go()
//	  WebAssembly.instantiateStreaming(fetch('imagicomplex.wasm'), go.importObject)
//	    .then(r => { go.run(r.instance)
//	      const f = imagicomplex.compile('z^2')
//	      if (f.error) throw new Error(f.error.message)
//	      console.log(f.eval(0, 1)) // [-1, 0]
//	    })
//	</script>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"syscall/js"

	"github.com/imagicomplex/imagicomplex"
	"github.com/imagicomplex/imagicomplex/pkg/evaluator"
	"github.com/imagicomplex/imagicomplex/pkg/wire"
)

// errorValue returns {error: {...}} for err.
func errorValue(err error) js.Value {
	d := wire.DiagnosticOf(err)
	diag := map[string]any{
		"category": d.Category,
		"message":  d.Message,
	}
	if d.Code != "" {
		diag["code"] = d.Code
	}
	if d.Position != nil {
		diag["position"] = *d.Position
	}
	if d.Node != "" {
		diag["node"] = d.Node
	}
	return js.ValueOf(map[string]any{"error": diag})
}

func marshal(v any) any {
	out, err := json.Marshal(v)
	if err != nil {
		return errorValue(fmt.Errorf("imagicomplex: marshal result: %w", err))
	}
	return string(out)
}

// jsCheck implements imagicomplex.check(expression).
func jsCheck(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorValue(errors.New("imagicomplex.check requires 1 argument: expression (string)"))
	}
	if _, err := imagicomplex.Compile(args[0].String()); err != nil {
		return marshal(wire.DiagnosticOf(err))
	}
	return js.Null()
}

// jsRender implements imagicomplex.render(requestJSON) → responseJSON.
func jsRender(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return marshal(wire.InvalidRequest(errors.New("imagicomplex.render requires 1 argument: request (JSON string)")))
	}
	var req wire.Request
	if err := json.Unmarshal([]byte(args[0].String()), &req); err != nil {
		return marshal(wire.InvalidRequest(err))
	}
	return marshal(wire.Handle(context.Background(), req))
}

// jsCompile implements imagicomplex.compile(expression).
func jsCompile(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorValue(errors.New("imagicomplex.compile requires 1 argument: expression (string)"))
	}

	expr, err := imagicomplex.Compile(args[0].String())
	if err != nil {
		return errorValue(err)
	}

	ev := evaluator.New()

	evalFn := js.FuncOf(func(_ js.Value, innerArgs []js.Value) any {
		if len(innerArgs) < 2 {
			return errorValue(errors.New("compiled.eval requires 2 arguments: re and im (numbers)"))
		}
		w, err := ev.Eval(expr, complex(innerArgs[0].Float(), innerArgs[1].Float()))
		if err != nil {
			return errorValue(err)
		}
		return js.ValueOf([]any{real(w), imag(w)})
	})

	return js.ValueOf(map[string]any{
		"source": expr.Source(),
		"eval":   evalFn,
	})
}

func main() {
	api := map[string]any{
		"check":   js.FuncOf(jsCheck),
		"render":  js.FuncOf(jsRender),
		"compile": js.FuncOf(jsCompile),
		"version": js.FuncOf(func(_ js.Value, _ []js.Value) any {
			return imagicomplex.Version()
		}),
	}
	js.Global().Set("imagicomplex", js.ValueOf(api))

	// Block forever; the JS event loop owns execution from here.
	select {}
}
