//go:build (js && wasm) || wasip1

package sampler

// init disables parallel sampling by default on WebAssembly targets.
//
// On js/wasm the JavaScript runtime is single-threaded: goroutines are
// multiplexed cooperatively on the same OS thread, so fanning rows out to
// workers only adds scheduling overhead and can starve the event loop.
//
// On wasip1 the WASI threading proposal is still experimental and not yet
// supported by the Go runtime, so the same default applies.
func init() {
	defaultConcurrency = false
}
