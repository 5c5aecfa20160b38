// Package observability holds opt-in debug instrumentation toggles.
package observability

// Config captures opt-in observability toggles. When EnablePprofTrace is set
// the HTTP API mounts the pprof handlers under /debug.
type Config struct {
	EnablePprofTrace bool
}
