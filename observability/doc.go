// Package observability provides an extension that records run and
// operation lifecycle counters through OpenTelemetry.
//
// Register it on an engine to track run starts, completions, failures,
// and per-operation outcomes without touching operation code:
//
//	eng, err := engine.Build(plan, reg,
//	    engine.WithExtension(observability.New()),
//	)
//
// If no MeterProvider is configured globally, the OTel API hands back
// noop instruments and the extension costs nothing.
package observability
