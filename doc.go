// Package glyphforge is a high-throughput text-glyph rendering engine
// for font-matching and font-analysis pipelines.
//
// # Overview
//
// The engine accepts rendering jobs (a font reference, a text run and
// a render request), validates them, shapes and rasterizes the text,
// and returns either an encoded raster image or scalar match metrics
// (ink density and beam). Jobs run individually, as parallel batches
// streaming results in completion order, inside a long-lived streaming
// session, or as variation sweeps across a variable font's design
// space.
//
// # Quick Start
//
//	import "github.com/glyphforge/glyphforge"
//
//	engine := glyphforge.NewEngine()
//
//	batch, err := glyphforge.ParseBatch(rawJSON)
//	if err != nil {
//	    // malformed envelope, unsupported version, or empty batch
//	}
//
//	results, err := engine.ProcessJobs(ctx, batch)
//	if err != nil {
//	    // batch-fatal error, no jobs executed
//	}
//	for res := range results {
//	    // results arrive in completion order; correlate by res.ID
//	}
//
// # Caching
//
// Two LRU cache tiers back all execution: parsed font instances and
// rendered glyph results. Both de-duplicate concurrent loads per key,
// so thousands of jobs referencing the same font pay its parse cost
// once. Each [Engine] and [Session] owns independent cache state;
// there is no process-wide cache.
//
// # Errors
//
// Failures come in two tiers that are never conflated. Batch- and
// session-fatal conditions (malformed envelope, unsupported version,
// empty job list, closed session) fail the call itself. Job-local
// problems (missing font, shaping failure, invalid canvas) surface as
// a [JobResult] with [StatusError] and never abort the surrounding
// batch.
//
// The package produces no log output by default; call [SetLogger] to
// enable it. Result persistence is out of scope: results exist for the
// single request/response cycle. A minimal batch front-end lives in
// cmd/glyphforge.
package glyphforge
