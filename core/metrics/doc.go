// Package metrics provides an injectable diagnostic counter sink.
//
// The engine records every remote call and every entity id it touches so that
// redundant fetch patterns (the same album reloaded many times in one run) can be
// detected from a run summary instead of a debugger. Components receive a Recorder
// through their constructors; tests and production wiring choose the implementation.
package metrics
