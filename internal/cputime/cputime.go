// Package cputime probes, once at process start, whether per-process
// CPU time is available on this platform and exposes a branch-free
// Now() reader accordingly (spec Design Notes: "cache the
// capability-probe result once at construction to keep the hot path
// branch-free").
package cputime

// Supported reports whether Now returns real CPU time readings on
// this platform.
var Supported bool

// Now returns the calling process's cumulative CPU time in
// nanoseconds, or 0 if Supported is false.
var Now func() int64 = func() int64 { return 0 }
