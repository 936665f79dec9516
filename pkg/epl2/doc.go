// pkg/epl2/doc.go

// Package epl2 decodes EPL2 label printer job streams into typed commands.
//
// A job is ASCII commands separated by line feeds, except that GW graphics and
// binary b payloads carry raw bytes whose length comes from earlier fields of
// the same command. The decoder sizes those blocks from the parsed fields and
// never scans them for separators.
//
// Decoding is a pure, synchronous pass. Errors are reported in stream order
// next to the commands that decoded, so callers can use the valid part of a
// damaged job.
package epl2
