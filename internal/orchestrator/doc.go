// Package orchestrator coordinates reads, derived lock state and queued
// writes for a learner working through the curriculum.
//
// Reads go straight to the document store and fail fast. Writes are
// scheduled on one of two operation queues (progress and chapters), each
// wrapped in the retry executor; their failures are logged, never returned
// to the caller that triggered them. The progress record is authoritative.
// Question states written back to chapter documents are a cache that
// LoadView never reads.
//
// Every call takes the user id explicitly; there is no ambient user.
package orchestrator
