// Package docstore provides a generic keyed-document store abstraction.
//
// A store is addressed by collection name; every document in a collection
// is identified by a string id and transported as a Document, a string-keyed
// map of JSON-compatible values.
//
// # Layers
//
//   - Backend: the collection-addressed wire contract (fetch-all, fetch,
//     set, insert, replace, merge). Implemented by memstore, sqlstore and redisstore.
//   - Collection[T]: typed access for one collection. Records convert to and
//     from Documents through the Record contract and are optionally checked
//     against a CUE Schema before decoding.
//
// # Write shapes
//
// Two write shapes are supported against the same collection:
//
//   - Set / Insert / Replace: the whole document is written. Insert only
//     writes when the id is free.
//   - Merge: only the supplied top-level fields are overwritten; other
//     fields of the stored document are left untouched.
//
// # Errors
//
// All failures are reported as *Error with one of three codes: NOT_FOUND,
// DECODE or TRANSPORT. Only TRANSPORT failures are retryable.
//
// Documents are persisted as RFC 8785 canonical JSON (see EncodeCanonical)
// so stored bytes are identical across backends and runs.
package docstore
