// Package store holds the canonical graph of an editing session.
//
// A [Store] loads a graph from serialized text, serializes it losslessly,
// and tracks a tri-state saved flag ([NeverSaved], [Unsaved], [Saved]).
// Every structural mutation elsewhere in the editor calls [Store.MarkDirty].
//
// Remote loading and saving go through a [Persister]. Failures surface as
// NETWORK_ERROR and never modify the in-memory graph or its saved state.
package store
