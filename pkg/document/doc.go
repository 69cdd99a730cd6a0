// Package document defines the wire and storage formats of carepath graphs.
//
// A flowchart serializes to a node-link JSON object:
//
//	{
//	  "nodes": [{"id": "s", "type": "StartElement", ...}],
//	  "links": [{"id": "l1", "source": {"id": "s", "port": "out"}, ...}]
//	}
//
// [MarshalGraph] and [UnmarshalGraph] convert between [flow.Graph] and that
// text; decoding validates structure and rejects corrupt documents rather
// than repairing them. [Document], [Update] and [Algorithm] are the records
// exchanged with the persistence collaborator.
package document
