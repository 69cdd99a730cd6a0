// Package editor ties the graph store, the metadata store and the element
// manager into one editing [Session].
//
// A session opens a graph from the document service (or a file), rebuilds
// badges and affordances, and exposes the three components for editing:
//
//	s := editor.New(client, editor.WithLogger(logger))
//	if err := s.Open(ctx, graphID, editor.OpenOptions{}); err != nil {
//		return err
//	}
//	n, _ := s.Elements().Create(flow.TypeAction, flow.Point{X: 120, Y: 80})
//	s.Metadata().Set(n.ID, 1, flow.Block{Intervention: "Fluids", Classification: flow.ClassInformal})
//	_, err := s.Save(ctx)
//
// Saving is refused while any block has pendencies. Exports run the print
// transformer on a copy of the graph and are cached by content.
package editor
