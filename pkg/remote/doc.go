// Package remote is the HTTP client of the document service that stores
// graphs and algorithm headers.
//
//	client, err := remote.New("https://api.example.org", remote.WithToken(token))
//	s := store.New(client)
//	err = s.Open(ctx, graphID)
//
// Routes:
//
//	GET /algorithms/{id}          algorithm header
//	GET /algorithms/graph/{id}    graph record
//	PUT /algorithms/graph/{id}    save, responds {"updated_at": ...}
//
// Every failure is a coded error from package errors: NOT_FOUND,
// UNAUTHORIZED, NETWORK_ERROR or TIMEOUT for transport problems, and
// PARSE_ERROR for undecodable responses.
package remote
