package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/carepath/pkg/document"
	"github.com/matzehuels/carepath/pkg/editor"
	"github.com/matzehuels/carepath/pkg/flow"
	"github.com/matzehuels/carepath/pkg/remote"
)

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

const sampleGraph = `{"nodes":[` +
	`{"id":"s","type":"StartElement","position":{"x":0,"y":0},"size":{"width":40,"height":40}},` +
	`{"id":"a","type":"ActionElement","position":{"x":0,"y":100},"size":{"width":200,"height":100},"label":"Fluids"},` +
	`{"id":"a:total:formal","type":"RecommendationTotalElement","owner":"a","position":{"x":0,"y":80},"size":{"width":40,"height":20}}` +
	`],"links":[]}`

type recordingPublisher struct {
	mu     sync.Mutex
	events []any
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if subject != SubjectGraphSaved {
		return nil
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	srv    *httptest.Server
	repo   *MemoryRepository
	events *recordingPublisher
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{repo: NewMemoryRepository(), events: &recordingPublisher{}}
	n := 0
	opts = append([]Option{
		WithPublisher(f.events),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { n++; return []string{"alg", "g1", "x", "y"}[n-1] }),
	}, opts...)
	f.srv = httptest.NewServer(New(f.repo, opts...).Handler())
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *fixture) create(t *testing.T) {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/algorithms", "", map[string]any{"title": "Sepsis", "author": "Dr. A"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	var out createAlgorithmResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Algorithm.ID != "alg" || out.GraphID != "g1" || !out.Algorithm.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("created = %+v", out)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	if resp := f.do(t, http.MethodGet, "/health", "", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestNotFound(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/algorithms/nope", "/algorithms/graph/nope", "/algorithms/nope/nodes"} {
		if resp := f.do(t, http.MethodGet, path, "", nil); resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestPutGraph(t *testing.T) {
	f := newFixture(t)
	f.create(t)

	resp := f.do(t, http.MethodPut, "/algorithms/graph/g1", "", document.Update{
		ID: "g1", AlgorithmID: "alg", Graph: sampleGraph, Public: true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out putGraphResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || !out.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("response = %+v, %v", out, err)
	}

	ctx := context.Background()
	g, _ := f.repo.Graph(ctx, "g1")
	if g.Graph != sampleGraph || !g.UpdatedAt.Equal(fixedNow) {
		t.Errorf("stored graph = %+v", g)
	}
	a, _ := f.repo.Algorithm(ctx, "alg")
	if !a.Public {
		t.Error("public flag not updated")
	}

	nodes, _ := f.repo.Nodes(ctx, "alg")
	if len(nodes) != 2 || nodes[1].Label != "Fluids" || nodes[1].NodeType != flow.TypeAction {
		t.Errorf("nodes = %+v", nodes)
	}

	if len(f.events.events) != 1 {
		t.Fatalf("events = %d", len(f.events.events))
	}
	if ev := f.events.events[0].(GraphSaved); ev.GraphID != "g1" || ev.Nodes != 2 {
		t.Errorf("event = %+v", ev)
	}
}

func TestPutGraphRejected(t *testing.T) {
	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"bad json", "/algorithms/graph/g1", "{", http.StatusBadRequest},
		{"missing algorithm", "/algorithms/graph/g1", document.Update{ID: "g1"}, http.StatusBadRequest},
		{"corrupt graph", "/algorithms/graph/g1", document.Update{ID: "g1", AlgorithmID: "alg", Graph: `{"nodes":[{"id":"x","type":"Nope"}]}`}, http.StatusBadRequest},
		{"id mismatch", "/algorithms/graph/g1", document.Update{ID: "g2", AlgorithmID: "alg"}, http.StatusBadRequest},
		{"other algorithm", "/algorithms/graph/g1", document.Update{ID: "g1", AlgorithmID: "zzz"}, http.StatusBadRequest},
		{"unknown graph", "/algorithms/graph/g9", document.Update{ID: "g9", AlgorithmID: "alg"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.create(t)
			if resp := f.do(t, http.MethodPut, tt.path, "", tt.body); resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			if len(f.events.events) != 0 {
				t.Error("rejected save published an event")
			}
		})
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodPost, "/algorithms", "", map[string]any{"description": "no title"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Details) != 1 || !strings.HasPrefix(out.Details[0], "title") {
		t.Errorf("details = %v", out.Details)
	}
}

func TestTokenRequiredForWrites(t *testing.T) {
	f := newFixture(t, WithToken("secret"))

	if resp := f.do(t, http.MethodPost, "/algorithms", "", map[string]any{"title": "x"}); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token = %d", resp.StatusCode)
	}
	if resp := f.do(t, http.MethodPost, "/algorithms", "wrong", map[string]any{"title": "x"}); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong token = %d", resp.StatusCode)
	}
	if resp := f.do(t, http.MethodPost, "/algorithms", "secret", map[string]any{"title": "x"}); resp.StatusCode != http.StatusCreated {
		t.Errorf("valid token = %d", resp.StatusCode)
	}
	if resp := f.do(t, http.MethodGet, "/algorithms/alg", "", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("public read = %d", resp.StatusCode)
	}
}

func TestIndexNodesSkipsDerived(t *testing.T) {
	g, err := document.UnmarshalGraph([]byte(sampleGraph))
	if err != nil {
		t.Fatal(err)
	}
	labels := IndexNodes("alg", g)
	if len(labels) != 2 || labels[0].NodeID != "s" || labels[1].NodeID != "a" {
		t.Errorf("labels = %+v", labels)
	}
	if got := IndexNodes("alg", flow.New()); got != nil {
		t.Errorf("empty graph = %+v", got)
	}
}

func TestEditorRoundTrip(t *testing.T) {
	f := newFixture(t, WithToken("secret"))
	f.create(t)

	client, err := remote.New(f.srv.URL, remote.WithToken("secret"), remote.WithHTTPClient(f.srv.Client()))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	s := editor.New(client)
	if err := s.Open(ctx, "g1", editor.OpenOptions{}); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.Elements().Create(flow.TypeStart, flow.Point{X: 10, Y: 10}); err != nil {
		t.Fatal(err)
	}
	at, err := s.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !at.Equal(fixedNow) {
		t.Errorf("updated_at = %v", at)
	}

	reopened := editor.New(client)
	if err := reopened.Open(ctx, "g1", editor.OpenOptions{ReadOnly: true}); err != nil {
		t.Fatal(err)
	}
	if reopened.Graph().NodeCount() != 1 {
		t.Errorf("reopened graph has %d nodes", reopened.Graph().NodeCount())
	}
	if reopened.Header().Title != "Sepsis" {
		t.Errorf("header = %+v", reopened.Header())
	}
}
