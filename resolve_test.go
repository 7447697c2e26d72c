package pikpak

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEntry is one remote entry served by fakeDrive.
type fakeEntry struct {
	id   string
	name string
	kind Kind
}

// fakeDrive serves the listing and folder-creation endpoints from an
// in-memory parent→children map, counting calls.
type fakeDrive struct {
	t *testing.T

	children map[string][]fakeEntry // parent id -> entries, "" is root

	listCalls   atomic.Int32
	createCalls atomic.Int32
	nextID      atomic.Int32
}

func newFakeDrive(t *testing.T) *fakeDrive {
	t.Helper()

	return &fakeDrive{
		t:        t,
		children: make(map[string][]fakeEntry),
	}
}

func (d *fakeDrive) add(parentID string, e fakeEntry) {
	d.children[parentID] = append(d.children[parentID], e)
}

func (d *fakeDrive) encodeFiles(entries []fakeEntry) []map[string]any {
	files := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		files = append(files, map[string]any{
			"id":   e.id,
			"name": e.name,
			"kind": string(e.kind),
		})
	}

	return files
}

func (d *fakeDrive) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/drive/v1/files":
			d.listCalls.Add(1)

			parent := r.URL.Query().Get("parent_id")
			resp := map[string]any{
				"files":           d.encodeFiles(d.children[parent]),
				"next_page_token": "",
			}
			_ = json.NewEncoder(w).Encode(resp)

		case r.Method == http.MethodPost && r.URL.Path == "/drive/v1/files":
			d.createCalls.Add(1)

			var req createFolderRequest
			require.NoError(d.t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(d.t, string(KindFolder), req.Kind)

			id := fmt.Sprintf("new-%d", d.nextID.Add(1))
			d.add(req.ParentID, fakeEntry{id: id, name: req.Name, kind: KindFolder})

			resp := map[string]any{
				"file": map[string]any{"id": id, "name": req.Name, "kind": string(KindFolder)},
			}
			_ = json.NewEncoder(w).Encode(resp)

		default:
			d.t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})
}

func newResolverClient(t *testing.T, h http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return newTestClient(t, srv.URL), srv
}

func TestPathToID_ResolvesChain(t *testing.T) {
	drive := newFakeDrive(t)
	drive.add("", fakeEntry{id: "F1", name: "Movies", kind: KindFolder})
	drive.add("F1", fakeEntry{id: "F2", name: "Action", kind: KindFolder})

	client, _ := newResolverClient(t, drive.handler())

	chain, err := client.PathToID(context.Background(), "/Movies/Action", false)
	require.NoError(t, err)

	assert.Equal(t, []PathEntry{
		{ID: "F1", Name: "Movies", Kind: KindFolder},
		{ID: "F2", Name: "Action", Kind: KindFolder},
	}, chain)
}

func TestPathToID_MissingNoCreate(t *testing.T) {
	drive := newFakeDrive(t)

	client, _ := newResolverClient(t, drive.handler())

	chain, err := client.PathToID(context.Background(), "/NoSuch", false)
	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestPathToID_PartialChain(t *testing.T) {
	drive := newFakeDrive(t)
	drive.add("", fakeEntry{id: "F1", name: "Movies", kind: KindFolder})

	client, _ := newResolverClient(t, drive.handler())

	chain, err := client.PathToID(context.Background(), "/Movies/NoSuch/Deeper", false)
	require.NoError(t, err)

	// Callers detect partial resolution by comparing lengths.
	require.Len(t, chain, 1)
	assert.Equal(t, "F1", chain[0].ID)
}

func TestPathToID_FilesDoNotMatchSegments(t *testing.T) {
	drive := newFakeDrive(t)
	drive.add("", fakeEntry{id: "X1", name: "Movies", kind: KindFile})

	client, _ := newResolverClient(t, drive.handler())

	chain, err := client.PathToID(context.Background(), "/Movies", false)
	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestPathToID_WarmCacheIssuesNoListings(t *testing.T) {
	drive := newFakeDrive(t)
	drive.add("", fakeEntry{id: "F1", name: "Movies", kind: KindFolder})
	drive.add("F1", fakeEntry{id: "F2", name: "Action", kind: KindFolder})

	client, _ := newResolverClient(t, drive.handler())

	first, err := client.PathToID(context.Background(), "/Movies/Action", false)
	require.NoError(t, err)

	cold := drive.listCalls.Load()

	second, err := client.PathToID(context.Background(), "/Movies/Action", false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, cold, drive.listCalls.Load(), "warm resolution must issue zero listing calls")
}

func TestPathToID_SiblingsCachedDuringScan(t *testing.T) {
	drive := newFakeDrive(t)
	drive.add("", fakeEntry{id: "F1", name: "Movies", kind: KindFolder})
	drive.add("F1", fakeEntry{id: "F2", name: "Action", kind: KindFolder})
	drive.add("F1", fakeEntry{id: "F3", name: "Comedy", kind: KindFolder})

	client, _ := newResolverClient(t, drive.handler())

	_, err := client.PathToID(context.Background(), "/Movies/Action", false)
	require.NoError(t, err)

	cold := drive.listCalls.Load()

	// Comedy was listed while scanning for Action, so this is a full cache hit.
	chain, err := client.PathToID(context.Background(), "/Movies/Comedy", false)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, "F3", chain[1].ID)
	assert.Equal(t, cold, drive.listCalls.Load())
}

func TestPathToID_CreatesExactlyOneFolder(t *testing.T) {
	drive := newFakeDrive(t)
	drive.add("", fakeEntry{id: "F1", name: "Movies", kind: KindFolder})

	client, _ := newResolverClient(t, drive.handler())

	chain, err := client.PathToID(context.Background(), "/Movies/Fresh", true)
	require.NoError(t, err)

	require.Len(t, chain, 2)
	assert.Equal(t, "F1", chain[0].ID)
	assert.Equal(t, "Fresh", chain[1].Name)
	assert.Equal(t, KindFolder, chain[1].Kind)
	assert.Equal(t, int32(1), drive.createCalls.Load())

	// The created folder is cached: resolving again lists nothing new.
	cold := drive.listCalls.Load()

	again, err := client.PathToID(context.Background(), "/Movies/Fresh", true)
	require.NoError(t, err)
	assert.Equal(t, chain, again)
	assert.Equal(t, cold, drive.listCalls.Load())
	assert.Equal(t, int32(1), drive.createCalls.Load())
}

func TestPathToID_EmptyPath(t *testing.T) {
	client := newTestClient(t, "http://unreachable.invalid")

	for _, path := range []string{"", "/", "///", "  /  "} {
		chain, err := client.PathToID(context.Background(), path, false)
		require.NoError(t, err, path)
		assert.Empty(t, chain, path)
	}
}

func TestPathToID_PaginationAdvances(t *testing.T) {
	var listCalls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/drive/v1/files", r.URL.Path)
		listCalls.Add(1)

		parent := r.URL.Query().Get("parent_id")
		token := r.URL.Query().Get("next_page_token")

		var resp map[string]any

		switch {
		case parent == "" && token == "":
			resp = map[string]any{
				"files":           []map[string]any{{"id": "D1", "name": "Documents", "kind": "drive#folder"}},
				"next_page_token": "page-2",
			}
		case parent == "" && token == "page-2":
			resp = map[string]any{
				"files":           []map[string]any{{"id": "F1", "name": "Movies", "kind": "drive#folder"}},
				"next_page_token": "",
			}
		case parent == "F1":
			resp = map[string]any{
				"files":           []map[string]any{{"id": "F2", "name": "Action", "kind": "drive#folder"}},
				"next_page_token": "",
			}
		default:
			t.Errorf("unexpected listing: parent=%q token=%q", parent, token)
		}

		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	chain, err := client.PathToID(context.Background(), "/Movies/Action", false)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, "F2", chain[1].ID)
	assert.Equal(t, int32(3), listCalls.Load())
}

func TestPathToID_RepeatedTokenTerminates(t *testing.T) {
	var listCalls atomic.Int32

	// A misbehaving server that hands back the same continuation token forever.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		listCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"files":           []map[string]any{{"id": "Z1", "name": "Decoy", "kind": "drive#folder"}},
			"next_page_token": "stuck",
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	chain, err := client.PathToID(context.Background(), "/Target", false)
	require.NoError(t, err)
	assert.Empty(t, chain)

	// First page with no token, second with "stuck", then exhaustion.
	assert.Equal(t, int32(2), listCalls.Load())
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want []string
	}{
		{"empty", "", nil},
		{"slashes only", "///", nil},
		{"simple", "/a/b/c", []string{"a", "b", "c"}},
		{"no leading slash", "a/b", []string{"a", "b"}},
		{"whitespace segments", " a / b ", []string{"a", "b"}},
		{"blank segment dropped", "/a//b", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitPath(tt.path))
		})
	}
}
