package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mosaicnetworks/weave/src/common"
	"github.com/mosaicnetworks/weave/src/node"
	"github.com/mosaicnetworks/weave/src/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct{}

func (fakeBackend) Stats() map[string]string {
	return map[string]string{"nodes": "1"}
}

func (fakeBackend) Nodes() []registry.Handle {
	return []registry.Handle{{ID: 1, Addr: "a"}}
}

func (fakeBackend) Node(id uint32) (node.Info, error) {
	if id != 1 {
		return node.Info{}, common.NewNodeErr("Engine", common.NodeNotFound, id)
	}
	return node.Info{
		ID:       1,
		State:    "Running",
		Addr:     "a",
		Children: []uint32{2},
		Edges:    map[uint32]string{2: "b"},
	}, nil
}

func get(t *testing.T, s *Service, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestService(t *testing.T) {
	s := NewService("127.0.0.1:0", fakeBackend{}, common.NewTestEntry(t, common.TestLogLevel))

	rec := get(t, s, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	var stats map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, "1", stats["nodes"])

	rec = get(t, s, "/nodes")
	require.Equal(t, http.StatusOK, rec.Code)
	var handles []registry.Handle
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&handles))
	assert.Equal(t, []registry.Handle{{ID: 1, Addr: "a"}}, handles)

	rec = get(t, s, "/node/1")
	require.Equal(t, http.StatusOK, rec.Code)
	var info node.Info
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Equal(t, map[uint32]string{2: "b"}, info.Edges)
	assert.Equal(t, []uint32{2}, info.Children)

	assert.Equal(t, http.StatusNotFound, get(t, s, "/node/7").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/node/x").Code)

	rec = get(t, s, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}
