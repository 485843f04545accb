package topology

import (
	"testing"

	"github.com/mosaicnetworks/weave/src/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, store Store) {
	require.NoError(t, store.Put(NewDeclaration(2, nil)))
	require.NoError(t, store.Put(NewDeclaration(1, []uint32{3, 2})))
	require.NoError(t, store.Put(NewDeclaration(10, []uint32{1})))

	decls, err := store.Declarations()
	require.NoError(t, err)
	assert.Equal(t, []Declaration{
		{ID: 1, Children: []uint32{2, 3}},
		{ID: 2, Children: []uint32{}},
		{ID: 10, Children: []uint32{1}},
	}, decls)

	d, err := store.Get(1)
	require.NoError(t, err)
	require.NoError(t, store.Put(d.WithoutChild(3)))

	d, err = store.Get(1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{2}, d.Children)

	require.NoError(t, store.Delete(2))

	_, err = store.Get(2)
	assert.True(t, common.IsNodeErr(err, common.NodeNotFound), "err: %v", err)

	decls, err = store.Declarations()
	require.NoError(t, err)
	assert.Len(t, decls, 2)
}

func TestInmemStore(t *testing.T) {
	testStore(t, NewInmemStore())
}

func TestBadgerStore(t *testing.T) {
	dir := t.TempDir()

	store, err := NewBadgerStore(dir, common.NewTestEntry(t, common.TestLogLevel))
	require.NoError(t, err)

	testStore(t, store)
	require.NoError(t, store.Close())

	// reopen and check that declarations survived
	store, err = NewBadgerStore(dir, common.NewTestEntry(t, common.TestLogLevel))
	require.NoError(t, err)
	defer store.Close()

	decls, err := store.Declarations()
	require.NoError(t, err)
	assert.Equal(t, []Declaration{
		{ID: 1, Children: []uint32{2}},
		{ID: 10, Children: []uint32{1}},
	}, decls)
}

func TestDeclarationMarshal(t *testing.T) {
	d := NewDeclaration(3, []uint32{1, 2})

	raw, err := d.Marshal()
	require.NoError(t, err)

	var d2 Declaration
	require.NoError(t, d2.Unmarshal(raw))
	assert.Equal(t, d, d2)
}
