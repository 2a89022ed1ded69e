package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	vectors   map[string][]float32
	lookupErr error
	storeErr  error
	stored    map[string][]float32
}

func (m *memoryStore) Lookup(_ context.Context, model string, hashes []string) (map[string][]float32, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	found := map[string][]float32{}
	for _, h := range hashes {
		if v, ok := m.vectors[model+"/"+h]; ok {
			found[h] = v
		}
	}
	return found, nil
}

func (m *memoryStore) Store(_ context.Context, model string, vectors map[string][]float32) error {
	if m.storeErr != nil {
		return m.storeErr
	}
	if m.stored == nil {
		m.stored = map[string][]float32{}
	}
	for h, v := range vectors {
		m.stored[model+"/"+h] = v
	}
	return nil
}

func TestBuildIndex(t *testing.T) {
	embedder := newStubEmbedder(2, map[string][]float32{
		"pool": {1, 0},
		"gym":  {0, 1},
		"":     {0, 0},
	})

	index, err := BuildIndex(context.Background(), embedder, []string{"pool", "gym", "pool", ""})
	require.NoError(t, err)

	assert.Equal(t, 4, index.Len())
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}, {1, 0}, {0, 0}}, index.Vectors())
	assert.Equal(t, []string{"pool", "gym", ""}, embedder.embedded, "duplicates are embedded once")
}

func TestBuildIndex_EmptyTable(t *testing.T) {
	embedder := newStubEmbedder(2, nil)

	index, err := BuildIndex(context.Background(), embedder, nil)
	require.NoError(t, err)
	assert.Zero(t, index.Len())
	assert.Zero(t, embedder.calls)
}

func TestBuildIndex_UsesStore(t *testing.T) {
	store := &memoryStore{vectors: map[string][]float32{
		"minilm/" + HashText("pool"): {0.5, 0.5},
	}}
	embedder := newStubEmbedder(2, map[string][]float32{"gym": {0, 1}})

	index, err := BuildIndex(context.Background(), embedder, []string{"pool", "gym"}, WithEmbeddingStore(store, "minilm"))
	require.NoError(t, err)

	assert.Equal(t, [][]float32{{0.5, 0.5}, {0, 1}}, index.Vectors())
	assert.Equal(t, []string{"gym"}, embedder.embedded)
	assert.Equal(t, map[string][]float32{"minilm/" + HashText("gym"): {0, 1}}, store.stored)
}

func TestBuildIndex_AllCachedSkipsEmbedder(t *testing.T) {
	store := &memoryStore{vectors: map[string][]float32{
		"minilm/" + HashText("pool"): {1, 0},
	}}
	embedder := newStubEmbedder(2, nil)

	index, err := BuildIndex(context.Background(), embedder, []string{"pool"}, WithEmbeddingStore(store, "minilm"))
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}}, index.Vectors())
	assert.Zero(t, embedder.calls)
	assert.Nil(t, store.stored)
}

func TestBuildIndex_StoreFailuresAreIgnored(t *testing.T) {
	store := &memoryStore{lookupErr: errors.New("db down"), storeErr: errors.New("db down")}
	embedder := newStubEmbedder(2, map[string][]float32{"pool": {1, 0}})

	index, err := BuildIndex(context.Background(), embedder, []string{"pool"}, WithEmbeddingStore(store, "minilm"))
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}}, index.Vectors())
}

func TestBuildIndex_EmbedderError(t *testing.T) {
	embedder := newStubEmbedder(2, nil)
	embedder.err = errors.New("model unavailable")

	_, err := BuildIndex(context.Background(), embedder, []string{"pool"})
	assert.ErrorContains(t, err, "model unavailable")
}

func TestHashText(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", HashText(""))
	assert.NotEqual(t, HashText("pool"), HashText("Pool"))
}
