package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
	"github.com/bryanwahyu/docbridge/internal/mocks"
)

const blobURL = "https://sa.blob.core.windows.net/uploads/u/a.pdf"

func TestIndexer_Index(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	emb := mocks.NewMockEmbedder(ctrl)
	store := mocks.NewMockVectorIndex(ctrl)
	ix := &Indexer{Embedder: emb, Store: store, Window: 2}

	gomock.InOrder(
		emb.EXPECT().Embed(gomock.Any(), "un deux").Return([]float32{1}, nil),
		store.EXPECT().Upsert(gomock.Any(), domain.IndexEntry{ID: EntryID(blobURL, 0), SourceURL: blobURL, Text: "un deux", Embedding: []float32{1}}).Return(nil),
		emb.EXPECT().Embed(gomock.Any(), "trois").Return([]float32{2}, nil),
		store.EXPECT().Upsert(gomock.Any(), domain.IndexEntry{ID: EntryID(blobURL, 1), SourceURL: blobURL, Text: "trois", Embedding: []float32{2}}).Return(nil),
	)

	ids, err := ix.Index(context.Background(), blobURL, "un  deux\ntrois")
	req.NoError(err)
	req.Equal([]string{EntryID(blobURL, 0), EntryID(blobURL, 1)}, ids)
}

func TestIndexer_PartialFailure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	emb := mocks.NewMockEmbedder(ctrl)
	store := mocks.NewMockVectorIndex(ctrl)
	ix := &Indexer{Embedder: emb, Store: store, Window: 1}

	emb.EXPECT().Embed(gomock.Any(), "a").Return([]float32{1}, nil)
	store.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil)
	emb.EXPECT().Embed(gomock.Any(), "b").Return(nil, errors.New("429"))

	ids, err := ix.Index(context.Background(), blobURL, "a b c")
	req.ErrorIs(err, domain.ErrIndexingFailed)
	req.Equal([]string{EntryID(blobURL, 0)}, ids)
}

func TestIndexer_EmptyText(t *testing.T) {
	ctrl := gomock.NewController(t)
	ix := &Indexer{Embedder: mocks.NewMockEmbedder(ctrl), Store: mocks.NewMockVectorIndex(ctrl)}
	ids, err := ix.Index(context.Background(), blobURL, "   ")
	require.NoError(t, err)
	require.Empty(t, ids)
}
