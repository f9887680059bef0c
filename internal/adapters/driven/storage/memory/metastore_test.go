package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsearch-cli/internal/core/domain"
)

func TestCreateAndGetDocument(t *testing.T) {
	store := NewMetadataStore()
	ctx := context.Background()

	doc, err := store.CreateDocument(ctx, "a.txt", domain.FormatTXT)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, doc.Status)

	got, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)

	_, err = store.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransitionStatus_EnforcesStateMachine(t *testing.T) {
	store := NewMetadataStore()
	ctx := context.Background()

	doc, err := store.CreateDocument(ctx, "a.txt", domain.FormatTXT)
	require.NoError(t, err)

	err = store.TransitionStatus(ctx, doc.ID, domain.StatusCompleted, 1, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	require.NoError(t, store.TransitionStatus(ctx, doc.ID, domain.StatusProcessing, 0, ""))
	require.NoError(t, store.TransitionStatus(ctx, doc.ID, domain.StatusFailed, 0, "boom"))

	got, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "boom", got.ErrorMessage)
}

func TestSegmentsRoundTrip(t *testing.T) {
	store := NewMetadataStore()
	ctx := context.Background()

	doc, err := store.CreateDocument(ctx, "a.txt", domain.FormatTXT)
	require.NoError(t, err)

	segments := []domain.Segment{
		{ID: "s2", DocumentID: doc.ID, SequenceIndex: 1, VectorSlot: 3},
		{ID: "s1", DocumentID: doc.ID, SequenceIndex: 0, VectorSlot: 2},
	}
	require.NoError(t, store.SaveSegments(ctx, segments))

	got, err := store.GetSegments(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s1", got[0].ID)

	bySlot, err := store.GetSegmentsBySlots(ctx, []int64{3})
	require.NoError(t, err)
	require.Len(t, bySlot, 1)
	assert.Equal(t, "s2", bySlot[3].ID)

	slots, err := store.AllVectorSlots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, slots)
}

func TestDeleteDocument_SecondDeleteNotFound(t *testing.T) {
	store := NewMetadataStore()
	ctx := context.Background()

	doc, err := store.CreateDocument(ctx, "a.txt", domain.FormatTXT)
	require.NoError(t, err)

	require.NoError(t, store.DeleteDocument(ctx, doc.ID))
	assert.ErrorIs(t, store.DeleteDocument(ctx, doc.ID), domain.ErrNotFound)
}
