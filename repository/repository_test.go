package repository

import (
	"context"
	"testing"

	"github.com/arolang/aro/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entity(id, status string) value.Value {
	fields := map[string]value.Value{"status": value.String(status)}
	if id != "" {
		fields["id"] = value.String(id)
	}
	return value.FromEntity(value.Entity{Fields: fields})
}

func TestStoreGeneratesIDWhenAbsent(t *testing.T) {
	s := New()
	ctx := context.Background()
	result, err := s.Store(ctx, "orders-repository", "", entity("", "draft"))
	require.NoError(t, err)
	assert.False(t, result.IsUpdate)
	assert.NotEmpty(t, result.EntityID)

	got, ok, err := s.FindByID(ctx, "orders-repository", "", result.EntityID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, result.EntityID, got.Entity.ID())
}

func TestStoreOverwritesExistingID(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.Store(ctx, "orders-repository", "", entity("o-1", "draft"))
	require.NoError(t, err)

	result, err := s.Store(ctx, "orders-repository", "", entity("o-1", "placed"))
	require.NoError(t, err)
	assert.True(t, result.IsUpdate)
	require.NotNil(t, result.Old)
	assert.Equal(t, "draft", result.Old.Entity.Fields["status"].Str)
}

func TestRetrieveWithFilter(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, _ = s.Store(ctx, "orders-repository", "", entity("o-1", "draft"))
	_, _ = s.Store(ctx, "orders-repository", "", entity("o-2", "placed"))

	got, err := s.Retrieve(ctx, "orders-repository", "", "status", value.String("placed"), true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "o-2", got[0].Entity.ID())
}

func TestActivityScopeIsolation(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, _ = s.Store(ctx, "orders-repository", "User API", entity("o-1", "draft"))

	got, err := s.Retrieve(ctx, "orders-repository", "Order API", "", value.Null, false)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDeleteReturnsRemoved(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, _ = s.Store(ctx, "orders-repository", "", entity("o-1", "draft"))

	removed, err := s.Delete(ctx, "orders-repository", "", "", value.Null, false)
	require.NoError(t, err)
	require.Len(t, removed, 1)

	exists, err := s.Exists(ctx, "orders-repository", "", "o-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestExportRekeysToFrameworkScope(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, _ = s.Store(ctx, "orders-repository", "User API", entity("o-1", "draft"))

	require.NoError(t, s.Export(ctx, "orders-repository", "User API", "all-orders"))

	got, ok, err := s.FindByID(ctx, "all-orders", "", "o-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "draft", got.Entity.Fields["status"].Str)
}

func TestIsRepositoryName(t *testing.T) {
	s := New()
	assert.True(t, s.IsRepositoryName("orders-repository"))
	assert.False(t, s.IsRepositoryName("orders"))
}

func TestStoreDoesNotAliasCallerValue(t *testing.T) {
	s := New()
	ctx := context.Background()
	e := entity("o-1", "draft")
	_, err := s.Store(ctx, "orders-repository", "", e)
	require.NoError(t, err)

	e.Entity.Fields["status"] = value.String("mutated")

	got, _, err := s.FindByID(ctx, "orders-repository", "", "o-1")
	require.NoError(t, err)
	assert.Equal(t, "draft", got.Entity.Fields["status"].Str)
}
