package hash

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed_Deterministic(t *testing.T) {
	e := New()
	ctx := context.Background()

	first, err := e.Embed(ctx, "loan limits depend on income")
	require.NoError(t, err)
	second, err := e.Embed(ctx, "loan limits depend on income")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEmbed_Shape(t *testing.T) {
	e := New()

	vector, err := e.Embed(context.Background(), "anything")
	require.NoError(t, err)

	require.Len(t, vector, Dimensions)
	for _, v := range vector {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestEmbed_DistinctTexts(t *testing.T) {
	e := New()
	ctx := context.Background()

	a, err := e.Embed(ctx, "alpha")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "beta")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestEmbedBatch(t *testing.T) {
	e := New()
	ctx := context.Background()

	vectors, err := e.EmbedBatch(ctx, []string{"one", "two", "one"})
	require.NoError(t, err)

	require.Len(t, vectors, 3)
	assert.Equal(t, vectors[0], vectors[2])
	assert.NotEqual(t, vectors[0], vectors[1])
}

func TestEmbed_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Embed(ctx, "text")
	assert.Error(t, err)
}

func TestIdentity(t *testing.T) {
	e := New()
	assert.Equal(t, Dimensions, e.Dimensions())
	assert.Equal(t, ModelName, e.ModelName())
	assert.True(t, e.Mock())
}
