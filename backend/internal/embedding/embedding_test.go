package embedding

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVocabulary(t *testing.T) *Vocabulary {
	t.Helper()
	v, err := NewVocabulary(map[string][]float64{
		"adam":  {1, 0, 2},
		"nowak": {3, 4, 0},
		"jan":   {0, 1, 1},
		"kowal": {2, 2, 2},
		"marie": {-1, 0, 1},
	})
	require.NoError(t, err)
	return v
}

type failingGenerator struct{}

func (failingGenerator) Embed(context.Context, string) ([]float64, error) {
	return nil, errors.New("provider down")
}

func TestMean(t *testing.T) {
	mean, err := Mean([]float64{1, 2}, []float64{3, 6})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, mean)

	_, err = Mean([]float64{1}, []float64{1, 2})
	assert.Error(t, err)

	empty, err := Mean()
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestNameEmbedding_AveragesBothNames(t *testing.T) {
	res, err := NameEmbedding(context.Background(), testVocabulary(t), "Adam", "Nowak")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.True(t, res.FirstNameCorrect)
	assert.True(t, res.LastNameCorrect)
	assert.Equal(t, []float64{2, 2, 1}, res.Embedding)
	assert.Nil(t, res.FieldErrors())
}

func TestNameEmbedding_FlagsUnknownName(t *testing.T) {
	res, err := NameEmbedding(context.Background(), testVocabulary(t), "Zbigniew", "Nowak")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.False(t, res.FirstNameCorrect)
	assert.True(t, res.LastNameCorrect)
	assert.Empty(t, res.Embedding)
	assert.Equal(t, map[string]string{"first_name": "incorrect"}, res.FieldErrors())

	res, err = NameEmbedding(context.Background(), testVocabulary(t), "", "")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"first_name": "incorrect", "last_name": "incorrect"}, res.FieldErrors())
}

func TestNameEmbedding_PropagatesGeneratorError(t *testing.T) {
	_, err := NameEmbedding(context.Background(), failingGenerator{}, "Adam", "Nowak")
	assert.EqualError(t, err, "provider down")
}

func TestEmbedPhrase(t *testing.T) {
	v := testVocabulary(t)
	ctx := context.Background()

	single, err := EmbedPhrase(ctx, v, "  jan ")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 1}, single)

	multi, err := EmbedPhrase(ctx, v, "Jan Kowal")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1.5, 1.5}, multi)

	unknown, err := EmbedPhrase(ctx, v, "Jan Małysz")
	require.NoError(t, err)
	assert.Empty(t, unknown)

	blank, err := EmbedPhrase(ctx, v, "   ")
	require.NoError(t, err)
	assert.Empty(t, blank)
}

func TestVocabulary_EmbedReturnsCopy(t *testing.T) {
	v := testVocabulary(t)
	vec, err := v.Embed(context.Background(), "MARIE")
	require.NoError(t, err)
	vec[0] = 99

	again, _ := v.Embed(context.Background(), "marie")
	assert.Equal(t, -1.0, again[0])
	assert.Equal(t, 3, v.Dimensions())
	assert.Equal(t, 5, v.Len())
}

func TestReadVocabulary(t *testing.T) {
	input := "2 3\nadam 0.1 0.2 0.3\n\nEve -1 0 1e-1\n"
	v, err := ReadVocabulary(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 3, v.Dimensions())
	vec, _ := v.Embed(context.Background(), "eve")
	assert.Equal(t, []float64{-1, 0, 0.1}, vec)
}

func TestReadVocabulary_RejectsRaggedRows(t *testing.T) {
	_, err := ReadVocabulary(strings.NewReader("adam 1 2 3\neve 1 2\n"))
	assert.ErrorContains(t, err, "line 2")

	_, err = ReadVocabulary(strings.NewReader("adam 1 x\n"))
	assert.ErrorContains(t, err, "invalid component")
}
