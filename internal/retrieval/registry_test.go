package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/errors"
)

func TestRegistryNames(t *testing.T) {
	r := NewRegistry(vectorView())
	assert.Equal(t, []string{NameBoolean, NameExtendedBoolean, NameSetBased, NameVectorSpace}, r.Names())
}

func TestRegistryUnknownModel(t *testing.T) {
	_, err := NewRegistry(vectorView()).New("latent-semantic")
	assert.ErrorIs(t, err, apperrors.ErrUnknownModel)
}

func TestRegistryInstancesAreIndependent(t *testing.T) {
	r := NewRegistry(vectorView())
	first, err := r.New(NameVectorSpace)
	require.NoError(t, err)
	second, err := r.New(NameVectorSpace)
	require.NoError(t, err)

	require.NoError(t, first.SetMode("cosine"))
	require.NoError(t, first.SetParameter(ParamPivotB, 0.2))

	assert.Equal(t, second.DefaultMode(), second.Mode())
	assert.Equal(t, 0.75, second.Parameters()[0].Value)
}

func TestRegistryDescribe(t *testing.T) {
	descs := NewRegistry(vectorView()).Describe()
	require.Len(t, descs, 4)

	byName := make(map[string]Description)
	for _, d := range descs {
		byName[d.Name] = d
	}
	assert.Equal(t, ModeOR, byName[NameExtendedBoolean].DefaultMode)
	assert.Equal(t, ModeAND, byName[NameBoolean].DefaultMode)
	assert.Len(t, byName[NameSetBased].Parameters, 5)
	assert.Len(t, byName[NameVectorSpace].Modes, 4)
}
