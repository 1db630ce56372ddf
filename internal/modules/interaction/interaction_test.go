package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiyazawaJernigan(t *testing.T) {
	mj, err := NewMiyazawaJernigan()
	require.NoError(t, err)
	assert.Len(t, mj.ValidSymbols(), 20)

	e, err := mj.Energy('C', 'C')
	require.NoError(t, err)
	assert.InDelta(t, -5.44, e, 1e-12)

	// Symmetric lookups resolve through the upper triangle.
	ab, err := mj.Energy('A', 'P')
	require.NoError(t, err)
	ba, err := mj.Energy('P', 'A')
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
	assert.InDelta(t, -2.03, ab, 1e-12)

	_, err = mj.Energy('A', 'Z')
	require.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestHydrophobicPolar(t *testing.T) {
	hp, err := NewHydrophobicPolar()
	require.NoError(t, err)

	e, err := hp.Energy('L', 'F')
	require.NoError(t, err)
	assert.Equal(t, -1.0, e)

	e, err = hp.Energy('L', 'S')
	require.NoError(t, err)
	assert.Equal(t, 0.0, e)

	e, err = hp.Energy('S', 'K')
	require.NoError(t, err)
	assert.Equal(t, 0.0, e)

	_, err = hp.Energy('L', 'B')
	require.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestNewFactory(t *testing.T) {
	m, err := New("mj")
	require.NoError(t, err)
	assert.Equal(t, "mj", m.Name())

	m, err = New("hp")
	require.NoError(t, err)
	assert.Equal(t, "hp", m.Name())

	_, err = New("go-model")
	require.ErrorIs(t, err, ErrUnknownModel)
}
