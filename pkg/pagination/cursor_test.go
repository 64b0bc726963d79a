package pagination

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCursor_RoundTrip(t *testing.T) {
	id := uuid.New()

	encoded, err := EncodeCursor(2.5, id)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := DecodeCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, 2.5, decoded.Position)
	assert.Equal(t, id, decoded.ID)
}

func TestEncodeCursor_NilID(t *testing.T) {
	_, err := EncodeCursor(1.0, uuid.Nil)
	assert.Error(t, err)
}

func TestDecodeCursor_Empty(t *testing.T) {
	c, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestDecodeCursor_Garbage(t *testing.T) {
	_, err := DecodeCursor("not-base64!!!")
	assert.Error(t, err)
}

func TestNewCursorResult_TrimsAndFlagsMore(t *testing.T) {
	items := []int{1, 2, 3, 4}

	id := uuid.New()
	res, err := NewCursorResult(items, 3, func(i int) (string, error) {
		return EncodeCursor(float64(i), id)
	})
	require.NoError(t, err)

	assert.Len(t, res.Items, 3)
	assert.True(t, res.HasMore)
	require.NotNil(t, res.NextCursor)

	decoded, err := DecodeCursor(*res.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, 3.0, decoded.Position)
}

func TestNewCursorResult_ExactPage(t *testing.T) {
	items := []int{1, 2, 3}

	res, err := NewCursorResult(items, 3, func(i int) (string, error) {
		return "unused", nil
	})
	require.NoError(t, err)

	assert.Len(t, res.Items, 3)
	assert.False(t, res.HasMore)
	assert.Nil(t, res.NextCursor)
}
