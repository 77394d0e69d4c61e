package lookup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticByTag(t *testing.T) {
	s := NewStatic([]Record{
		{ID: "tool-1", Name: "Impact Driver", TagUID: "04a3b2c1"},
	})
	ctx := context.Background()

	// UIDs match regardless of reported case.
	got, err := s.ByTag(ctx, "04A3B2C1")
	require.NoError(t, err)
	assert.Equal(t, "tool-1", got.ID)
	assert.Equal(t, "Impact Driver", got.Name)

	_, err = s.ByTag(ctx, "deadbeef")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStaticUnavailable(t *testing.T) {
	s := NewStatic([]Record{{ID: "tool-1", Name: "Impact Driver", TagUID: "04a3b2c1"}})
	s.SetHealthy(false)

	_, err := s.ByTag(context.Background(), "04a3b2c1")
	assert.ErrorIs(t, err, ErrUnavailable)

	s.SetHealthy(true)
	_, err = s.ByTag(context.Background(), "04a3b2c1")
	assert.NoError(t, err)
}

func TestStaticAdd(t *testing.T) {
	s := NewStatic(nil)
	_, err := s.ByTag(context.Background(), "aa11")
	require.ErrorIs(t, err, ErrNotFound)

	s.Add(Record{ID: "tool-2", Name: "Torque Wrench", TagUID: "AA11"})
	got, err := s.ByTag(context.Background(), "aa11")
	require.NoError(t, err)
	assert.Equal(t, "tool-2", got.ID)
}
