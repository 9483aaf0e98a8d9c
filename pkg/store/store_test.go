package store_test

import (
	"context"
	"testing"

	"github.com/herohde/arbiter/pkg/protocol"
	"github.com/herohde/arbiter/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionWithID(t *testing.T, dialect protocol.Dialect, specID int) *protocol.EngineSession {
	t.Helper()
	s, err := protocol.NewSession(specID, dialect, protocol.NewFakeProcess(t, func(string) []string { return nil }))
	require.NoError(t, err)
	return s
}

func TestRelease_evictsOldestPastCapacity(t *testing.T) {
	s := store.New(4)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		assert.False(t, s.Release(ctx, sessionWithID(t, protocol.UCI, i)))
	}
	assert.True(t, s.Release(ctx, sessionWithID(t, protocol.UCI, 4)))
}

func TestRelease_capacityZeroAlwaysDestroys(t *testing.T) {
	s := store.New(0)
	ctx := context.Background()

	evicted := s.Release(ctx, sessionWithID(t, protocol.UCI, 0))
	assert.True(t, evicted)
	assert.True(t, s.Empty())
}

func TestGetBy_findsAndRemoves(t *testing.T) {
	s := store.New(4)
	ctx := context.Background()

	s.Release(ctx, sessionWithID(t, protocol.UCI, 1))
	s.Release(ctx, sessionWithID(t, protocol.UCI, 2))

	found, ok := s.GetBy(func(sess *protocol.EngineSession) bool { return sess.SpecID == 1 })
	require.True(t, ok)
	assert.Equal(t, 1, found.SpecID)

	_, ok = s.GetBy(func(sess *protocol.EngineSession) bool { return sess.SpecID == 3 })
	assert.False(t, ok)

	assert.Equal(t, 1, s.Size())
}

func TestGetAny_isLIFO(t *testing.T) {
	s := store.New(4)
	ctx := context.Background()

	s.Release(ctx, sessionWithID(t, protocol.UCI, 1))
	s.Release(ctx, sessionWithID(t, protocol.UCI, 2))

	first, ok := s.GetAny()
	require.True(t, ok)
	assert.Equal(t, 2, first.SpecID)

	second, ok := s.GetAny()
	require.True(t, ok)
	assert.Equal(t, 1, second.SpecID)

	_, ok = s.GetAny()
	assert.False(t, ok)
}

func TestEmpty(t *testing.T) {
	s := store.New(4)
	ctx := context.Background()

	assert.True(t, s.Empty())
	s.Release(ctx, sessionWithID(t, protocol.UCI, 0))
	assert.False(t, s.Empty())
}

func TestSize(t *testing.T) {
	s := store.New(4)
	ctx := context.Background()

	assert.Equal(t, 0, s.Size())
	for i := 0; i < 4; i++ {
		s.Release(ctx, sessionWithID(t, protocol.UCI, i))
		assert.Equal(t, i+1, s.Size())
	}

	s.Release(ctx, sessionWithID(t, protocol.UCI, 4))
	assert.Equal(t, 4, s.Size())
}

func TestCapacity(t *testing.T) {
	s := store.New(4)
	assert.Equal(t, 4, s.Capacity())
}

func TestClear(t *testing.T) {
	s := store.New(4)
	ctx := context.Background()

	s.Release(ctx, sessionWithID(t, protocol.UCI, 0))
	s.Release(ctx, sessionWithID(t, protocol.UCI, 1))
	s.Release(ctx, sessionWithID(t, protocol.UCI, 2))
	require.Equal(t, 3, s.Size())

	s.Clear(ctx)
	assert.Equal(t, 0, s.Size())
	assert.True(t, s.Empty())
}

func TestRemoveOldest(t *testing.T) {
	s := store.New(4)
	ctx := context.Background()

	s.Release(ctx, sessionWithID(t, protocol.UCI, 0))
	s.Release(ctx, sessionWithID(t, protocol.UCI, 1))

	s.RemoveOldest(ctx)
	assert.Equal(t, 1, s.Size())

	found, ok := s.GetAny()
	require.True(t, ok)
	assert.Equal(t, 1, found.SpecID)
}
