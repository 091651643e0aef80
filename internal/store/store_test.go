package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateSeedsDefaults(t *testing.T) {
	s := New()

	snap := s.GetOrCreate("r1")
	assert.Equal(t, WelcomeTemplate, snap.Code)
	assert.Equal(t, DefaultLanguage, snap.Language)
	assert.Equal(t, 1, s.Count())
}

func TestGetOrCreateDoesNotResetExistingRoom(t *testing.T) {
	s := New()

	s.ApplyEdit("r1", "x=1", "python")

	// A later join must see the edited document, not the template.
	snap := s.GetOrCreate("r1")
	assert.Equal(t, "x=1", snap.Code)
	assert.Equal(t, "python", snap.Language)
}

func TestApplyEditLastWriterWins(t *testing.T) {
	s := New()

	s.ApplyEdit("r1", "first", "go")
	s.ApplyEdit("r1", "second", "python")

	snap, ok := s.Snapshot("r1")
	require.True(t, ok)
	assert.Equal(t, "second", snap.Code)
	assert.Equal(t, "python", snap.Language)
}

func TestApplyLanguageChangeLeavesCodeUntouched(t *testing.T) {
	s := New()

	s.ApplyEdit("r1", "x=1", "python")
	s.ApplyLanguageChange("r1", "go")

	snap, ok := s.Snapshot("r1")
	require.True(t, ok)
	assert.Equal(t, "x=1", snap.Code)
	assert.Equal(t, "go", snap.Language)
}

func TestSnapshotDoesNotCreate(t *testing.T) {
	s := New()

	_, ok := s.Snapshot("missing")
	assert.False(t, ok)
	assert.Zero(t, s.Count())
}

func TestConcurrentFirstAccessYieldsOneRoom(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap := s.GetOrCreate("r1")
			if snap.Code != WelcomeTemplate {
				t.Errorf("unexpected seed: %q", snap.Code)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, s.Count())
}

func TestConcurrentEditsConverge(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.ApplyEdit("r1", fmt.Sprintf("v%d", i), "go")
		}(i)
	}
	wg.Wait()

	// Whichever write landed last, state is one coherent pair.
	snap, ok := s.Snapshot("r1")
	require.True(t, ok)
	assert.Regexp(t, `^v\d+$`, snap.Code)
	assert.Equal(t, "go", snap.Language)
}

func TestListAndCount(t *testing.T) {
	s := New()

	s.GetOrCreate("r1")
	s.ApplyEdit("r2", "x", "go")

	infos := s.List()
	require.Len(t, infos, 2)
	assert.Equal(t, 2, s.Count())

	byID := make(map[string]RoomInfo)
	for _, info := range infos {
		byID[info.ID] = info
	}
	assert.Equal(t, DefaultLanguage, byID["r1"].Language)
	assert.Equal(t, "go", byID["r2"].Language)
	assert.False(t, byID["r1"].LastActive.IsZero())
}

func TestReapRemovesIdleRoom(t *testing.T) {
	s := New()

	s.GetOrCreate("r1")
	time.Sleep(5 * time.Millisecond)

	require.True(t, s.Reap("r1", time.Now()))
	_, ok := s.Snapshot("r1")
	assert.False(t, ok)
}

func TestReapSparesActiveRoom(t *testing.T) {
	s := New()

	s.GetOrCreate("r1")

	assert.False(t, s.Reap("r1", time.Now().Add(-time.Hour)))
	_, ok := s.Snapshot("r1")
	assert.True(t, ok)
}

func TestReapUnknownRoom(t *testing.T) {
	s := New()
	assert.False(t, s.Reap("missing", time.Now()))
}
