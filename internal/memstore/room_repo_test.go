package memstore

import (
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/cwrk-planet/watch-party/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 1, 2, 20, 0, 0, 0, time.UTC)

func TestRandomCode_Format(t *testing.T) {
	re := regexp.MustCompile(`^[0-9A-Z]{5}$`)
	for range 200 {
		assert.Regexp(t, re, RandomCode())
	}
}

func TestCreate_RetriesOnCollision(t *testing.T) {
	seq := []string{"AAAAA", "AAAAA", "AAAAA", "BBBBB"}
	i := 0
	repo := NewRoomRepository(func() string {
		c := seq[i]
		i++
		return c
	})

	first, err := repo.Create("bob", now)
	require.NoError(t, err)
	second, err := repo.Create("alice", now)
	require.NoError(t, err)

	assert.Equal(t, "AAAAA", first.Code)
	assert.Equal(t, "BBBBB", second.Code)
	assert.Equal(t, 4, i, "generator called until a free code appeared")
	assert.Equal(t, 2, repo.Len())
}

func TestCreate_CodeSpaceExhausted(t *testing.T) {
	repo := NewRoomRepository(func() string { return "AAAAA" })
	_, err := repo.Create("bob", now)
	require.NoError(t, err)

	_, err = repo.Create("alice", now)
	assert.ErrorIs(t, err, domain.ErrCodeSpaceExhausted)
	assert.Equal(t, 1, repo.Len())
}

func TestCreate_ConcurrentCodesUnique(t *testing.T) {
	// маленький алфавит, чтобы коллизии реально случались
	var mu sync.Mutex
	n := 0
	repo := NewRoomRepository(func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("R%04d", n%300)
	})

	const workers = 16
	const perWorker = 15
	codes := make(chan string, workers*perWorker)
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				room, err := repo.Create(fmt.Sprintf("user-%d", w), now)
				if err != nil {
					t.Errorf("create: %v", err)
					return
				}
				codes <- room.Code
			}
		}()
	}
	wg.Wait()
	close(codes)

	seen := make(map[string]struct{})
	for c := range codes {
		_, dup := seen[c]
		require.False(t, dup, "duplicate code %s", c)
		seen[c] = struct{}{}
	}
	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, workers*perWorker, repo.Len())
}

func TestGetAndRemoveIf(t *testing.T) {
	repo := NewRoomRepository(nil)
	room, err := repo.Create("bob", now)
	require.NoError(t, err)

	got, err := repo.Get(room.Code)
	require.NoError(t, err)
	assert.Same(t, room, got)

	assert.False(t, repo.RemoveIf(room.Code, func(*domain.Room) bool { return false }))
	assert.Equal(t, 1, repo.Len())

	var seen *domain.Room
	assert.True(t, repo.RemoveIf(room.Code, func(r *domain.Room) bool { seen = r; return true }))
	assert.Same(t, room, seen)
	_, err = repo.Get(room.Code)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	// неизвестный код: предикат не вызывается
	assert.False(t, repo.RemoveIf(room.Code, func(*domain.Room) bool {
		t.Fatal("predicate called for missing room")
		return true
	}))
	assert.Zero(t, repo.Len())
}

func TestListActive_OnlyConfiguredSorted(t *testing.T) {
	codes := []string{"CCCCC", "AAAAA", "BBBBB"}
	i := 0
	repo := NewRoomRepository(func() string { c := codes[i]; i++; return c })

	c, _ := repo.Create("carol", now)
	a, _ := repo.Create("alice", now)
	_, _ = repo.Create("bob", now)

	c.SetDetails("c.mp4", "C", now)
	a.SetDetails("a.mp4", "A", now)

	assert.Equal(t, []domain.RoomSummary{
		{Code: "AAAAA", DisplayName: "alice's room", MediaTitle: "A"},
		{Code: "CCCCC", DisplayName: "carol's room", MediaTitle: "C"},
	}, repo.ListActive())
}

func TestListActive_Empty(t *testing.T) {
	repo := NewRoomRepository(nil)
	got := repo.ListActive()
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
