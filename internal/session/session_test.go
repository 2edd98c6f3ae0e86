package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/stack-scanner/internal/codes"
	"github.com/ironsheep/stack-scanner/internal/links"
)

func records(cs ...codes.Code) []links.Record {
	return links.NewRecords(cs)
}

func TestBatch_ZeroValueEmpty(t *testing.T) {
	var b Batch
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.All())
}

func TestBatch_Replace(t *testing.T) {
	var b Batch
	b.Replace(records("AAAAA-0001", "BBBBB-0002"))
	b.Replace(records("CCCCC-0003"))

	assert.Equal(t, []codes.Code{"CCCCC-0003"}, b.Codes())
}

func TestBatch_ReplaceDropsDuplicatesKeepsOrder(t *testing.T) {
	var b Batch
	b.Replace(records("ZZZZZ-0001", "AAAAA-0002", "ZZZZZ-0001"))

	assert.Equal(t, []codes.Code{"ZZZZZ-0001", "AAAAA-0002"}, b.Codes())
}

func TestBatch_Merge(t *testing.T) {
	var b Batch
	b.Replace(records("AAAAA-0001"))
	b.Merge(records("BBBBB-0002", "AAAAA-0001"))

	assert.Equal(t, []codes.Code{"AAAAA-0001", "BBBBB-0002"}, b.Codes())
}

func TestBatch_AllReturnsCopy(t *testing.T) {
	var b Batch
	b.Replace(records("AAAAA-0001"))

	got := b.All()
	got[0] = links.Record{Code: "XXXXX-9999"}

	assert.Equal(t, []codes.Code{"AAAAA-0001"}, b.Codes())
}

func TestBatch_Clear(t *testing.T) {
	var b Batch
	b.Replace(records("AAAAA-0001", "BBBBB-0002"))
	b.Clear()

	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.All())
}

func TestSession_DoAndAccessors(t *testing.T) {
	s := New()
	require.NotEmpty(t, s.ID)
	assert.Nil(t, s.Preview())

	s.Do(func(st *State) {
		st.Batch.Replace(records("AAAAA-0001"))
		st.Preview = &Preview{Filename: "stack.jpg", Width: 300, Height: 200}
	})

	assert.Equal(t, 1, s.Len())
	assert.Len(t, s.Records(), 1)

	p := s.Preview()
	require.NotNil(t, p)
	assert.Equal(t, "stack.jpg", p.Filename)

	// The returned preview is a copy.
	p.Filename = "changed"
	assert.Equal(t, "stack.jpg", s.Preview().Filename)
}

func TestSession_DoSerializes(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Do(func(st *State) {
				st.Batch.Merge([]links.Record{{Code: codes.Code(string(rune('A'+i%26)) + "AAAA-0000")}})
			})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 26, s.Len())
}

func TestStore_CreateGetDelete(t *testing.T) {
	st := NewStore()
	s := st.Create()

	got, err := st.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	st.Delete(s.ID)
	_, err = st.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	st := NewStore()
	a, b := st.Create(), st.Create()
	require.NotEqual(t, a.ID, b.ID)

	a.Do(func(s *State) { s.Batch.Replace(records("AAAAA-0001")) })

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 0, b.Len())
}

func TestStore_GetOrCreate(t *testing.T) {
	st := NewStore()

	s, created := st.GetOrCreate("")
	assert.True(t, created)

	again, created := st.GetOrCreate(s.ID)
	assert.False(t, created)
	assert.Same(t, s, again)

	_, created = st.GetOrCreate("unknown-id")
	assert.True(t, created)
	assert.Equal(t, 2, st.Len())
}

func TestStore_Prune(t *testing.T) {
	st := NewStore()
	old := st.Create()
	fresh := st.Create()

	old.mu.Lock()
	old.lastSeen = time.Now().Add(-3 * time.Hour)
	old.mu.Unlock()

	removed := st.Prune(2 * time.Hour)
	assert.Equal(t, 1, removed)

	_, err := st.Get(old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestStore_PruneKeepsSessionsBeingRead(t *testing.T) {
	reads := map[string]func(*Session){
		"records": func(s *Session) { s.Records() },
		"preview": func(s *Session) { s.Preview() },
		"len":     func(s *Session) { s.Len() },
	}

	for name, read := range reads {
		t.Run(name, func(t *testing.T) {
			st := NewStore()
			s := st.Create()

			s.mu.Lock()
			s.lastSeen = time.Now().Add(-3 * time.Hour)
			s.mu.Unlock()

			read(s)

			assert.Equal(t, 0, st.Prune(2*time.Hour))
			_, err := st.Get(s.ID)
			assert.NoError(t, err)
		})
	}
}

func TestStore_PruneSkipsBusySession(t *testing.T) {
	st := NewStore()
	busy := st.Create()

	busy.mu.Lock()
	busy.lastSeen = time.Now().Add(-3 * time.Hour)
	removed := st.Prune(time.Hour)
	busy.mu.Unlock()

	assert.Equal(t, 0, removed)
	assert.Equal(t, 1, st.Len())
}
