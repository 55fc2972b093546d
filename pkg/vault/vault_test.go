package vault

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendPreservesOrder(t *testing.T) {
	v := New()
	v.Append(Entry{"[REDACTED_PERSON_1]", "John Doe"})
	v.Append(Entry{"[REDACTED_EMAIL_ADDRESS_1]", "john@example.com"})

	got := v.Get()
	require.Len(t, got, 2)
	assert.Equal(t, Entry{"[REDACTED_PERSON_1]", "John Doe"}, got[0])
	assert.Equal(t, Entry{"[REDACTED_EMAIL_ADDRESS_1]", "john@example.com"}, got[1])
}

func TestNewCopiesSeed(t *testing.T) {
	seed := []Entry{{"[REDACTED_PERSON_1]", "John Doe"}}
	v := New(seed...)

	seed[0] = Entry{"[REDACTED_PERSON_1]", "mutated"}
	assert.Equal(t, "John Doe", v.Get()[0].Original)
}

func TestExtend(t *testing.T) {
	v := New(Entry{"[REDACTED_PERSON_1]", "John Doe"})
	v.Extend([]Entry{
		{"[REDACTED_EMAIL_ADDRESS_1]", "john@example.com"},
		{"[REDACTED_PHONE_NUMBER_1]", "555-0100"},
	})

	got := v.Get()
	require.Len(t, got, 3)
	assert.Equal(t, "[REDACTED_PERSON_1]", got[0].Placeholder)
	assert.Equal(t, "[REDACTED_EMAIL_ADDRESS_1]", got[1].Placeholder)
	assert.Equal(t, "[REDACTED_PHONE_NUMBER_1]", got[2].Placeholder)
}

func TestExtendEmptyIsNoop(t *testing.T) {
	v := New(Entry{"[REDACTED_PERSON_1]", "John Doe"})
	v.Extend(nil)
	v.Extend([]Entry{})
	assert.Equal(t, 1, v.Len())
}

func TestGetReturnsCopy(t *testing.T) {
	v := New()
	v.Append(Entry{"[REDACTED_PERSON_1]", "John Doe"})

	got := v.Get()
	got[0] = Entry{"[REDACTED_PERSON_1]", "tampered"}
	got = append(got, Entry{"[REDACTED_EMAIL_ADDRESS_1]", "john@example.com"})
	_ = got

	fresh := v.Get()
	require.Len(t, fresh, 1)
	assert.Equal(t, "John Doe", fresh[0].Original)
}

func TestGetEmptyIsNonNil(t *testing.T) {
	v := New()
	got := v.Get()
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestClear(t *testing.T) {
	v := New()
	v.Append(Entry{"[REDACTED_PERSON_1]", "John Doe"})
	v.Append(Entry{"[REDACTED_EMAIL_ADDRESS_1]", "john@example.com"})

	v.Clear()
	assert.Empty(t, v.Get())

	// Clearing again must not fail or change anything.
	v.Clear()
	assert.Empty(t, v.Get())
}

func TestClearThenAppend(t *testing.T) {
	v := New()
	v.Append(Entry{"[REDACTED_PERSON_1]", "John Doe"})
	v.Clear()
	v.Append(Entry{"[REDACTED_PERSON_2]", "Jane Doe"})

	got := v.Get()
	require.Len(t, got, 1)
	assert.Equal(t, Entry{"[REDACTED_PERSON_2]", "Jane Doe"}, got[0])
}

func TestGetAndClear(t *testing.T) {
	v := New()
	v.Append(Entry{"[REDACTED_PERSON_1]", "John Doe"})
	v.Append(Entry{"[REDACTED_EMAIL_ADDRESS_1]", "john@example.com"})

	drained := v.GetAndClear()
	require.Len(t, drained, 2)
	assert.Equal(t, Entry{"[REDACTED_PERSON_1]", "John Doe"}, drained[0])
	assert.Equal(t, Entry{"[REDACTED_EMAIL_ADDRESS_1]", "john@example.com"}, drained[1])
	assert.Empty(t, v.Get())
}

func TestGetAndClearEmpty(t *testing.T) {
	v := New()
	drained := v.GetAndClear()
	assert.NotNil(t, drained)
	assert.Empty(t, drained)
	assert.Empty(t, v.Get())
}

func TestDuplicatesRetained(t *testing.T) {
	v := New()
	v.Append(Entry{"[REDACTED_EMAIL_ADDRESS_1]", "same@example.com"})
	v.Append(Entry{"[REDACTED_EMAIL_ADDRESS_2]", "same@example.com"})

	got := v.Get()
	require.Len(t, got, 2)
	assert.NotEqual(t, got[0].Placeholder, got[1].Placeholder)
	assert.Equal(t, got[0].Original, got[1].Original)

	// Fully identical entries are also permitted.
	v.Append(Entry{"[REDACTED_EMAIL_ADDRESS_2]", "same@example.com"})
	assert.Equal(t, 3, v.Len())
}

func TestRemove(t *testing.T) {
	v := New()
	v.Append(Entry{"[REDACTED_PERSON_1]", "John Doe"})
	v.Append(Entry{"[REDACTED_EMAIL_ADDRESS_1]", "john@example.com"})

	err := v.Remove(Entry{"[REDACTED_PERSON_1]", "John Doe"})
	require.NoError(t, err)

	got := v.Get()
	require.Len(t, got, 1)
	assert.Equal(t, "[REDACTED_EMAIL_ADDRESS_1]", got[0].Placeholder)
}

func TestRemoveNotFound(t *testing.T) {
	v := New()
	err := v.Remove(Entry{"[REDACTED_PERSON_9]", "Nobody"})
	assert.ErrorIs(t, err, ErrNotFound)

	v.Append(Entry{"[REDACTED_PERSON_1]", "John Doe"})
	err = v.Remove(Entry{"[REDACTED_PERSON_1]", "someone else"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, v.Len())
}

func TestRemoveFirstOfDuplicates(t *testing.T) {
	dup := Entry{"[REDACTED_EMAIL_ADDRESS_1]", "same@example.com"}
	v := New()
	v.Append(Entry{"[REDACTED_PERSON_1]", "John Doe"})
	v.Append(dup)
	v.Append(Entry{"[REDACTED_PERSON_2]", "Jane Doe"})
	v.Append(dup)

	require.NoError(t, v.Remove(dup))

	got := v.Get()
	require.Len(t, got, 3)
	// The earliest duplicate is gone; the later one survives in place.
	assert.Equal(t, "[REDACTED_PERSON_1]", got[0].Placeholder)
	assert.Equal(t, "[REDACTED_PERSON_2]", got[1].Placeholder)
	assert.Equal(t, dup, got[2])
}

func TestPlaceholderExists(t *testing.T) {
	v := New()
	assert.False(t, v.PlaceholderExists("[REDACTED_PERSON_1]"))

	v.Append(Entry{"[REDACTED_PERSON_1]", "John Doe"})
	assert.True(t, v.PlaceholderExists("[REDACTED_PERSON_1]"))
	assert.False(t, v.PlaceholderExists("[REDACTED_PERSON_2]"))
}

func TestConcurrentAppenders(t *testing.T) {
	const (
		writers          = 2
		entriesPerWriter = 1000
	)

	v := New()
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < entriesPerWriter; i++ {
				v.Append(Entry{"[REDACTED_PERSON_1]", "John Doe"})
			}
		}()
	}
	wg.Wait()

	drained := v.GetAndClear()
	assert.Len(t, drained, writers*entriesPerWriter)
	assert.Empty(t, v.Get())
}

// TestAtomicDrain checks the counting invariant under concurrent appends
// and drains: every appended entry ends up in exactly one GetAndClear
// result or remains in the vault, never duplicated, never lost.
func TestAtomicDrain(t *testing.T) {
	const (
		writers          = 4
		entriesPerWriter = 500
		drainers         = 2
	)

	v := New()
	var wg sync.WaitGroup
	done := make(chan struct{})

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < entriesPerWriter; i++ {
				v.Append(Entry{"[REDACTED_PERSON_1]", "John Doe"})
			}
		}(w)
	}

	var drained atomic.Int64
	var drainWG sync.WaitGroup
	for d := 0; d < drainers; d++ {
		drainWG.Add(1)
		go func() {
			defer drainWG.Done()
			for {
				select {
				case <-done:
					return
				default:
					drained.Add(int64(len(v.GetAndClear())))
				}
			}
		}()
	}

	wg.Wait()
	close(done)
	drainWG.Wait()

	total := drained.Load() + int64(len(v.Get()))
	assert.Equal(t, int64(writers*entriesPerWriter), total)
}
