package blocklist_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/common/clock"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/common/log"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/repos/blocklist"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/repos/blocklist/bloom"
)

func newTestStore(t *testing.T, logger log.Logger) (*blocklist.Store, *clock.MockClock) {
	t.Helper()
	clk := &clock.MockClock{CurrentTime: time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return blocklist.NewStore(blocklist.StoreOptions{
		Factory:     bloom.NewFactory(),
		FPRate:      0.01,
		ProfileHost: "example.test",
		Clock:       clk,
		Logger:      logger,
	}), clk
}

func TestStore_UnpopulatedContainsNothing(t *testing.T) {
	s, _ := newTestStore(t, nil)

	assert.False(t, s.Populated())
	assert.False(t, s.Contains("alice"))
	assert.Equal(t, uint64(0), s.Version())
	assert.Equal(t, blocklist.StoreStats{}, s.Stats())
	assert.Nil(t, s.Sample(10))
}

func TestStore_LoadAndContains(t *testing.T) {
	s, clk := newTestStore(t, nil)

	rep, err := s.Load("https://example.test/alice\n#comment\n\nbob\nhttps://example.test/bad/extra/path")
	require.NoError(t, err)

	assert.Equal(t, 2, rep.Loaded)
	assert.Len(t, rep.Skipped, 1)
	assert.Equal(t, uint64(1), rep.Version)

	assert.True(t, s.Populated())
	assert.True(t, s.Contains("alice"))
	assert.True(t, s.Contains("ALICE"))
	assert.True(t, s.Contains("  Bob "))
	assert.False(t, s.Contains("carol"))
	assert.False(t, s.Contains(""))

	st := s.Stats()
	assert.True(t, st.Populated)
	assert.Equal(t, 2, st.Count)
	assert.Equal(t, clk.CurrentTime, st.LoadedAt)
}

func TestStore_ReplaceIsWholesale(t *testing.T) {
	s, clk := newTestStore(t, nil)
	_, err := s.Load("alice\nbob")
	require.NoError(t, err)

	clk.Advance(time.Minute)
	v := s.Replace([]string{"Carol", "carol", " "})

	assert.Equal(t, uint64(2), v)
	assert.False(t, s.Contains("alice"))
	assert.False(t, s.Contains("bob"))
	assert.True(t, s.Contains("carol"))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, clk.CurrentTime, s.Stats().LoadedAt)
}

func TestStore_EmptyLoadWarns(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s, _ := newTestStore(t, log.NewWithCore(core))

	rep, err := s.Load("# nothing here\n\n")
	require.NoError(t, err)

	assert.Equal(t, 0, rep.Loaded)
	assert.True(t, s.Populated(), "an empty list is still a completed load")
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).FilterMessage("blocklist_empty").Len())
}

func TestStore_OverlongLineDoesNotLoseList(t *testing.T) {
	s, _ := newTestStore(t, nil)

	rep, err := s.Load("alice\n" + strings.Repeat("x/", 40000) + "\nbob\n")
	require.NoError(t, err)

	assert.Equal(t, 2, rep.Loaded)
	require.Len(t, rep.Skipped, 1)
	assert.True(t, rep.Skipped[0].TooLong)
	assert.True(t, s.Populated())
	assert.True(t, s.Contains("alice"))
	assert.True(t, s.Contains("bob"))
}

func TestStore_WithoutBloom(t *testing.T) {
	s := blocklist.NewStore(blocklist.StoreOptions{ProfileHost: "example.test"})
	s.Replace([]string{"alice"})

	assert.True(t, s.Contains("alice"))
	assert.False(t, s.Contains("bob"))
}

func TestStore_Sample(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ids := make([]string, 0, 15)
	for i := 0; i < 15; i++ {
		ids = append(ids, fmt.Sprintf("user%02d", i))
	}
	s.Replace(ids)

	assert.Equal(t, ids[:10], s.Sample(10))
	assert.Equal(t, ids, s.Sample(100))
	assert.Nil(t, s.Sample(0))
}

func TestStore_ConcurrentReadsDuringReplace(t *testing.T) {
	s, _ := newTestStore(t, nil)
	s.Replace([]string{"stable"})

	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.Replace([]string{"stable", fmt.Sprintf("churn%d", i)})
		}
		close(done)
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					if !s.Contains("stable") {
						t.Errorf("torn read: stable missing")
						return
					}
				}
			}
		}()
	}
	wg.Wait()
}
