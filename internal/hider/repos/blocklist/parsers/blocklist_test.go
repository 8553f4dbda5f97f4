package parsers

import (
	"bufio"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/common/log"
)

func TestParseBlocklist_RoundTrip(t *testing.T) {
	input := "https://example.test/alice\n#comment\n\nbob\nhttps://example.test/bad/extra/path"

	got, err := ParseBlocklist(strings.NewReader(input), "example.test", log.NewNoopLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"alice", "bob"}, got.Identifiers)
	require.Len(t, got.Skipped, 1)
	assert.Equal(t, SkippedLine{Line: 5, Raw: "https://example.test/bad/extra/path"}, got.Skipped[0])
}

func TestParseBlocklist_Shapes(t *testing.T) {
	input := `
# urls
https://www.deviantart.com/CamelCase/
http://deviantart.com/under_score
HTTPS://WWW.DEVIANTART.COM/Dash-Name
   padded   
# rejected
https://www.deviantart.com/alice/gallery
https://evil.example/alice
www.deviantart.com/alice
some.name
path/like
https://www.deviantart.com/bad$chars
`
	got, err := ParseBlocklist(strings.NewReader(input), "deviantart.com", log.NewNoopLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"camelcase", "under_score", "dash-name", "padded"}, got.Identifiers)
	raws := make([]string, 0, len(got.Skipped))
	for _, s := range got.Skipped {
		raws = append(raws, s.Raw)
	}
	assert.Equal(t, []string{
		"https://www.deviantart.com/alice/gallery",
		"https://evil.example/alice",
		"www.deviantart.com/alice",
		"some.name",
		"path/like",
		"https://www.deviantart.com/bad$chars",
	}, raws)
}

func TestParseBlocklist_DeduplicatesAcrossShapes(t *testing.T) {
	input := "Alice\nhttps://example.test/ALICE/\nalice\nbob"
	got, err := ParseBlocklist(strings.NewReader(input), "example.test", log.NewNoopLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, got.Identifiers)
}

func TestParseBlocklist_LineEndingsAndBOM(t *testing.T) {
	input := "\uFEFFalice\r\nbob\rcarol\n\r\ndave"
	got, err := ParseBlocklist(strings.NewReader(input), "example.test", log.NewNoopLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, got.Identifiers)
}

func TestParseBlocklist_EmptyAndCommentsOnly(t *testing.T) {
	got, err := ParseBlocklist(strings.NewReader("\n# only comments\n   # another\n\n"), "example.test", nil)
	require.NoError(t, err)
	assert.Empty(t, got.Identifiers)
	assert.Empty(t, got.Skipped)
}

func TestParseBlocklist_WarnsPerSkippedLine(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	_, err := ParseBlocklist(strings.NewReader("a.b\nok\nc/d\n"), "example.test", log.NewWithCore(core))
	require.NoError(t, err)

	warns := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warns, 2)
	for _, e := range warns {
		assert.Equal(t, "skip_invalid_line", e.Message)
	}
	assert.Equal(t, int64(3), warns[1].ContextMap()["line"])
}

func TestParseBlocklist_OverlongLineIsSkipped(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"past scanner limit", "alice\n" + strings.Repeat("x/", 40000) + "\nbob\n"},
		{"just past line limit", "alice\r\n" + strings.Repeat("y", MaxLineBytes+1) + "\r\nbob"},
		{"at end of input", "alice\nbob\n" + strings.Repeat("z", 3*MaxLineBytes)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			got, err := ParseBlocklist(strings.NewReader(tt.input), "example.test", log.NewWithCore(core))
			require.NoError(t, err)

			assert.Equal(t, []string{"alice", "bob"}, got.Identifiers)
			require.Len(t, got.Skipped, 1)
			assert.True(t, got.Skipped[0].TooLong)
			assert.Empty(t, got.Skipped[0].Raw)
			assert.Equal(t, 1, logs.FilterMessage("skip_invalid_line").FilterField(zap.String("reason", "too_long")).Len())
		})
	}
}

func TestParseBlocklist_LineAtLimitIsClassified(t *testing.T) {
	id := strings.Repeat("a", MaxLineBytes)
	got, err := ParseBlocklist(strings.NewReader("alice\n"+id+"\nbob"), "example.test", log.NewNoopLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", id, "bob"}, got.Identifiers)
	assert.Empty(t, got.Skipped)
}

func TestParseBlocklist_ReaderErrorIsReturned(t *testing.T) {
	_, err := ParseBlocklist(iotest.ErrReader(errors.New("disk gone")), "example.test", log.NewNoopLogger())
	assert.ErrorContains(t, err, "disk gone")
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lf", "a\nb", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"cr", "a\rb", []string{"a", "b"}},
		{"trailing cr", "a\r", []string{"a"}},
		{"blank lines kept", "a\n\nb", []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := bufio.NewScanner(strings.NewReader(tt.in))
			s.Split(splitLines)
			var got []string
			for s.Scan() {
				got = append(got, s.Text())
			}
			require.NoError(t, s.Err())
			assert.Equal(t, tt.want, got)
		})
	}
}
