package audit

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_RecordAndReadBack(t *testing.T) {
	l, err := Open(":memory:")
	require.NoError(t, err)
	defer l.Close()

	assert.NotEmpty(t, l.JobToken())

	require.NoError(t, l.Record(Assignment{Engine: "modA", Seed: 100, Source: SourceConfigured}))
	require.NoError(t, l.Record(Assignment{Engine: "modA", Seed: 42, Source: SourceOverride}))
	require.NoError(t, l.Record(Assignment{
		Engine: "modB.x", Seed: 7, Source: SourceEvent, Run: 1, SubRun: 2, Event: 3,
	}))

	got, err := l.Assignments()
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "modA", got[0].Engine)
	assert.Equal(t, uint32(100), got[0].Seed)
	assert.Equal(t, SourceConfigured, got[0].Source)

	assert.Equal(t, SourceOverride, got[1].Source)

	assert.Equal(t, SourceEvent, got[2].Source)
	assert.Equal(t, uint32(1), got[2].Run)
	assert.Equal(t, uint32(3), got[2].Event)
}

func TestLog_RejectsUnknownSource(t *testing.T) {
	l, err := Open(":memory:")
	require.NoError(t, err)
	defer l.Close()

	err = l.Record(Assignment{Engine: "m", Seed: 1, Source: "guesswork"})
	assert.Error(t, err)
}

func TestLog_OnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.Record(Assignment{Engine: "m", Seed: 1, Source: SourceConfigured}))
	token := l.JobToken()
	require.NoError(t, l.Close())

	// A second job appends under a fresh token.
	l2, err := Open(path)
	require.NoError(t, err)
	defer l2.Close()
	assert.NotEqual(t, token, l2.JobToken())

	got, err := l2.Assignments()
	require.NoError(t, err)
	assert.Empty(t, got, "a new job sees only its own rows")
}
