package sat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpDIMACSWritesHeaderAndClauses(t *testing.T) {
	enc := newTestEncoder()
	a := enc.freshVar()
	b := enc.freshVar()
	enc.addClause(a, -b)
	enc.addClause(b)

	var buf strings.Builder
	require.NoError(t, enc.DumpDIMACS(&buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "p cnf 2 2", lines[0])
	assert.Equal(t, "1 -2 0", lines[1])
	assert.Equal(t, "2 0", lines[2])
}
