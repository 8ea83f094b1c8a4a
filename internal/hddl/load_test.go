package hddl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/htn-sat/planner/internal/htn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const domainYAML = `
sorts:
  loc: [a, b]
predicates: [at]
actions:
  - name: move
    params: [from, to]
    sorts: [loc, loc]
    pre: ["at(from)"]
    eff: ["-at(from)", "at(to)"]
reductions:
  - name: travel
    params: [from, to]
    sorts: [loc, loc]
    task: "go(from,to)"
    subtasks: ["move(from,to)"]
`

const problemYAML = `
init: ["at(a)"]
goal: ["at(b)"]
topTasks: ["go(a,b)"]
`

func writeTmp(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadBuildsProblemAndTopTasks(t *testing.T) {
	in := htn.NewInterner()
	domainPath := writeTmp(t, "domain.yaml", domainYAML)
	problemPath := writeTmp(t, "problem.yaml", problemYAML)

	problem, topTasks, err := Load(in, domainPath, problemPath)
	require.NoError(t, err)

	move, ok := in.Lookup("move")
	require.True(t, ok)
	action, ok := problem.Actions[move]
	require.True(t, ok)
	assert.Len(t, action.Args, 2)
	assert.Len(t, action.Preconditions, 1)
	assert.Len(t, action.Effects, 2)

	travel, ok := in.Lookup("travel")
	require.True(t, ok)
	reduction, ok := problem.Reductions[travel]
	require.True(t, ok)
	assert.Len(t, reduction.Subtasks, 1)

	require.Len(t, topTasks, 1)
	goName, ok := in.Lookup("go")
	require.True(t, ok)
	assert.Equal(t, goName, topTasks[0].Name)
	assert.Len(t, topTasks[0].Args, 2)

	require.Len(t, problem.InitialState, 1)
	require.Len(t, problem.Goals, 1)
}

func TestLoadRejectsMalformedSignature(t *testing.T) {
	in := htn.NewInterner()
	domainPath := writeTmp(t, "domain.yaml", domainYAML)
	problemPath := writeTmp(t, "problem.yaml", "init: [\"at(a\"]\ngoal: []\ntopTasks: []\n")

	_, _, err := Load(in, domainPath, problemPath)
	assert.Error(t, err)
}

func TestLoadMissingDomainFile(t *testing.T) {
	in := htn.NewInterner()
	problemPath := writeTmp(t, "problem.yaml", problemYAML)
	_, _, err := Load(in, filepath.Join(t.TempDir(), "missing.yaml"), problemPath)
	assert.Error(t, err)
}
