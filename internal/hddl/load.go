// Package hddl loads a minimal YAML encoding of an already-lifted HTN
// domain and problem into an htn.Problem. It is not an HDDL/PDDL parser:
// that remains an external collaborator, out of scope here. This package
// only knows how to read the structures the planner itself needs,
// already-lifted.
package hddl

import (
	"fmt"
	"os"
	"strings"

	"github.com/htn-sat/planner/internal/htn"
	"gopkg.in/yaml.v3"
)

// domainFile mirrors domain.yaml's shape.
type domainFile struct {
	Sorts      map[string][]string `yaml:"sorts"`
	Predicates []string            `yaml:"predicates"`
	Actions    []operatorFile      `yaml:"actions"`
	Reductions []reductionFile     `yaml:"reductions"`
}

type operatorFile struct {
	Name   string   `yaml:"name"`
	Params []string `yaml:"params"`
	Sorts  []string `yaml:"sorts"`
	Pre    []string `yaml:"pre"`
	Eff    []string `yaml:"eff"`
}

type reductionFile struct {
	Name     string   `yaml:"name"`
	Params   []string `yaml:"params"`
	Sorts    []string `yaml:"sorts"`
	Task     string   `yaml:"task"`
	Subtasks []string `yaml:"subtasks"`
}

// problemFile mirrors problem.yaml's shape.
type problemFile struct {
	Init     []string `yaml:"init"`
	Goal     []string `yaml:"goal"`
	TopTasks []string `yaml:"topTasks"`
}

// Load parses domainPath and problemPath and builds an htn.Problem, interning
// every name through in.
func Load(in *htn.Interner, domainPath, problemPath string) (htn.Problem, []htn.USignature, error) {
	var df domainFile
	if err := readYAML(domainPath, &df); err != nil {
		return htn.Problem{}, nil, fmt.Errorf("hddl: domain: %w", err)
	}
	var pf problemFile
	if err := readYAML(problemPath, &pf); err != nil {
		return htn.Problem{}, nil, fmt.Errorf("hddl: problem: %w", err)
	}

	b := newBuilder(in)
	for sort, consts := range df.Sorts {
		sortID := b.sortID(sort)
		for _, c := range consts {
			id := in.Intern(c)
			b.problem.ConstantsOfSort[sortID] = append(b.problem.ConstantsOfSort[sortID], id)
		}
	}
	for _, pred := range df.Predicates {
		in.Intern(pred)
	}

	for _, a := range df.Actions {
		action, sorts, err := b.buildAction(a)
		if err != nil {
			return htn.Problem{}, nil, fmt.Errorf("hddl: action %q: %w", a.Name, err)
		}
		b.problem.Actions[action.NameID] = action
		b.problem.Sorts[action.NameID] = sorts
	}
	for _, r := range df.Reductions {
		red, sorts, err := b.buildReduction(r)
		if err != nil {
			return htn.Problem{}, nil, fmt.Errorf("hddl: reduction %q: %w", r.Name, err)
		}
		b.problem.Reductions[red.NameID] = red
		b.problem.Sorts[red.NameID] = sorts
		b.problem.TaskIDToReductionIDs[red.Task.Name] = append(b.problem.TaskIDToReductionIDs[red.Task.Name], red.NameID)
	}

	for _, s := range pf.Init {
		sig, err := b.parseGroundSignature(s)
		if err != nil {
			return htn.Problem{}, nil, fmt.Errorf("hddl: init %q: %w", s, err)
		}
		b.problem.InitialState = append(b.problem.InitialState, sig)
	}
	for _, s := range pf.Goal {
		sig, err := b.parseGroundSignature(s)
		if err != nil {
			return htn.Problem{}, nil, fmt.Errorf("hddl: goal %q: %w", s, err)
		}
		b.problem.Goals = append(b.problem.Goals, sig)
	}

	var topTasks []htn.USignature
	for _, s := range pf.TopTasks {
		sig, err := b.parseGroundUSignature(s)
		if err != nil {
			return htn.Problem{}, nil, fmt.Errorf("hddl: topTasks %q: %w", s, err)
		}
		topTasks = append(topTasks, sig)
	}

	return b.problem, topTasks, nil
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %q: %w", path, err)
	}
	return nil
}

// builder accumulates the Problem while interning names and tracking
// per-template variable scopes, which reset between operator templates
// (each operator's params are a fresh scope).
type builder struct {
	in      *htn.Interner
	problem htn.Problem
	sortIDs map[string]htn.SortID
	nextSrt htn.SortID
}

func newBuilder(in *htn.Interner) *builder {
	return &builder{
		in: in,
		problem: htn.Problem{
			Actions:              make(map[htn.ID]htn.Action),
			Reductions:           make(map[htn.ID]htn.Reduction),
			TaskIDToReductionIDs: make(map[htn.ID][]htn.ID),
			Sorts:                make(map[htn.ID][]htn.SortID),
			ConstantsOfSort:      make(map[htn.SortID][]htn.ID),
		},
		sortIDs: make(map[string]htn.SortID),
	}
}

func (b *builder) sortID(name string) htn.SortID {
	if id, ok := b.sortIDs[name]; ok {
		return id
	}
	id := b.nextSrt
	b.nextSrt++
	b.sortIDs[name] = id
	return id
}

// scope maps a template's declared parameter names to fresh variable ids,
// reset per operator/reduction.
type scope struct {
	vars map[string]htn.ID
	pool *htn.VariablePool
}

func newScope() *scope {
	return &scope{vars: make(map[string]htn.ID), pool: htn.NewVariablePool()}
}

func (s *scope) varFor(name string) htn.ID {
	if id, ok := s.vars[name]; ok {
		return id
	}
	id := s.pool.New()
	s.vars[name] = id
	return id
}

func (b *builder) buildAction(a operatorFile) (htn.Action, []htn.SortID, error) {
	name := b.in.Intern(a.Name)
	sc := newScope()
	args := make([]htn.ID, len(a.Params))
	for i, p := range a.Params {
		args[i] = sc.varFor(p)
	}
	pre, err := b.parseSignatures(a.Pre, sc)
	if err != nil {
		return htn.Action{}, nil, err
	}
	eff, err := b.parseSignatures(a.Eff, sc)
	if err != nil {
		return htn.Action{}, nil, err
	}
	op := htn.HtnOp{NameID: name, Args: args, Preconditions: pre, Effects: eff}
	sorts := make([]htn.SortID, len(a.Sorts))
	for i, s := range a.Sorts {
		sorts[i] = b.sortID(s)
	}
	return htn.Action{HtnOp: op}, sorts, nil
}

func (b *builder) buildReduction(r reductionFile) (htn.Reduction, []htn.SortID, error) {
	name := b.in.Intern(r.Name)
	sc := newScope()
	args := make([]htn.ID, len(r.Params))
	for i, p := range r.Params {
		args[i] = sc.varFor(p)
	}
	task, err := b.parseUSignature(r.Task, sc)
	if err != nil {
		return htn.Reduction{}, nil, fmt.Errorf("task: %w", err)
	}
	subtasks := make([]htn.USignature, len(r.Subtasks))
	for i, st := range r.Subtasks {
		sig, err := b.parseUSignature(st, sc)
		if err != nil {
			return htn.Reduction{}, nil, fmt.Errorf("subtask %d: %w", i, err)
		}
		subtasks[i] = sig
	}
	op := htn.HtnOp{NameID: name, Args: args}
	sorts := make([]htn.SortID, len(r.Sorts))
	for i, s := range r.Sorts {
		sorts[i] = b.sortID(s)
	}
	return htn.Reduction{HtnOp: op, Task: task, Subtasks: subtasks}, sorts, nil
}

// parseSignatures parses a list of "pred(args)" / "-pred(args)" strings
// into Signatures, resolving any argument token that names one of sc's
// declared parameters to its variable and interning every other token as a
// ground constant.
func (b *builder) parseSignatures(strs []string, sc *scope) ([]htn.Signature, error) {
	out := make([]htn.Signature, 0, len(strs))
	for _, s := range strs {
		sig, err := b.parseSignature(s, sc)
		if err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, nil
}

func (b *builder) parseSignature(s string, sc *scope) (htn.Signature, error) {
	negated := false
	if strings.HasPrefix(s, "-") {
		negated = true
		s = s[1:]
	}
	usig, err := b.parseUSignature(s, sc)
	if err != nil {
		return htn.Signature{}, err
	}
	return htn.Signature{Sig: usig, Negated: negated}, nil
}

func (b *builder) parseGroundSignature(s string) (htn.Signature, error) {
	return b.parseSignature(s, nil)
}

func (b *builder) parseGroundUSignature(s string) (htn.USignature, error) {
	return b.parseUSignature(s, nil)
}

// parseUSignature parses "name(a1,a2,...)" or a bare "name" (zero-arity)
// into a USignature. Args are resolved against sc when sc is non-nil and
// the token names one of its declared parameters; otherwise every token is
// interned as a ground constant — sc == nil means "no scope, everything is
// ground", used for problem.yaml's init/goal/topTasks.
func (b *builder) parseUSignature(s string, sc *scope) (htn.USignature, error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return htn.USignature{Name: b.in.Intern(s)}, nil
	}
	if !strings.HasSuffix(s, ")") {
		return htn.USignature{}, fmt.Errorf("malformed signature %q", s)
	}
	name := s[:open]
	argsStr := s[open+1 : len(s)-1]
	var args []htn.ID
	if argsStr != "" {
		for _, tok := range strings.Split(argsStr, ",") {
			tok = strings.TrimSpace(tok)
			args = append(args, b.resolveArg(tok, sc))
		}
	}
	return htn.USignature{Name: b.in.Intern(name), Args: args}, nil
}

// resolveArg resolves tok against the operator/reduction's own declared
// parameters (sc); anything not among them is a ground constant — a
// reduction's subtasks and task signature may only range over its own
// params plus constants, the same restriction original_source's lifted
// operators enforce.
func (b *builder) resolveArg(tok string, sc *scope) htn.ID {
	if sc != nil {
		if id, ok := sc.vars[tok]; ok {
			return id
		}
	}
	return b.in.Intern(tok)
}
