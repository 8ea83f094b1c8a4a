// Package plan renders a found Plan into the HDDL verification-format text
// this tool uses for its output.
package plan

import (
	"fmt"
	"io"
	"strings"

	"github.com/htn-sat/planner/internal/htn"
	"github.com/htn-sat/planner/internal/layer"
)

// SplitActionResolver is the seam a real plan post-processor (re-expanding
// method-splitting compilations back to the original domain's syntax, out
// of scope per §1) would plug into. The default resolver is a pass-through:
// Formatter never performs any rewriting itself.
type SplitActionResolver interface {
	Resolve(item layer.PlanItem) layer.PlanItem
}

type passthroughResolver struct{}

func (passthroughResolver) Resolve(item layer.PlanItem) layer.PlanItem { return item }

// Formatter renders a Plan, naming operators using the Interner that built
// the htn.Instance the plan's signatures reference.
type Formatter struct {
	in       *htn.Interner
	resolver SplitActionResolver
}

// New returns a Formatter. A nil resolver uses the pass-through default.
func New(in *htn.Interner, resolver SplitActionResolver) *Formatter {
	if resolver == nil {
		resolver = passthroughResolver{}
	}
	return &Formatter{in: in, resolver: resolver}
}

// WriteClassical writes the linear "<id> <name>[ args...]" plan lines. Not
// terminated by "root" itself: WritePlan owns the surrounding block markers
// since the root line's subtask ids come from the decomposition view (or,
// for a wholly primitive plan, straight from this view — see WritePlan).
func (f *Formatter) WriteClassical(w io.Writer, items []layer.PlanItem) error {
	for _, raw := range items {
		item := f.resolver.Resolve(raw)
		if _, err := fmt.Fprintf(w, "%d %s\n", item.ID, f.sigString(item.AbstractTask)); err != nil {
			return err
		}
	}
	return nil
}

// WriteDecomposition writes one line per compound plan item: its own task
// and the reduction (method) that decomposed it, followed by its subtasks'
// ids, matching the HDDL verification format's
// "<task> -> <method> <subtask-id> <subtask-id> ..." method lines. The
// synthetic root item (index 0, the top-level task collector) is skipped —
// its subtask ids are what WritePlan's "root" line reports instead, and it
// never names a real task of its own. Primitive leaves are skipped too:
// they are already named by WriteClassical using their own (independent)
// id sequence.
func (f *Formatter) WriteDecomposition(w io.Writer, items []layer.PlanItem) error {
	for i, raw := range items {
		if i == 0 || !raw.HasReduction {
			continue
		}
		item := f.resolver.Resolve(raw)
		ids := make([]string, len(item.SubtaskIDs))
		for i, id := range item.SubtaskIDs {
			ids[i] = fmt.Sprintf("%d", id)
		}
		line := fmt.Sprintf("%d %s -> %s", item.ID, f.sigString(item.AbstractTask), f.sigString(item.Reduction))
		if len(ids) > 0 {
			line += " " + strings.Join(ids, " ")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WritePlan renders the complete HDDL verification-format block (§6):
// "==>", the classical action lines, the "root" line naming the top-level
// subtask ids, the decomposition method lines, and "<==".
func (f *Formatter) WritePlan(w io.Writer, classical, decomposition []layer.PlanItem) error {
	if _, err := fmt.Fprintln(w, "==>"); err != nil {
		return err
	}
	if err := f.WriteClassical(w, classical); err != nil {
		return err
	}

	rootIDs := []string{}
	if len(decomposition) > 0 {
		for _, id := range decomposition[0].SubtaskIDs {
			rootIDs = append(rootIDs, fmt.Sprintf("%d", id))
		}
	} else {
		for _, item := range classical {
			rootIDs = append(rootIDs, fmt.Sprintf("%d", item.ID))
		}
	}
	if _, err := fmt.Fprintf(w, "root %s\n", strings.Join(rootIDs, " ")); err != nil {
		return err
	}

	if err := f.WriteDecomposition(w, decomposition); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "<==")
	return err
}

func (f *Formatter) sigString(sig htn.USignature) string {
	name := f.in.Name(sig.Name)
	if len(sig.Args) == 0 {
		return name
	}
	args := make([]string, len(sig.Args))
	for i, a := range sig.Args {
		args[i] = f.argString(a)
	}
	return name + " " + strings.Join(args, " ")
}

func (f *Formatter) argString(id htn.ID) string {
	if id.IsGround() {
		return f.in.Name(id)
	}
	return fmt.Sprintf("?%d", int32(id))
}
