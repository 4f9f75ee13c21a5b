package tagplan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mbtagger/internal/logging"
)

// Decision is the outcome of the confirmation gate.
type Decision string

const (
	DecisionProceed Decision = "proceed"
	DecisionAbort   Decision = "abort"
	DecisionDryRun  Decision = "dry-run"
)

// Flags are the command-line switches that drive the gate.
type Flags struct {
	Yes    bool
	DryRun bool
}

// ManualRequest asks a person for the final values of one entry.
type ManualRequest struct {
	Entry      int
	Path       string
	Provenance Provenance
	Current    TagValues
	Suggestion TagValues
	Ordinal    int
	Total      int
}

// ManualResponse carries the person's answer. Non-empty fields of Values
// replace the suggestion; Skip leaves the file untouched.
type ManualResponse struct {
	Values TagValues
	Skip   bool
}

// ConfirmRequest is shown before the final yes/no question.
type ConfirmRequest struct {
	Mode     Mode
	Counts   Counts
	Writable int
}

// Prompter gathers answers from a person.
type Prompter interface {
	Resolve(ctx context.Context, req ManualRequest) (ManualResponse, error)
	Confirm(ctx context.Context, req ConfirmRequest) (bool, error)
}

// Approval lists the entries a writer may touch. Entries is empty unless
// Decision is proceed or dry-run.
type Approval struct {
	Decision Decision
	Entries  []int
	Skipped  []int
	Reason   string
}

// Proceed reports whether the writer may run.
func (a Approval) Proceed() bool {
	return a.Decision == DecisionProceed
}

// ErrNoPrompter is returned when an interactive answer is needed but no
// prompter was configured.
var ErrNoPrompter = errors.New("interactive confirmation requires a prompter")

// Gate turns a plan plus flags into an Approval. Strict makes --yes abort
// instead of skipping unresolved entries.
type Gate struct {
	Prompter Prompter
	Logger   *slog.Logger
	Strict   bool
}

// ResolveManual collects final values for manual entries. With --yes or
// --dry-run the suggestions stand as they are.
func (g *Gate) ResolveManual(ctx context.Context, plan *ChangePlan, flags Flags) error {
	if plan == nil {
		return nil
	}
	indices := entriesWith(plan, ProvenanceManual)
	if len(indices) == 0 {
		return nil
	}
	logger := g.logger(ctx)
	if flags.Yes || flags.DryRun {
		logger.Info("manual entries keep suggested values",
			logging.Args(append(logging.DecisionAttrs("manual_resolution", "suggested", "non-interactive run"),
				logging.Int("entries", len(indices)))...)...)
		return nil
	}
	if g.Prompter == nil {
		return ErrNoPrompter
	}
	for n, idx := range indices {
		if err := g.resolve(ctx, plan, idx, n+1, len(indices)); err != nil {
			return err
		}
	}
	return nil
}

// Decide applies the flags, resolves unresolved entries interactively when
// possible, and asks for the final confirmation.
func (g *Gate) Decide(ctx context.Context, plan *ChangePlan, flags Flags) (Approval, error) {
	if plan == nil {
		return Approval{Decision: DecisionAbort, Reason: "no plan"}, nil
	}
	logger := g.logger(ctx)

	switch {
	case flags.DryRun:
		return g.finish(logger, plan, DecisionDryRun, "dry run requested"), nil
	case flags.Yes:
		if g.Strict && plan.HasUnresolved() {
			return g.finish(logger, plan, DecisionAbort, "unresolved entries require manual resolution"), nil
		}
		for _, idx := range entriesWith(plan, ProvenanceUnresolved) {
			g.skip(logger, plan, idx)
		}
		return g.finish(logger, plan, DecisionProceed, "confirmed by --yes"), nil
	}

	if g.Prompter == nil {
		return Approval{Decision: DecisionAbort, Reason: "no prompter"}, ErrNoPrompter
	}
	unresolved := entriesWith(plan, ProvenanceUnresolved)
	for n, idx := range unresolved {
		if err := g.resolve(ctx, plan, idx, n+1, len(unresolved)); err != nil {
			return Approval{Decision: DecisionAbort, Reason: "resolution failed"}, err
		}
	}

	writable := plan.Writable()
	if len(writable) == 0 {
		return g.finish(logger, plan, DecisionAbort, "nothing to write"), nil
	}
	ok, err := g.Prompter.Confirm(ctx, ConfirmRequest{Mode: plan.Mode, Counts: plan.Counts(), Writable: len(writable)})
	if err != nil {
		return Approval{Decision: DecisionAbort, Reason: "confirmation failed"}, fmt.Errorf("confirm plan: %w", err)
	}
	if !ok {
		return g.finish(logger, plan, DecisionAbort, "declined"), nil
	}
	return g.finish(logger, plan, DecisionProceed, "confirmed interactively"), nil
}

func (g *Gate) resolve(ctx context.Context, plan *ChangePlan, idx, ordinal, total int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entry := &plan.Entries[idx]
	resp, err := g.Prompter.Resolve(ctx, ManualRequest{
		Entry:      idx,
		Path:       entry.Local.Path,
		Provenance: entry.Provenance,
		Current:    entry.Current,
		Suggestion: entry.Proposed,
		Ordinal:    ordinal,
		Total:      total,
	})
	if err != nil {
		return fmt.Errorf("resolve %s: %w", entry.Local.Path, err)
	}
	if resp.Skip {
		g.skip(g.logger(ctx), plan, idx)
		return nil
	}
	entry.Proposed = entry.Proposed.Overlay(resp.Values)
	entry.Provenance = ProvenanceManual
	entry.Skipped = false
	return nil
}

func (g *Gate) skip(logger *slog.Logger, plan *ChangePlan, idx int) {
	entry := &plan.Entries[idx]
	entry.Skipped = true
	logging.WarnWithContext(logger, "file skipped", "entry_skipped",
		logging.Path(entry.Local.Path),
		logging.String("provenance", string(entry.Provenance)),
		logging.String(logging.FieldErrorHint, "rerun interactively to resolve the file by hand"),
		logging.String(logging.FieldImpact, "tags of this file are left untouched"),
	)
}

func (g *Gate) finish(logger *slog.Logger, plan *ChangePlan, decision Decision, reason string) Approval {
	approval := Approval{Decision: decision, Reason: reason}
	for i, e := range plan.Entries {
		if e.Writable() {
			approval.Entries = append(approval.Entries, i)
		} else {
			approval.Skipped = append(approval.Skipped, i)
		}
	}
	if decision == DecisionAbort {
		approval.Entries = nil
	}
	logger.Info("confirmation decided",
		logging.Args(append(logging.DecisionAttrs("confirmation", string(decision), reason),
			logging.Int("writable", len(approval.Entries)),
			logging.Int("skipped", len(approval.Skipped)))...)...)
	return approval
}

func (g *Gate) logger(ctx context.Context) *slog.Logger {
	return logging.WithContext(ctx, logging.NewComponentLogger(g.Logger, "gate"))
}

func entriesWith(plan *ChangePlan, provenance Provenance) []int {
	var out []int
	for i, e := range plan.Entries {
		if e.Provenance == provenance && !e.Skipped {
			out = append(out, i)
		}
	}
	return out
}
