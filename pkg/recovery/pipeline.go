package recovery

import "github.com/hexhive/teezz-fuzz/pkg/seed"

// Options configures a full pipeline run (Run).
type Options struct {
	// Window is Stage 5's sliding-window width W; DefaultWindow if zero.
	Window int
	// ExcludedTypes overrides DefaultExcludedTypes for Stage 5 if non-nil.
	ExcludedTypes map[string]bool
	// StageFourWorkers bounds the Stage 4 worker pool; 1 if zero.
	StageFourWorkers int
	// HighLevelLeaves optionally supplies Stage 2 cross-recording leaves,
	// keyed by interaction ordinal then by request-param index. Response
	// leaves are not modeled here; callers needing Stage 2 on response
	// buffers may call MatchHighLevel directly per buffer.
	HighLevelLeaves map[int]map[int][]Leaf
}

// Run drives interactions through Stages 1-5 in order and returns the
// resulting IoctlCallSequence. Interactions are assumed already compacted
// (gap-free ordinals); callers with Triangle negative-return recordings or
// dual-record callbacks should call RemoveNegativeReturns/
// RearrangeDualRecord first.
func Run(interactions []*Interaction, opts Options) *seed.Sequence {
	Typify(interactions)

	if opts.HighLevelLeaves != nil {
		for _, it := range interactions {
			leavesForOrdinal, ok := opts.HighLevelLeaves[it.Ordinal]
			if !ok {
				continue
			}
			for pi, p := range it.Req {
				if leaves, ok := leavesForOrdinal[pi]; ok {
					MatchHighLevel(p.Data, p.Template, leaves)
				}
			}
		}
	}

	for _, it := range interactions {
		for _, p := range it.Req {
			SizeOffset(p.Data, p.Template)
		}
		for _, p := range it.Resp {
			SizeOffset(p.Data, p.Template)
		}
	}

	workers := opts.StageFourWorkers
	if workers < 1 {
		workers = 1
	}
	RunStage4(interactions, workers)

	return FindValueDeps(interactions, opts.Window, opts.ExcludedTypes)
}
