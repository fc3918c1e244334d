package recovery

// RemoveNegativeReturns is the Triangle-only pre-pass: interactions whose
// return field is negative never reached the kernel and are dropped before
// ordinal compaction (spec.md §4.2).
func RemoveNegativeReturns(interactions []*Interaction, isNegative func(*Interaction) bool) []*Interaction {
	kept := interactions[:0:0]
	for _, it := range interactions {
		if !isNegative(it) {
			kept = append(kept, it)
		}
	}
	return CompactInteractions(kept)
}

// Callback describes one recorded callback interaction that a dual-record
// platform produced separately from the call that triggered it.
type Callback struct {
	CallerOrdinal int
	Interaction   *Interaction
}

// RearrangeDualRecord merges each callback into its caller: the callback's
// request side becomes the caller's response side, and the callback
// interaction is dropped from the sequence. This is a purely structural
// normalisation that must run before Stage 1 (spec.md §4.2/§9 "Callback
// flattening on recording").
func RearrangeDualRecord(interactions []*Interaction, callbacks []Callback) []*Interaction {
	byOrdinal := make(map[int]*Interaction, len(interactions))
	for _, it := range interactions {
		byOrdinal[it.Ordinal] = it
	}
	drop := make(map[int]bool, len(callbacks))
	for _, cb := range callbacks {
		caller, ok := byOrdinal[cb.CallerOrdinal]
		if !ok {
			continue
		}
		caller.Resp = cb.Interaction.Req
		drop[cb.Interaction.Ordinal] = true
	}

	kept := interactions[:0:0]
	for _, it := range interactions {
		if !drop[it.Ordinal] {
			kept = append(kept, it)
		}
	}
	return CompactInteractions(kept)
}
