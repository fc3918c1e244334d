package campaign

import "fmt"

// candidateName builds the on-disk name for one persisted candidate
// (spec.md §4.6 step 3): "id:<8d>,time:<8d>[,seq:<6d>,run:<8d>]". seq/run
// are omitted together when the candidate was not produced by mutating an
// existing population member (i.e. it came straight from the seed corpus).
func candidateName(id int, elapsedSec int, seq, run int, mutated bool) string {
	if !mutated {
		return fmt.Sprintf("id:%08d,time:%08d", id, elapsedSec)
	}
	return fmt.Sprintf("id:%08d,time:%08d,seq:%06d,run:%08d", id, elapsedSec, seq, run)
}
