package recovery

import (
	"sync"

	"github.com/JekaMas/workerpool"
	"github.com/hexhive/teezz-fuzz/pkg/seedtemplate"
	"github.com/hexhive/teezz-fuzz/pkg/wire"
)

// Block is a matching run of equal bytes at (AStart in a, BStart in b, Size).
type Block struct {
	AStart, BStart, Size int
}

// trimTrailingZeros scans for the first zero byte whose tail is entirely
// zero and returns everything before it (spec.md §4.2 Stage 4).
func trimTrailingZeros(b []byte) []byte {
	for i := 0; i < len(b); i++ {
		if b[i] == 0 && wire.AllZero(b[i:]) {
			return b[:i]
		}
	}
	return b
}

// longestMatch returns the longest common substring of a and b via
// straightforward O(len(a)*len(b)) dynamic programming.
func longestMatch(a, b []byte) (aStart, bStart, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	best, bestA, bestB := 0, 0, 0
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > best {
					best = cur[j]
					bestA = i - best
					bestB = j - best
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return bestA, bestB, best
}

// matchingBlocks computes the matching-block decomposition of a and b,
// recursively splitting around the single longest common substring — the
// same strategy difflib.SequenceMatcher.get_matching_blocks uses.
func matchingBlocks(a, b []byte) []Block {
	var out []Block
	var rec func(a, b []byte, aOff, bOff int)
	rec = func(a, b []byte, aOff, bOff int) {
		if len(a) == 0 || len(b) == 0 {
			return
		}
		ai, bi, size := longestMatch(a, b)
		if size == 0 {
			return
		}
		out = append(out, Block{AStart: aOff + ai, BStart: bOff + bi, Size: size})
		rec(a[:ai], b[:bi], aOff, bOff)
		rec(a[ai+size:], b[bi+size:], aOff+ai+size, bOff+bi+size)
	}
	rec(a, b, 0, 0)
	return out
}

// isJunkBlock applies spec.md §4.2 Stage 4's junk filter: too short, a
// single distinct byte repeated, all zero, or (for lengths other than 4 or
// 8) shorter than 8 bytes.
func isJunkBlock(buf []byte) bool {
	if len(buf) < 4 {
		return true
	}
	allSame := true
	for _, c := range buf[1:] {
		if c != buf[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return true
	}
	if wire.AllZero(buf) {
		return true
	}
	if len(buf) != 4 && len(buf) != 8 && len(buf) < 8 {
		return true
	}
	return false
}

// CommonSequence is Stage 4 for a single (resp, req) parameter-buffer pair:
// every surviving matching block is tagged uint8_t* on both sides.
func CommonSequence(respBuf []byte, respTmpl *seedtemplate.Template, reqBuf []byte, reqTmpl *seedtemplate.Template) {
	trimmed := trimTrailingZeros(respBuf)
	for _, blk := range matchingBlocks(trimmed, reqBuf) {
		chunk := trimmed[blk.AStart : blk.AStart+blk.Size]
		if isJunkBlock(chunk) {
			continue
		}
		_ = respTmpl.AddElem(seedtemplate.Element{Start: blk.AStart, End: blk.AStart + blk.Size, Type: "uint8_t*"})
		_ = reqTmpl.AddElem(seedtemplate.Element{Start: blk.BStart, End: blk.BStart + blk.Size, Type: "uint8_t*"})
	}
}

// pair is one (resp, req) parameter-buffer job for RunStage4.
type pair struct {
	respBuf  []byte
	respTmpl *seedtemplate.Template
	reqBuf   []byte
	reqTmpl  *seedtemplate.Template
}

// RunStage4 mines common subsequences for every (resp, req) pair across
// interactions with resp ordinal < req ordinal, using a bounded worker
// pool — the only in-process parallelism the core allows (spec.md §5).
// Workers compute matching blocks independently; adding the surviving
// blocks to the (already allocated) per-buffer templates is serialised under
// a mutex, since one template is shared by every job pairing its buffer.
func RunStage4(interactions []*Interaction, workers int) {
	if workers < 1 {
		workers = 1
	}
	var jobs []pair
	for i, respIt := range interactions {
		for j, reqIt := range interactions {
			if reqIt.Ordinal <= respIt.Ordinal {
				continue
			}
			_ = i
			_ = j
			for _, rp := range respIt.Resp {
				for _, qp := range reqIt.Req {
					jobs = append(jobs, pair{respBuf: rp.Data, respTmpl: rp.Template, reqBuf: qp.Data, reqTmpl: qp.Template})
				}
			}
		}
	}

	pool := workerpool.New(workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, j := range jobs {
		j := j
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			trimmed := trimTrailingZeros(j.respBuf)
			blocks := matchingBlocks(trimmed, j.reqBuf)
			mu.Lock()
			defer mu.Unlock()
			for _, blk := range blocks {
				if isJunkBlock(trimmed[blk.AStart : blk.AStart+blk.Size]) {
					continue
				}
				_ = j.respTmpl.AddElem(seedtemplate.Element{Start: blk.AStart, End: blk.AStart + blk.Size, Type: "uint8_t*"})
				_ = j.reqTmpl.AddElem(seedtemplate.Element{Start: blk.BStart, End: blk.BStart + blk.Size, Type: "uint8_t*"})
			}
		})
	}
	wg.Wait()
	pool.StopWait()
}
