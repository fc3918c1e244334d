package recovery

import (
	"github.com/hexhive/teezz-fuzz/pkg/seedtemplate"
	"github.com/hexhive/teezz-fuzz/pkg/wire"
)

// SizeOffset is Stage 3: at every 4-byte-aligned untyped offset, infer
// off_t/size_t fields per the offset and length heuristics in spec.md §4.2.
func SizeOffset(buf []byte, tmpl *seedtemplate.Template) {
	for o := 0; o+4 <= len(buf); o += 4 {
		if _, ok := tmpl.ElementAt(o); ok {
			continue
		}
		v := wire.U32(buf[o : o+4])
		offsetHeuristic(buf, tmpl, o, v)
		lengthHeuristic(buf, tmpl, o, v)
	}
}

func offsetHeuristic(buf []byte, tmpl *seedtemplate.Template, o int, v uint32) {
	if v == 0 || int(v) > len(buf) || v%16 != 0 {
		return
	}
	elem, ok := tmpl.ElementAt(int(v))
	if !ok || elem.Start != int(v) || int(v) <= o {
		return
	}
	_ = tmpl.AddElem(seedtemplate.Element{Start: o, End: o + 4, Type: "off_t"})

	size := elem.Size()
	if o-4 >= 0 {
		if _, taken := tmpl.ElementAt(o - 4); !taken {
			if int(wire.U32(buf[o-4:o])) == size {
				_ = tmpl.AddElem(seedtemplate.Element{Start: o - 4, End: o, Type: "size_t"})
			}
		}
	}
	if o+8 <= len(buf) {
		if _, taken := tmpl.ElementAt(o + 4); !taken {
			if int(wire.U32(buf[o+4:o+8])) == size {
				_ = tmpl.AddElem(seedtemplate.Element{Start: o + 4, End: o + 8, Type: "size_t"})
			}
		}
	}
}

func lengthHeuristic(buf []byte, tmpl *seedtemplate.Template, o int, v uint32) {
	n := int(v)
	if o+4+n <= len(buf) && n >= 3 && wire.IsPrintableASCII(buf[o+4:o+4+n]) {
		_ = tmpl.AddElem(seedtemplate.Element{Start: o, End: o + 4, Type: "size_t"})
		return
	}
	if n == len(buf)-(o+4) {
		_ = tmpl.AddElem(seedtemplate.Element{Start: o, End: o + 4, Type: "size_t"})
		return
	}
	if n == len(buf) {
		_ = tmpl.AddElem(seedtemplate.Element{Start: o, End: o + 4, Type: "size_t"})
		return
	}
	if isLenTypeSequence(tmpl, o+4, n) {
		_ = tmpl.AddElem(seedtemplate.Element{Start: o, End: o + 4, Type: "size_t"})
	}
}

// isLenTypeSequence reports whether, starting at offset start, there is a
// contiguous run of identically-typed elements whose count equals n (the
// Supplemented Features is_len_type_sequence heuristic from the Python
// original's sz_off.py).
func isLenTypeSequence(tmpl *seedtemplate.Template, start, n int) bool {
	if n <= 0 {
		return false
	}
	list := tmpl.Listify()
	idx := -1
	for i, e := range list {
		if e.Start == start {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	typ := list[idx].Type
	cursor := start
	count := 0
	for idx < len(list) && list[idx].Start == cursor && list[idx].Type == typ {
		count++
		cursor = list[idx].End
		idx++
	}
	return count == n
}
