// Package call defines the abstract Call capability shared by every TEE
// client-API variant (Triangle, Optee, Qsee). The fuzz loop, runner and
// mutation engines are written against this interface only; a variant is
// never switched on by identity once constructed.
package call

import "github.com/hexhive/teezz-fuzz/pkg/seedtemplate"

// Kind enumerates the parameter-type mask slot values shared by all three
// TEE variants (spec.md §6.2).
type Kind uint8

const (
	KindNone Kind = iota
	KindValueIn
	KindValueOut
	KindValueInOut
	KindMemrefTempIn
	KindMemrefTempOut
	KindMemrefTempInOut
	KindMemrefPartialIn
	KindMemrefPartialOut
	KindMemrefPartialInOut
	KindMemrefWhole
	KindION
)

// IsMemref reports whether k carries an owned buffer.
func (k Kind) IsMemref() bool {
	switch k {
	case KindMemrefTempIn, KindMemrefTempOut, KindMemrefTempInOut,
		KindMemrefPartialIn, KindMemrefPartialOut, KindMemrefPartialInOut,
		KindMemrefWhole, KindION:
		return true
	}
	return false
}

// IsInput reports whether k's direction includes "in".
func (k Kind) IsInput() bool {
	switch k {
	case KindValueIn, KindValueInOut, KindMemrefTempIn, KindMemrefTempInOut,
		KindMemrefPartialIn, KindMemrefPartialInOut, KindMemrefWhole, KindION:
		return true
	}
	return false
}

// IsOutput reports whether k's direction includes "out".
func (k Kind) IsOutput() bool {
	switch k {
	case KindValueOut, KindValueInOut, KindMemrefTempOut, KindMemrefTempInOut,
		KindMemrefPartialOut, KindMemrefPartialInOut, KindMemrefWhole:
		return true
	}
	return false
}

// Param is the single parameter representation shared by all three
// variants. The mutation and format-recovery engines operate against this
// shape regardless of which concrete Call produced it (spec.md §3 "the
// runner and fuzz loop never branch on variant identity").
type Param struct {
	Kind Kind
	// ValA/ValB hold the two words of a VALUE parameter verbatim.
	ValA, ValB uint64
	// Buf holds the owned buffer of a MEMREF/ION parameter.
	Buf []byte
	// Template describes Buf's recovered byte-level structure, if any.
	Template *seedtemplate.Template
}

// Coverage is the small fixed-shape fingerprint used as a coverage proxy:
// (command id, parameter-type mask, return status, return origin).
type Coverage [4]uint32

// MutateFn mutates a header field's raw byte representation in place and
// returns the possibly-resized replacement.
type MutateFn func(field []byte) []byte

// ValueDependency identifies a byte-range copy from one parameter's output
// bytes to another parameter's input bytes; src/dst Param index into the
// owning Call's Params().
type ValueDependency struct {
	SrcParam, DstParam   int
	SrcOff, DstOff, Size int
}

// Call is the abstract capability every TEE client-API variant satisfies.
type Call interface {
	// Params returns the (up to four) parameters in declaration order.
	Params() []Param
	// SetParams replaces the parameter list (used when resolving value
	// dependencies and when deserializing a response).
	SetParams([]Param)

	IsSuccess() bool
	IsCrash() bool
	Coverage() Coverage

	Serialize() ([]byte, error)
	Deserialize(b []byte) error

	SerializeToPath(dir string) error
	DeserializeRawFromPath(dir string) error

	// Mutate mutates non-parameter header fields in place.
	Mutate(fn MutateFn)

	// Resolve copies Size bytes from this Call's SrcParam[SrcOff:] into
	// dst's DstParam[DstOff:].
	Resolve(dst Call, vd ValueDependency) error

	// Clone returns a deep copy, used when cloning population members for
	// mutation.
	Clone() Call
}

// Variant names the three supported TEE client ABIs.
type Variant string

const (
	VariantTriangle Variant = "triangle"
	VariantOptee    Variant = "optee"
	VariantQsee     Variant = "qsee"
)
