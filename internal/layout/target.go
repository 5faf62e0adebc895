package layout

import "fmt"

// Target describes the ABI target triple and its scalar properties.
type Target struct {
	Triple     string // e.g. "x86_64-linux-gnu"
	PtrSize    int64  // bytes
	PtrAlign   int64  // bytes
	IntSize    int64  // size of int/uint and of the union tag
	MaxAlign   int64
	DataLayout string
}

func X86_64LinuxGNU() Target {
	return Target{
		Triple:     "x86_64-linux-gnu",
		PtrSize:    8,
		PtrAlign:   8,
		IntSize:    8,
		MaxAlign:   16,
		DataLayout: "e-m:e-i64:64-f80:128-n8:16:32:64-S128",
	}
}

func I386LinuxGNU() Target {
	return Target{
		Triple:     "i386-linux-gnu",
		PtrSize:    4,
		PtrAlign:   4,
		IntSize:    4,
		MaxAlign:   8,
		DataLayout: "e-m:e-p:32:32-f64:32:64-f80:32-n8:16:32-S128",
	}
}

func AArch64LinuxGNU() Target {
	return Target{
		Triple:     "aarch64-linux-gnu",
		PtrSize:    8,
		PtrAlign:   8,
		IntSize:    8,
		MaxAlign:   16,
		DataLayout: "e-m:e-i8:8:32-i16:16:32-i64:64-i128:128-n32:64-S128",
	}
}

// Wasm32 has 4-byte pointers and 8-byte ints, so strings use the padded
// three-field shape.
func Wasm32() Target {
	return Target{
		Triple:     "wasm32-unknown-unknown",
		PtrSize:    4,
		PtrAlign:   4,
		IntSize:    8,
		MaxAlign:   8,
		DataLayout: "e-m:e-p:32:32-i64:64-n32:64-S128",
	}
}

// TargetByTriple returns the preset for a triple.
func TargetByTriple(triple string) (Target, error) {
	for _, t := range []Target{X86_64LinuxGNU(), I386LinuxGNU(), AArch64LinuxGNU(), Wasm32()} {
		if t.Triple == triple {
			return t, nil
		}
	}
	return Target{}, fmt.Errorf("unsupported target %q", triple)
}

// PaddedString reports whether strings need a filler between data and len.
func (t Target) PaddedString() bool { return t.PtrSize < t.IntSize }
