package core

import "fmt"

// BuiltinFn is a builtin function.
type BuiltinFn uint8

const (
	BuiltinNone BuiltinFn = iota
	BuiltinAbs
	BuiltinAcos
	BuiltinAll
	BuiltinAny
	BuiltinArrayLength
	BuiltinAsin
	BuiltinAtan
	BuiltinAtan2
	BuiltinCeil
	BuiltinClamp
	BuiltinCos
	BuiltinCountOneBits
	BuiltinCross
	BuiltinDegrees
	BuiltinDistance
	BuiltinDot
	BuiltinExp
	BuiltinExp2
	BuiltinFloor
	BuiltinFma
	BuiltinFract
	BuiltinInverseSqrt
	BuiltinLength
	BuiltinLog
	BuiltinLog2
	BuiltinMax
	BuiltinMin
	BuiltinMix
	BuiltinNormalize
	BuiltinPow
	BuiltinRadians
	BuiltinReverseBits
	BuiltinRound
	BuiltinSaturate
	BuiltinSelect
	BuiltinSign
	BuiltinSin
	BuiltinSmoothstep
	BuiltinSqrt
	BuiltinStep
	BuiltinStorageBarrier
	BuiltinTan
	BuiltinTrunc
	BuiltinWorkgroupBarrier

	builtinCount
)

var builtinNames = [...]string{
	BuiltinNone:             "<none>",
	BuiltinAbs:              "abs",
	BuiltinAcos:             "acos",
	BuiltinAll:              "all",
	BuiltinAny:              "any",
	BuiltinArrayLength:      "arrayLength",
	BuiltinAsin:             "asin",
	BuiltinAtan:             "atan",
	BuiltinAtan2:            "atan2",
	BuiltinCeil:             "ceil",
	BuiltinClamp:            "clamp",
	BuiltinCos:              "cos",
	BuiltinCountOneBits:     "countOneBits",
	BuiltinCross:            "cross",
	BuiltinDegrees:          "degrees",
	BuiltinDistance:         "distance",
	BuiltinDot:              "dot",
	BuiltinExp:              "exp",
	BuiltinExp2:             "exp2",
	BuiltinFloor:            "floor",
	BuiltinFma:              "fma",
	BuiltinFract:            "fract",
	BuiltinInverseSqrt:      "inverseSqrt",
	BuiltinLength:           "length",
	BuiltinLog:              "log",
	BuiltinLog2:             "log2",
	BuiltinMax:              "max",
	BuiltinMin:              "min",
	BuiltinMix:              "mix",
	BuiltinNormalize:        "normalize",
	BuiltinPow:              "pow",
	BuiltinRadians:          "radians",
	BuiltinReverseBits:      "reverseBits",
	BuiltinRound:            "round",
	BuiltinSaturate:         "saturate",
	BuiltinSelect:           "select",
	BuiltinSign:             "sign",
	BuiltinSin:              "sin",
	BuiltinSmoothstep:       "smoothstep",
	BuiltinSqrt:             "sqrt",
	BuiltinStep:             "step",
	BuiltinStorageBarrier:   "storageBarrier",
	BuiltinTan:              "tan",
	BuiltinTrunc:            "trunc",
	BuiltinWorkgroupBarrier: "workgroupBarrier",
}

func (f BuiltinFn) String() string {
	if f < builtinCount {
		return builtinNames[f]
	}

	return fmt.Sprintf("BuiltinFn(%d)", uint8(f))
}

// ParseBuiltinFn looks a builtin up by its WGSL name.
func ParseBuiltinFn(name string) (BuiltinFn, bool) {
	for f := BuiltinAbs; f < builtinCount; f++ {
		if builtinNames[f] == name {
			return f, true
		}
	}

	return BuiltinNone, false
}

// HasSideEffects reports whether calls to f must stay ordered with memory
// accesses.
func (f BuiltinFn) HasSideEffects() bool {
	switch f {
	case BuiltinWorkgroupBarrier, BuiltinStorageBarrier, BuiltinArrayLength:
		return true
	}

	return false
}
