package spirv

import "fmt"

// GLSLstd450 is an instruction of the GLSL.std.450 extended set.
type GLSLstd450 uint32

const (
	GLSLRoundEven   GLSLstd450 = 2
	GLSLTrunc       GLSLstd450 = 3
	GLSLFAbs        GLSLstd450 = 4
	GLSLSAbs        GLSLstd450 = 5
	GLSLFSign       GLSLstd450 = 6
	GLSLSSign       GLSLstd450 = 7
	GLSLFloor       GLSLstd450 = 8
	GLSLCeil        GLSLstd450 = 9
	GLSLFract       GLSLstd450 = 10
	GLSLRadians     GLSLstd450 = 11
	GLSLDegrees     GLSLstd450 = 12
	GLSLSin         GLSLstd450 = 13
	GLSLCos         GLSLstd450 = 14
	GLSLTan         GLSLstd450 = 15
	GLSLAsin        GLSLstd450 = 16
	GLSLAcos        GLSLstd450 = 17
	GLSLAtan        GLSLstd450 = 18
	GLSLAtan2       GLSLstd450 = 25
	GLSLPow         GLSLstd450 = 26
	GLSLExp         GLSLstd450 = 27
	GLSLLog         GLSLstd450 = 28
	GLSLExp2        GLSLstd450 = 29
	GLSLLog2        GLSLstd450 = 30
	GLSLSqrt        GLSLstd450 = 31
	GLSLInverseSqrt GLSLstd450 = 32
	GLSLFMin        GLSLstd450 = 37
	GLSLUMin        GLSLstd450 = 38
	GLSLSMin        GLSLstd450 = 39
	GLSLFMax        GLSLstd450 = 40
	GLSLUMax        GLSLstd450 = 41
	GLSLSMax        GLSLstd450 = 42
	GLSLFClamp      GLSLstd450 = 43
	GLSLUClamp      GLSLstd450 = 44
	GLSLSClamp      GLSLstd450 = 45
	GLSLFMix        GLSLstd450 = 46
	GLSLStep        GLSLstd450 = 48
	GLSLSmoothStep  GLSLstd450 = 49
	GLSLFma         GLSLstd450 = 50
	GLSLLength      GLSLstd450 = 66
	GLSLDistance    GLSLstd450 = 67
	GLSLCross       GLSLstd450 = 68
	GLSLNormalize   GLSLstd450 = 69
)

var glslNames = map[GLSLstd450]string{
	GLSLRoundEven:   "RoundEven",
	GLSLTrunc:       "Trunc",
	GLSLFAbs:        "FAbs",
	GLSLSAbs:        "SAbs",
	GLSLFSign:       "FSign",
	GLSLSSign:       "SSign",
	GLSLFloor:       "Floor",
	GLSLCeil:        "Ceil",
	GLSLFract:       "Fract",
	GLSLRadians:     "Radians",
	GLSLDegrees:     "Degrees",
	GLSLSin:         "Sin",
	GLSLCos:         "Cos",
	GLSLTan:         "Tan",
	GLSLAsin:        "Asin",
	GLSLAcos:        "Acos",
	GLSLAtan:        "Atan",
	GLSLAtan2:       "Atan2",
	GLSLPow:         "Pow",
	GLSLExp:         "Exp",
	GLSLLog:         "Log",
	GLSLExp2:        "Exp2",
	GLSLLog2:        "Log2",
	GLSLSqrt:        "Sqrt",
	GLSLInverseSqrt: "InverseSqrt",
	GLSLFMin:        "FMin",
	GLSLUMin:        "UMin",
	GLSLSMin:        "SMin",
	GLSLFMax:        "FMax",
	GLSLUMax:        "UMax",
	GLSLSMax:        "SMax",
	GLSLFClamp:      "FClamp",
	GLSLUClamp:      "UClamp",
	GLSLSClamp:      "SClamp",
	GLSLFMix:        "FMix",
	GLSLStep:        "Step",
	GLSLSmoothStep:  "SmoothStep",
	GLSLFma:         "Fma",
	GLSLLength:      "Length",
	GLSLDistance:    "Distance",
	GLSLCross:       "Cross",
	GLSLNormalize:   "Normalize",
}

func (g GLSLstd450) String() string {
	if n, ok := glslNames[g]; ok {
		return n
	}

	return fmt.Sprintf("GLSLstd450(%d)", uint32(g))
}
