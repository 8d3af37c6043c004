package sem

import (
	"strconv"
	"strings"

	"tlog.app/go/errors"

	"github.com/gogpu/shaderir/constant"
	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/types"
)

var scalarNames = map[string]types.Scalar{
	"bool": types.Bool,
	"i32":  types.I32,
	"u32":  types.U32,
	"f32":  types.F32,
	"f16":  types.F16,
}

// ParseType parses a WGSL type spelling: scalars, vecN<T>, matCxR<T>,
// array<T[, N]>, ptr<space, T[, access]> and the names in structs.
// The short vector and matrix aliases (vec3f, mat4x4f) are accepted too.
func ParseType(s string, structs map[string]*types.Struct) (types.Type, error) {
	s = strings.TrimSpace(s)

	if s == "void" {
		return types.Void{}, nil
	}

	if sc, ok := scalarNames[s]; ok {
		return sc, nil
	}

	if st, ok := structs[s]; ok {
		return st, nil
	}

	name, params, generic := splitGeneric(s)
	if !generic {
		name, params = expandAlias(s)
	}

	switch {
	case len(name) == 4 && strings.HasPrefix(name, "vec"):
		n := name[3] - '0'
		if n < 2 || n > 4 || len(params) != 1 {
			return nil, errors.New("bad vector type %q", s)
		}

		el, err := parseScalar(params[0])
		if err != nil {
			return nil, errors.Wrap(err, "type %q", s)
		}

		return types.Vec(n, el), nil

	case len(name) == 6 && strings.HasPrefix(name, "mat") && name[4] == 'x':
		c, r := name[3]-'0', name[5]-'0'
		if c < 2 || c > 4 || r < 2 || r > 4 || len(params) != 1 {
			return nil, errors.New("bad matrix type %q", s)
		}

		el, err := parseScalar(params[0])
		if err != nil {
			return nil, errors.Wrap(err, "type %q", s)
		}

		if el.Kind != types.ScalarFloat {
			return nil, errors.New("matrix of %v", el)
		}

		return types.Matrix{Columns: c, Rows: r, Elem: el}, nil

	case name == "array":
		if len(params) < 1 || len(params) > 2 {
			return nil, errors.New("bad array type %q", s)
		}

		el, err := ParseType(params[0], structs)
		if err != nil {
			return nil, err
		}

		arr := types.Array{Elem: el}

		if len(params) == 2 {
			n, err := strconv.ParseUint(strings.TrimRight(params[1], "u"), 0, 32)
			if err != nil || n == 0 {
				return nil, errors.New("bad array size in %q", s)
			}

			arr.Count = uint32(n)
		}

		return arr, nil

	case name == "ptr":
		if len(params) < 2 || len(params) > 3 {
			return nil, errors.New("bad pointer type %q", s)
		}

		space, ok := core.ParseAddressSpace(params[0])
		if !ok {
			return nil, errors.New("unknown address space %q", params[0])
		}

		el, err := ParseType(params[1], structs)
		if err != nil {
			return nil, err
		}

		p := types.Ptr(space, el)

		if len(params) == 3 {
			if p.Access, ok = core.ParseAccess(params[2]); !ok {
				return nil, errors.New("unknown access mode %q", params[2])
			}
		}

		return p, nil
	}

	return nil, errors.New("unknown type %q", s)
}

func parseScalar(s string) (types.Scalar, error) {
	sc, ok := scalarNames[strings.TrimSpace(s)]
	if !ok {
		return types.Scalar{}, errors.New("not a scalar type: %q", s)
	}

	return sc, nil
}

// splitGeneric splits "name<a, b<c>>" into name and top-level parameters.
func splitGeneric(s string) (string, []string, bool) {
	open := strings.IndexByte(s, '<')
	if open < 0 || !strings.HasSuffix(s, ">") {
		return s, nil, false
	}

	var params []string

	depth, start := 0, open+1
	inner := s[:len(s)-1]

	for i := open + 1; i < len(inner); i++ {
		switch inner[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				params = append(params, strings.TrimSpace(inner[start:i]))
				start = i + 1
			}
		}
	}

	params = append(params, strings.TrimSpace(inner[start:]))

	return strings.TrimSpace(s[:open]), params, true
}

// expandAlias maps vec3f to vec3 with parameter f32, mat4x4h to mat4x4 with
// f16 and so on.
func expandAlias(s string) (string, []string) {
	suffix := map[byte]string{'f': "f32", 'h': "f16", 'i': "i32", 'u': "u32"}

	switch {
	case len(s) == 5 && strings.HasPrefix(s, "vec"):
		if el, ok := suffix[s[4]]; ok {
			return s[:4], []string{el}
		}
	case len(s) == 7 && strings.HasPrefix(s, "mat"):
		if el, ok := suffix[s[6]]; ok {
			return s[:6], []string{el}
		}
	}

	return s, nil
}

// ParseLiteral parses a scalar literal: true, false, 1u, -2i, 3, 1.5, 1.0f,
// 0.5h. Unsuffixed integers are reported as abstract and typed i32, unsuffixed
// floats as f32.
func ParseLiteral(s string) (v constant.Value, abstract bool, ok bool) {
	switch s {
	case "true":
		return constant.Bool(true), false, true
	case "false":
		return constant.Bool(false), false, true
	case "":
		return nil, false, false
	}

	if c := s[0]; c != '-' && c != '+' && c != '.' && (c < '0' || c > '9') {
		return nil, false, false
	}

	hex := strings.HasPrefix(strings.TrimLeft(s, "+-"), "0x")
	last := s[len(s)-1]

	switch {
	case last == 'u':
		n, err := strconv.ParseUint(s[:len(s)-1], 0, 32)
		if err != nil {
			return nil, false, false
		}

		return constant.U32(uint32(n)), false, true

	case last == 'i':
		n, err := strconv.ParseInt(s[:len(s)-1], 0, 32)
		if err != nil {
			return nil, false, false
		}

		return constant.I32(int32(n)), false, true

	case last == 'h' || last == 'f' && !hex:
		f, err := strconv.ParseFloat(s[:len(s)-1], 64)
		if err != nil {
			return nil, false, false
		}

		if last == 'h' {
			return constant.F16(float32(f)), false, true
		}

		return constant.F32(float32(f)), false, true

	case !hex && strings.ContainsAny(s, ".eE"):
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false, false
		}

		return constant.F32(float32(f)), true, true
	}

	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil || n < -1<<31 || n > 1<<32-1 {
		return nil, false, false
	}

	return constant.Int(types.I32, n), true, true
}
