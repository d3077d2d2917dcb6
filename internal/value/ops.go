package value

import (
	"luax/internal/errors"
)

// numeric widens a Bool/Int/Float value to an (isFloat, int64, float64)
// triple, the same widening every arithmetic and comparison operator applies
// before combining operands (spec §4.1: "Bool widens to Int before
// participating in arithmetic").
func numeric(v Value) (isFloat bool, i int64, f float64, ok bool) {
	switch v.Kind {
	case Bool:
		if v.b {
			return false, 1, 0, true
		}
		return false, 0, 0, true
	case Int:
		return false, v.i, 0, true
	case Float:
		return true, 0, v.f, true
	default:
		return false, 0, 0, false
	}
}

func asFloat(isFloat bool, i int64, f float64) float64 {
	if isFloat {
		return f
	}
	return float64(i)
}

func binArith(op string, a, b Value, onInt func(x, y int64) (int64, error), onFloat func(x, y float64) float64) (Value, error) {
	af, ai, afv, aok := numeric(a)
	bf, bi, bfv, bok := numeric(b)
	if !aok || !bok {
		return Value{}, errors.Newf(errors.TypeError, "%s: incompatible operand kinds %s and %s", op, a.Kind, b.Kind)
	}
	if af || bf {
		return NewFloat(onFloat(asFloat(af, ai, afv), asFloat(bf, bi, bfv))), nil
	}
	r, err := onInt(ai, bi)
	if err != nil {
		return Value{}, err
	}
	return NewInt(r), nil
}

func Add(a, b Value) (Value, error) {
	return binArith("ADD", a, b,
		func(x, y int64) (int64, error) { return x + y, nil },
		func(x, y float64) float64 { return x + y })
}

func Sub(a, b Value) (Value, error) {
	return binArith("SUB", a, b,
		func(x, y int64) (int64, error) { return x - y, nil },
		func(x, y float64) float64 { return x - y })
}

func Mul(a, b Value) (Value, error) {
	return binArith("MUL", a, b,
		func(x, y int64) (int64, error) { return x * y, nil },
		func(x, y float64) float64 { return x * y })
}

func Div(a, b Value) (Value, error) {
	return binArith("DIV", a, b,
		func(x, y int64) (int64, error) {
			if y == 0 {
				return 0, errors.Newf(errors.DomainError, "integer division by zero")
			}
			return x / y, nil
		},
		func(x, y float64) float64 { return x / y })
}

func intOnly(op string, a, b Value, fn func(x, y int64) (int64, error)) (Value, error) {
	_, ai, _, aok := numeric(a)
	_, bi, _, bok := numeric(b)
	if !aok || !bok || a.Kind == Float || b.Kind == Float {
		return Value{}, errors.Newf(errors.TypeError, "%s: requires Int operands, got %s and %s", op, a.Kind, b.Kind)
	}
	r, err := fn(ai, bi)
	if err != nil {
		return Value{}, err
	}
	return NewInt(r), nil
}

func Mod(a, b Value) (Value, error) {
	return intOnly("MOD", a, b, func(x, y int64) (int64, error) {
		if y == 0 {
			return 0, errors.Newf(errors.DomainError, "integer modulo by zero")
		}
		return x % y, nil
	})
}

func Shl(a, b Value) (Value, error) {
	return intOnly("SHL", a, b, func(x, y int64) (int64, error) { return x << uint(y), nil })
}

func Shr(a, b Value) (Value, error) {
	return intOnly("SHR", a, b, func(x, y int64) (int64, error) { return x >> uint(y), nil })
}

func Band(a, b Value) (Value, error) {
	return intOnly("AND", a, b, func(x, y int64) (int64, error) { return x & y, nil })
}

func Bor(a, b Value) (Value, error) {
	return intOnly("OR", a, b, func(x, y int64) (int64, error) { return x | y, nil })
}

func Bxor(a, b Value) (Value, error) {
	return intOnly("XOR", a, b, func(x, y int64) (int64, error) { return x ^ y, nil })
}

func Land(a, b Value) (Value, error) {
	ab, aok := ToBool(a)
	bb, bok := ToBool(b)
	if !aok || !bok {
		return Value{}, errors.Newf(errors.TypeError, "AND: operand not coercible to Bool")
	}
	return NewBool(ab && bb), nil
}

func Lor(a, b Value) (Value, error) {
	ab, aok := ToBool(a)
	bb, bok := ToBool(b)
	if !aok || !bok {
		return Value{}, errors.Newf(errors.TypeError, "OR: operand not coercible to Bool")
	}
	return NewBool(ab || bb), nil
}

func Lnot(a Value) (Value, error) {
	ab, ok := ToBool(a)
	if !ok {
		return Value{}, errors.Newf(errors.TypeError, "NOT: operand not coercible to Bool")
	}
	return NewBool(!ab), nil
}

func cmp(op string, a, b Value, onInt func(x, y int64) bool, onFloat func(x, y float64) bool) (Value, error) {
	if a.Kind == Null && b.Kind == Null {
		switch op {
		case "EQ":
			return NewBool(true), nil
		case "NE":
			return NewBool(false), nil
		}
	}
	af, ai, afv, aok := numeric(a)
	bf, bi, bfv, bok := numeric(b)
	if !aok || !bok {
		return Value{}, errors.Newf(errors.TypeError, "%s: incompatible operand kinds %s and %s", op, a.Kind, b.Kind)
	}
	if af || bf {
		return NewBool(onFloat(asFloat(af, ai, afv), asFloat(bf, bi, bfv))), nil
	}
	return NewBool(onInt(ai, bi)), nil
}

func Eq(a, b Value) (Value, error) {
	return cmp("EQ", a, b, func(x, y int64) bool { return x == y }, func(x, y float64) bool { return x == y })
}

func Ne(a, b Value) (Value, error) {
	return cmp("NE", a, b, func(x, y int64) bool { return x != y }, func(x, y float64) bool { return x != y })
}

func Lt(a, b Value) (Value, error) {
	return cmp("LT", a, b, func(x, y int64) bool { return x < y }, func(x, y float64) bool { return x < y })
}

func Le(a, b Value) (Value, error) {
	return cmp("LE", a, b, func(x, y int64) bool { return x <= y }, func(x, y float64) bool { return x <= y })
}

func Gt(a, b Value) (Value, error) {
	return cmp("GT", a, b, func(x, y int64) bool { return x > y }, func(x, y float64) bool { return x > y })
}

func Ge(a, b Value) (Value, error) {
	return cmp("GE", a, b, func(x, y int64) bool { return x >= y }, func(x, y float64) bool { return x >= y })
}

func Neg(a Value) (Value, error) {
	switch a.Kind {
	case Int:
		return NewInt(-a.i), nil
	case Float:
		return NewFloat(-a.f), nil
	default:
		return Value{}, errors.Newf(errors.TypeError, "NEGATE: requires Int or Float operand, got %s", a.Kind)
	}
}

func Pos(a Value) (Value, error) {
	switch a.Kind {
	case Int, Float:
		return a, nil
	default:
		return Value{}, errors.Newf(errors.TypeError, "unary +: requires Int or Float operand, got %s", a.Kind)
	}
}

func Bnot(a Value) (Value, error) {
	_, ai, _, ok := numeric(a)
	if !ok || a.Kind == Float {
		return Value{}, errors.Newf(errors.TypeError, "bitwise NOT: requires Int operand, got %s", a.Kind)
	}
	return NewInt(^ai), nil
}
