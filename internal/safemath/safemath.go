package safemath

// Integer covers the built-in integer types the checked operations accept.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Add returns a+b and whether the sum fit without wrapping.
// On overflow the returned value is zero.
func Add[T Integer](a, b T) (T, bool) {
	c := a + b
	if (b > 0 && c < a) || (b < 0 && c > a) {
		return 0, false
	}
	return c, true
}

// Sub returns a-b and whether the difference fit without wrapping.
// On overflow the returned value is zero.
func Sub[T Integer](a, b T) (T, bool) {
	c := a - b
	if (b > 0 && c > a) || (b < 0 && c < a) {
		return 0, false
	}
	return c, true
}

// Mul returns a*b and whether the product fit without wrapping.
// On overflow the returned value is zero.
func Mul[T Integer](a, b T) (T, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if signed[T]() {
		// Factor out -1 before the division check below: the minimum
		// value divided by -1 is the one quotient that faults.
		var negOne T
		negOne--
		if a == negOne {
			r := -b
			if b < 0 && r < 0 {
				return 0, false
			}
			return r, true
		}
		if b == negOne {
			r := -a
			if a < 0 && r < 0 {
				return 0, false
			}
			return r, true
		}
	}
	c := a * b
	if c/a != b {
		return 0, false
	}
	return c, true
}

func signed[T Integer]() bool {
	var z T
	z--
	return z < 0
}
