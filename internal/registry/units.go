package registry

import (
	"fmt"
	"math/big"
	"strings"
)

// baseUnitDecimals is the number of decimal places in one display unit.
// Base-unit amounts are integers scaled by 10^18.
const baseUnitDecimals = 18

// baseUnitScale is 10^18 as a big.Int.
var baseUnitScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(baseUnitDecimals), nil)

// FormatBaseUnits converts an integer base-unit amount to its decimal
// display representation. The conversion is exact: no floating point is
// involved, and trailing fractional zeros are trimmed.
//
//	FormatBaseUnits(big.NewInt(1500000000000000000)) == "1.5"
func FormatBaseUnits(amount *big.Int) string {
	if amount == nil {
		return "0"
	}

	neg := amount.Sign() < 0
	abs := new(big.Int).Abs(amount)

	whole := new(big.Int)
	frac := new(big.Int)
	whole.QuoRem(abs, baseUnitScale, frac)

	out := whole.String()
	if frac.Sign() != 0 {
		digits := fmt.Sprintf("%0*s", baseUnitDecimals, frac.String())
		digits = strings.TrimRight(digits, "0")
		out += "." + digits
	}
	if neg {
		out = "-" + out
	}
	return out
}

// ParseDecimalUnits converts a decimal display amount back to integer base
// units. The conversion is exact; inputs with more than 18 fractional digits
// are rejected rather than rounded.
func ParseDecimalUnits(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty amount", ErrInvalidParams)
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	wholePart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		wholePart = s[:i]
		fracPart = s[i+1:]
	}
	if wholePart == "" && fracPart == "" {
		return nil, fmt.Errorf("%w: malformed amount %q", ErrInvalidParams, s)
	}
	if len(fracPart) > baseUnitDecimals {
		return nil, fmt.Errorf("%w: more than %d fractional digits in %q",
			ErrInvalidParams, baseUnitDecimals, s)
	}
	if wholePart == "" {
		wholePart = "0"
	}

	whole, ok := new(big.Int).SetString(wholePart, 10)
	if !ok {
		return nil, fmt.Errorf("%w: malformed amount %q", ErrInvalidParams, s)
	}

	// Pad the fraction to 18 digits so it scales exactly.
	frac := big.NewInt(0)
	if fracPart != "" {
		padded := fracPart + strings.Repeat("0", baseUnitDecimals-len(fracPart))
		frac, ok = new(big.Int).SetString(padded, 10)
		if !ok {
			return nil, fmt.Errorf("%w: malformed amount %q", ErrInvalidParams, s)
		}
	}

	result := new(big.Int).Mul(whole, baseUnitScale)
	result.Add(result, frac)
	if neg {
		result.Neg(result)
	}
	return result, nil
}
