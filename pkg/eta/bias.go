package eta

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownBias = errors.New("unknown bias")

// Bias selects how an estimate range collapses to a point. Values are
// ordered from the most pessimistic to the most optimistic.
type Bias int

const (
	WorstCase Bias = iota + 1
	Pessimist
	None
	Optimist
	BestCase
)

var biasNames = map[Bias]string{
	WorstCase: "worst-case",
	Pessimist: "pessimist",
	None:      "none",
	Optimist:  "optimist",
	BestCase:  "best-case",
}

// ParseBias accepts both dashed and underscored spellings.
func ParseBias(s string) (Bias, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for b, n := range biasNames {
		if n == name {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w %q (expected worst-case, pessimist, none, optimist or best-case)", ErrUnknownBias, s)
}

// Worse returns the next more pessimistic bias.
func (b Bias) Worse() Bias {
	if b <= WorstCase {
		return WorstCase
	}
	return b - 1
}

// Weight is the share given to the optimistic estimate.
func (b Bias) Weight() float64 {
	switch b {
	case WorstCase:
		return 0
	case Pessimist:
		return 1.0 / 3
	case Optimist:
		return 2.0 / 3
	case BestCase:
		return 1
	default:
		return 0.5
	}
}

func (b Bias) String() string {
	if n, ok := biasNames[b]; ok {
		return n
	}
	return fmt.Sprintf("Bias(%d)", int(b))
}

// MarshalText lets a Bias appear in YAML and JSON by name.
func (b Bias) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Bias) UnmarshalText(text []byte) error {
	v, err := ParseBias(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}
