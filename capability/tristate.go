package capability

import (
	"encoding/json"
	"strconv"

	"github.com/teranos/skosprobe/errors"
)

// TriState is a capability fact that may not have been established.
// The zero value is Unknown: a probe that failed is never read as false.
type TriState int8

const (
	Unknown TriState = iota
	False
	True
)

// FromBool converts a definite answer.
func FromBool(b bool) TriState {
	if b {
		return True
	}
	return False
}

// IsTrue reports whether the fact is known to hold.
func (t TriState) IsTrue() bool { return t == True }

// IsFalse reports whether the fact is known not to hold.
func (t TriState) IsFalse() bool { return t == False }

// Known reports whether a probe established the fact either way.
func (t TriState) Known() bool { return t == True || t == False }

func (t TriState) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes Unknown as null.
func (t TriState) MarshalJSON() ([]byte, error) {
	switch t {
	case True:
		return []byte("true"), nil
	case False:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

func (t *TriState) UnmarshalJSON(data []byte) error {
	var b *bool
	if err := json.Unmarshal(data, &b); err != nil {
		return errors.Wrapf(err, "tri-state must be true, false or null, got %s", data)
	}
	if b == nil {
		*t = Unknown
		return nil
	}
	*t = FromBool(*b)
	return nil
}

// MarshalYAML encodes Unknown as null.
func (t TriState) MarshalYAML() (interface{}, error) {
	if !t.Known() {
		return nil, nil
	}
	return t == True, nil
}

// Count is a non-negative quantity that may be unknown.
// An unknown count is distinct from zero.
type Count struct {
	value int
	known bool
}

// KnownCount returns a count established by a probe.
func KnownCount(n int) Count {
	if n < 0 {
		n = 0
	}
	return Count{value: n, known: true}
}

// UnknownCount is the result of a failed count query. Same as the zero value.
func UnknownCount() Count { return Count{} }

// Value returns the count and whether it is known.
func (c Count) Value() (int, bool) { return c.value, c.known }

// Known reports whether the count was established.
func (c Count) Known() bool { return c.known }

func (c Count) String() string {
	if !c.known {
		return "unknown"
	}
	return strconv.Itoa(c.value)
}

// MarshalJSON encodes an unknown count as null.
func (c Count) MarshalJSON() ([]byte, error) {
	if !c.known {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(c.value)), nil
}

func (c *Count) UnmarshalJSON(data []byte) error {
	var n *int
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrapf(err, "count must be an integer or null, got %s", data)
	}
	if n == nil {
		*c = UnknownCount()
		return nil
	}
	if *n < 0 {
		return errors.Newf("count must be non-negative, got %d", *n)
	}
	*c = KnownCount(*n)
	return nil
}

// MarshalYAML encodes an unknown count as null.
func (c Count) MarshalYAML() (interface{}, error) {
	if !c.known {
		return nil, nil
	}
	return c.value, nil
}
