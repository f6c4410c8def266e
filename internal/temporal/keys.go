package temporal

import (
	"math"
	"strconv"
	"time"
)

const (
	cacheNamespace = "Key::"
	latestMarker   = "latest"
)

// keyPrefix is shared by every cached read of name. The name is length
// prefixed so that "a" never matches the reads of "a:b".
func keyPrefix(name string) string {
	return cacheNamespace + strconv.Itoa(len(name)) + ":" + name + ":"
}

// cacheKey encodes (name, asOf-or-latest).
func cacheKey(name string, asOf *int64) string {
	if asOf == nil {
		return keyPrefix(name) + latestMarker
	}
	return keyPrefix(name) + strconv.FormatInt(*asOf, 10)
}

// Whole seconds beyond these bounds lie outside every storable timestamp.
const (
	maxAsOfSeconds = math.MaxInt64 / int64(time.Second)
	minAsOfSeconds = math.MinInt64/int64(time.Second) - 2
)

// asOfInstant converts whole unix seconds into the last instant of that
// second, so an entry written at any point during second t is "at t".
// A nil result means no upper bound.
func asOfInstant(sec int64) *time.Time {
	if sec > maxAsOfSeconds {
		return nil
	}
	if sec < minAsOfSeconds {
		sec = minAsOfSeconds
	}
	t := time.Unix(sec, 0).Add(time.Second - time.Nanosecond)
	return &t
}

// ParseTimestamp parses an as-of query value. An empty string means latest.
func ParseTimestamp(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, ErrInvalidTimestamp
	}
	return &n, nil
}
