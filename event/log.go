package event

// Log is an ordered event sequence. Insertion order is both temporal order
// and replay order.
type Log []Event

func (l *Log) Append(e Event) { *l = append(*l, e) }

// Duration is the timestamp of the last event.
func (l Log) Duration() float64 {
	if len(l) == 0 {
		return 0
	}
	return l[len(l)-1].T
}

// RemoveLast deletes the most recent event matching match and reports
// whether one was found. Earlier matches are left alone.
func (l *Log) RemoveLast(match func(Event) bool) bool {
	s := *l
	for i := len(s) - 1; i >= 0; i-- {
		if match(s[i]) {
			*l = append(s[:i], s[i+1:]...)
			return true
		}
	}
	return false
}

// TrimTrailing drops events from the tail while match holds and returns how
// many were dropped.
func (l *Log) TrimTrailing(match func(Event) bool) int {
	s := *l
	n := len(s)
	for n > 0 && match(s[n-1]) {
		n--
	}
	dropped := len(s) - n
	*l = s[:n]
	return dropped
}

func (l Log) Clone() Log {
	if l == nil {
		return nil
	}
	out := make(Log, len(l))
	copy(out, l)
	return out
}

// Ordered reports whether timestamps never decrease.
func (l Log) Ordered() bool {
	for i := 1; i < len(l); i++ {
		if l[i].T < l[i-1].T {
			return false
		}
	}
	return true
}

// Counts tallies pointer and key events.
func (l Log) Counts() (pointer, keys int) {
	for _, e := range l {
		if e.Kind.IsKey() {
			keys++
		} else {
			pointer++
		}
	}
	return pointer, keys
}
