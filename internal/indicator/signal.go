package indicator

// CrossAbove returns a boolean series that is true on bars where fast
// crosses from at-or-below slow to above slow. The first bar is never true.
func CrossAbove(fast, slow []float64) []bool {
	n := minLen(fast, slow)
	result := make([]bool, n)
	for i := 1; i < n; i++ {
		result[i] = fast[i-1] <= slow[i-1] && fast[i] > slow[i]
	}
	return result
}

// CrossBelow returns a boolean series that is true on bars where fast
// crosses from at-or-above slow to below slow.
func CrossBelow(fast, slow []float64) []bool {
	n := minLen(fast, slow)
	result := make([]bool, n)
	for i := 1; i < n; i++ {
		result[i] = fast[i-1] >= slow[i-1] && fast[i] < slow[i]
	}
	return result
}

// Exrem removes excess signals: once an entry fires, further entries are
// suppressed until an exit fires, and vice versa. An entry and exit on the
// same bar cancel each other. The series must be the same length.
func Exrem(entries, exits []bool) (cleanEntries, cleanExits []bool) {
	n := len(entries)
	if len(exits) < n {
		n = len(exits)
	}

	cleanEntries = make([]bool, n)
	cleanExits = make([]bool, n)

	inPosition := false
	for i := 0; i < n; i++ {
		if entries[i] && exits[i] {
			continue
		}
		if entries[i] && !inPosition {
			cleanEntries[i] = true
			inPosition = true
		}
		if exits[i] && inPosition {
			cleanExits[i] = true
			inPosition = false
		}
	}

	return cleanEntries, cleanExits
}

func minLen(a, b []float64) int {
	if len(a) < len(b) {
		return len(a)
	}
	return len(b)
}
