package indicator

import "testing"

func TestCrossAbove(t *testing.T) {
	fast := []float64{1, 2, 3, 4, 3}
	slow := []float64{2, 2, 2, 2, 2}

	got := CrossAbove(fast, slow)
	want := []bool{false, false, true, false, false}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CrossAbove[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCrossBelow(t *testing.T) {
	fast := []float64{3, 2, 1, 1, 3}
	slow := []float64{2, 2, 2, 2, 2}

	got := CrossBelow(fast, slow)
	want := []bool{false, false, true, false, false}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CrossBelow[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCross_MismatchedLengths(t *testing.T) {
	fast := []float64{1, 2, 3}
	slow := []float64{2, 2}

	if got := CrossAbove(fast, slow); len(got) != 2 {
		t.Errorf("expected result trimmed to 2, got %d", len(got))
	}
}

func TestExrem(t *testing.T) {
	tests := []struct {
		name        string
		entries     []bool
		exits       []bool
		wantEntries []bool
		wantExits   []bool
	}{
		{
			name:        "duplicate entries suppressed",
			entries:     []bool{true, true, false, false},
			exits:       []bool{false, false, true, false},
			wantEntries: []bool{true, false, false, false},
			wantExits:   []bool{false, false, true, false},
		},
		{
			name:        "exit before entry dropped",
			entries:     []bool{false, true, false},
			exits:       []bool{true, false, true},
			wantEntries: []bool{false, true, false},
			wantExits:   []bool{false, false, true},
		},
		{
			name:        "same bar entry and exit cancel",
			entries:     []bool{true, false},
			exits:       []bool{true, false},
			wantEntries: []bool{false, false},
			wantExits:   []bool{false, false},
		},
		{
			name:        "re-entry after exit allowed",
			entries:     []bool{true, false, true, false},
			exits:       []bool{false, true, false, true},
			wantEntries: []bool{true, false, true, false},
			wantExits:   []bool{false, true, false, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotEntries, gotExits := Exrem(tt.entries, tt.exits)
			for i := range tt.wantEntries {
				if gotEntries[i] != tt.wantEntries[i] {
					t.Errorf("entries[%d] = %v, want %v", i, gotEntries[i], tt.wantEntries[i])
				}
				if gotExits[i] != tt.wantExits[i] {
					t.Errorf("exits[%d] = %v, want %v", i, gotExits[i], tt.wantExits[i])
				}
			}
		})
	}
}
