package utils

import "testing"

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name     string
		existing Label
		incoming Label
		want     Label
	}{
		{
			name:     "values accumulate with pipe",
			existing: Label{Value: "genre", Source: "recall"},
			incoming: Label{Value: "neighborhood", Source: "recall"},
			want:     Label{Value: "genre|neighborhood", Source: "recall,recall"},
		},
		{
			name:     "empty existing takes incoming",
			existing: Label{},
			incoming: Label{Value: "v", Source: "s"},
			want:     Label{Value: "v", Source: "s"},
		},
		{
			name:     "empty incoming keeps existing",
			existing: Label{Value: "v", Source: "s"},
			incoming: Label{},
			want:     Label{Value: "v", Source: "s"},
		},
		{
			name:     "missing incoming source keeps existing source",
			existing: Label{Value: "a", Source: "s"},
			incoming: Label{Value: "b"},
			want:     Label{Value: "a|b", Source: "s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeLabel(tt.existing, tt.incoming)
			if got != tt.want {
				t.Errorf("MergeLabel() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
