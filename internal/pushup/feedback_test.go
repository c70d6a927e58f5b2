package pushup

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGenerateFeedback(t *testing.T) {
	tests := []struct {
		name        string
		left, right float64
		symmetry    float64
		visibility  float64
		want        []string
	}{
		{
			name:       "low visibility short-circuits everything",
			left:       40,
			right:      120,
			symmetry:   80,
			visibility: 0.3,
			want:       []string{MsgPositionInFrame},
		},
		{
			name:       "clean frame between 170 and 175",
			left:       172,
			right:      173,
			symmetry:   1,
			visibility: 0.9,
			want:       []string{MsgGreatForm},
		},
		{
			name:       "locked straight arms",
			left:       178,
			right:      179,
			symmetry:   1,
			visibility: 0.9,
			want:       []string{MsgBendMore},
		},
		{
			name:       "shallow bottom",
			left:       80,
			right:      84,
			symmetry:   4,
			visibility: 0.9,
			want:       []string{MsgGoLower, MsgExtendFully},
		},
		{
			name:       "asymmetric mid-range",
			left:       110,
			right:      150,
			symmetry:   40,
			visibility: 0.9,
			want:       []string{MsgKeepSymmetric, MsgExtendFully},
		},
		{
			name:       "asymmetric and straight",
			left:       190,
			right:      170,
			symmetry:   20,
			visibility: 0.8,
			want:       []string{MsgKeepSymmetric, MsgBendMore},
		},
		{
			name:       "visibility exactly at threshold is accepted",
			left:       172,
			right:      172,
			symmetry:   0,
			visibility: MinVisibility,
			want:       []string{MsgGreatForm},
		},
		{
			name:       "symmetry exactly at threshold is accepted",
			left:       160,
			right:      175,
			symmetry:   15,
			visibility: 1,
			want:       []string{MsgExtendFully},
		},
		{
			name:       "zero average only asks to extend",
			left:       0,
			right:      0,
			symmetry:   0,
			visibility: 1,
			want:       []string{MsgExtendFully},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateFeedback(tt.left, tt.right, tt.symmetry, tt.visibility)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("GenerateFeedback() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
