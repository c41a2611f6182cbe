package timelock

import (
	"testing"

	"github.com/ehallmark/soroban-escrow-demo/internal/models"
)

func TestHolds(t *testing.T) {
	tests := []struct {
		name  string
		bound models.TimeBound
		now   uint64
		want  bool
	}{
		{"before, now earlier", models.TimeBound{Kind: models.TimeBoundBefore, Timestamp: 100}, 50, true},
		{"before, now equal", models.TimeBound{Kind: models.TimeBoundBefore, Timestamp: 100}, 100, true},
		{"before, now later", models.TimeBound{Kind: models.TimeBoundBefore, Timestamp: 100}, 101, false},
		{"after, now earlier", models.TimeBound{Kind: models.TimeBoundAfter, Timestamp: 100}, 99, false},
		{"after, now equal", models.TimeBound{Kind: models.TimeBoundAfter, Timestamp: 100}, 100, true},
		{"after, now later", models.TimeBound{Kind: models.TimeBoundAfter, Timestamp: 100}, 12345, true},
		{"after at zero", models.TimeBound{Kind: models.TimeBoundAfter, Timestamp: 0}, 0, true},
		{"unknown kind never holds", models.TimeBound{Kind: "sometime", Timestamp: 100}, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Holds(tt.bound, tt.now); got != tt.want {
				t.Errorf("Holds(%+v, %d) = %v, want %v", tt.bound, tt.now, got, tt.want)
			}
		})
	}
}
