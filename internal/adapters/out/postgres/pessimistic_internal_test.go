package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockTimeoutMillis(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int64
	}{
		{in: time.Nanosecond, want: 1},
		{in: 500 * time.Microsecond, want: 1},
		{in: time.Millisecond, want: 1},
		{in: 1500 * time.Microsecond, want: 2},
		{in: 200 * time.Millisecond, want: 200},
		{in: 3 * time.Second, want: 3000},
	}

	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, lockTimeoutMillis(tt.in))
		})
	}
}
