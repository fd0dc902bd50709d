package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPinNow(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"whole second kept", testNow, testNow},
		{"fraction rounds up", testNow.Add(900 * time.Millisecond), testNow.Add(time.Second)},
		{"one nanosecond rounds up", testNow.Add(time.Nanosecond), testNow.Add(time.Second)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fields := pinNow(tt.in)
			assert.Nil(t, fields)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, fields := pinNow(time.Time{})
	assert.Equal(t, map[string]string{"now": "is required"}, fields)
}
