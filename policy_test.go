package feedcache

import (
	"testing"
	"time"
)

func TestIsFresh(t *testing.T) {
	now := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		ts   time.Time
		want bool
	}{
		{"just saved", now, true},
		{"one second short of max age", now.Add(-MaxCacheAge + time.Second), true},
		{"one nanosecond short of max age", now.Add(-MaxCacheAge + time.Nanosecond), true},
		{"exactly max age", now.Add(-MaxCacheAge), false},
		{"older than max age", now.Add(-MaxCacheAge - time.Second), false},
		{"future timestamp", now.Add(time.Hour), true},
	}
	for _, tc := range cases {
		if got := IsFresh(tc.ts, now, MaxCacheAge); got != tc.want {
			t.Errorf("%s: IsFresh = %v, want %v", tc.name, got, tc.want)
		}
	}
}
