//go:build !linux && !darwin && !windows

package hotdir

import "time"

func birthTime(string) (time.Time, bool) {
	return time.Time{}, false
}
