package engine

import (
	"time"

	"classboard/model"
)

// TouchStreak applies one qualifying activity to a student's streak state
// and returns the updated copy.
//
// daysDiff is the floored number of whole days since the last qualifying
// update: exactly one day extends the streak, more than one resets it to 1,
// zero leaves it unchanged so repeated same-day activity never inflates the
// counter. A negative diff from clock skew is treated as zero; the streak
// never decrements. Timestamps are bumped on every touch regardless of
// branch.
func TouchStreak(st model.StreakState, now time.Time) model.StreakState {
	daysDiff := int(now.Sub(st.StreakLastUpdated).Hours() / 24)
	if daysDiff < 0 {
		daysDiff = 0
	}

	switch {
	case daysDiff == 1:
		st.Streak++
	case daysDiff > 1:
		st.Streak = 1
	}

	if st.Streak > st.LongestStreak {
		st.LongestStreak = st.Streak
	}
	st.StreakLastUpdated = now
	st.LastActive = now
	return st
}
