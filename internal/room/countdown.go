package room

import (
	"time"

	"github.com/nvoid/ettmulti-server/internal/game"
)

// Countdown limits accepted by EnableCountdown, in seconds.
const (
	MinTimerLimit = 2
	MaxTimerLimit = 20
)

// StartTimer launches the pre-start countdown: one tick per second counting
// down from TimerLimit, then onDone. Only one timer runs per room; a second
// start attempt while one is live is a no-op returning false. Both callbacks
// are posted back onto the dispatch goroutine.
func (r *Room) StartTimer(onTick func(remaining int), onDone func()) bool {
	if r.countdownStarted {
		return false
	}
	r.countdownStarted = true
	stop := make(chan struct{})
	r.stopTimer = stop
	limit := r.TimerLimit

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		remaining := limit
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				remaining--
				n := remaining
				if n <= 0 {
					r.run(func() {
						// A cancellation may have landed before this task.
						if r.stopTimer != stop {
							return
						}
						r.countdownStarted = false
						r.stopTimer = nil
						onDone()
					})
					return
				}
				r.run(func() {
					if r.stopTimer != stop {
						return
					}
					onTick(n)
				})
			}
		}
	}()
	return true
}

// StopTimer cancels a live countdown and posts a cancellation notice. It
// returns false when no countdown is running.
func (r *Room) StopTimer() bool {
	if !r.countdownStarted || r.stopTimer == nil {
		return false
	}
	close(r.stopTimer)
	r.stopTimer = nil
	r.countdownStarted = false
	r.SendChat(game.SystemPrepend + "Countdown cancelled")
	return true
}

// TimerRunning reports whether a countdown is live.
func (r *Room) TimerRunning() bool {
	return r.countdownStarted
}

// EnableCountdown configures the pre-start countdown. A zero limit toggles
// the countdown off when it is on; otherwise the limit must lie in
// [MinTimerLimit, MaxTimerLimit]. It returns a chat notice describing the
// outcome and whether the configuration changed.
func (r *Room) EnableCountdown(limit int) (string, bool) {
	if limit == 0 {
		if !r.Countdown {
			return game.SystemPrepend + "Countdown is not enabled", false
		}
		r.Countdown = false
		return game.SystemPrepend + "Countdown disabled", true
	}

	if limit < MinTimerLimit || limit > MaxTimerLimit {
		return game.SystemPrepend + "Countdown limit must be between 2 and 20 seconds", false
	}

	r.Countdown = true
	r.TimerLimit = limit
	return game.SystemPrepend + "Countdown enabled", true
}
