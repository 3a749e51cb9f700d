package service

import (
	"context"
	"sync"
	"time"

	"github.com/rocketscienceinc/xo-arena/internal/entity"
	"github.com/rocketscienceinc/xo-arena/internal/event"
)

type countdown struct {
	cancel context.CancelFunc
	once   sync.Once
}

// stop cancels the countdown and reports whether this call was the one that did it.
func (that *countdown) stop() bool {
	stopped := false

	that.once.Do(func() {
		stopped = true
		that.cancel()
	})

	return stopped
}

// startCountdown launches the countdown for the game unless one is already running
// or the game was invalidated.
func (that *gamePlayService) startCountdown(gameID entity.GameID, roomID entity.RoomID) bool {
	that.countdownsMu.Lock()
	defer that.countdownsMu.Unlock()

	if _, ok := that.countdowns[gameID]; ok {
		return false
	}

	if _, ok := that.invalidated[gameID]; ok {
		return false
	}

	if that.baseCtx.Err() != nil {
		return false
	}

	ctx, cancel := context.WithCancel(that.baseCtx)
	cd := &countdown{cancel: cancel}
	that.countdowns[gameID] = cd

	that.wg.Add(1)
	go that.runCountdown(ctx, cd, gameID, roomID)

	return true
}

func (that *gamePlayService) runCountdown(ctx context.Context, cd *countdown, gameID entity.GameID, roomID entity.RoomID) {
	log := that.logger.With("method", "runCountdown", "gameID", gameID)

	defer that.wg.Done()
	defer func() {
		that.countdownsMu.Lock()
		if that.countdowns[gameID] == cd {
			delete(that.countdowns, gameID)
		}
		that.countdownsMu.Unlock()
	}()

	ticker := time.NewTicker(that.interval)
	defer ticker.Stop()

	for timeLeft := that.ticks; timeLeft > 0; {
		select {
		case <-ctx.Done():
			log.Info("countdown stopped", "timeLeft", timeLeft)
			return
		case <-ticker.C:
			timeLeft--
			that.publisher.Publish(roomID, event.CountdownUpdate, event.CountdownUpdatePayload{TimeLeft: timeLeft})
		}
	}

	// lost the race against Invalidate
	if !cd.stop() {
		return
	}

	that.expire(that.baseCtx, gameID)
}
