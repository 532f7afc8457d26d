package room

import (
	"context"
	"time"

	"github.com/DoyleJ11/elemental-duel/pkg/types"
)

type countdown struct {
	gen    int
	n      int
	cancel context.CancelFunc
	done   chan struct{}
}

func (c *countdown) run(ctx context.Context, interval time.Duration, inbox chan<- Msg) {
	defer close(c.done)
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			select {
			case inbox <- countdownTick{gen: c.gen}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// stop returns once the ticker goroutine has exited.
func (c *countdown) stop() {
	c.cancel()
	<-c.done
}

func (r *Room) startCountdown() {
	if r.countdown != nil || r.battle != nil || !r.bothConnected() {
		return
	}

	r.countdownGen++
	ctx, cancel := context.WithCancel(r.ctx)
	cd := &countdown{
		gen:    r.countdownGen,
		n:      r.cfg.CountdownFrom,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.countdown = cd
	r.log.Info("countdown started")

	r.broadcast(types.MsgCountdown, types.Countdown{N: cd.n})
	go cd.run(ctx, r.cfg.CountdownInterval, r.inbox)
}

func (r *Room) tick(gen int) {
	cd := r.countdown
	if cd == nil || cd.gen != gen {
		return
	}

	cd.n--
	if cd.n > 0 {
		r.broadcast(types.MsgCountdown, types.Countdown{N: cd.n})
		return
	}

	cd.stop()
	r.countdown = nil
	r.startBattle()
}

func (r *Room) cancelCountdown() {
	if r.countdown == nil {
		return
	}
	r.countdown.stop()
	r.countdown = nil
	r.log.Info("countdown cancelled")
	r.broadcast(types.MsgCountdownCancel, types.CountdownCancel{})
}
