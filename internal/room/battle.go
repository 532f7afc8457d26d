package room

import (
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/elemental-duel/internal/engine"
	"github.com/DoyleJ11/elemental-duel/pkg/types"
)

type DuelStart struct {
	engine.Battle
	TurnMs int64 `json:"turnMs"`
}

func (r *Room) startBattle() {
	r.battle = engine.NewBattle()
	r.log.Info("duel started")
	r.broadcast(types.MsgDuelStart, DuelStart{
		Battle: r.battle.Snapshot(),
		TurnMs: r.cfg.TurnDuration.Milliseconds(),
	})
	r.startTurn()
}

func (r *Room) startTurn() {
	r.stopTurnTimer()
	ts := r.battle.StartTurn(r.cfg.Now(), r.cfg.TurnDuration)

	turnNo := ts.TurnNo
	r.turnTimer = time.AfterFunc(r.cfg.TurnDuration, func() {
		r.post(turnDeadline{turnNo: turnNo})
	})
	r.emit(ts)
}

func (r *Room) stopTurnTimer() {
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}
}

func (r *Room) submit(msg Action) {
	if r.battle == nil {
		return
	}
	p := r.player(msg.Role)
	if p == nil || p.ConnID != msg.ConnID {
		r.log.Debug("action from unbound connection dropped", zap.String("conn", msg.ConnID), zap.String("role", string(msg.Role)))
		return
	}
	if !r.battle.Submit(msg.Role, msg.Ability) {
		return
	}

	r.send(p, types.MsgActionMade, types.ActionMade{By: string(msg.Role), Ability: string(msg.Ability)})
	r.send(r.player(msg.Role.Opponent()), types.MsgActionMade, types.ActionMade{By: string(msg.Role)})

	if r.battle.BothChosen() {
		r.resolveTurn(engine.ReasonBothChosen)
	}
}

// resolveTurn runs at most once per turn: the deadline is stopped first and
// the engine ignores a turn that is already closed.
func (r *Room) resolveTurn(reason engine.Reason) {
	r.stopTurnTimer()
	events := r.battle.ResolveTurn(reason)
	if events == nil {
		return
	}
	for _, e := range events {
		r.emit(e)
		if ro, ok := e.(engine.RoundOver); ok {
			r.log.Info("round over",
				zap.Int("round", ro.Round),
				zap.String("winner", string(ro.Winner)),
				zap.Int("score_host", ro.Score.Host),
				zap.Int("score_guest", ro.Score.Guest))
		}
	}

	if r.battle.Over() {
		r.log.Info("battle over", zap.Int("turns", r.battle.TurnNo))
		r.battle = nil
		return
	}
	r.startTurn()
}

// emit broadcasts an engine event; engine event types double as message types.
func (r *Room) emit(e engine.Event) {
	r.broadcast(string(e.Type()), e)
}
