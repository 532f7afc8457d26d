package room

import (
	"context"
	"errors"

	"go.uber.org/zap"

	wire "github.com/DoyleJ11/elemental-duel/internal/types"
)

var ErrRoomClosed = errors.New("room closed")

// send is fire-and-forget: a full outbox loses the message.
func (r *Room) send(p *Player, typ string, data any) {
	if p == nil || !p.Connected || p.outbox == nil {
		return
	}
	select {
	case p.outbox <- wire.ServerMessage{Type: typ, Data: data}:
	default:
		r.log.Warn("outbox full, message dropped", zap.String("role", string(p.Role)), zap.String("type", typ))
	}
}

func (r *Room) broadcast(typ string, data any) {
	r.send(r.host, typ, data)
	r.send(r.guest, typ, data)
}

// Deliver hands m to the room loop. It fails once the room has shut down.
func (r *Room) Deliver(ctx context.Context, m Msg) error {
	select {
	case r.inbox <- m:
		return nil
	case <-r.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// JoinAsGuest requests the guest slot and waits for the verdict.
func (r *Room) JoinAsGuest(ctx context.Context, seat Seat, token string) error {
	reply := make(chan error, 1)
	if err := r.Deliver(ctx, Join{Seat: seat, Token: token, Reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-r.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Room) Snapshot(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := r.Deliver(ctx, GetState{Reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-r.done:
		return View{}, ErrRoomClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}
