package hub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DoyleJ11/elemental-duel/internal/engine"
	"github.com/DoyleJ11/elemental-duel/internal/room"
)

func (h *Hub) request(ctx context.Context, m HubMsg) error {
	select {
	case h.inbox <- m:
		return nil
	case <-h.done:
		return errors.New("hub stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Create registers a new room with host in the host slot.
func (h *Hub) Create(ctx context.Context, host room.Seat) (Created, error) {
	reply := make(chan Created, 1)
	if err := h.request(ctx, CreateRoom{Host: host, Reply: reply}); err != nil {
		return Created{}, err
	}
	select {
	case c := <-reply:
		if c.Err != nil {
			return Created{}, fmt.Errorf("create room: %w", c.Err)
		}
		return c, nil
	case <-ctx.Done():
		go h.abandon(reply, host)
		return Created{}, ctx.Err()
	}
}

// abandon tears down a room whose creator stopped waiting for it. The host
// never learns the code, so its slot is released as if it disconnected.
func (h *Hub) abandon(reply <-chan Created, host room.Seat) {
	select {
	case c := <-reply:
		if c.Room == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = c.Room.Deliver(ctx, room.Disconnect{ConnID: host.ConnID})
	case <-h.done:
	}
}

// Lookup returns nil when no live room owns code.
func (h *Hub) Lookup(ctx context.Context, code string) (*room.Room, error) {
	reply := make(chan *room.Room, 1)
	if err := h.request(ctx, GetRoom{Code: code, Reply: reply}); err != nil {
		return nil, err
	}
	select {
	case r := <-reply:
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Join puts guest in the guest slot of room code.
func (h *Hub) Join(ctx context.Context, code, token string, guest room.Seat) (*room.Room, engine.Role, error) {
	r, err := h.Lookup(ctx, code)
	if err != nil {
		return nil, "", err
	}
	if r == nil {
		return nil, "", ErrRoomNotFound
	}
	if err := r.JoinAsGuest(ctx, guest, token); err != nil {
		if errors.Is(err, room.ErrRoomClosed) {
			return nil, "", ErrRoomNotFound
		}
		return nil, "", err
	}
	return r, engine.RoleGuest, nil
}

func (h *Hub) Remove(ctx context.Context, code string) error {
	return h.request(ctx, RemoveRoom{Code: code})
}

func (h *Hub) Count(ctx context.Context) (int, error) {
	reply := make(chan int, 1)
	if err := h.request(ctx, CountRooms{Reply: reply}); err != nil {
		return 0, err
	}
	select {
	case n := <-reply:
		return n, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
