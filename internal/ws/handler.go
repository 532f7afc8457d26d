package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/elemental-duel/internal/engine"
	"github.com/DoyleJ11/elemental-duel/internal/hub"
	"github.com/DoyleJ11/elemental-duel/internal/room"
	wire "github.com/DoyleJ11/elemental-duel/internal/types"
	"github.com/DoyleJ11/elemental-duel/pkg/types"
)

type Config struct {
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	OriginPatterns []string
}

// conn is the per-socket state owned by the reader loop.
type conn struct {
	id    string
	hub   *hub.Hub
	out   chan wire.ServerMessage
	rooms map[string]*room.Room
	log   *zap.Logger
}

func Handler(h *hub.Hub, cfg Config, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: cfg.OriginPatterns,
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer ws.Close(websocket.StatusNormalClosure, "bye")

		id := uuid.NewString()
		c := &conn{
			id:    id,
			hub:   h,
			out:   make(chan wire.ServerMessage, 32),
			rooms: make(map[string]*room.Room),
			log:   log.With(zap.String("conn", id)),
		}
		defer c.leaveAll()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		go c.writeLoop(ctx, cancel, ws, cfg.WriteTimeout)
		go keepAlive(ctx, cancel, ws, cfg.PingInterval)

		// Reader loop
		for {
			_, data, err := ws.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					if ctx.Err() == nil {
						c.log.Debug("websocket read failed", zap.Error(err))
					}
				}
				return
			}

			var cm wire.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				c.reply(types.MsgErrorMessage, types.ErrorMessage{Text: "bad json"})
				continue
			}
			c.handle(ctx, cm)
		}
	}
}

func (c *conn) handle(ctx context.Context, m wire.ClientMessage) {
	switch m.Type {
	case types.MsgCreate:
		created, err := c.hub.Create(ctx, c.seat(m.Name))
		if err != nil {
			c.log.Error("create room failed", zap.Error(err))
			c.reply(types.MsgErrorMessage, types.ErrorMessage{Text: "failed to create room"})
			return
		}
		c.rooms[created.Code] = created.Room

	case types.MsgJoin:
		r, _, err := c.hub.Join(ctx, m.Code, m.Token, c.seat(m.Name))
		if err != nil {
			c.reply(types.MsgErrorMessage, types.ErrorMessage{Text: ErrorText(err)})
			return
		}
		c.rooms[m.Code] = r

	case types.MsgChooseAction:
		c.deliver(ctx, m.Code, room.Action{
			ConnID:  c.id,
			Role:    engine.Role(m.Role),
			Ability: engine.Ability(m.Ability),
		})

	case types.MsgPing:
		c.deliver(ctx, m.Code, room.Ping{ConnID: c.id, Text: m.Text})

	default:
		c.reply(types.MsgErrorMessage, types.ErrorMessage{Text: "unknown type"})
	}
}

// deliver forwards m to room code; unknown rooms are ignored.
func (c *conn) deliver(ctx context.Context, code string, m room.Msg) {
	r, err := c.hub.Lookup(ctx, code)
	if err != nil || r == nil {
		return
	}
	_ = r.Deliver(ctx, m)
}

func (c *conn) seat(name string) room.Seat {
	return room.Seat{ConnID: c.id, Name: name, Outbox: c.out}
}

func (c *conn) reply(typ string, data any) {
	select {
	case c.out <- wire.ServerMessage{Type: typ, Data: data}:
	default:
		c.log.Warn("outbox full, reply dropped", zap.String("type", typ))
	}
}

func (c *conn) leaveAll() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for code, r := range c.rooms {
		if err := r.Deliver(ctx, room.Disconnect{ConnID: c.id}); err != nil && !errors.Is(err, room.ErrRoomClosed) {
			c.log.Warn("disconnect not delivered", zap.String("room", code), zap.Error(err))
		}
	}
}

func (c *conn) writeLoop(ctx context.Context, cancel context.CancelFunc, ws *websocket.Conn, timeout time.Duration) {
	defer cancel()
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-c.out:
			payload, err := json.Marshal(m)
			if err != nil {
				c.log.Error("marshal outbound message", zap.String("type", m.Type), zap.Error(err))
				continue
			}
			wctx, wcancel := context.WithTimeout(ctx, timeout)
			err = ws.Write(wctx, websocket.MessageText, payload)
			wcancel()
			if err != nil {
				c.log.Debug("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}

func keepAlive(ctx context.Context, cancel context.CancelFunc, ws *websocket.Conn, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, pcancel := context.WithTimeout(ctx, every)
			err := ws.Ping(pctx)
			pcancel()
			if err != nil {
				cancel()
				return
			}
		}
	}
}

// ErrorText maps lookup failures to the text shown to the requester.
func ErrorText(err error) string {
	switch {
	case errors.Is(err, hub.ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, room.ErrRoomFull):
		return "Room is already taken"
	case errors.Is(err, room.ErrInvalidToken):
		return "Invalid or already used token"
	default:
		return "Something went wrong"
	}
}
