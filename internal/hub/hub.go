package hub

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/elemental-duel/internal/room"
)

var ErrRoomNotFound = errors.New("room not found")

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	Host  room.Seat
	Reply chan Created
}

type Created struct {
	Code  string
	Token string
	Room  *room.Room
	Err   error
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

type RemoveRoom struct {
	Code string
}

type CountRooms struct {
	Reply chan int
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (CountRooms) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox    chan HubMsg
	rooms    map[string]*room.Room
	roomCfg  room.Config
	log      *zap.Logger
	newCode  func() (string, error)
	newToken func() (string, error)
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewHub(parent context.Context, roomCfg room.Config, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		rooms:    make(map[string]*room.Room),
		roomCfg:  roomCfg,
		log:      log,
		newCode:  GenerateCode,
		newToken: GenerateToken,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) Done() <-chan struct{} { return h.done }

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				msg.Reply <- h.create(msg.Host)

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code] // May be nil

			case RemoveRoom:
				delete(h.rooms, msg.Code)
				h.log.Info("room removed", zap.String("room", msg.Code), zap.Int("live_rooms", len(h.rooms)))

			case CountRooms:
				msg.Reply <- len(h.rooms)

			case ShutdownHub:
				for _, r := range h.rooms {
					select {
					case r.Inbox() <- room.Shutdown{}:
					default:
					}
				}
				clear(h.rooms)
				h.cancel()
			}
		}
	}
}

func (h *Hub) create(host room.Seat) Created {
	var code string
	for {
		c, err := h.newCode()
		if err != nil {
			return Created{Err: err}
		}
		if h.rooms[c] == nil {
			code = c
			break
		}
		h.log.Debug("collision on code, regenerating", zap.String("code", c))
	}

	token, err := h.newToken()
	if err != nil {
		return Created{Err: err}
	}

	r := room.NewRoom(h.ctx, h.roomCfg, h.log, code, token, host, h.removeLater)
	h.rooms[code] = r
	return Created{Code: code, Token: token, Room: r}
}

// removeLater runs on a room goroutine, so it must not wait on the hub loop.
func (h *Hub) removeLater(code string) {
	go func() {
		select {
		case h.inbox <- RemoveRoom{Code: code}:
		case <-h.ctx.Done():
		}
	}()
}
