package room

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/elemental-duel/internal/engine"
	wire "github.com/DoyleJ11/elemental-duel/internal/types"
	"github.com/DoyleJ11/elemental-duel/pkg/types"
)

var ErrRoomFull = errors.New("room is full")
var ErrInvalidToken = errors.New("invalid or already used invite token")

type Msg interface{ isRoomMsg() }

// Join fills the guest slot. Reply receives nil on success.
type Join struct {
	Seat  Seat
	Token string
	Reply chan error
}

func (Join) isRoomMsg() {}

type Action struct {
	ConnID  string
	Role    engine.Role
	Ability engine.Ability
}

func (Action) isRoomMsg() {}

// Disconnect flags every slot bound to ConnID as gone.
type Disconnect struct{ ConnID string }

func (Disconnect) isRoomMsg() {}

type Ping struct {
	ConnID string
	Text   string
}

func (Ping) isRoomMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

type countdownTick struct{ gen int }

func (countdownTick) isRoomMsg() {}

type turnDeadline struct{ turnNo int }

func (turnDeadline) isRoomMsg() {}

// Seat is what a connection brings when it takes a slot.
type Seat struct {
	ConnID string
	Name   string
	Outbox chan wire.ServerMessage
}

type Player struct {
	Role      engine.Role
	ConnID    string
	Name      string
	Connected bool
	outbox    chan wire.ServerMessage
}

type View struct {
	Code      string          `json:"code"`
	CreatedAt time.Time       `json:"createdAt"`
	State     types.RoomState `json:"state"`
	Counting  bool            `json:"counting"`
	Battle    *engine.Battle  `json:"battle,omitempty"`
}

type Config struct {
	TurnDuration      time.Duration
	CountdownFrom     int
	CountdownInterval time.Duration
	Now               func() time.Time
}

func DefaultConfig() Config {
	return Config{
		TurnDuration:      engine.TurnDuration,
		CountdownFrom:     3,
		CountdownInterval: time.Second,
		Now:               time.Now,
	}
}

type Room struct {
	code      string
	token     string
	createdAt time.Time
	host      *Player
	guest     *Player

	battle    *engine.Battle
	turnTimer *time.Timer

	countdown    *countdown
	countdownGen int

	cfg     Config
	log     *zap.Logger
	onEmpty func(code string)

	inbox  chan Msg
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRoom(parent context.Context, cfg Config, log *zap.Logger, code, token string, host Seat, onEmpty func(code string)) *Room {
	ctx, cancel := context.WithCancel(parent)
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}

	r := &Room{
		code:      code,
		token:     token,
		createdAt: cfg.Now(),
		host:      newPlayer(engine.RoleHost, host, "Host"),
		cfg:       cfg,
		log:       log.With(zap.String("room", code)),
		onEmpty:   onEmpty,
		inbox:     make(chan Msg, 64),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go r.loop()
	return r
}

func newPlayer(role engine.Role, s Seat, fallbackName string) *Player {
	name := s.Name
	if name == "" {
		name = fallbackName
	}
	return &Player{Role: role, ConnID: s.ConnID, Name: name, Connected: true, outbox: s.Outbox}
}

func (r *Room) Code() string { return r.code }

// Expose the inbox so the hub and the ws layer can send messages.
func (r *Room) Inbox() chan<- Msg { return r.inbox }

// Done is closed once the room loop has exited.
func (r *Room) Done() <-chan struct{} { return r.done }

func (r *Room) loop() {
	defer close(r.done)

	r.send(r.host, types.MsgCreated, types.Created{Code: r.code, InviteToken: r.token})
	r.broadcast(types.MsgState, r.publicState())
	r.log.Info("room created", zap.String("host", r.host.Name))

	for {
		select {
		case <-r.ctx.Done():
			r.stop()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				msg.Reply <- r.join(msg)

			case Action:
				r.submit(msg)

			case turnDeadline:
				if r.battle == nil || msg.turnNo != r.battle.TurnNo {
					break // stale deadline for a turn that already resolved
				}
				r.resolveTurn(engine.ReasonTimeout)

			case countdownTick:
				r.tick(msg.gen)

			case Disconnect:
				if r.disconnect(msg.ConnID) {
					r.log.Info("room empty, removing")
					r.stop()
					if r.onEmpty != nil {
						r.onEmpty(r.code)
					}
					return
				}

			case Ping:
				text := msg.Text
				if text == "" {
					text = "ping"
				}
				from := msg.ConnID
				if len(from) > 6 {
					from = from[:6]
				}
				r.broadcast(types.MsgEvent, types.PingEvent{Type: "ping", Text: text, From: from})

			case GetState:
				msg.Reply <- r.view()

			case Shutdown:
				r.stop()
				return
			}
		}
	}
}

func (r *Room) join(msg Join) error {
	if r.guest != nil {
		return ErrRoomFull
	}
	if r.token == "" || msg.Token != r.token {
		return ErrInvalidToken
	}

	r.guest = newPlayer(engine.RoleGuest, msg.Seat, "Guest")
	r.token = ""
	r.log.Info("guest joined", zap.String("guest", r.guest.Name))

	r.send(r.guest, types.MsgJoined, types.Joined{Code: r.code, Role: string(engine.RoleGuest)})
	r.broadcast(types.MsgState, r.publicState())
	r.startCountdown()
	return nil
}

// disconnect reports whether the room is now empty.
func (r *Room) disconnect(connID string) bool {
	changed := false
	for _, p := range []*Player{r.host, r.guest} {
		if p != nil && p.ConnID == connID && p.Connected {
			p.Connected = false
			changed = true
		}
	}
	if !changed {
		return false
	}

	r.log.Info("player disconnected", zap.String("conn", connID))
	r.cancelCountdown()
	r.broadcast(types.MsgState, r.publicState())

	hostGone := r.host == nil || !r.host.Connected
	guestGone := r.guest == nil || !r.guest.Connected
	return hostGone && guestGone
}

func (r *Room) stop() {
	r.stopTurnTimer()
	if r.countdown != nil {
		r.countdown.stop()
		r.countdown = nil
	}
	r.cancel()
}

func (r *Room) player(role engine.Role) *Player {
	switch role {
	case engine.RoleHost:
		return r.host
	case engine.RoleGuest:
		return r.guest
	}
	return nil
}

func (r *Room) bothConnected() bool {
	return r.host != nil && r.host.Connected && r.guest != nil && r.guest.Connected
}

func (r *Room) publicState() types.RoomState {
	st := types.RoomState{Code: r.code, Players: []types.PlayerState{}}
	for _, p := range []*Player{r.host, r.guest} {
		if p == nil {
			continue
		}
		st.Players = append(st.Players, types.PlayerState{Role: string(p.Role), Name: p.Name, Connected: p.Connected})
	}
	return st
}

func (r *Room) view() View {
	v := View{
		Code:      r.code,
		CreatedAt: r.createdAt,
		State:     r.publicState(),
		Counting:  r.countdown != nil,
	}
	if r.battle != nil {
		snap := r.battle.Snapshot()
		snap.Actions = engine.Sides[engine.Ability]{}
		v.Battle = &snap
	}
	return v
}

// post delivers an internal message unless the room has shut down.
func (r *Room) post(m Msg) {
	select {
	case r.inbox <- m:
	case <-r.ctx.Done():
	}
}
