package room

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/elemental-duel/internal/engine"
	wire "github.com/DoyleJ11/elemental-duel/internal/types"
	"github.com/DoyleJ11/elemental-duel/pkg/types"
)

const within = 500 * time.Millisecond

func testConfig() Config {
	return Config{
		TurnDuration:      120 * time.Millisecond,
		CountdownFrom:     3,
		CountdownInterval: 10 * time.Millisecond,
		Now:               time.Now,
	}
}

// helper: receive one message with a timeout so tests never hang
func recvMsg(t *testing.T, ch <-chan wire.ServerMessage, wait time.Duration) wire.ServerMessage {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(wait):
		t.Fatalf("timed out waiting for message")
		return wire.ServerMessage{} // unreachable
	}
}

// waitFor discards messages until one of type typ arrives.
func waitFor(t *testing.T, ch <-chan wire.ServerMessage, typ string) wire.ServerMessage {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-ch:
			if m.Type == typ {
				return m
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", typ)
			return wire.ServerMessage{}
		}
	}
}

func recvNone(t *testing.T, ch <-chan wire.ServerMessage, typ string, wait time.Duration) {
	t.Helper()
	deadline := time.After(wait)
	for {
		select {
		case m := <-ch:
			if m.Type == typ {
				t.Fatalf("expected no %q within %v, got %+v", typ, wait, m.Data)
			}
		case <-deadline:
			return
		}
	}
}

type fixture struct {
	room     *Room
	hostOut  chan wire.ServerMessage
	guestOut chan wire.ServerMessage
	emptied  chan string
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	f := &fixture{
		hostOut:  make(chan wire.ServerMessage, 256),
		guestOut: make(chan wire.ServerMessage, 256),
		emptied:  make(chan string, 1),
	}
	f.room = NewRoom(ctx, cfg, nil, "ABCDE", "TOKEN1",
		Seat{ConnID: "host-conn", Name: "Alice", Outbox: f.hostOut},
		func(code string) { f.emptied <- code })
	return f
}

func (f *fixture) join(t *testing.T) {
	t.Helper()
	err := f.room.JoinAsGuest(context.Background(), Seat{ConnID: "guest-conn", Name: "Bob", Outbox: f.guestOut}, "TOKEN1")
	require.NoError(t, err)
}

// started joins the guest and waits for turn 1 on both sides.
func (f *fixture) started(t *testing.T) {
	t.Helper()
	f.join(t)
	waitFor(t, f.hostOut, types.MsgTurnStart)
	waitFor(t, f.guestOut, types.MsgTurnStart)
}

func (f *fixture) act(role engine.Role, a engine.Ability) {
	conn := "host-conn"
	if role == engine.RoleGuest {
		conn = "guest-conn"
	}
	f.room.Inbox() <- Action{ConnID: conn, Role: role, Ability: a}
}

func TestRoom_CreatedThenStateToHost(t *testing.T) {
	f := newFixture(t, testConfig())

	first := recvMsg(t, f.hostOut, within)
	require.Equal(t, types.MsgCreated, first.Type)
	assert.Equal(t, types.Created{Code: "ABCDE", InviteToken: "TOKEN1"}, first.Data)

	second := recvMsg(t, f.hostOut, within)
	require.Equal(t, types.MsgState, second.Type)
	st := second.Data.(types.RoomState)
	assert.Equal(t, []types.PlayerState{{Role: "host", Name: "Alice", Connected: true}}, st.Players)
}

func TestRoom_JoinErrors(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	other := Seat{ConnID: "intruder", Outbox: make(chan wire.ServerMessage, 8)}

	err := f.room.JoinAsGuest(ctx, other, "WRONG1")
	assert.ErrorIs(t, err, ErrInvalidToken)

	f.join(t)
	joined := waitFor(t, f.guestOut, types.MsgJoined)
	assert.Equal(t, types.Joined{Code: "ABCDE", Role: "guest"}, joined.Data)

	err = f.room.JoinAsGuest(ctx, other, "TOKEN1")
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestRoom_DefaultGuestName(t *testing.T) {
	f := newFixture(t, testConfig())
	err := f.room.JoinAsGuest(context.Background(), Seat{ConnID: "guest-conn", Outbox: f.guestOut}, "TOKEN1")
	require.NoError(t, err)

	v, err := f.room.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, v.State.Players, 2)
	assert.Equal(t, "Guest", v.State.Players[1].Name)
}

func TestRoom_CountdownThenDuelStart(t *testing.T) {
	f := newFixture(t, testConfig())
	f.join(t)

	for _, n := range []int{3, 2, 1} {
		m := waitFor(t, f.guestOut, types.MsgCountdown)
		assert.Equal(t, types.Countdown{N: n}, m.Data)
	}

	m := recvMsg(t, f.guestOut, within)
	require.Equal(t, types.MsgDuelStart, m.Type)
	ds := m.Data.(DuelStart)
	assert.Equal(t, int64(120), ds.TurnMs)
	assert.Equal(t, 1, ds.Round)
	assert.Equal(t, engine.Sides[int]{Host: engine.HPMax, Guest: engine.HPMax}, ds.HP)
	assert.Equal(t, 0, ds.TurnNo)

	m = recvMsg(t, f.guestOut, within)
	require.Equal(t, types.MsgTurnStart, m.Type)
	ts := m.Data.(engine.TurnStarted)
	assert.Equal(t, 1, ts.TurnNo)
	assert.Equal(t, engine.MaxRounds, ts.MaxRounds)
}

func TestRoom_ActionPrivacyAndEarlyResolution(t *testing.T) {
	f := newFixture(t, testConfig())
	f.started(t)

	f.act(engine.RoleHost, engine.AbilityFire)

	own := waitFor(t, f.hostOut, types.MsgActionMade)
	assert.Equal(t, types.ActionMade{By: "host", Ability: "fire"}, own.Data)
	theirs := waitFor(t, f.guestOut, types.MsgActionMade)
	assert.Equal(t, types.ActionMade{By: "host"}, theirs.Data)

	f.act(engine.RoleGuest, engine.AbilityIce)

	m := waitFor(t, f.hostOut, types.MsgTurnEnd)
	te := m.Data.(engine.TurnEnded)
	assert.Equal(t, engine.ReasonBothChosen, te.Reason)
	assert.Equal(t, engine.Sides[int]{Host: 7, Guest: 0}, te.Damage)
	assert.Equal(t, engine.Sides[int]{Host: 30, Guest: 23}, te.HP)
	assert.Equal(t, engine.Sides[int]{Host: 9, Guest: 7}, te.Mana)

	next := waitFor(t, f.hostOut, types.MsgTurnStart)
	assert.Equal(t, 2, next.Data.(engine.TurnStarted).TurnNo)

	// The cancelled turn-1 deadline must not resolve anything; the next
	// resolution is turn 2 timing out.
	m = waitFor(t, f.hostOut, types.MsgTurnEnd)
	te = m.Data.(engine.TurnEnded)
	assert.Equal(t, 2, te.TurnNo)
	assert.Equal(t, engine.ReasonTimeout, te.Reason)
}

func TestRoom_ViewHidesPendingChoice(t *testing.T) {
	cfg := testConfig()
	cfg.TurnDuration = 5 * time.Second
	f := newFixture(t, cfg)
	f.started(t)

	f.act(engine.RoleHost, engine.AbilityFire)
	waitFor(t, f.guestOut, types.MsgActionMade)

	v, err := f.room.Snapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, v.Battle)
	assert.Equal(t, 1, v.Battle.TurnNo)
	assert.Equal(t, engine.Sides[engine.Ability]{}, v.Battle.Actions)

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "fire")
}

func TestRoom_DuplicateAndForeignActionsIgnored(t *testing.T) {
	cfg := testConfig()
	cfg.TurnDuration = 300 * time.Millisecond
	f := newFixture(t, cfg)
	f.started(t)

	f.act(engine.RoleHost, engine.AbilityShield)
	waitFor(t, f.hostOut, types.MsgActionMade)

	f.act(engine.RoleHost, engine.AbilityFire)
	f.room.Inbox() <- Action{ConnID: "host-conn", Role: engine.RoleGuest, Ability: engine.AbilityIce}
	f.room.Inbox() <- Action{ConnID: "guest-conn", Role: engine.RoleGuest, Ability: "lightning"}
	recvNone(t, f.hostOut, types.MsgActionMade, 50*time.Millisecond)

	m := waitFor(t, f.hostOut, types.MsgTurnEnd)
	te := m.Data.(engine.TurnEnded)
	assert.Equal(t, engine.ReasonTimeout, te.Reason)
	assert.Equal(t, engine.Sides[engine.Ability]{Host: engine.AbilityShield}, te.RawActions)
}

func TestRoom_PureTimeoutAdvancesTurn(t *testing.T) {
	f := newFixture(t, testConfig())
	f.started(t)

	m := waitFor(t, f.guestOut, types.MsgTurnEnd)
	te := m.Data.(engine.TurnEnded)
	assert.Equal(t, engine.ReasonTimeout, te.Reason)
	assert.Equal(t, 1, te.TurnNo)
	assert.Equal(t, engine.Sides[int]{Host: engine.ManaMax, Guest: engine.ManaMax}, te.Mana)

	next := waitFor(t, f.guestOut, types.MsgTurnStart)
	assert.Equal(t, 2, next.Data.(engine.TurnStarted).TurnNo)
}

func TestRoom_HostSweepEndsMatchAfterTwoRounds(t *testing.T) {
	f := newFixture(t, testConfig())
	f.started(t)

	rounds := 0
	for {
		f.act(engine.RoleHost, engine.AbilityFire)
		f.act(engine.RoleGuest, engine.AbilityIce)

		m := waitFor(t, f.hostOut, types.MsgTurnEnd)
		require.Equal(t, engine.ReasonBothChosen, m.Data.(engine.TurnEnded).Reason)

		m = recvMsg(t, f.hostOut, within)
		if m.Type == types.MsgTurnStart {
			continue
		}
		require.Equal(t, types.MsgRoundOver, m.Type)
		rounds++
		assert.Equal(t, engine.WinnerHost, m.Data.(engine.RoundOver).Winner)

		m = recvMsg(t, f.hostOut, within)
		if m.Type == types.MsgTurnStart {
			continue
		}
		require.Equal(t, types.MsgBattleOver, m.Type)
		bo := m.Data.(engine.BattleOver)
		assert.Equal(t, engine.WinnerHost, bo.MatchWinner)
		assert.Equal(t, engine.Sides[int]{Host: 2}, bo.Score)
		assert.Equal(t, 10, bo.Used.Host[engine.AbilityFire])
		break
	}
	assert.Equal(t, 2, rounds)

	recvNone(t, f.hostOut, types.MsgTurnStart, 200*time.Millisecond)
	v, err := f.room.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Nil(t, v.Battle)
}

func TestRoom_DisconnectCancelsCountdown(t *testing.T) {
	cfg := testConfig()
	cfg.CountdownInterval = 100 * time.Millisecond
	f := newFixture(t, cfg)
	f.join(t)
	waitFor(t, f.hostOut, types.MsgCountdown)

	f.room.Inbox() <- Disconnect{ConnID: "guest-conn"}

	waitFor(t, f.hostOut, types.MsgCountdownCancel)
	st := waitFor(t, f.hostOut, types.MsgState).Data.(types.RoomState)
	assert.False(t, st.Players[1].Connected)
	recvNone(t, f.hostOut, types.MsgDuelStart, 400*time.Millisecond)

	v, err := f.room.Snapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, v.Counting)
	assert.Nil(t, v.Battle)
}

func TestRoom_DisconnectKeepsTurnTimerRunning(t *testing.T) {
	f := newFixture(t, testConfig())
	f.started(t)

	f.act(engine.RoleHost, engine.AbilityFire)
	f.room.Inbox() <- Disconnect{ConnID: "guest-conn"}

	m := waitFor(t, f.hostOut, types.MsgTurnEnd)
	te := m.Data.(engine.TurnEnded)
	assert.Equal(t, engine.ReasonTimeout, te.Reason)
	assert.Equal(t, 7, te.Damage.Host)
}

func TestRoom_BothGoneRemovesRoom(t *testing.T) {
	f := newFixture(t, testConfig())
	f.join(t)

	f.room.Inbox() <- Disconnect{ConnID: "host-conn"}
	f.room.Inbox() <- Disconnect{ConnID: "guest-conn"}

	select {
	case code := <-f.emptied:
		assert.Equal(t, "ABCDE", code)
	case <-time.After(within):
		t.Fatalf("room was not reported empty")
	}
	<-f.room.Done()

	_, err := f.room.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrRoomClosed)
}

func TestRoom_HostAloneLeavingRemovesRoom(t *testing.T) {
	f := newFixture(t, testConfig())
	f.room.Inbox() <- Disconnect{ConnID: "host-conn"}

	select {
	case <-f.emptied:
	case <-time.After(within):
		t.Fatalf("room was not reported empty")
	}
}

func TestRoom_PingBroadcast(t *testing.T) {
	f := newFixture(t, testConfig())
	f.room.Inbox() <- Ping{ConnID: "host-conn-123"}

	m := waitFor(t, f.hostOut, types.MsgEvent)
	assert.Equal(t, types.PingEvent{Type: "ping", Text: "ping", From: "host-c"}, m.Data)
}

func TestRoom_Shutdown_StopsTimer_NoFire(t *testing.T) {
	f := newFixture(t, testConfig())
	f.started(t)

	f.room.Inbox() <- Shutdown{}
	<-f.room.Done()

	recvNone(t, f.hostOut, types.MsgTurnEnd, 300*time.Millisecond)
}
