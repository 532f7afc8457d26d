package types

// Client frames are flat JSON objects: {"type": string, ...fields}.
// Server frames wrap their payload: {"type": string, "data": object}.
//
// Client -> Server
// create:       { name }
// join:         { code, token, name }
// chooseAction: { code, role: "host" | "guest", ability: "fire" | "ice" | "shield" }
// ping:         { code, text }
//
// Server -> Client
// created:         { code, inviteToken }                      (creator only)
// joined:          { code, role }                             (joiner only)
// state:           { code, players: [{ role, name, connected }] }
// countdown:       { n }
// countdownCancel: {}
// duelStart:       { battle snapshot..., turnMs }
// turnStart:       { round, maxRounds, turnNo, deadlineTs }
// actionMade:      { by, ability? }                           (ability only to the chooser)
// turnEnd:         { reason, round, turnNo, rawActions, honoredActions, damage, hp, mana }
// roundOver:       { round, winner, hp, score }
// battleOver:      { matchWinner, score, used: { host: {fire, ice, shield}, guest: {...} } }
// event:           { type: "ping", text, from }
// errorMessage:    { text }

const (
	MsgCreate       = "create"
	MsgJoin         = "join"
	MsgChooseAction = "chooseAction"
	MsgPing         = "ping"
)

const (
	MsgCreated         = "created"
	MsgJoined          = "joined"
	MsgState           = "state"
	MsgCountdown       = "countdown"
	MsgCountdownCancel = "countdownCancel"
	MsgDuelStart       = "duelStart"
	MsgTurnStart       = "turnStart"
	MsgActionMade      = "actionMade"
	MsgTurnEnd         = "turnEnd"
	MsgRoundOver       = "roundOver"
	MsgBattleOver      = "battleOver"
	MsgEvent           = "event"
	MsgErrorMessage    = "errorMessage"
)
