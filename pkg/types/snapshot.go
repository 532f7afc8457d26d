package types

type PlayerState struct {
	Role      string `json:"role"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

// RoomState is the public lobby view broadcast as "state".
type RoomState struct {
	Code    string        `json:"code"`
	Players []PlayerState `json:"players"`
}

type Created struct {
	Code        string `json:"code"`
	InviteToken string `json:"inviteToken"`
}

type Joined struct {
	Code string `json:"code"`
	Role string `json:"role"`
}

type Countdown struct {
	N int `json:"n"`
}

type CountdownCancel struct{}

type ActionMade struct {
	By      string `json:"by"`
	Ability string `json:"ability,omitempty"`
}

type PingEvent struct {
	Type string `json:"type"` // always "ping"
	Text string `json:"text"`
	From string `json:"from"`
}

type ErrorMessage struct {
	Text string `json:"text"`
}
