package types

type ClientMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Token   string `json:"token,omitempty"`
	Name    string `json:"name,omitempty"`
	Role    string `json:"role,omitempty"`
	Ability string `json:"ability,omitempty"`
	Text    string `json:"text,omitempty"`
}

type ServerMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
