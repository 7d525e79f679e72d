package dto

import "github.com/Temutjin2k/ride-realtime/pkg/validator"

const (
	TypeAuth   = "auth"
	TypeAuthOK = "auth_ok"
	TypeError  = "error"
)

// Envelope is used only to peek at the message type
type Envelope struct {
	Type string `json:"type"`
}

// Websocket message: client -> server, binds the session to a verified user
type AuthMessage struct {
	Type  string `json:"type"` // "auth"
	Token string `json:"token"`
}

func (m *AuthMessage) Validate(v *validator.Validator) {
	v.Check(m.Type == TypeAuth, "type", "must be: auth")
	v.Check(m.Token != "", "token", "must be provided")
}

type AuthOK struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type ErrorMessage struct {
	Type  string `json:"type"`
	Error any    `json:"error"`
}
