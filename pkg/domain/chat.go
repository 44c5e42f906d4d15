package domain

// Attachment is an inline binary payload sent alongside or instead of text.
// Data is base64-encoded, matching the Gemini inlineData wire shape.
type Attachment struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// ChatTurn is one prior message in a conversation. Turns are ordered
// chronologically; Role is "user" or "model", anything else is treated
// as "user" when the turn is formatted for the API.
type ChatTurn struct {
	Role  string   `json:"role"`
	Parts []string `json:"parts"`
}

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// NormalizeRole maps arbitrary role labels onto the two roles the Gemini
// API accepts. Only an exact "model" survives; everything else is "user".
func NormalizeRole(role string) string {
	if role == RoleModel {
		return RoleModel
	}
	return RoleUser
}

// DispatchConfig carries the ordered credential pool and the system
// instruction for one dispatch call. Credentials are consumed left to
// right and never reordered or deduplicated.
type DispatchConfig struct {
	Credentials       []string
	SystemInstruction string
}

// ChatRequest is one fully assembled outbound turn. It is identical across
// every credential attempt of a dispatch call.
type ChatRequest struct {
	SystemInstruction string
	History           []ChatTurn
	Message           string
	Images            []Attachment
}
