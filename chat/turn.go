package chat

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the conversation log.
type Turn struct {
	Role    Role
	Content string
}
