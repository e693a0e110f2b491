package models

type CommandType string

const (
	CommandStart   CommandType = "/start"
	CommandHelp    CommandType = "/help"
	CommandUnknown CommandType = "unknown"
)

type Command struct {
	Type      CommandType
	ChatID    int64
	UserID    int64
	Text      string
	Username  string
	FirstName string
}
