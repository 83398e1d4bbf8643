package domain

// Command is an inbound intent produced by the transport for one connection.
type Command interface {
	ConnID() ConnectionID
}

type RegisterCommand struct {
	Connection ConnectionID
	Username   string
}

func (c RegisterCommand) ConnID() ConnectionID { return c.Connection }

type PrivateMessageCommand struct {
	Connection ConnectionID
	To         string
	From       string
	Content    string
}

func (c PrivateMessageCommand) ConnID() ConnectionID { return c.Connection }

// MarkAsReadCommand marks every message Sender addressed to Receiver as read.
type MarkAsReadCommand struct {
	Connection ConnectionID
	Sender     string
	Receiver   string
}

func (c MarkAsReadCommand) ConnID() ConnectionID { return c.Connection }

type TypingCommand struct {
	Connection ConnectionID
	To         string
	From       string
	Stopped    bool
}

func (c TypingCommand) ConnID() ConnectionID { return c.Connection }

// GetChatHistoryCommand carries the response channel of a request/response event.
type GetChatHistoryCommand struct {
	Connection  ConnectionID
	WithUser    string
	CurrentUser string
	Reply       func(history []Message)
}

func (c GetChatHistoryCommand) ConnID() ConnectionID { return c.Connection }

type DisconnectCommand struct {
	Connection ConnectionID
}

func (c DisconnectCommand) ConnID() ConnectionID { return c.Connection }
