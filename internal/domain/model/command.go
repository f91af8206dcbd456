package model

type CommandKind int

const (
	CommandFreeText CommandKind = iota
	CommandStart
	CommandHelp
	CommandListResources
	CommandCancel
	CommandSelectResource
)

func (k CommandKind) String() string {
	switch k {
	case CommandStart:
		return "start"
	case CommandHelp:
		return "help"
	case CommandListResources:
		return "list_resources"
	case CommandCancel:
		return "cancel"
	case CommandSelectResource:
		return "select_resource"
	}
	return "free_text"
}

// Command is the transport-agnostic form of an inbound message.
type Command struct {
	Kind     CommandKind
	Resource Resource // CommandSelectResource only
	Text     string   // CommandFreeText only
}

// Message is one inbound message from a session.
type Message struct {
	SessionID int64
	FirstName string
	Command   Command
}

// ResultRecord is one search hit. An empty Price means the price is unknown.
type ResultRecord struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Price string `json:"price,omitempty"`
}
