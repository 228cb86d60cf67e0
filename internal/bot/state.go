package bot

import (
	"sync"

	"github.com/flywheels-garage/invoicebot/internal/schema"
)

// State is a chat thread's position in the conversation.
type State int

const (
	// StateIdle waits for a command or raw notes.
	StateIdle State = iota
	// StateAwaitingNotes follows a kind selection; the next free text is
	// treated as service notes of that kind.
	StateAwaitingNotes
	// StateDocumentShown means the bot has posted a rendered document and
	// holds its JSON snapshot for reply-driven modification.
	StateDocumentShown
)

// Conversation is the per-chat state. The snapshot is the document's JSON
// serialization, kept so modifications never have to re-parse the lossy
// rendered chat text.
type Conversation struct {
	State     State
	Kind      schema.DocumentKind
	Snapshot  string
	MessageID int64
}

// Sessions holds conversation state keyed by chat ID. It is the only shared
// mutable structure in the process.
type Sessions struct {
	mu    sync.Mutex
	chats map[int64]Conversation
}

func NewSessions() *Sessions {
	return &Sessions{chats: make(map[int64]Conversation)}
}

func (s *Sessions) Get(chatID int64) Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chats[chatID]
}

func (s *Sessions) SetIdle(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[chatID] = Conversation{State: StateIdle}
}

func (s *Sessions) SetAwaitingNotes(chatID int64, kind schema.DocumentKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[chatID] = Conversation{State: StateAwaitingNotes, Kind: kind}
}

func (s *Sessions) SetDocumentShown(chatID int64, kind schema.DocumentKind, snapshot string, messageID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[chatID] = Conversation{
		State:     StateDocumentShown,
		Kind:      kind,
		Snapshot:  snapshot,
		MessageID: messageID,
	}
}
