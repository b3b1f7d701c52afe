package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/libris/internal/library"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgRestored MsgKind = iota
	MsgStoreChanged
	MsgActionDone
	MsgChatReply
	MsgLoggedIn
)

// actionResult is the payload of [MsgActionDone].
type actionResult struct {
	label string
	err   error
	next  Screen
}

// restoredMsg is the constructor for [MsgRestored]
func restoredMsg(err error) Msg {
	return Msg{kind: MsgRestored, data: err}
}

// storeChangedMsg is the constructor for [MsgStoreChanged]
func storeChangedMsg(c library.Change) Msg {
	return Msg{kind: MsgStoreChanged, data: c}
}

// actionDoneMsg is the constructor for [MsgActionDone]. On success the model moves to next unless it is stay.
func actionDoneMsg(label string, err error, next Screen) Msg {
	return Msg{kind: MsgActionDone, data: actionResult{label: label, err: err, next: next}}
}

// chatReplyMsg is the constructor for [MsgChatReply]
func chatReplyMsg(err error) Msg {
	return Msg{kind: MsgChatReply, data: err}
}

// loggedInMsg is the constructor for [MsgLoggedIn]
func loggedInMsg(err error) Msg {
	return Msg{kind: MsgLoggedIn, data: err}
}

func (m Msg) err() error {
	switch d := m.data.(type) {
	case error:
		return d
	case actionResult:
		return d.err
	}
	return nil
}
