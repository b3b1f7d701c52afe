package library

import (
	"sync"
	"time"
)

// Speaker identifies who wrote a transcript line.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Transcript fallbacks for replies that carry no text or never arrive.
const (
	NotUnderstoodText   = "Sorry, I could not understand that."
	ConnectionErrorText = "Connection error. Please try again."
)

// ChatLine is one message in the assistant transcript.
type ChatLine struct {
	Speaker Speaker
	Text    string
	Failed  bool
	At      time.Time
}

// Transcript is the append-only chat history for this process.
type Transcript struct {
	mu    sync.Mutex
	lines []ChatLine
}

// Append adds a line stamped with the current time.
func (t *Transcript) Append(speaker Speaker, text string, failed bool) ChatLine {
	line := ChatLine{Speaker: speaker, Text: text, Failed: failed, At: time.Now()}
	t.mu.Lock()
	t.lines = append(t.lines, line)
	t.mu.Unlock()
	return line
}

// Lines returns a copy of the transcript.
func (t *Transcript) Lines() []ChatLine {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ChatLine, len(t.lines))
	copy(out, t.lines)
	return out
}

// Len reports the number of lines.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.lines)
}
