package view

import "github.com/desertthunder/libris/internal/library"

// ChatBubble is one transcript line ready for display.
type ChatBubble struct {
	Label  string
	Text   string
	Mine   bool
	Failed bool
	Time   string
}

// ChatView is the assistant pane.
type ChatView struct {
	Bubbles []ChatBubble
	Empty   bool
	Hint    string
}

// RenderChat labels each transcript line by speaker.
func RenderChat(lines []library.ChatLine) ChatView {
	if len(lines) == 0 {
		return ChatView{Empty: true, Hint: "Ask the library assistant about books, authors or genres."}
	}
	v := ChatView{Bubbles: make([]ChatBubble, 0, len(lines))}
	for _, l := range lines {
		b := ChatBubble{Text: l.Text, Failed: l.Failed, Time: l.At.Format("15:04")}
		if l.Speaker == library.SpeakerUser {
			b.Label = "You"
			b.Mine = true
		} else {
			b.Label = "Assistant"
		}
		v.Bubbles = append(v.Bubbles, b)
	}
	return v
}
