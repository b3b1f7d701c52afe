package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	enter     key.Binding
	back      key.Binding
	search    key.Binding
	genre     key.Binding
	status    key.Binding
	favorite  key.Binding
	bookmark  key.Binding
	remove    key.Binding
	del       key.Binding
	newList   key.Binding
	lists     key.Binding
	favorites key.Binding
	admin     key.Binding
	chat      key.Binding
	login     key.Binding
	reload    key.Binding
	yes       key.Binding
	no        key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		genre:     key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "genre")),
		status:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "status")),
		favorite:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorite")),
		bookmark:  key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "add to list")),
		remove:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove")),
		del:       key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete")),
		newList:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new list")),
		lists:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "lists")),
		favorites: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "favorites")),
		admin:     key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "admin")),
		chat:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "chat")),
		login:     key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "login/logout")),
		reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		yes:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:        key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.search, k.lists, k.chat, k.login, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.search, k.genre, k.status, k.reload},
		{k.favorite, k.bookmark, k.remove, k.del, k.newList},
		{k.lists, k.favorites, k.admin, k.chat, k.login, k.quit},
	}
}
