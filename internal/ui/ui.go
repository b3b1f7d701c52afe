package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/libris/internal/actions"
	"github.com/desertthunder/libris/internal/auth"
	"github.com/desertthunder/libris/internal/library"
	"github.com/desertthunder/libris/internal/models"
	"github.com/desertthunder/libris/internal/view"
)

// Screen is the page the TUI is showing.
type Screen int

const (
	LibraryScreen Screen = iota
	DetailScreen
	FavoritesScreen
	CollectionsScreen
	CollectionScreen
	PickerScreen
	AdminScreen
	ChatScreen
	LoginScreen
)

// Pseudo screens for actions: stay keeps the current screen, previous goes back.
const (
	stay     Screen = -1
	previous Screen = -2
)

type inputMode int

const (
	inputNone inputMode = iota
	inputSearch
	inputNewList
	inputChat
	inputLogin
)

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	dispatcher *actions.Dispatcher
	bridge     *auth.Bridge
	store      *library.Store

	screen  Screen
	history []Screen
	width   int
	height  int

	books   list.Model
	mine    list.Model
	members list.Model
	picker  list.Model
	admin   list.Model

	bookID models.ID
	listID models.ID
	filter view.Filter

	mode       inputMode
	input      textinput.Model
	password   textinput.Model
	loginField int

	confirm    string
	confirmCmd tea.Cmd

	status    string
	statusErr bool
	busy      bool

	changes chan library.Change
	help    help.Model
	keys    keyMap
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)
	return l
}

// NewModel creates a new TUI model. The store's changes are forwarded to the model from here on.
func NewModel(ctx context.Context, d *actions.Dispatcher, bridge *auth.Bridge) *Model {
	m := &Model{
		ctx:        ctx,
		dispatcher: d,
		bridge:     bridge,
		store:      d.Store(),
		screen:     LibraryScreen,
		books:      newList("Library"),
		mine:       newList("My Lists"),
		members:    newList("Reading List"),
		picker:     newList("Add to List"),
		admin:      newList("All Reading Lists"),
		input:      textinput.New(),
		password:   textinput.New(),
		changes:    make(chan library.Change, 64),
		help:       help.New(),
		keys:       newKeyMap(),
	}
	if m.store.Mode() == library.ModeFavorites {
		m.mine.Title = "My Favorites"
	}
	m.password.EchoMode = textinput.EchoPassword
	m.password.Placeholder = "password"

	m.store.Subscribe(func(c library.Change) {
		select {
		case m.changes <- c:
		default:
		}
	})
	return m
}

// Init restores the remembered session, which also loads the catalog.
func (m *Model) Init() tea.Cmd {
	m.busy = true
	m.status = "Loading..."
	return tea.Batch(m.restore(), m.waitForChange())
}

func (m *Model) restore() tea.Cmd {
	return func() tea.Msg {
		return restoredMsg(m.bridge.RestoreSession(m.ctx))
	}
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case c := <-m.changes:
			return storeChangedMsg(c)
		case <-m.ctx.Done():
			return nil
		}
	}
}

// run executes fn off the event loop and reports back with [MsgActionDone].
func (m *Model) run(label string, next Screen, fn func(ctx context.Context) error) tea.Cmd {
	m.busy = true
	m.status = label + "..."
	m.statusErr = false
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg(label, fn(ctx), next)
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.books, &m.mine, &m.members, &m.picker, &m.admin} {
			l.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		if m.confirm != "" {
			return m.handleConfirmKeys(msg)
		}
		if m.mode != inputNone {
			return m.handleInputKeys(msg)
		}
		return m.handleKeys(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgStoreChanged:
		m.refresh()
		return m, m.waitForChange()

	case MsgRestored:
		m.busy = false
		m.setStatus("Ready", msg.err())
		m.refresh()

	case MsgActionDone:
		res := msg.data.(actionResult)
		m.busy = false
		if res.err != nil {
			m.setStatus(res.label+" failed", res.err)
		} else {
			m.setStatus(res.label, nil)
			switch res.next {
			case stay:
			case previous:
				m.back()
			default:
				m.push(res.next)
			}
		}
		m.refresh()

	case MsgChatReply:
		m.busy = false
		m.setStatus("", msg.err())

	case MsgLoggedIn:
		m.busy = false
		if err := msg.err(); err != nil {
			m.setStatus("Sign in failed", err)
			return m, nil
		}
		m.password.SetValue("")
		m.mode = inputNone
		m.history = nil
		m.screen = LibraryScreen
		m.setStatus("Signed in as "+m.store.Session().Username, nil)
		m.refresh()
	}
	return m, nil
}

func (m *Model) setStatus(s string, err error) {
	if err != nil {
		m.status = fmt.Sprintf("%s: %v", strings.TrimSuffix(s, ":"), err)
		if s == "" {
			m.status = err.Error()
		}
		m.statusErr = true
		return
	}
	m.status = s
	m.statusErr = false
}

// push switches to s, remembering where to go back to.
func (m *Model) push(s Screen) {
	if s == m.screen {
		return
	}
	m.history = append(m.history, m.screen)
	m.screen = s
}

func (m *Model) back() {
	if n := len(m.history); n > 0 {
		m.screen = m.history[n-1]
		m.history = m.history[:n-1]
		return
	}
	m.screen = LibraryScreen
}

// refresh re-renders every list from the current snapshot.
func (m *Model) refresh() {
	snap := m.store.Snapshot()

	lib := view.RenderLibrary(snap, m.filter)
	m.books.SetItems(bookItems(lib.Cards))
	m.books.Title = libraryTitle(lib, m.filter)

	if snap.Mode == library.ModeFavorites {
		m.mine.SetItems(bookItems(view.RenderFavorites(snap).Cards))
	} else {
		cols := view.RenderCollections(snap)
		items := make([]list.Item, len(cols.Cards))
		for i, c := range cols.Cards {
			items[i] = collectionItem{card: c}
		}
		m.mine.SetItems(items)
	}

	if m.listID != "" {
		detail := view.RenderCollectionDetail(snap, m.listID)
		items := make([]list.Item, len(detail.Books))
		for i, b := range detail.Books {
			items[i] = bookItem{card: view.BookCard{Book: b, Status: b.Status.OrDefault()}}
		}
		m.members.SetItems(items)
		if detail.Found {
			m.members.Title = detail.Collection.Name
		}
	}

	if m.bookID != "" {
		pick := view.RenderFolderPicker(snap, m.bookID)
		items := make([]list.Item, len(pick.Options))
		for i, o := range pick.Options {
			items[i] = pickerItem{option: o}
		}
		m.picker.SetItems(items)
	}

	dash := view.RenderAdminDashboard(snap)
	rows := make([]list.Item, len(dash.Lists))
	for i, r := range dash.Lists {
		rows[i] = adminItem{row: r}
	}
	m.admin.SetItems(rows)
}

func bookItems(cards []view.BookCard) []list.Item {
	items := make([]list.Item, len(cards))
	for i, c := range cards {
		items[i] = bookItem{card: c}
	}
	return items
}

func libraryTitle(v view.LibraryView, f view.Filter) string {
	title := fmt.Sprintf("Library (%d/%d)", len(v.Cards), v.Total)
	var parts []string
	if f.Search != "" {
		parts = append(parts, fmt.Sprintf("%q", f.Search))
	}
	if f.Genre != "" {
		parts = append(parts, f.Genre)
	}
	if f.Status != "" {
		parts = append(parts, string(f.Status))
	}
	if len(parts) > 0 {
		title += " • " + strings.Join(parts, " • ")
	}
	return title
}

func (m *Model) selectedCard(l list.Model) (view.BookCard, bool) {
	if it, ok := l.SelectedItem().(bookItem); ok {
		return it.card, true
	}
	return view.BookCard{}, false
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		cmd := m.confirmCmd
		m.confirm, m.confirmCmd = "", nil
		return m, cmd
	case "n", "esc", "q":
		m.confirm, m.confirmCmd = "", nil
		m.busy = false
		m.setStatus("Cancelled", nil)
	}
	return m, nil
}

func (m *Model) ask(question string, cmd tea.Cmd) {
	m.confirm = question
	m.confirmCmd = cmd
}

func (m *Model) openInput(mode inputMode, placeholder string) tea.Cmd {
	m.mode = mode
	m.input.SetValue("")
	m.input.Placeholder = placeholder
	if mode == inputSearch {
		m.input.SetValue(m.filter.Search)
	}
	return m.input.Focus()
}

func (m *Model) closeInput() {
	m.mode = inputNone
	m.input.Blur()
	m.password.Blur()
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.closeInput()
		if m.screen == ChatScreen || m.screen == LoginScreen {
			m.back()
		}
		return m, nil
	case "tab":
		if m.mode == inputLogin {
			m.loginField = 1 - m.loginField
			if m.loginField == 0 {
				m.password.Blur()
				return m, m.input.Focus()
			}
			m.input.Blur()
			return m, m.password.Focus()
		}
	case "enter":
		return m.submitInput()
	}

	var cmd tea.Cmd
	if m.mode == inputLogin && m.loginField == 1 {
		m.password, cmd = m.password.Update(msg)
		return m, cmd
	}
	m.input, cmd = m.input.Update(msg)
	if m.mode == inputSearch {
		m.filter.Search = strings.TrimSpace(m.input.Value())
		m.refresh()
	}
	return m, cmd
}

func (m *Model) submitInput() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())

	switch m.mode {
	case inputSearch:
		m.filter.Search = value
		m.closeInput()
		m.refresh()
		return m, nil

	case inputNewList:
		m.closeInput()
		return m, m.run("List created", stay, func(ctx context.Context) error {
			return m.dispatcher.CreateCollection(ctx, value, "")
		})

	case inputChat:
		m.input.SetValue("")
		m.busy = true
		return m, func() tea.Msg {
			_, err := m.dispatcher.Chat(m.ctx, value)
			return chatReplyMsg(err)
		}

	case inputLogin:
		if m.loginField == 0 {
			m.loginField = 1
			m.input.Blur()
			return m, m.password.Focus()
		}
		password := m.password.Value()
		m.busy = true
		m.status = "Signing in..."
		return m, func() tea.Msg {
			return loggedInMsg(m.bridge.Login(m.ctx, value, password))
		}
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.store.Snapshot()

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.back()
		return m, nil
	case "l", "v":
		if snap.Mode == library.ModeFavorites {
			m.push(FavoritesScreen)
			return m, m.run("Favorites loaded", stay, m.dispatcher.LoadFavorites)
		}
		m.push(CollectionsScreen)
		return m, m.run("Lists loaded", stay, m.dispatcher.LoadCollections)
	case "A":
		return m, m.run("Dashboard loaded", AdminScreen, m.dispatcher.LoadAdminDashboard)
	case "c":
		m.push(ChatScreen)
		return m, m.openInput(inputChat, "Ask about books...")
	case "L":
		if snap.Session.SignedIn() {
			return m, m.run("Signed out", LibraryScreen, func(ctx context.Context) error {
				m.bridge.Logout(ctx)
				return nil
			})
		}
		m.push(LoginScreen)
		m.loginField = 0
		return m, m.openInput(inputLogin, "username")
	case "r":
		return m, m.run("Catalog reloaded", stay, m.dispatcher.LoadCatalog)
	}

	switch m.screen {
	case LibraryScreen:
		return m.handleLibraryKeys(msg, snap)
	case DetailScreen:
		return m.handleDetailKeys(msg, snap)
	case FavoritesScreen:
		return m.handleFavoritesKeys(msg, snap)
	case CollectionsScreen:
		return m.handleCollectionsKeys(msg)
	case CollectionScreen:
		return m.handleCollectionKeys(msg, snap)
	case PickerScreen:
		return m.handlePickerKeys(msg)
	case AdminScreen:
		return m.handleAdminKeys(msg)
	}
	return m.updateList(msg)
}

func (m *Model) handleLibraryKeys(msg tea.KeyMsg, snap library.Snapshot) (tea.Model, tea.Cmd) {
	card, hasCard := m.selectedCard(m.books)

	switch msg.String() {
	case "/":
		return m, m.openInput(inputSearch, "title, author or ISBN")
	case "g":
		m.filter.Genre = cycle(view.Genres(snap.Books), m.filter.Genre)
		m.refresh()
		return m, nil
	case "s":
		statuses := []string{string(models.StatusAvailable), string(models.StatusLoaned)}
		m.filter.Status = models.BookStatus(cycle(statuses, string(m.filter.Status)))
		m.refresh()
		return m, nil
	case "enter":
		if hasCard {
			m.bookID = card.Book.ID
			m.push(DetailScreen)
		}
		return m, nil
	}

	if hasCard {
		if cmd, ok := m.bookAction(msg.String(), card.Book, snap); ok {
			return m, cmd
		}
	}
	return m.updateList(msg)
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg, snap library.Snapshot) (tea.Model, tea.Cmd) {
	b, ok := snap.Book(m.bookID)
	if !ok {
		return m, nil
	}
	if cmd, ok := m.bookAction(msg.String(), b, snap); ok {
		return m, cmd
	}
	return m, nil
}

// bookAction handles the keys shared by the library and detail screens, gated by the
// detail view's offered actions.
func (m *Model) bookAction(key string, b models.Book, snap library.Snapshot) (tea.Cmd, bool) {
	detail := view.RenderBookDetail(snap, b.ID)

	switch key {
	case "f":
		if !detail.Has(view.ActionFavorite) && !detail.Has(view.ActionUnfavorite) {
			return nil, false
		}
		return m.run("Favorite updated", stay, func(ctx context.Context) error {
			_, err := m.dispatcher.ToggleFavorite(ctx, b.ID)
			return err
		}), true
	case "b":
		if !detail.Has(view.ActionBookmark) {
			return nil, false
		}
		m.bookID = b.ID
		m.picker.Title = "Add “" + b.Title + "” to..."
		return m.run("Lists loaded", PickerScreen, func(ctx context.Context) error {
			return m.dispatcher.OpenFolderPicker(ctx, b.ID)
		}), true
	case "D":
		if !detail.Has(view.ActionDelete) {
			return nil, false
		}
		m.ask(fmt.Sprintf("Delete “%s”?", b.Title), m.run("Book deleted", stay, func(ctx context.Context) error {
			return m.dispatcher.DeleteBook(ctx, b.ID)
		}))
		return nil, true
	}
	return nil, false
}

func (m *Model) handleFavoritesKeys(msg tea.KeyMsg, snap library.Snapshot) (tea.Model, tea.Cmd) {
	card, ok := m.selectedCard(m.mine)
	if ok {
		switch msg.String() {
		case "enter":
			m.bookID = card.Book.ID
			m.push(DetailScreen)
			return m, nil
		}
		if cmd, handled := m.bookAction(msg.String(), card.Book, snap); handled {
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.mine, cmd = m.mine.Update(msg)
	return m, cmd
}

func (m *Model) handleCollectionsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "n":
		return m, m.openInput(inputNewList, "list name")
	case "enter":
		if it, ok := m.mine.SelectedItem().(collectionItem); ok {
			return m, m.openCollection(it.card.Collection.ID)
		}
	case "D":
		if it, ok := m.mine.SelectedItem().(collectionItem); ok {
			m.askDeleteList(it.card.Collection, stay)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.mine, cmd = m.mine.Update(msg)
	return m, cmd
}

func (m *Model) openCollection(id models.ID) tea.Cmd {
	m.listID = id
	return m.run("List opened", CollectionScreen, func(ctx context.Context) error {
		return m.dispatcher.OpenCollection(ctx, id)
	})
}

func (m *Model) askDeleteList(c models.Collection, next Screen) {
	if !m.store.Session().CanManage(c.UserID) {
		m.setStatus("", fmt.Errorf("only the owner or the administrator can delete %q", c.Name))
		return
	}
	m.ask(fmt.Sprintf("Delete list “%s”?", c.Name), m.run("List deleted", next, func(ctx context.Context) error {
		return m.dispatcher.DeleteCollection(ctx, c.ID)
	}))
}

func (m *Model) handleCollectionKeys(msg tea.KeyMsg, snap library.Snapshot) (tea.Model, tea.Cmd) {
	detail := view.RenderCollectionDetail(snap, m.listID)

	switch msg.String() {
	case "enter":
		if card, ok := m.selectedCard(m.members); ok {
			m.bookID = card.Book.ID
			m.push(DetailScreen)
		}
		return m, nil
	case "x":
		card, ok := m.selectedCard(m.members)
		if !ok || !detail.CanManage {
			return m, nil
		}
		listID := m.listID
		return m, m.run("Removed from list", stay, func(ctx context.Context) error {
			return m.dispatcher.RemoveFromCollection(ctx, listID, card.Book.ID)
		})
	case "D":
		if detail.Found {
			m.askDeleteList(detail.Collection, previous)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.members, cmd = m.members.Update(msg)
	return m, cmd
}

func (m *Model) handlePickerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", " ":
		it, ok := m.picker.SelectedItem().(pickerItem)
		if !ok {
			return m, nil
		}
		listID, bookID, added := it.option.Collection.ID, m.bookID, it.option.Added
		label := "Added to " + it.option.Collection.Name
		if added {
			label = "Removed from " + it.option.Collection.Name
		}
		return m, m.run(label, stay, func(ctx context.Context) error {
			return m.dispatcher.ToggleBookInFolder(ctx, listID, bookID, added)
		})
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m *Model) handleAdminKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	it, ok := m.admin.SelectedItem().(adminItem)
	switch msg.String() {
	case "enter":
		if ok {
			return m, m.openCollection(it.row.Collection.ID)
		}
	case "D":
		if ok {
			m.askDeleteList(it.row.Collection, stay)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.admin, cmd = m.admin.Update(msg)
	return m, cmd
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.screen {
	case LibraryScreen:
		m.books, cmd = m.books.Update(msg)
	case FavoritesScreen, CollectionsScreen:
		m.mine, cmd = m.mine.Update(msg)
	case CollectionScreen:
		m.members, cmd = m.members.Update(msg)
	case PickerScreen:
		m.picker, cmd = m.picker.Update(msg)
	case AdminScreen:
		m.admin, cmd = m.admin.Update(msg)
	}
	return m, cmd
}

// cycle returns the value after cur in values, wrapping through "" (no filter).
func cycle(values []string, cur string) string {
	if cur == "" {
		if len(values) == 0 {
			return ""
		}
		return values[0]
	}
	i := slices.Index(values, cur)
	if i < 0 || i == len(values)-1 {
		return ""
	}
	return values[i+1]
}
