package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/libris/internal/library"
	"github.com/desertthunder/libris/internal/view"
)

// View renders the current screen.
func (m *Model) View() string {
	var b strings.Builder
	snap := m.store.Snapshot()

	b.WriteString(m.header(snap))
	b.WriteString("\n")

	switch m.screen {
	case LibraryScreen:
		b.WriteString(m.libraryView(snap))
	case DetailScreen:
		b.WriteString(m.detailView(snap))
	case FavoritesScreen:
		v := view.RenderFavorites(snap)
		b.WriteString(listOrPlaceholder(m.mine, v.State, v.Placeholder))
	case CollectionsScreen:
		v := view.RenderCollections(snap)
		b.WriteString(listOrPlaceholder(m.mine, v.State, v.Placeholder))
	case CollectionScreen:
		b.WriteString(m.collectionView(snap))
	case PickerScreen:
		v := view.RenderFolderPicker(snap, m.bookID)
		b.WriteString(listOrPlaceholder(m.picker, v.State, v.Placeholder))
	case AdminScreen:
		b.WriteString(m.adminView(snap))
	case ChatScreen:
		b.WriteString(m.chatView())
	case LoginScreen:
		b.WriteString(m.loginView())
	}

	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m *Model) header(snap library.Snapshot) string {
	who := "anonymous"
	if snap.Session.HasUser() {
		who = snap.Session.Username
		if snap.Session.IsAdmin {
			who += " (admin)"
		}
	}
	return styles.title.Render("Libris") + "  " + styles.muted.Render(fmt.Sprintf("%s • %s mode", who, snap.Mode))
}

func (m *Model) footer() string {
	var b strings.Builder
	switch {
	case m.confirm != "":
		b.WriteString(styles.warn.Render(m.confirm + " (y/n)"))
	case m.statusErr:
		b.WriteString(styles.err.Render(m.status))
	case m.status != "":
		b.WriteString(styles.ok.Render(m.status))
	}
	if m.mode == inputSearch || m.mode == inputNewList {
		b.WriteString("\n" + m.input.View())
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func listOrPlaceholder(l list.Model, state view.State, placeholder string) string {
	if state != view.StateReady {
		return styles.help.Render(placeholder) + "\n"
	}
	return l.View()
}

func (m *Model) libraryView(snap library.Snapshot) string {
	v := view.RenderLibrary(snap, m.filter)
	out := listOrPlaceholder(m.books, v.State, v.Placeholder)
	if v.State != view.StateReady {
		out = styles.selected.Render(m.books.Title) + "\n\n" + out
	}
	return out
}

func (m *Model) detailView(snap library.Snapshot) string {
	v := view.RenderBookDetail(snap, m.bookID)
	if !v.Found {
		return styles.help.Render("Book not found.") + "\n"
	}

	var b strings.Builder
	b.WriteString(styles.selected.Render(v.Book.Title) + "\n")
	b.WriteString("by " + v.Book.Author + "\n\n")

	fmt.Fprintf(&b, "Genre:     %s\n", v.Genre)
	fmt.Fprintf(&b, "Status:    %s\n", styles.Status(v.Status))
	if v.Book.ISBN != "" {
		fmt.Fprintf(&b, "ISBN:      %s\n", v.Book.ISBN)
	}
	if v.Book.PublishedYear != 0 {
		fmt.Fprintf(&b, "Published: %d\n", v.Book.PublishedYear)
	}
	if v.Book.Description != "" {
		b.WriteString("\n" + v.Book.Description + "\n")
	}

	b.WriteString("\n")
	if v.Notice != "" {
		b.WriteString(styles.help.Render(v.Notice) + "\n")
		return b.String()
	}
	labels := make([]string, 0, len(v.Actions))
	for _, a := range v.Actions {
		labels = append(labels, actionLabel(a))
	}
	b.WriteString(styles.muted.Render(strings.Join(labels, "  ")) + "\n")
	return b.String()
}

func actionLabel(a view.Action) string {
	switch a {
	case view.ActionEdit:
		return "edit (cli)"
	case view.ActionDelete:
		return "[D] delete"
	case view.ActionFavorite:
		return "[f] favorite"
	case view.ActionUnfavorite:
		return "[f] unfavorite"
	case view.ActionBookmark:
		return "[b] add to list"
	}
	return string(a)
}

func (m *Model) collectionView(snap library.Snapshot) string {
	v := view.RenderCollectionDetail(snap, m.listID)
	if !v.Found {
		return styles.help.Render(v.Placeholder) + "\n"
	}

	var b strings.Builder
	sub := fmt.Sprintf("%d books • by %s", v.BookCount, v.Owner)
	if v.Collection.Description != "" {
		sub += " • " + v.Collection.Description
	}
	b.WriteString(styles.muted.Render(sub) + "\n")
	if v.State != view.StateReady {
		b.WriteString(styles.selected.Render(v.Collection.Name) + "\n\n")
		b.WriteString(styles.help.Render(v.Placeholder) + "\n")
	} else {
		b.WriteString(m.members.View())
	}
	if v.CanManage {
		b.WriteString("\n" + styles.muted.Render("[x] remove book  [D] delete list") + "\n")
	}
	return b.String()
}

func (m *Model) adminView(snap library.Snapshot) string {
	v := view.RenderAdminDashboard(snap)
	if !v.Authorized {
		return styles.err.Render("Administrator access required.") + "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Books: %d   Reading lists: %d   Users: %d\n\n", v.TotalBooks, v.TotalLists, len(v.Users))
	switch v.State {
	case view.StateLoading:
		b.WriteString(styles.help.Render("Loading reading lists...") + "\n")
	case view.StateEmpty:
		b.WriteString(styles.help.Render("No reading lists yet.") + "\n")
	default:
		b.WriteString(m.admin.View())
	}
	return b.String()
}

func (m *Model) chatView() string {
	v := view.RenderChat(m.dispatcher.Transcript().Lines())

	var b strings.Builder
	b.WriteString(styles.selected.Render("Library Assistant") + "\n\n")
	if v.Empty {
		b.WriteString(styles.help.Render(v.Hint) + "\n")
	}
	for _, bubble := range v.Bubbles {
		label := styles.muted.Render(fmt.Sprintf("%s %s", bubble.Time, bubble.Label))
		fmt.Fprintf(&b, "%s\n%s\n\n", label, styles.Speaker(bubble.Text, bubble.Mine, bubble.Failed))
	}
	if m.busy {
		b.WriteString(styles.help.Render("Assistant is typing...") + "\n")
	}
	b.WriteString(m.input.View() + "\n")
	return b.String()
}

func (m *Model) loginView() string {
	var b strings.Builder
	b.WriteString(styles.selected.Render("Sign in") + "\n\n")
	b.WriteString("Username: " + m.input.View() + "\n")
	b.WriteString("Password: " + m.password.View() + "\n\n")
	b.WriteString(styles.help.Render("tab switches fields • enter submits • esc cancels") + "\n")
	return b.String()
}
