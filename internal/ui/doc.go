// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI mirrors the catalog client's pages:
//  1. [LibraryScreen] : Browse and search the catalog
//  2. [DetailScreen] : One book with the actions the session allows
//  3. [FavoritesScreen] / [CollectionsScreen] : The user's membership, by mode
//  4. [CollectionScreen] / [PickerScreen] : A reading list, and the add-to-list picker
//  5. [AdminScreen] : Totals and every user's lists
//  6. [ChatScreen] : The library assistant
//  7. [LoginScreen] : Sign in without leaving the TUI
//
// Screens render [view] descriptions of a [library.Snapshot]; they never decide
// capabilities themselves. Network work runs in [tea.Cmd] goroutines through the
// [actions.Dispatcher] and [auth.Bridge], and store changes arrive back as messages from a
// subscription channel.
//
// Keyboard navigation uses vim-style bindings with contextual help via charmbracelet/bubbles/help.
package ui
