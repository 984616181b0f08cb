package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/utafrali/PizzaGo/internal/cartsync"
	"github.com/utafrali/PizzaGo/internal/notify"
)

type snapshotMsg cartsync.Snapshot

type notificationsMsg []notify.Notification

type loginRequiredMsg string

// latest is a one-slot mailbox: a new value replaces an unread one, so a slow
// UI only ever sees the newest state.
type latest[T any] chan T

func newLatest[T any]() latest[T] {
	return make(latest[T], 1)
}

func (l latest[T]) offer(v T) {
	for {
		select {
		case l <- v:
			return
		default:
		}
		select {
		case <-l:
		default:
		}
	}
}

// wait returns a command that delivers the next value as a message.
func wait[T any](l latest[T], wrap func(T) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return wrap(<-l)
	}
}

// Navigator implements cartsync.Navigator for the TUI: the redirect ends the
// program and the login URL is printed after the terminal is restored.
type Navigator struct {
	ch latest[string]
}

// NewNavigator creates a Navigator.
func NewNavigator() *Navigator {
	return &Navigator{ch: newLatest[string]()}
}

// RedirectToLogin implements cartsync.Navigator.
func (n *Navigator) RedirectToLogin(loginURL string) {
	n.ch.offer(loginURL)
}
