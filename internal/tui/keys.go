package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap binds keys to actions.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PrevCat  key.Binding
	NextCat  key.Binding
	Add      key.Binding
	Inc      key.Binding
	Dec      key.Binding
	Remove   key.Binding
	Clear    key.Binding
	Checkout key.Binding
	Switch   key.Binding
	Refresh  key.Binding
	Quit     key.Binding

	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding
	Cancel    key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PrevCat:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev category")),
		NextCat:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next category")),
		Add:      key.NewBinding(key.WithKeys("enter", "a"), key.WithHelp("enter/a", "add to cart")),
		Inc:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "more")),
		Dec:      key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "less")),
		Remove:   key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "remove")),
		Clear:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		Checkout: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "checkout")),
		Switch:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "menu/cart")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "next/place order")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	}
}

type catalogHelp KeyMap

func (k catalogHelp) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.PrevCat, k.NextCat, k.Add, k.Switch, k.Refresh, k.Quit}
}

func (k catalogHelp) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

type cartHelp KeyMap

func (k cartHelp) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Inc, k.Dec, k.Remove, k.Clear, k.Checkout, k.Switch, k.Quit}
}

func (k cartHelp) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

type formHelp KeyMap

func (k formHelp) ShortHelp() []key.Binding {
	return []key.Binding{k.NextField, k.PrevField, k.Submit, k.Cancel}
}

func (k formHelp) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }
