// Package tui is the interactive terminal storefront. The model keeps the
// latest cart snapshot and notifications; View renders from the model only.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/utafrali/PizzaGo/internal/cartsync"
	"github.com/utafrali/PizzaGo/internal/domain"
	"github.com/utafrali/PizzaGo/internal/notify"
	apperrors "github.com/utafrali/PizzaGo/pkg/errors"
)

// CartActions are the cart operations the views trigger.
type CartActions interface {
	Load(ctx context.Context) error
	FetchCart(ctx context.Context) (domain.Cart, error)
	AddItem(ctx context.Context, productID, quantity int) error
	UpdateQuantity(ctx context.Context, itemID, quantity int) error
	RemoveItem(ctx context.Context, itemID int) error
	ClearCart(ctx context.Context) error
	Checkout(ctx context.Context, form domain.CheckoutForm) (domain.OrderConfirmation, error)
}

// CartState is the observable cart store.
type CartState interface {
	Snapshot() cartsync.Snapshot
	Subscribe(fn cartsync.Listener) func()
}

// Notifications is the observable notification list.
type Notifications interface {
	Active() []notify.Notification
	Subscribe(fn notify.Listener) func()
}

// Catalog provides the menu.
type Catalog interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	ByCategory(ctx context.Context, slug string) ([]domain.Product, error)
	Products(ctx context.Context) ([]domain.Product, error)
}

// Deps are the collaborators of the model.
type Deps struct {
	Cart          CartActions
	State         CartState
	Notifications Notifications
	Catalog       Catalog
	Navigator     *Navigator
}

type page int

const (
	pageCatalog page = iota
	pageCart
	pageCheckout
)

const (
	fieldAddress = iota
	fieldPhone
	fieldComment
	fieldPromo
	fieldCount
)

type menuLoadedMsg struct {
	categories []domain.Category
	category   string
	products   []domain.Product
	err        error
}

type actionDoneMsg struct{ err error }

type checkoutDoneMsg struct {
	conf domain.OrderConfirmation
	err  error
}

// Model is the bubbletea model of the storefront.
type Model struct {
	ctx  context.Context
	deps Deps

	keys    KeyMap
	styles  Styles
	help    help.Model
	spinner spinner.Model
	inputs  []textinput.Model
	focus   int

	page       page
	categories []domain.Category
	category   string
	products   []domain.Product
	menuErr    error
	menuBusy   bool
	cursor     int
	cartCursor int
	submitting bool

	snap  cartsync.Snapshot
	notes []notify.Notification

	snaps    latest[cartsync.Snapshot]
	noteCh   latest[[]notify.Notification]
	unsubs   []func()
	loginURL string
	width    int
}

// New creates the model and subscribes it to the cart store and the
// notifier. Close releases the subscriptions.
func New(ctx context.Context, deps Deps) *Model {
	if deps.Navigator == nil {
		deps.Navigator = NewNavigator()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		ctx:      ctx,
		deps:     deps,
		keys:     DefaultKeyMap(),
		styles:   DefaultStyles(),
		help:     help.New(),
		spinner:  sp,
		inputs:   newCheckoutInputs(),
		category: domain.DefaultCategory,
		snap:     deps.State.Snapshot(),
		notes:    deps.Notifications.Active(),
		snaps:    newLatest[cartsync.Snapshot](),
		noteCh:   newLatest[[]notify.Notification](),
	}
	m.spinner.Style = m.styles.Selected
	m.unsubs = append(m.unsubs,
		deps.State.Subscribe(m.snaps.offer),
		deps.Notifications.Subscribe(m.noteCh.offer),
	)
	return m
}

func newCheckoutInputs() []textinput.Model {
	inputs := make([]textinput.Model, fieldCount)
	placeholders := [fieldCount]string{
		fieldAddress: "Street, house, apartment",
		fieldPhone:   "+7 900 000-00-00",
		fieldComment: "Leave at the door",
		fieldPromo:   "Promo code",
	}
	limits := [fieldCount]int{fieldAddress: 500, fieldPhone: 20, fieldComment: 1000, fieldPromo: 50}
	for i := range inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = limits[i]
		ti.Width = 48
		ti.Prompt = "│ "
		inputs[i] = ti
	}
	return inputs
}

// Close drops the store and notifier subscriptions.
func (m *Model) Close() {
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.unsubs = nil
}

// LoginURL is set when the program ended because the user must log in.
func (m *Model) LoginURL() string {
	return m.loginURL
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	m.menuBusy = true
	return tea.Batch(
		m.spinner.Tick,
		m.loadMenu(m.category),
		m.act(m.deps.Cart.Load),
		m.listenSnapshots(),
		m.listenNotifications(),
		m.listenLogin(),
	)
}

func (m *Model) listenSnapshots() tea.Cmd {
	return wait(m.snaps, func(s cartsync.Snapshot) tea.Msg { return snapshotMsg(s) })
}

func (m *Model) listenNotifications() tea.Cmd {
	return wait(m.noteCh, func(n []notify.Notification) tea.Msg { return notificationsMsg(n) })
}

func (m *Model) listenLogin() tea.Cmd {
	return wait(m.deps.Navigator.ch, func(u string) tea.Msg { return loginRequiredMsg(u) })
}

// act runs a cart operation off the UI goroutine. The resulting state
// arrives through the store subscription.
func (m *Model) act(fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{err: fn(ctx)}
	}
}

func (m *Model) loadMenu(slug string) tea.Cmd {
	ctx, catalog := m.ctx, m.deps.Catalog
	return func() tea.Msg {
		msg := menuLoadedMsg{category: slug}
		categories, err := catalog.Categories(ctx)
		if err == nil {
			msg.categories = categories
		}
		msg.products, msg.err = catalog.ByCategory(ctx, slug)
		if errors.Is(msg.err, apperrors.ErrUnsupported) || (msg.err == nil && len(categories) == 0 && len(msg.products) == 0) {
			msg.category = ""
			msg.products, msg.err = catalog.Products(ctx)
		}
		return msg
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case snapshotMsg:
		m.snap = cartsync.Snapshot(msg)
		m.cartCursor = clamp(m.cartCursor, len(m.snap.Cart.Items))
		return m, m.listenSnapshots()

	case notificationsMsg:
		m.notes = []notify.Notification(msg)
		return m, m.listenNotifications()

	case loginRequiredMsg:
		m.loginURL = string(msg)
		return m, tea.Quit

	case menuLoadedMsg:
		m.menuBusy = false
		m.menuErr = msg.err
		if msg.categories != nil {
			m.categories = msg.categories
		}
		m.category = msg.category
		if msg.err == nil {
			m.products = msg.products
		}
		m.cursor = clamp(m.cursor, len(m.products))
		return m, nil

	case actionDoneMsg:
		return m, nil

	case checkoutDoneMsg:
		m.submitting = false
		if msg.err == nil {
			m.inputs = newCheckoutInputs()
			m.focus = 0
			m.page = pageCart
		}
		return m, nil

	case tea.KeyMsg:
		if m.page == pageCheckout {
			return m.updateForm(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Switch):
		if m.page == pageCatalog {
			m.page = pageCart
		} else {
			m.page = pageCatalog
		}
		return m, nil
	}

	if m.page == pageCatalog {
		return m.updateCatalog(msg)
	}
	return m.updateCart(msg)
}

func (m *Model) updateCatalog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = clamp(m.cursor-1, len(m.products))
	case key.Matches(msg, m.keys.Down):
		m.cursor = clamp(m.cursor+1, len(m.products))
	case key.Matches(msg, m.keys.PrevCat), key.Matches(msg, m.keys.NextCat):
		if len(m.categories) == 0 {
			return m, nil
		}
		step := 1
		if key.Matches(msg, m.keys.PrevCat) {
			step = -1
		}
		next := m.categories[cycle(m.categoryIndex()+step, len(m.categories))].Slug
		m.menuBusy = true
		m.cursor = 0
		return m, m.loadMenu(next)
	case key.Matches(msg, m.keys.Add):
		if len(m.products) == 0 {
			return m, nil
		}
		id := m.products[m.cursor].ID
		return m, m.act(func(ctx context.Context) error {
			return m.deps.Cart.AddItem(ctx, id, 1)
		})
	case key.Matches(msg, m.keys.Refresh):
		m.menuBusy = true
		return m, m.loadMenu(m.category)
	}
	return m, nil
}

func (m *Model) updateCart(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.snap.Cart.Items
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cartCursor = clamp(m.cartCursor-1, len(items))
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.cartCursor = clamp(m.cartCursor+1, len(items))
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, m.act(func(ctx context.Context) error {
			_, err := m.deps.Cart.FetchCart(ctx)
			return err
		})
	case key.Matches(msg, m.keys.Clear):
		return m, m.act(m.deps.Cart.ClearCart)
	case key.Matches(msg, m.keys.Checkout):
		if len(items) == 0 {
			return m, nil
		}
		m.page = pageCheckout
		m.focus = 0
		return m, m.focusField(0)
	}

	if len(items) == 0 {
		return m, nil
	}
	item := items[m.cartCursor]
	switch {
	case key.Matches(msg, m.keys.Inc):
		return m, m.act(func(ctx context.Context) error {
			return m.deps.Cart.UpdateQuantity(ctx, item.ID, item.Quantity+1)
		})
	case key.Matches(msg, m.keys.Dec):
		return m, m.act(func(ctx context.Context) error {
			return m.deps.Cart.UpdateQuantity(ctx, item.ID, item.Quantity-1)
		})
	case key.Matches(msg, m.keys.Remove):
		return m, m.act(func(ctx context.Context) error {
			return m.deps.Cart.RemoveItem(ctx, item.ID)
		})
	}
	return m, nil
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Cancel):
		m.page = pageCart
		m.inputs[m.focus].Blur()
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		return m, m.focusField(m.focus + 1)
	case key.Matches(msg, m.keys.PrevField):
		return m, m.focusField(m.focus - 1)
	case key.Matches(msg, m.keys.Submit):
		if m.focus < fieldCount-1 {
			return m, m.focusField(m.focus + 1)
		}
		if m.submitting {
			return m, nil
		}
		m.submitting = true
		form := m.Form()
		ctx, cart := m.ctx, m.deps.Cart
		return m, func() tea.Msg {
			conf, err := cart.Checkout(ctx, form)
			return checkoutDoneMsg{conf: conf, err: err}
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) focusField(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = cycle(i, fieldCount)
	return m.inputs[m.focus].Focus()
}

// Form returns the checkout form as currently typed.
func (m *Model) Form() domain.CheckoutForm {
	return domain.CheckoutForm{
		Address:   m.inputs[fieldAddress].Value(),
		Phone:     m.inputs[fieldPhone].Value(),
		Comment:   m.inputs[fieldComment].Value(),
		PromoCode: m.inputs[fieldPromo].Value(),
	}
}

func (m *Model) categoryIndex() int {
	for i, c := range m.categories {
		if c.Slug == m.category {
			return i
		}
	}
	return 0
}

func clamp(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func cycle(i, n int) int {
	if n <= 0 {
		return 0
	}
	return ((i % n) + n) % n
}
