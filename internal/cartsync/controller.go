package cartsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/PizzaGo/internal/domain"
	"github.com/utafrali/PizzaGo/internal/notify"
	apperrors "github.com/utafrali/PizzaGo/pkg/errors"
	"github.com/utafrali/PizzaGo/pkg/logger"
	"github.com/utafrali/PizzaGo/pkg/validator"
)

// DefaultRedirectDelay is how long the login notification stays on screen
// before the user is sent to the login page.
const DefaultRedirectDelay = 1200 * time.Millisecond

// User-facing notification texts.
const (
	MsgAdded           = "Pizza added to cart!"
	MsgAddFailed       = "Error adding to cart"
	MsgUpdated         = "Quantity updated"
	MsgUpdateFailed    = "Error updating quantity"
	MsgRemoved         = "Item removed from cart"
	MsgRemoveFailed    = "Error removing item"
	MsgCleared         = "Cart cleared"
	MsgClearFailed     = "Error clearing cart"
	MsgOrderFailed     = "Error creating order"
	MsgCartEmpty       = "Your cart is empty"
	MsgLoginRequired   = "Please log in to use the cart"
	msgOrderPlaced     = "Order #%s placed! Thank you for your purchase!"
	msgOrderPlacedAnon = "Order placed! Thank you for your purchase!"
)

// CartAPI is the remote cart the controller synchronizes with.
type CartAPI interface {
	Cart(ctx context.Context) (domain.Cart, error)
	AddItem(ctx context.Context, productID, quantity int) error
	UpdateQuantity(ctx context.Context, itemID, quantity int) error
	RemoveItem(ctx context.Context, itemID int) error
	ClearCart(ctx context.Context) error
	CreateOrder(ctx context.Context, cart domain.Cart, form domain.CheckoutForm) (domain.OrderConfirmation, error)
	ClearsAfterOrder() bool
}

// Notifier shows transient messages to the user.
type Notifier interface {
	Success(message string) notify.Notification
	Error(message string) notify.Notification
}

// Navigator sends the user to another page. The CLI and the TUI implement it
// differently; the controller only schedules the call.
type Navigator interface {
	RedirectToLogin(loginURL string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(loginURL string)

// RedirectToLogin calls f.
func (f NavigatorFunc) RedirectToLogin(loginURL string) { f(loginURL) }

// Options configures a Controller.
type Options struct {
	LoginURL      string
	RedirectDelay time.Duration
}

// Controller mediates between user actions, the remote cart and the Store.
// Failures are turned into notifications and log lines and returned
// classified; the controller never panics on a backend error.
type Controller struct {
	api      CartAPI
	store    *Store
	notifier Notifier
	nav      Navigator
	logger   *slog.Logger

	loginURL      string
	redirectDelay time.Duration

	mu       sync.Mutex
	redirect *time.Timer
	closed   bool
}

// NewController creates a Controller.
func NewController(api CartAPI, store *Store, notifier Notifier, nav Navigator, opts Options, logger *slog.Logger) *Controller {
	if opts.RedirectDelay <= 0 {
		opts.RedirectDelay = DefaultRedirectDelay
	}
	return &Controller{
		api:           api,
		store:         store,
		notifier:      notifier,
		nav:           nav,
		logger:        logger,
		loginURL:      opts.LoginURL,
		redirectDelay: opts.RedirectDelay,
	}
}

// Load performs the initial fetch when a cart view is mounted.
func (c *Controller) Load(ctx context.Context) error {
	_, err := c.FetchCart(ctx)
	return err
}

// FetchCart retrieves the server-side cart and stores it. A 401/403 schedules
// the login redirect and leaves the stored cart untouched; any other failure
// is reported as FETCH_FAILED.
func (c *Controller) FetchCart(ctx context.Context) (domain.Cart, error) {
	ctx = c.operationContext(ctx, "cart.fetch")
	start := time.Now()

	cart, err := c.fetch(ctx)
	observeOperation("cart.fetch", outcomeOf(err), start)
	return cart, err
}

func (c *Controller) fetch(ctx context.Context) (domain.Cart, error) {
	log := logger.WithContext(ctx, c.logger)
	seq := c.store.beginFetch()

	cart, err := c.api.Cart(ctx)
	if err != nil {
		if apperrors.IsAuthRequired(err) {
			c.store.restore()
			c.authRequired(ctx)
			return domain.Cart{}, err
		}
		fetchErr := apperrors.FetchFailed(err)
		c.store.failFetch(seq, fetchErr)
		log.ErrorContext(ctx, "failed to fetch cart", slog.String("error", err.Error()))
		return domain.Cart{}, fetchErr
	}

	if c.store.applyFetch(seq, cart) {
		log.DebugContext(ctx, "cart synced",
			slog.Int("items", len(cart.Items)),
			slog.String("total", cart.Total.String()),
		)
	}
	return cart, nil
}

// AddItem adds quantity units of a product, then resyncs. A quantity below
// one is rejected before any request is sent.
func (c *Controller) AddItem(ctx context.Context, productID, quantity int) error {
	if quantity < 1 {
		err := apperrors.Validation(0, "", map[string][]string{
			"quantity": {"must be at least 1"},
		})
		c.notifier.Error(apperrors.UserMessage(err, MsgAddFailed))
		observeOperation("cart.add", outcomeInvalid, time.Now())
		return err
	}
	return c.mutate(ctx, "cart.add", MsgAdded, MsgAddFailed, func(ctx context.Context) error {
		return c.api.AddItem(ctx, productID, quantity)
	})
}

// UpdateQuantity sets the quantity of a cart item, then resyncs. Quantities
// below one are ignored: no request is sent and the state is unchanged.
// Removing an item is always an explicit RemoveItem.
func (c *Controller) UpdateQuantity(ctx context.Context, itemID, quantity int) error {
	if quantity < 1 {
		c.logger.Debug("ignoring quantity below one",
			slog.Int("item_id", itemID),
			slog.Int("quantity", quantity),
		)
		observeOperation("cart.update", outcomeNoop, time.Now())
		return nil
	}
	return c.mutate(ctx, "cart.update", MsgUpdated, MsgUpdateFailed, func(ctx context.Context) error {
		return c.api.UpdateQuantity(ctx, itemID, quantity)
	})
}

// RemoveItem deletes a cart item, then resyncs.
func (c *Controller) RemoveItem(ctx context.Context, itemID int) error {
	return c.mutate(ctx, "cart.remove", MsgRemoved, MsgRemoveFailed, func(ctx context.Context) error {
		return c.api.RemoveItem(ctx, itemID)
	})
}

// ClearCart empties the cart, then resyncs. On success the local cart is
// empty before the refetch starts.
func (c *Controller) ClearCart(ctx context.Context) error {
	return c.mutate(ctx, "cart.clear", MsgCleared, MsgClearFailed, func(ctx context.Context) error {
		if err := c.clearRemote(ctx); err != nil {
			return err
		}
		c.store.Reset()
		return nil
	})
}

// clearRemote uses the backend's clear endpoint, or removes every item one by
// one when the backend has none.
func (c *Controller) clearRemote(ctx context.Context) error {
	err := c.api.ClearCart(ctx)
	if !errors.Is(err, apperrors.ErrUnsupported) {
		return err
	}

	cart, err := c.api.Cart(ctx)
	if err != nil {
		return err
	}
	logger.WithContext(ctx, c.logger).DebugContext(ctx, "clearing cart item by item",
		slog.Int("items", len(cart.Items)),
	)
	for _, id := range cart.ItemIDs() {
		if err := c.api.RemoveItem(ctx, id); err != nil {
			return fmt.Errorf("remove item %d: %w", id, err)
		}
	}
	return nil
}

// Checkout validates the form and submits the current cart. On success the
// local cart is reset to empty, the server cart is cleared when the backend
// expects the client to do it, and the state is resynced.
func (c *Controller) Checkout(ctx context.Context, form domain.CheckoutForm) (domain.OrderConfirmation, error) {
	ctx = c.operationContext(ctx, "order.create")
	start := time.Now()
	log := logger.WithContext(ctx, c.logger)

	if err := validator.Validate(form); err != nil {
		var verr *validator.ValidationError
		appErr := apperrors.Validation(0, "", nil)
		if errors.As(err, &verr) {
			appErr = verr.AppError()
		}
		c.notifier.Error(apperrors.UserMessage(appErr, MsgOrderFailed))
		observeOperation("order.create", outcomeInvalid, start)
		return domain.OrderConfirmation{}, appErr
	}

	snapshot := c.store.Snapshot().Cart
	if snapshot.IsEmpty() {
		err := apperrors.Validation(0, MsgCartEmpty, nil)
		c.notifier.Error(MsgCartEmpty)
		observeOperation("order.create", outcomeInvalid, start)
		return domain.OrderConfirmation{}, err
	}

	c.store.markLoading()
	conf, err := c.api.CreateOrder(ctx, snapshot, form)
	if err != nil {
		c.fail(ctx, "order.create", MsgOrderFailed, err)
		if !apperrors.IsAuthRequired(err) {
			c.resync(ctx)
		}
		observeOperation("order.create", outcomeOf(err), start)
		return domain.OrderConfirmation{}, err
	}

	c.store.Reset()
	if c.api.ClearsAfterOrder() {
		if err := c.clearRemote(ctx); err != nil {
			log.WarnContext(ctx, "order placed but the server cart was not cleared",
				slog.String("order_id", conf.OrderID),
				slog.String("error", err.Error()),
			)
		}
	}
	c.resync(ctx)

	log.InfoContext(ctx, "order placed",
		slog.String("order_id", conf.OrderID),
		slog.String("total", conf.Total.String()),
		slog.Int("items", len(snapshot.Items)),
	)
	c.notifier.Success(orderPlacedMessage(conf.OrderID))
	observeOperation("order.create", outcomeSuccess, start)
	return conf, nil
}

func orderPlacedMessage(orderID string) string {
	if orderID == "" {
		return msgOrderPlacedAnon
	}
	return fmt.Sprintf(msgOrderPlaced, orderID)
}

// mutate runs one cart mutation followed by a resync. Auth failures skip the
// resync so the stored state is left as it was.
func (c *Controller) mutate(ctx context.Context, op, okMsg, failMsg string, fn func(context.Context) error) error {
	ctx = c.operationContext(ctx, op)
	start := time.Now()

	c.store.markLoading()
	err := fn(ctx)
	if err != nil {
		c.fail(ctx, op, failMsg, err)
		if !apperrors.IsAuthRequired(err) {
			c.resync(ctx)
		}
		observeOperation(op, outcomeOf(err), start)
		return err
	}

	c.notifier.Success(okMsg)
	c.resync(ctx)
	observeOperation(op, outcomeSuccess, start)
	return nil
}

// resync refetches the cart after a mutation. Its failure is already recorded
// in the store and logged by fetch.
func (c *Controller) resync(ctx context.Context) {
	_, _ = c.fetch(ctx)
}

// fail turns an operation error into a notification and a log line.
func (c *Controller) fail(ctx context.Context, op, failMsg string, err error) {
	log := logger.WithContext(ctx, c.logger)

	if apperrors.IsAuthRequired(err) {
		c.store.restore()
		c.authRequired(ctx)
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && (appErr.Code == apperrors.CodeValidation || appErr.Code == apperrors.CodeUnsupported) {
		log.InfoContext(ctx, "cart operation rejected",
			slog.String("code", appErr.Code),
			slog.Int("status", appErr.Status),
			slog.String("error", err.Error()),
		)
	} else {
		log.ErrorContext(ctx, "cart operation failed", slog.String("error", err.Error()))
	}
	c.notifier.Error(apperrors.UserMessage(err, failMsg))
}

// authRequired notifies the user and schedules the login redirect. At most
// one redirect is pending at any time.
func (c *Controller) authRequired(ctx context.Context) {
	c.notifier.Error(MsgLoginRequired)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.redirect != nil {
		return
	}

	logger.WithContext(ctx, c.logger).InfoContext(ctx, "login required, redirect scheduled",
		slog.String("login_url", c.loginURL),
		slog.Duration("delay", c.redirectDelay),
	)
	authRedirectsTotal.Inc()

	c.redirect = time.AfterFunc(c.redirectDelay, func() {
		c.mu.Lock()
		c.redirect = nil
		closed := c.closed
		c.mu.Unlock()
		if !closed {
			c.nav.RedirectToLogin(c.loginURL)
		}
	})
}

// RedirectPending reports whether a login redirect is scheduled.
func (c *Controller) RedirectPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.redirect != nil
}

// Close cancels a pending redirect.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.redirect != nil {
		c.redirect.Stop()
		c.redirect = nil
	}
}

// operationContext tags ctx with the operation name and one correlation id
// shared by the mutation and its resync.
func (c *Controller) operationContext(ctx context.Context, op string) context.Context {
	if logger.CorrelationIDFromContext(ctx) == "" {
		ctx = logger.WithCorrelationID(ctx, uuid.NewString())
	}
	return logger.WithOperation(ctx, op)
}
