package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/utafrali/PizzaGo/internal/app"
	"github.com/utafrali/PizzaGo/internal/cartsync"
	"github.com/utafrali/PizzaGo/internal/config"
	"github.com/utafrali/PizzaGo/internal/notify"
	apperrors "github.com/utafrali/PizzaGo/pkg/errors"
)

// Exit codes.
const (
	exitOK            = 0
	exitError         = 1
	exitLoginRequired = 2
)

// errLoginRequired ends a command whose backend asked for a login.
var errLoginRequired = errors.New("login required")

// reportedError marks a failure the user has already seen as a notification.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// cli holds the process-wide state shared by all commands.
type cli struct {
	stdout  io.Writer
	stderr  io.Writer
	environ map[string]string

	apiURL   string
	dialect  string
	logLevel string
	verbose  bool

	cfg *config.Config
}

// execute runs the command line and returns the process exit code. environ
// replaces the process environment when non-nil.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer, environ map[string]string) int {
	c := &cli{stdout: stdout, stderr: stderr, environ: environ}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errLoginRequired):
		return exitLoginRequired
	default:
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(stderr, "Error:", apperrors.UserMessage(err, err.Error()))
		}
		return exitError
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pizzacart",
		Short: "Pizza storefront cart client",
		Long: `pizzacart keeps a local view of your server-side pizza cart in sync.

Configuration comes from STOREFRONT_* environment variables; the flags below
override them. Run "pizzacart tui" for the interactive storefront.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.apiURL, "api-url", "", "storefront base URL (STOREFRONT_API_URL)")
	flags.StringVar(&c.dialect, "dialect", "", "storefront dialect: session, token or legacy (STOREFRONT_DIALECT)")
	flags.StringVar(&c.logLevel, "log-level", "", "log level (LOG_LEVEL)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		c.menuCmd(),
		c.cartCmd(),
		c.addCmd(),
		c.setCmd(),
		c.removeCmd(),
		c.clearCmd(),
		c.checkoutCmd(),
		c.tuiCmd(),
	)
	return root
}

func (c *cli) loadConfig() error {
	var (
		cfg *config.Config
		err error
	)
	if c.environ != nil {
		cfg, err = config.LoadFrom(c.environ)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if c.apiURL != "" {
		cfg.APIURL = c.apiURL
	}
	if c.dialect != "" {
		cfg.Dialect = c.dialect
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if c.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// runOneShot builds the app for a single command. Notifications go to stderr
// as they appear; a login redirect ends the command with errLoginRequired.
func (c *cli) runOneShot(ctx context.Context, fn func(context.Context, *app.App) error) error {
	cfg := *c.cfg
	if cfg.LogFile == "" && c.logLevel == "" && !c.verbose {
		// Notifications already tell the user what happened.
		cfg.LogLevel = "warn"
	}
	log, closer, err := app.NewLogger(&cfg, c.stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	nav := newCLINavigator()
	a, err := app.NewApp(ctx, &cfg, log, nav)
	if err != nil {
		return err
	}

	printer := newNotificationPrinter(c.stderr)
	unsubscribe := a.Notifier.Subscribe(printer.print)
	defer unsubscribe()

	return a.Run(ctx, func(ctx context.Context) error {
		shown := printer.errorCount()
		err := fn(ctx, a)
		switch {
		case err == nil && (a.Cart.RedirectPending() || nav.pending()):
			// The operation went through but its resync was refused.
			return c.awaitLogin(ctx, nav, cfg.AuthRedirectDelay(), log)
		case err == nil:
			return nil
		case apperrors.IsAuthRequired(err):
			return c.awaitLogin(ctx, nav, cfg.AuthRedirectDelay(), log)
		case printer.errorCount() > shown:
			return reportedError{err: err}
		default:
			return err
		}
	})
}

// awaitLogin waits for the controller's scheduled redirect and prints the
// login URL.
func (c *cli) awaitLogin(ctx context.Context, nav *cliNavigator, delay time.Duration, log *slog.Logger) error {
	select {
	case url := <-nav.ch:
		fmt.Fprintf(c.stderr, "Log in at %s and try again.\n", url)
	case <-time.After(delay + time.Second):
		log.Warn("login redirect was not scheduled")
	case <-ctx.Done():
	}
	return errLoginRequired
}

// cliNavigator hands the login URL to the waiting command.
type cliNavigator struct {
	ch chan string
}

func newCLINavigator() *cliNavigator {
	return &cliNavigator{ch: make(chan string, 1)}
}

// RedirectToLogin implements cartsync.Navigator.
func (n *cliNavigator) RedirectToLogin(url string) {
	select {
	case n.ch <- url:
	default:
	}
}

// pending reports whether a redirect already fired and is waiting to be read.
func (n *cliNavigator) pending() bool {
	return len(n.ch) > 0
}

var _ cartsync.Navigator = (*cliNavigator)(nil)

// notificationPrinter writes each notification once, in arrival order.
type notificationPrinter struct {
	mu     sync.Mutex
	w      io.Writer
	seen   map[string]bool
	errors int
}

func newNotificationPrinter(w io.Writer) *notificationPrinter {
	return &notificationPrinter{w: w, seen: make(map[string]bool)}
}

func (p *notificationPrinter) print(active []notify.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range active {
		if p.seen[n.ID] {
			continue
		}
		p.seen[n.ID] = true
		mark := "✓"
		if n.IsError() {
			mark = "✗"
			p.errors++
		}
		fmt.Fprintf(p.w, "%s %s\n", mark, n.Message)
	}
}

func (p *notificationPrinter) errorCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errors
}

// tuiLogFile is where the TUI logs when LOG_FILE is unset, keeping the
// terminal clean.
func tuiLogFile() string {
	return filepath.Join(os.TempDir(), "pizzacart.log")
}
