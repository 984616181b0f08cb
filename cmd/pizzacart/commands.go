package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/utafrali/PizzaGo/internal/app"
	"github.com/utafrali/PizzaGo/internal/domain"
	"github.com/utafrali/PizzaGo/internal/tui"
	"github.com/utafrali/PizzaGo/pkg/money"
)

func (c *cli) menuCmd() *cobra.Command {
	var (
		category string
		search   string
		sortKey  string
		minPrice string
		maxPrice string
	)
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "List products, optionally by category or search",
		Example: `  pizzacart menu --category pizza
  pizzacart menu --search pepperoni --sort -price --max-price 500`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := domain.SearchQuery{Text: search, Sort: sortKey}
			var err error
			if q.MinPrice, err = parsePrice("min-price", minPrice); err != nil {
				return err
			}
			if q.MaxPrice, err = parsePrice("max-price", maxPrice); err != nil {
				return err
			}

			return c.runOneShot(cmd.Context(), func(ctx context.Context, a *app.App) error {
				var products []domain.Product
				var err error
				switch {
				case !q.IsZero():
					products, err = a.Catalog.Search(ctx, q)
				case category != "":
					products, err = a.Catalog.ByCategory(ctx, category)
				default:
					products, err = a.Catalog.Products(ctx)
				}
				if err != nil {
					return err
				}
				renderProducts(c.stdout, products)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "category slug")
	cmd.Flags().StringVarP(&search, "search", "s", "", "search text")
	cmd.Flags().StringVar(&sortKey, "sort", "", "sort key: price, -price, rating, -rating, popularity, -popularity, name")
	cmd.Flags().StringVar(&minPrice, "min-price", "", "lowest price")
	cmd.Flags().StringVar(&maxPrice, "max-price", "", "highest price")
	return cmd
}

func (c *cli) cartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cart",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOneShot(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Cart.Load(ctx); err != nil {
					return err
				}
				renderCart(c.stdout, a.Store.Snapshot().Cart)
				return nil
			})
		},
	}
}

func (c *cli) addCmd() *cobra.Command {
	var qty int
	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := parseID("product id", args[0])
			if err != nil {
				return err
			}
			return c.mutate(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return a.Cart.AddItem(ctx, productID, qty)
			})
		},
	}
	cmd.Flags().IntVarP(&qty, "qty", "n", 1, "quantity")
	return cmd
}

func (c *cli) setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <item-id> <qty>",
		Short: "Change the quantity of a cart item",
		Long:  "Change the quantity of a cart item. Quantities below 1 are ignored; use remove instead.\nItem ids are listed by \"pizzacart cart\".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := parseID("item id", args[0])
			if err != nil {
				return err
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return c.mutate(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireItem(ctx, a, itemID); err != nil {
					return err
				}
				return a.Cart.UpdateQuantity(ctx, itemID, qty)
			})
		},
	}
}

func (c *cli) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <item-id>",
		Aliases: []string{"rm"},
		Short:   "Remove an item from the cart",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := parseID("item id", args[0])
			if err != nil {
				return err
			}
			return c.mutate(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireItem(ctx, a, itemID); err != nil {
					return err
				}
				return a.Cart.RemoveItem(ctx, itemID)
			})
		},
	}
}

func (c *cli) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every item from the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.mutate(cmd.Context(), func(ctx context.Context, a *app.App) error {
				// Per-item removal needs the current item ids.
				if err := a.Cart.Load(ctx); err != nil {
					return err
				}
				return a.Cart.ClearCart(ctx)
			})
		},
	}
}

func (c *cli) checkoutCmd() *cobra.Command {
	var form domain.CheckoutForm
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the current cart",
		Example: `  pizzacart checkout --address "12 Baker Street, apt 3" --phone +79001234567`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOneShot(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Cart.Load(ctx); err != nil {
					return err
				}
				conf, err := a.Cart.Checkout(ctx, form)
				if err != nil {
					return err
				}
				renderOrder(c.stdout, conf)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&form.Address, "address", "", "delivery address (required)")
	cmd.Flags().StringVar(&form.Phone, "phone", "", "contact phone (required)")
	cmd.Flags().StringVar(&form.Comment, "comment", "", "note for the courier")
	cmd.Flags().StringVar(&form.PromoCode, "promo", "", "promo code")
	return cmd
}

func (c *cli) tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive storefront",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *c.cfg
			if cfg.LogFile == "" {
				cfg.LogFile = tuiLogFile()
			}
			log, closer, err := app.NewLogger(&cfg, c.stderr)
			if err != nil {
				return err
			}
			defer closer.Close()

			nav := tui.NewNavigator()
			a, err := app.NewApp(cmd.Context(), &cfg, log, nav)
			if err != nil {
				return err
			}

			var loginURL string
			err = a.Run(cmd.Context(), func(ctx context.Context) error {
				model := tui.New(ctx, tui.Deps{
					Cart:          a.Cart,
					State:         a.Store,
					Notifications: a.Notifier,
					Catalog:       a.Catalog,
					Navigator:     nav,
				})
				defer model.Close()

				p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
				if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
					return fmt.Errorf("run tui: %w", err)
				}
				loginURL = model.LoginURL()
				return nil
			})
			if err != nil {
				return err
			}
			if loginURL != "" {
				fmt.Fprintf(c.stderr, "Please log in to use the cart: %s\n", loginURL)
				return errLoginRequired
			}
			return nil
		},
	}
}

// mutate runs a cart operation and prints the resulting cart.
func (c *cli) mutate(ctx context.Context, fn func(context.Context, *app.App) error) error {
	return c.runOneShot(ctx, func(ctx context.Context, a *app.App) error {
		if err := fn(ctx, a); err != nil {
			return err
		}
		renderCart(c.stdout, a.Store.Snapshot().Cart)
		return nil
	})
}

// requireItem loads the cart and fails when itemID is not one of its lines.
func requireItem(ctx context.Context, a *app.App, itemID int) error {
	if err := a.Cart.Load(ctx); err != nil {
		return err
	}
	if _, ok := a.Store.Snapshot().Cart.FindItem(itemID); !ok {
		return fmt.Errorf("no item %d in the cart", itemID)
	}
	return nil
}

func parseID(name, s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return id, nil
}

func parsePrice(flag, s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := money.Parse(s)
	if err != nil || d.IsNegative() {
		return decimal.NullDecimal{}, fmt.Errorf("invalid --%s %q", flag, s)
	}
	return decimal.NewNullDecimal(d), nil
}
