// Package cli implements the terminal storefront: browsing, the cart,
// checkout and the admin product form.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/katalog-toko/internal/admin"
	"github.com/xenking/katalog-toko/internal/cart"
	"github.com/xenking/katalog-toko/internal/checkout"
	"github.com/xenking/katalog-toko/internal/domain/category"
	"github.com/xenking/katalog-toko/internal/domain/product"
	"github.com/xenking/katalog-toko/internal/pricing"
)

// ErrUsage reports a malformed command line.
var ErrUsage = errors.New("usage")

// Catalog is the remote catalog the storefront reads and administers.
type Catalog interface {
	admin.Catalog
	GetProduct(ctx context.Context, id string) (*product.Product, error)
	Categories(ctx context.Context) ([]category.Category, error)
}

// App runs storefront commands.
type App struct {
	catalog Catalog
	carts   cart.Store
	admin   *admin.Surface
	money   *pricing.Formatter
	out     io.Writer
	lg      *zap.Logger
}

// New returns an App writing its UI to out.
func New(catalog Catalog, carts cart.Store, out io.Writer, lg *zap.Logger) *App {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &App{
		catalog: catalog,
		carts:   carts,
		admin:   admin.NewSurface(catalog),
		money:   pricing.IDR(),
		out:     out,
		lg:      lg,
	}
}

// Usage is printed on ErrUsage.
const Usage = `Usage: katalog [flags] <command> [args]

Commands:
  browse [-category C] [-search Q]   list products, newest first
  show <id>                          product detail
  categories                         list categories
  cart list|add|set|remove|clear     manage the local cart
  checkout -name -phone -email -address
  admin list|save|delete|categories  manage products (requires credentials)
`

// Run dispatches args to a command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	cmd, rest := args[0], args[1:]
	a.lg.Debug("Command", zap.String("cmd", cmd), zap.Strings("args", rest))

	var err error
	switch cmd {
	case "browse", "search":
		err = a.browse(ctx, rest)
	case "show":
		err = a.show(ctx, rest)
	case "categories":
		err = a.categories(ctx)
	case "cart":
		err = a.cart(ctx, rest)
	case "checkout":
		err = a.checkout(ctx, rest)
	case "admin":
		err = a.adminCmd(ctx, rest)
	default:
		return errors.Wrapf(ErrUsage, "unknown command %q", cmd)
	}
	if err != nil {
		a.lg.Warn("Command failed", zap.String("cmd", cmd), zap.Error(err))
	}
	return err
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errors.Wrapf(ErrUsage, "%s: %v", fs.Name(), err)
	}
	return nil
}

func (a *App) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
}

func (a *App) price(p product.Product) string {
	if p.Discount <= 0 {
		return a.money.Format(p.Price)
	}
	return fmt.Sprintf("%s (-%d%%, was %s)", a.money.Format(p.EffectivePrice()), p.Discount, a.money.Format(p.Price))
}

func (a *App) browse(ctx context.Context, args []string) error {
	fs := newFlagSet("browse")
	cat := fs.String("category", product.All, "category filter")
	search := fs.String("search", "", "name search")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *search == "" && fs.NArg() > 0 {
		*search = strings.Join(fs.Args(), " ")
	}

	items, total, err := a.catalog.ListProducts(ctx, *cat, *search)
	if err != nil {
		return errors.Wrap(err, "list products")
	}
	if len(items) == 0 {
		_, _ = fmt.Fprintln(a.out, "No products found.")
		return nil
	}

	tw := a.table()
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE")
	for _, p := range items {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, a.price(p))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.out, "%d of %d products\n", len(items), total)
	return nil
}

func (a *App) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.Wrap(ErrUsage, "show <id>")
	}
	p, err := a.catalog.GetProduct(ctx, args[0])
	if err != nil {
		return errors.Wrap(err, "get product")
	}

	tw := a.table()
	_, _ = fmt.Fprintf(tw, "Name:\t%s\n", p.Name)
	_, _ = fmt.Fprintf(tw, "Category:\t%s\n", p.Category)
	_, _ = fmt.Fprintf(tw, "Price:\t%s\n", a.money.Format(p.Price))
	if p.Discount > 0 {
		_, _ = fmt.Fprintf(tw, "Discount:\t%d%% (save %s)\n", p.Discount, a.money.Format(pricing.Savings(p.Price, p.Discount)))
		_, _ = fmt.Fprintf(tw, "You pay:\t%s\n", a.money.Format(p.EffectivePrice()))
	}
	if p.HasImage() {
		_, _ = fmt.Fprintf(tw, "Image:\t%s\n", *p.ImageID)
	}
	return tw.Flush()
}

func (a *App) categories(ctx context.Context) error {
	cats, err := a.catalog.Categories(ctx)
	if err != nil {
		return errors.Wrap(err, "list categories")
	}
	tw := a.table()
	for _, c := range cats {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", c.Name, c.Description)
	}
	return tw.Flush()
}

func (a *App) cart(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	l, err := a.carts.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "load cart")
	}

	switch sub, rest := args[0], args[1:]; sub {
	case "list":
		return a.printCart(l)
	case "add":
		fs := newFlagSet("cart add")
		qty := fs.Int("qty", 1, "quantity to add")
		if err := parse(fs, rest); err != nil {
			return err
		}
		if fs.NArg() != 1 || *qty < 1 {
			return errors.Wrap(ErrUsage, "cart add [-qty N] <id>")
		}
		p, err := a.catalog.GetProduct(ctx, fs.Arg(0))
		if err != nil {
			return errors.Wrap(err, "get product")
		}
		for range *qty {
			l.Add(*p)
		}
		_, _ = fmt.Fprintf(a.out, "Added %d x %s to cart.\n", *qty, p.Name)
	case "set":
		if len(rest) != 2 {
			return errors.Wrap(ErrUsage, "cart set <id> <qty>")
		}
		qty, err := strconv.Atoi(rest[1])
		if err != nil {
			return errors.Wrapf(ErrUsage, "quantity %q", rest[1])
		}
		l.SetQuantity(rest[0], qty)
	case "remove":
		if len(rest) != 1 {
			return errors.Wrap(ErrUsage, "cart remove <id>")
		}
		l.Remove(rest[0])
	case "clear":
		l.Clear()
	default:
		return errors.Wrapf(ErrUsage, "unknown cart command %q", sub)
	}

	if err := a.carts.Save(ctx, l); err != nil {
		return errors.Wrap(err, "save cart")
	}
	return a.printCart(l)
}

func (a *App) printCart(l *cart.Ledger) error {
	if l.Len() == 0 {
		_, _ = fmt.Fprintln(a.out, "Your cart is empty.")
		return nil
	}
	tw := a.table()
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tQTY\tUNIT\tTOTAL")
	for _, it := range l.Items() {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			it.Product.ID, it.Product.Name, it.Quantity,
			a.money.Format(it.Product.EffectivePrice()), a.money.Format(it.LineTotal()))
	}
	_, _ = fmt.Fprintf(tw, "\t\t%d\t\t%s\n", l.TotalItems(), a.money.Format(l.TotalPrice()))
	return tw.Flush()
}

func (a *App) checkout(ctx context.Context, args []string) error {
	fs := newFlagSet("checkout")
	var info checkout.ShippingInfo
	fs.StringVar(&info.Name, "name", "", "recipient name")
	fs.StringVar(&info.Phone, "phone", "", "phone number")
	fs.StringVar(&info.Email, "email", "", "email address")
	fs.StringVar(&info.Address, "address", "", "shipping address")
	if err := parse(fs, args); err != nil {
		return err
	}

	l, err := a.carts.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "load cart")
	}
	flow := checkout.NewFlow(l)
	if err := flow.OpenCart(); err != nil {
		return err
	}
	if err := flow.BeginCheckout(); err != nil {
		return err
	}
	receipt, err := flow.Complete(info)
	if err != nil {
		return err
	}
	if err := a.carts.Save(ctx, flow.Ledger()); err != nil {
		return errors.Wrap(err, "save cart")
	}
	a.lg.Info("Checkout completed",
		zap.Int("items", receipt.TotalItems),
		zap.String("total", receipt.TotalPrice.String()),
	)

	_, _ = fmt.Fprintf(a.out, "Thank you, %s! Your order of %d items totalling %s will be shipped to:\n%s\n",
		receipt.Shipping.Name, receipt.TotalItems, a.money.Format(receipt.TotalPrice), receipt.Shipping.Address)
	return nil
}

func (a *App) adminCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.Wrap(ErrUsage, "admin list|save|delete|categories")
	}
	switch sub, rest := args[0], args[1:]; sub {
	case "list":
		items, err := a.admin.Products(ctx)
		if err != nil {
			return err
		}
		tw := a.table()
		_, _ = fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tDISCOUNT\tIMAGE")
		for _, p := range items {
			img := "-"
			if p.HasImage() {
				img = *p.ImageID
			}
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d%%\t%s\n",
				p.ID, p.Name, p.Category, a.money.Format(p.Price), p.Discount, img)
		}
		return tw.Flush()
	case "categories":
		for _, c := range a.admin.Categories() {
			_, _ = fmt.Fprintln(a.out, c)
		}
		return nil
	case "delete":
		if len(rest) != 1 {
			return errors.Wrap(ErrUsage, "admin delete <id>")
		}
		if err := a.admin.Delete(ctx, rest[0]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.out, "Deleted %s.\n", rest[0])
		return nil
	case "save":
		return a.adminSave(ctx, rest)
	default:
		return errors.Wrapf(ErrUsage, "unknown admin command %q", sub)
	}
}

func (a *App) adminSave(ctx context.Context, args []string) error {
	fs := newFlagSet("admin save")
	id := fs.String("id", "", "product id to update; empty creates")
	name := fs.String("name", "", "product name")
	price := fs.String("price", "", "price in whole Rupiah")
	discount := fs.Int("discount", 0, "discount percentage (0-100)")
	cat := fs.String("category", "", "category")
	imagePath := fs.String("image", "", "image file to upload")
	if err := parse(fs, args); err != nil {
		return err
	}

	form := admin.Form{
		ID: *id,
		Fields: product.Fields{
			Name:     *name,
			Discount: discount,
			Category: *cat,
		},
	}
	if *price != "" {
		d, err := decimal.NewFromString(*price)
		if err != nil {
			return &product.ValidationError{Field: "price", Reason: "must be a number"}
		}
		form.Fields.Price = &d
	}

	if *imagePath != "" {
		f, err := os.Open(*imagePath)
		if err != nil {
			return errors.Wrap(err, "open image")
		}
		defer func() { _ = f.Close() }()
		form.Image = &admin.Attachment{Filename: filepath.Base(*imagePath), Body: f}
	}

	p, err := a.admin.Save(ctx, form)
	if err != nil {
		return err
	}
	verb := "Created"
	if *id != "" {
		verb = "Updated"
	}
	_, _ = fmt.Fprintf(a.out, "%s %s (%s) at %s.\n", verb, p.Name, p.ID, a.price(*p))
	return nil
}
