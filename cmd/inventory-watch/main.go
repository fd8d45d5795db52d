package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cartify/internal/client"
	"cartify/internal/domain"
	"cartify/internal/logging"
	"cartify/internal/reconcile"

	"golang.org/x/sync/errgroup"
)

func main() {
	apiURL := flag.String("api", envOr("CARTIFY_API_URL", "http://localhost:5000"), "storefront API base URL")
	email := flag.String("email", os.Getenv("CARTIFY_ADMIN_EMAIL"), "admin email, enables the dashboard")
	password := flag.String("password", os.Getenv("CARTIFY_ADMIN_PASSWORD"), "admin password")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	logger := logging.New(*logLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.NewAPI(*apiURL, 10*time.Second)
	if *email != "" {
		if _, err := api.Login(ctx, *email, *password); err != nil {
			log.Fatalf("login: %v", err)
		}
	}

	wsURL, err := client.WebsocketURL(api.BaseURL())
	if err != nil {
		log.Fatalf("realtime url: %v", err)
	}
	ch := client.NewChannel(wsURL, logger)
	ch.OnStateChange(func(s client.State) {
		fmt.Printf("[%s] realtime %s\n", time.Now().Format(time.TimeOnly), indicator(s))
	})

	table := client.NewLive(reconcile.InventoryTable{}, func(ctx context.Context) (reconcile.InventoryTable, error) {
		products, err := api.Products(ctx, domain.ProductQuery{})
		if err != nil {
			return reconcile.InventoryTable{}, err
		}
		return reconcile.InventoryTable{Products: products}, nil
	})
	table.OnChange(printTable)
	table.Attach(ctx, ch)
	defer table.Detach()

	if *email != "" {
		dash := client.NewLive(reconcile.Dashboard{}, func(ctx context.Context) (reconcile.Dashboard, error) {
			var (
				stats    *domain.OrderStats
				products []domain.Product
			)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() (err error) {
				stats, err = api.Stats(gctx)
				return err
			})
			g.Go(func() (err error) {
				products, err = api.Products(gctx, domain.ProductQuery{})
				return err
			})
			if err := g.Wait(); err != nil {
				return reconcile.Dashboard{}, err
			}
			return reconcile.NewDashboard(*stats, products), nil
		})
		dash.OnChange(func(d reconcile.Dashboard) {
			fmt.Printf("  dashboard: %d orders, revenue %s, %d products, %d low stock\n",
				d.Stats.TotalOrders, d.Stats.TotalRevenue.StringFixed(2), d.Stats.TotalProducts, d.Stats.LowStockProducts)
		})
		dash.Attach(ctx, ch)
		defer dash.Detach()
	}

	// Lines typed on stdin filter a live catalog search.
	search := client.NewCatalogSearch(ctx, api, client.DefaultSearchDelay, logger)
	search.Live().OnChange(func(l reconcile.CatalogList) {
		fmt.Printf("  search %q: %d matches\n", search.Query().Search, len(l.Products))
		for _, p := range l.Products {
			fmt.Printf("    %-40s %5d\n", p.Name, p.Stock)
		}
	})
	search.Live().Attach(ctx, ch)
	defer search.Close()
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			search.SetSearch(strings.TrimSpace(sc.Text()))
		}
	}()

	ch.Start(ctx)
	<-ctx.Done()
	ch.Close()
}

func indicator(s client.State) string {
	switch s {
	case client.StateConnected:
		return "● live"
	case client.StateConnecting:
		return "○ connecting"
	case client.StateClosed:
		return "✕ closed"
	default:
		return "○ offline, showing last known stock"
	}
}

func printTable(t reconcile.InventoryTable) {
	var b strings.Builder
	if t.LastUpdate != nil {
		fmt.Fprintf(&b, "update: %s %s\n", t.LastUpdate.ProductName, t.LastUpdate.Action)
	}
	for _, p := range t.Products {
		mark := ""
		switch {
		case p.Stock == 0:
			mark = "  OUT"
		case p.LowStock():
			mark = "  LOW"
		}
		fmt.Fprintf(&b, "  %-14s %-40s %5d%s\n", p.SKU, p.Name, p.Stock, mark)
	}
	s := t.Summary()
	fmt.Fprintf(&b, "  total stock %d, low %d, out %d\n", s.TotalStock, s.LowStock, s.OutOfStock)
	fmt.Print(b.String())
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
