package main

import (
	"bookstore_webapp/config"
	"bookstore_webapp/internal/clients"
	"bookstore_webapp/internal/loader"
	"bookstore_webapp/pkg/shutdown"

	"github.com/spf13/cobra"
)

type browserOptions struct {
	baseURL  string
	cartURL  string
	path     string
	origin   string
	policy   string
	page     int
	logLevel string
}

func newRootCmd() *cobra.Command {
	var opts browserOptions
	cmd := &cobra.Command{
		Use:   "browser",
		Short: "Browse the bookstore product listing from a terminal",
		Long: `browser loads one page of the product listing at a time and lets you
page through it and add products to your cart.

Commands: n (next), p (previous), g N (go to page N), r (reload),
a IDX (add product IDX to the cart), h (help), q (quit).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := config.NewLogger(opts.logLevel)
			logger.SetOutput(cmd.ErrOrStderr())

			cfg, err := config.LoadConfig(logger)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("base-url") {
				opts.baseURL = cfg.Products.BaseURL
			}
			if !flags.Changed("path") {
				opts.path = cfg.Products.Path
			}
			if !flags.Changed("origin") {
				opts.origin = cfg.Products.Origin
			}
			if !flags.Changed("policy") {
				opts.policy = cfg.Products.Policy
			}
			if !flags.Changed("cart-url") {
				opts.cartURL = cfg.Products.CartBaseURL
			}

			endpoint, err := loader.NewEndpoint(opts.baseURL, opts.path)
			if err != nil {
				return err
			}
			policy, err := loader.ParsePolicy(opts.policy)
			if err != nil {
				return err
			}
			jsonClient, err := clients.NewJSONClient(opts.origin, cfg.CatalogTimeout, logger)
			if err != nil {
				return err
			}
			cart := clients.NewCartClient(config.CartURL(opts.cartURL, endpoint.BaseURL), jsonClient, logger)

			out := newConsole(cmd.OutOrStdout())
			l := loader.New(jsonClient, cart, loader.Options{
				Endpoint: endpoint,
				Policy:   policy,
				Timeout:  cfg.CatalogTimeout,
				OnError: func(pageNo int, err error) {
					out.printf("! could not load page %d: %v\n", pageNo, err)
				},
			}, logger)
			defer l.Close()

			ctx, stop := shutdown.WithSignals(cmd.Context())
			defer stop()

			s := newSession(l, out)
			return s.run(ctx, opts.page, cmd.InOrStdin())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.baseURL, "base-url", "", "absolute origin of the product API; empty means same origin as --origin (env PRODUCTS_BASE_URL)")
	flags.StringVar(&opts.cartURL, "cart-url", "", "absolute origin of the cart API; empty means the products origin (env CART_BASE_URL)")
	flags.StringVar(&opts.path, "path", "", "path of the product listing (env PRODUCTS_PATH)")
	flags.StringVar(&opts.origin, "origin", "", "origin used to resolve same-origin requests (env PRODUCTS_ORIGIN)")
	flags.StringVar(&opts.policy, "policy", "", "ordering of overlapping loads: last-response or latest-request (env LOAD_POLICY)")
	flags.IntVar(&opts.page, "page", 1, "page to open")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level for diagnostics written to stderr")
	return cmd
}
