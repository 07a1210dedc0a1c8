package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shoplens/backend/config"
	"github.com/shoplens/backend/internal/app"
	"github.com/shoplens/backend/internal/domain"
	"github.com/shoplens/backend/internal/logging"
	"github.com/shoplens/backend/internal/usecase"
	"github.com/spf13/cobra"
)

// serviceFactory builds the shopping service; tests replace it
type serviceFactory func(ctx context.Context) (*usecase.ShoppingService, func() error, error)

func defaultServiceFactory(ctx context.Context) (*usecase.ShoppingService, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: "console", Output: os.Stderr})

	application, err := app.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return application.Service, application.Close, nil
}

func rootCommand() *cobra.Command {
	return newRootCommand(defaultServiceFactory)
}

func newRootCommand(factory serviceFactory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "shoplens",
		Short:        "Search retailers and compare prices from the command line",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		searchCommand(factory),
		priceCommand(factory),
	)

	return rootCmd
}

func searchCommand(factory serviceFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search every enabled retailer for a product",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, factory, func(ctx context.Context, svc *usecase.ShoppingService) (interface{}, error) {
				return svc.SearchByText(ctx, strings.Join(args, " "))
			})
		},
	}
}

func priceCommand(factory serviceFactory) *cobra.Command {
	var storage, color string
	var sites []string

	cmd := &cobra.Command{
		Use:   "price <product name>",
		Short: "Compare the top price for a product across retailers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, factory, func(ctx context.Context, svc *usecase.ShoppingService) (interface{}, error) {
				return svc.ComparePrices(ctx, &domain.PriceComparisonRequest{
					ProductName: strings.Join(args, " "),
					Storage:     storage,
					Color:       color,
					Sites:       sites,
				})
			})
		},
	}

	cmd.Flags().StringVar(&storage, "storage", "", "Storage variant, e.g. 128GB")
	cmd.Flags().StringVar(&color, "color", "", "Color variant, e.g. Black")
	cmd.Flags().StringSliceVar(&sites, "sites", nil, "Retailers to check (amazon, flipkart)")

	return cmd
}

// withService builds the service, runs fn and prints its result as indented JSON
func withService(
	cmd *cobra.Command,
	factory serviceFactory,
	fn func(ctx context.Context, svc *usecase.ShoppingService) (interface{}, error),
) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, closeFn, err := factory(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	if closeFn != nil {
		defer func() { _ = closeFn() }()
	}

	result, err := fn(logging.EnsureCorrelationID(ctx), svc)
	if err != nil {
		return err
	}

	return writeJSON(cmd.OutOrStdout(), result)
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(v)
}
