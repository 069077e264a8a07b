package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marketplace/catalog/app/seed"
)

func newCategoriesCmd(e *env) *cobra.Command {
	var (
		count int
		flush bool
	)

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Ensure the demo categories exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			created, err := e.seeder.SeedCategories(cmd.Context(), e.categories, count, flush)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ensured %d categories (%d new)\n", count, created)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", seed.DefaultCategoryCount, "Number of categories to ensure")
	cmd.Flags().BoolVar(&flush, "flush", false, "Delete existing categories first")
	return cmd
}

func newProductsCmd(e *env) *cobra.Command {
	var (
		count int
		flush bool
	)

	cmd := &cobra.Command{
		Use:   "products",
		Short: "Create demo products",
		RunE: func(cmd *cobra.Command, _ []string) error {
			created, err := e.seeder.SeedProducts(cmd.Context(), e.products, count, flush)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d products\n", created)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", seed.DefaultProductCount, "Number of products to create")
	cmd.Flags().BoolVar(&flush, "flush", false, "Delete existing products first")
	return cmd
}

func newLinkCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "link",
		Short: "Assign a random category to every uncategorized product",
		RunE: func(cmd *cobra.Command, _ []string) error {
			linked, err := e.seeder.LinkProductsToCategories(cmd.Context(), e.products, e.categories)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Linked %d products to categories\n", linked)
			return nil
		},
	}
}

func newProductImagesCmd(e *env) *cobra.Command {
	var opts seed.ImageOptions

	cmd := &cobra.Command{
		Use:   "product-images",
		Short: "Generate placeholder images for products",
		RunE: func(cmd *cobra.Command, _ []string) error {
			processed, err := e.seeder.SeedProductImages(cmd.Context(), e.products, e.store, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Processed %d product images\n", processed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "Regenerate images for products that already have one")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Process at most this many products (0 for all)")
	return cmd
}

func newCategoryImagesCmd(e *env) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "category-images",
		Short: "Generate placeholder banners for categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			created, err := e.seeder.SeedCategoryImages(cmd.Context(), e.categories, e.store, overwrite)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d category images\n", created)
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Regenerate existing banners")
	return cmd
}

// newAllCmd runs every step in dependency order with default sizes.
func newAllCmd(e *env) *cobra.Command {
	var products int

	cmd := &cobra.Command{
		Use:   "all",
		Short: "Seed categories, products, links and images",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if _, err := e.seeder.SeedCategories(ctx, e.categories, seed.DefaultCategoryCount, false); err != nil {
				return err
			}
			created, err := e.seeder.SeedProducts(ctx, e.products, products, false)
			if err != nil {
				return err
			}
			linked, err := e.seeder.LinkProductsToCategories(ctx, e.products, e.categories)
			if err != nil {
				return err
			}
			images, err := e.seeder.SeedProductImages(ctx, e.products, e.store, seed.ImageOptions{})
			if err != nil {
				return err
			}
			banners, err := e.seeder.SeedCategoryImages(ctx, e.categories, e.store, false)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Created %d products, linked %d, generated %d product images and %d category images\n",
				created, linked, images, banners)
			return nil
		},
	}

	cmd.Flags().IntVar(&products, "products", seed.DefaultProductCount, "Number of products to create")
	return cmd
}
