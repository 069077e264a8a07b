// Package cli implements the catalog provisioning command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/marketplace/catalog/app/config"
	"github.com/marketplace/catalog/app/database"
	"github.com/marketplace/catalog/app/logging"
	"github.com/marketplace/catalog/app/seed"
	"github.com/marketplace/catalog/app/storage"
	"github.com/marketplace/catalog/models"
)

// env holds the resources opened once per invocation and shared by subcommands.
type env struct {
	envFile string

	log        *zap.Logger
	db         *gorm.DB
	store      storage.Store
	products   *models.ProductsRepository
	categories *models.CategoriesRepository
	seeder     *seed.Seeder

	closed bool
}

func (e *env) open(ctx context.Context) error {
	cfg, err := config.Load(e.envFile)
	if err != nil {
		return err
	}

	e.log, err = logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}

	e.db, err = database.Open(cfg, e.log)
	if err != nil {
		return err
	}
	if cfg.DBAutoMigrate {
		if err := database.Migrate(e.db, cfg, e.log); err != nil {
			return err
		}
	}

	e.store, err = storage.New(ctx, cfg)
	if err != nil {
		return err
	}

	e.products = models.NewProductsRepository(e.db)
	e.categories = models.NewCategoriesRepository(e.db)
	e.seeder = seed.New(e.log)
	return nil
}

// Close releases whatever open managed to acquire. It is safe to call more than once.
func (e *env) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	var errs []error
	if e.db != nil {
		errs = append(errs, database.Close(e.db))
	}
	if e.log != nil {
		_ = e.log.Sync()
	}
	return errors.Join(errs...)
}

func newRootCmd() (*cobra.Command, *env) {
	e := &env{}

	cmd := &cobra.Command{
		Use:           "catalog-seed",
		Short:         "Provision demo data for the catalog service",
		Long:          "Seed categories and products, link them and generate placeholder images.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.open(cmd.Context())
		},
	}
	cmd.PersistentFlags().StringVar(&e.envFile, "env-file", ".env", "Optional dotenv file read before the environment")

	cmd.AddCommand(newCategoriesCmd(e))
	cmd.AddCommand(newProductsCmd(e))
	cmd.AddCommand(newLinkCmd(e))
	cmd.AddCommand(newProductImagesCmd(e))
	cmd.AddCommand(newCategoryImagesCmd(e))
	cmd.AddCommand(newAllCmd(e))
	return cmd, e
}

// NewRootCmdForTest returns the root command for testing together with the
// resources it opens, which the caller must close.
func NewRootCmdForTest() (*cobra.Command, io.Closer) {
	return newRootCmd()
}

func Execute(ctx context.Context) error {
	root, e := newRootCmd()
	if err := execute(ctx, root, e); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "error:", err)
		return err
	}
	return nil
}

// execute runs root and closes its resources whether or not a command failed.
// cobra skips post-run hooks when RunE returns an error.
func execute(ctx context.Context, root *cobra.Command, e *env) (err error) {
	defer func() {
		err = errors.Join(err, e.Close())
	}()
	return root.ExecuteContext(ctx)
}
