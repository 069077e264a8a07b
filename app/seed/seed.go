// Package seed provisions demo data: categories, products, category links
// and placeholder images. Every function is idempotent for a given store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/marketplace/catalog/models"
)

const (
	DefaultCategoryCount = 8
	DefaultProductCount  = 24
)

var ErrNoCategories = errors.New("no categories found, seed categories first")

var categorySeeds = []struct{ Name, Description string }{
	{"Audio", "Headphones, earbuds, speakers, and more."},
	{"Wearables", "Smart watches, fitness trackers, and wearables."},
	{"Accessories", "Cables, chargers, and peripherals."},
	{"Storage", "External SSDs, HDDs, and memory cards."},
	{"Smart Home", "Smart plugs, sensors, and lights."},
	{"Gaming", "Mice, keyboards, controllers, and gear."},
	{"Office", "Stands, lamps, and productivity tools."},
	{"Cameras", "Action cams and webcams."},
}

var productSeeds = []struct{ Name, Description string }{
	{"Wireless Headphones", "Experience crystal-clear audio with deep bass and long battery life."},
	{"Smart Watch", "Track your health metrics with a bright AMOLED display and GPS."},
	{"Mechanical Keyboard", "Tactile switches, RGB lighting, and durable PBT keycaps."},
	{"4K Action Camera", "Capture stunning footage with 4K stabilization and waterproof case."},
	{"Bluetooth Speaker", "Rich sound in a compact design with 12-hour playtime."},
	{"Portable SSD 1TB", "Ultra-fast transfers in a pocket-sized aluminum body."},
	{"Noise Cancelling Earbuds", "Immersive sound with ANC and transparency modes."},
	{"Gaming Mouse", "Ergonomic design with adjustable DPI and programmable buttons."},
	{"USB-C Hub", "Expand your ports with HDMI, USB 3.0, and SD card support."},
	{"Laptop Stand", "Aluminum build with adjustable height and cable management."},
	{"Webcam 1080p", "Full HD clarity with noise-reduction microphone."},
	{"LED Desk Lamp", "Adjustable color temperature and USB-powered convenience."},
	{"Smart Home Plug", "Control your devices remotely with voice assistant integration."},
	{"Fitness Tracker", "Heart rate, sleep tracking, and water resistance."},
	{"Drone Mini", "Stabilized flight, 2.7K camera, and beginner-friendly controls."},
	{"E-Reader", "Glare-free screen with weeks-long battery."},
	{"Wireless Charger", "Fast wireless charging with temperature control."},
	{"Power Bank 20k", "High-capacity battery with PD fast charging."},
	{"VR Headset", "Next-gen immersion with wide FOV and crisp visuals."},
	{"Smart Thermostat", "Save energy with adaptive scheduling and remote control."},
	{"Router AX3000", "Wi-Fi 6 speeds with MU-MIMO and WPA3 security."},
	{"External Monitor 27\"", "IPS panel, 1440p resolution, and slim bezels."},
	{"Studio Microphone", "Broadcast-quality audio with cardioid pickup pattern."},
	{"Ring Light", "Even lighting for video calls and content creation."},
}

var priceCents = []int64{0, 49, 99}

type CategoryRepository interface {
	FindByName(ctx context.Context, name string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	List(ctx context.Context, filters models.CategoryFilters) ([]models.Category, error)
	UpdateFields(ctx context.Context, category *models.Category, fields ...string) error
	DeleteAll(ctx context.Context) (int64, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	ListAll(ctx context.Context, limit int) ([]models.Product, error)
	ListUncategorized(ctx context.Context) ([]models.Product, error)
	UpdateFields(ctx context.Context, product *models.Product, fields ...string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// Seeder runs the provisioning steps. Its random source is injectable so
// runs can be reproduced.
type Seeder struct {
	log  *zap.Logger
	rand *rand.Rand
}

type Option func(*Seeder)

func WithRand(r *rand.Rand) Option {
	return func(s *Seeder) { s.rand = r }
}

func New(log *zap.Logger, opts ...Option) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Seeder{
		log:  log.Named("seed"),
		rand: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SeedCategories ensures count categories from the fixed list exist, creating
// only the missing ones. Counts above the list length cycle over it.
// It returns how many categories were newly created.
func (s *Seeder) SeedCategories(ctx context.Context, repo CategoryRepository, count int, flush bool) (int, error) {
	const op = "seed.SeedCategories"

	if flush {
		deleted, err := repo.DeleteAll(ctx)
		if err != nil {
			return 0, fmt.Errorf("%s: flush: %w", op, err)
		}
		s.log.Warn("deleted existing categories", zap.Int64("count", deleted))
	}

	created := 0
	for i := 0; i < count; i++ {
		seed := categorySeeds[i%len(categorySeeds)]

		_, err := repo.FindByName(ctx, seed.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, models.ErrNotFound) {
			return created, fmt.Errorf("%s: %w", op, err)
		}

		category := &models.Category{Name: seed.Name, Description: seed.Description}
		if err := repo.Create(ctx, category); err != nil {
			return created, fmt.Errorf("%s: %w", op, err)
		}
		created++
	}

	s.log.Info("ensured categories", zap.Int("requested", count), zap.Int("created", created))
	return created, nil
}

// SeedProducts creates count products named "<name> #<n>". Codes are
// generated by the repository.
func (s *Seeder) SeedProducts(ctx context.Context, repo ProductRepository, count int, flush bool) (int, error) {
	const op = "seed.SeedProducts"

	if flush {
		deleted, err := repo.DeleteAll(ctx)
		if err != nil {
			return 0, fmt.Errorf("%s: flush: %w", op, err)
		}
		s.log.Warn("deleted existing products", zap.Int64("count", deleted))
	}

	created := 0
	for i := 0; i < count; i++ {
		seed := productSeeds[i%len(productSeeds)]
		stock := s.rand.IntN(121)

		product := &models.Product{
			Name:          fmt.Sprintf("%s #%d", seed.Name, i+1),
			Description:   seed.Description,
			Price:         s.price(),
			InStock:       stock > 0,
			StockQuantity: stock,
		}
		if err := repo.Create(ctx, product); err != nil {
			return created, fmt.Errorf("%s: %w", op, err)
		}
		created++
	}

	s.log.Info("created products", zap.Int("count", created))
	return created, nil
}

// price returns a whole amount in [20, 300] plus 0, .49 or .99.
func (s *Seeder) price() decimal.Decimal {
	whole := decimal.NewFromInt(int64(20 + s.rand.IntN(281)))
	cents := decimal.New(priceCents[s.rand.IntN(len(priceCents))], -models.PriceScale)
	return whole.Add(cents)
}

// LinkProductsToCategories assigns a random category to every product that has
// none. Only category_id is written.
func (s *Seeder) LinkProductsToCategories(ctx context.Context, products ProductRepository, categories CategoryRepository) (int, error) {
	const op = "seed.LinkProductsToCategories"

	all, err := categories.List(ctx, models.CategoryFilters{})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(all) == 0 {
		return 0, fmt.Errorf("%s: %w", op, ErrNoCategories)
	}

	uncategorized, err := products.ListUncategorized(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	linked := 0
	for i := range uncategorized {
		p := &uncategorized[i]
		category := all[s.rand.IntN(len(all))]
		p.CategoryID = &category.ID

		if err := products.UpdateFields(ctx, p, "category_id"); err != nil {
			return linked, fmt.Errorf("%s: product %d: %w", op, p.ID, err)
		}
		linked++
	}

	s.log.Info("linked products to categories", zap.Int("count", linked))
	return linked, nil
}
