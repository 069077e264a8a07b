package seed

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/marketplace/catalog/app/storage"
	"github.com/marketplace/catalog/models"
)

const (
	ProductImageWidth   = 800
	ProductImageHeight  = 600
	CategoryImageWidth  = 1000
	CategoryImageHeight = 320
)

var (
	categoryBackground = color.RGBA{R: 245, G: 247, B: 251, A: 255}
	categoryText       = color.RGBA{R: 29, G: 78, B: 216, A: 255}
)

type ImageOptions struct {
	// Overwrite regenerates images for records that already have one.
	Overwrite bool
	// Limit caps how many products are looked at. Zero means all.
	Limit int
}

// SeedProductImages renders a placeholder PNG for every product without an
// image and assigns it. Only the image field is written.
func (s *Seeder) SeedProductImages(ctx context.Context, repo ProductRepository, store storage.Store, opts ImageOptions) (int, error) {
	const op = "seed.SeedProductImages"

	products, err := repo.ListAll(ctx, opts.Limit)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	processed := 0
	for i := range products {
		p := &products[i]
		if p.Image != "" && !opts.Overwrite {
			continue
		}

		title := p.Name
		if title == "" {
			title = p.Code
		}
		body, err := renderPlaceholder(ProductImageWidth, ProductImageHeight, s.pastel(), color.White,
			title, "$"+p.Price.StringFixed(models.PriceScale))
		if err != nil {
			return processed, fmt.Errorf("%s: render product %d: %w", op, p.ID, err)
		}

		key, err := store.Put(ctx, productImageKey(p), bytes.NewReader(body), int64(len(body)), "image/png")
		if err != nil {
			return processed, fmt.Errorf("%s: store product %d: %w", op, p.ID, err)
		}
		p.Image = key
		if err := repo.UpdateFields(ctx, p, "image"); err != nil {
			return processed, fmt.Errorf("%s: product %d: %w", op, p.ID, err)
		}
		processed++
	}

	s.log.Info("product images generated", zap.Int("processed", processed), zap.Int("products", len(products)))
	return processed, nil
}

// SeedCategoryImages renders a banner for every category without an image.
func (s *Seeder) SeedCategoryImages(ctx context.Context, repo CategoryRepository, store storage.Store, overwrite bool) (int, error) {
	const op = "seed.SeedCategoryImages"

	categories, err := repo.List(ctx, models.CategoryFilters{})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	created := 0
	for i := range categories {
		c := &categories[i]
		if c.Image != "" && !overwrite {
			continue
		}

		body, err := renderPlaceholder(CategoryImageWidth, CategoryImageHeight, categoryBackground, categoryText, c.Name)
		if err != nil {
			return created, fmt.Errorf("%s: render category %d: %w", op, c.ID, err)
		}

		key, err := store.Put(ctx, fmt.Sprintf("categories/%d.png", c.ID), bytes.NewReader(body), int64(len(body)), "image/png")
		if err != nil {
			return created, fmt.Errorf("%s: store category %d: %w", op, c.ID, err)
		}
		c.Image = key
		if err := repo.UpdateFields(ctx, c, "image"); err != nil {
			return created, fmt.Errorf("%s: category %d: %w", op, c.ID, err)
		}
		created++
	}

	s.log.Info("category images generated", zap.Int("created", created))
	return created, nil
}

func productImageKey(p *models.Product) string {
	name := p.Code
	if name == "" {
		name = p.Name
	}
	stem := slug.Make(name)
	if stem == "" {
		stem = fmt.Sprintf("product-%d", p.ID)
	}
	return "products/" + stem + ".png"
}

func (s *Seeder) pastel() color.RGBA {
	base := 160 + s.rand.IntN(51)
	return color.RGBA{
		R: uint8(base),
		G: uint8(base - 10 - s.rand.IntN(21)),
		B: uint8(base - s.rand.IntN(21)),
		A: 255,
	}
}

// renderPlaceholder draws centered lines of text on a flat background and
// encodes the result as PNG. The first line gets a drop shadow.
func renderPlaceholder(width, height int, bg, fg color.Color, lines ...string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil() + 8
	top := (height - lineHeight*len(lines)) / 2

	for i, line := range lines {
		x := (width - font.MeasureString(face, line).Ceil()) / 2
		y := top + (i+1)*lineHeight

		if i == 0 {
			shadow := &font.Drawer{Dst: img, Src: image.NewUniform(color.Black), Face: face, Dot: fixed.P(x+2, y+2)}
			shadow.DrawString(line)
		}
		d := &font.Drawer{Dst: img, Src: image.NewUniform(fg), Face: face, Dot: fixed.P(x, y)}
		d.DrawString(line)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
