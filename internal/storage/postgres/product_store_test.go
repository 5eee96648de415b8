package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/storage"
)

func TestNewProductStoreWithPoolRequiresPool(t *testing.T) {
	t.Parallel()

	_, err := NewProductStoreWithPool(nil)
	require.Error(t, err)
}

func TestProductStoreInsert(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewProductStoreWithPool(mock)
	require.NoError(t, err)

	amount := 1234.56
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := storage.Product{
		SourceURL:     "https://gems.example/ring-1",
		Name:          "Halo Ring",
		JewelType:     "ring",
		Metal:         "18kt white gold",
		Gemstone:      "diamond",
		GemstoneColor: "white",
		MetalColor:    "white",
		Color:         "white",
		PriceAmount:   &amount,
		PriceCurrency: "USD",
		Description:   "A halo setting ring.",
		Summary:       "A beautiful ring crafted in 18kt white gold featuring diamond.",
		Vibe:          "engagement",
		ImageDir:      "abc123",
		ImageURLs:     []string{"https://gems.example/img/ring-1.jpg"},
		RawMetadata:   map[string]string{"og:title": "Halo Ring"},
		CreatedAt:     createdAt,
	}
	imageURLs, err := json.Marshal(p.ImageURLs)
	require.NoError(t, err)
	rawMeta, err := json.Marshal(p.RawMetadata)
	require.NoError(t, err)

	mock.ExpectQuery("INSERT INTO products").
		WithArgs(
			p.SourceURL, p.Name, p.JewelType, p.Metal, p.Gemstone,
			p.GemstoneColor, p.MetalColor, p.Color, p.PriceAmount,
			p.PriceCurrency, p.Description, p.Summary, p.Vibe, p.ImageDir,
			imageURLs, rawMeta, createdAt,
		).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := store.Insert(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, int64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductStoreInsertDuplicate(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewProductStoreWithPool(mock)
	require.NoError(t, err)

	// ON CONFLICT DO NOTHING returns no row for a duplicate source URL.
	mock.ExpectQuery("INSERT INTO products").
		WithArgs(
			"https://gems.example/ring-1", "Halo Ring", "", "", "", "", "", "",
			(*float64)(nil), "", "", "", "", "",
			[]byte("null"), []byte("null"), pgxmock.AnyArg(),
		).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err = store.Insert(context.Background(), storage.Product{
		SourceURL: "https://gems.example/ring-1",
		Name:      "Halo Ring",
	})
	require.ErrorIs(t, err, storage.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductStoreInsertRequiresSourceURL(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewProductStoreWithPool(mock)
	require.NoError(t, err)

	_, err = store.Insert(context.Background(), storage.Product{Name: "No URL"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductStoreExistsBySourceURL(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewProductStoreWithPool(mock)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("https://gems.example/ring-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := store.ExistsBySourceURL(context.Background(), "https://gems.example/ring-1")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductStoreListAppliesFilters(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewProductStoreWithPool(mock)
	require.NoError(t, err)

	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{
		"id", "source_url", "name", "jewel_type", "metal", "gemstone",
		"gemstone_color", "metal_color", "color", "price_amount",
		"price_currency", "description", "summary", "vibe", "image_dir",
		"image_urls", "raw_metadata", "created_at",
	}).AddRow(
		int64(3), "https://gems.example/ring-3", "Eternity Band", "ring",
		"18kt gold", "diamond", "white", "yellow", "gold",
		(*float64)(nil), "USD", "", "", "casual", "def456",
		[]byte(`["https://gems.example/img/b.jpg"]`), []byte(`{"og:type":"product"}`),
		createdAt,
	)

	mock.ExpectQuery("FROM products WHERE jewel_type = \\$1 AND metal = \\$2").
		WithArgs("ring", "18kt gold", 10, 5).
		WillReturnRows(rows)

	products, err := store.List(context.Background(), storage.ProductFilter{
		JewelType: "ring",
		Metal:     "18kt gold",
		Limit:     10,
		Offset:    5,
	})
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "Eternity Band", products[0].Name)
	require.Equal(t, []string{"https://gems.example/img/b.jpg"}, products[0].ImageURLs)
	require.Equal(t, map[string]string{"og:type": "product"}, products[0].RawMetadata)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductStoreCount(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewProductStoreWithPool(mock)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM products WHERE vibe = \\$1").
		WithArgs("engagement").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(4))

	n, err := store.Count(context.Background(), storage.ProductFilter{Vibe: "engagement"})
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductStoreFilterValues(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewProductStoreWithPool(mock)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT jewel_type, COUNT\\(\\*\\) FROM products").
		WillReturnRows(pgxmock.NewRows([]string{"jewel_type", "count"}).
			AddRow("ring", 5).AddRow("necklace", 2))
	mock.ExpectQuery("SELECT metal, COUNT\\(\\*\\) FROM products").
		WillReturnRows(pgxmock.NewRows([]string{"metal", "count"}).
			AddRow("18kt gold", 4))
	mock.ExpectQuery("SELECT gemstone, COUNT\\(\\*\\) FROM products").
		WillReturnRows(pgxmock.NewRows([]string{"gemstone", "count"}).
			AddRow("diamond", 3))
	mock.ExpectQuery("SELECT vibe, COUNT\\(\\*\\) FROM products").
		WillReturnRows(pgxmock.NewRows([]string{"vibe", "count"}).
			AddRow("casual", 6).AddRow("engagement", 1))

	fv, err := store.FilterValues(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]int{"ring": 5, "necklace": 2}, fv.JewelTypes)
	require.Equal(t, map[string]int{"18kt gold": 4}, fv.Metals)
	require.Equal(t, map[string]int{"diamond": 3}, fv.Gemstones)
	require.Equal(t, map[string]int{"casual": 6, "engagement": 1}, fv.Vibes)
	require.NoError(t, mock.ExpectationsWereMet())
}
