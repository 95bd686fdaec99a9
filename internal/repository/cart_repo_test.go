package repository

import (
	"context"
	"io"
	"os"
	"testing"

	"bookstore_webapp/internal/domain"
	"bookstore_webapp/pkg/db"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func item(code string, price string, qty int) domain.CartItem {
	return domain.CartItem{Code: code, Name: "Book " + code, Price: decimal.RequireFromString(price), Quantity: qty}
}

func exerciseCartRepository(t *testing.T, repo domain.CartRepository) {
	ctx := context.Background()
	cartID := uuid.NewString()

	t.Run("unknown cart is empty", func(t *testing.T) {
		cart, err := repo.Get(ctx, cartID)
		require.NoError(t, err)
		assert.Equal(t, cartID, cart.ID)
		assert.Empty(t, cart.Items)
	})

	t.Run("adding the same code increments quantity", func(t *testing.T) {
		_, err := repo.AddItem(ctx, cartID, item("P100", "34.00", 1))
		require.NoError(t, err)
		_, err = repo.AddItem(ctx, cartID, item("P101", "45.40", 1))
		require.NoError(t, err)
		cart, err := repo.AddItem(ctx, cartID, item("P100", "34.00", 2))
		require.NoError(t, err)

		require.Len(t, cart.Items, 2)
		byCode := map[string]domain.CartItem{}
		for _, it := range cart.Items {
			byCode[it.Code] = it
		}
		assert.Equal(t, 3, byCode["P100"].Quantity)
		assert.Equal(t, 1, byCode["P101"].Quantity)
		assert.True(t, decimal.RequireFromString("147.40").Equal(cart.TotalAmount()))
	})

	t.Run("set quantity", func(t *testing.T) {
		cart, err := repo.SetQuantity(ctx, cartID, "P101", 4)
		require.NoError(t, err)
		for _, it := range cart.Items {
			if it.Code == "P101" {
				assert.Equal(t, 4, it.Quantity)
			}
		}

		_, err = repo.SetQuantity(ctx, cartID, "NOPE", 1)
		assert.ErrorIs(t, err, domain.ErrCartItemNotFound)
	})

	t.Run("remove item", func(t *testing.T) {
		cart, err := repo.RemoveItem(ctx, cartID, "P100")
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, "P101", cart.Items[0].Code)

		_, err = repo.RemoveItem(ctx, cartID, "P100")
		assert.ErrorIs(t, err, domain.ErrCartItemNotFound)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, repo.Clear(ctx, cartID))
		cart, err := repo.Get(ctx, cartID)
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
	})
}

func TestMemoryCartRepository(t *testing.T) {
	exerciseCartRepository(t, NewMemoryCartRepository(quietLogger()))
}

func TestMemoryCartRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemoryCartRepository(quietLogger())
	ctx := context.Background()

	cart, err := repo.AddItem(ctx, "c1", item("P100", "10", 1))
	require.NoError(t, err)
	cart.Items[0].Quantity = 99

	again, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Items[0].Quantity)
}

func TestPostgresCartRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres cart repository test")
	}
	ctx := context.Background()

	database, err := db.Connect(ctx, dsn)
	require.NoError(t, err)
	defer database.Close()
	require.NoError(t, Migrate(ctx, database))

	exerciseCartRepository(t, NewPostgresCartRepository(database, quietLogger()))
}
