package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"paygate/internal/database"
)

func TestPostgres(t *testing.T) {
	uri := os.Getenv("TEST_DATABASE_URI")
	if uri == "" {
		t.Skip("TEST_DATABASE_URI not set")
	}

	ctx := context.Background()
	db, err := database.NewDB(ctx, uri)
	require.NoError(t, err)
	defer database.CloseDB(db)
	require.NoError(t, database.InitSchema(ctx, db))

	storeSuite{
		merchants: NewPostgresMerchants(db),
		orders:    NewPostgresOrders(db),
		payments:  NewPostgresPayments(db),
	}.run(t)
}
