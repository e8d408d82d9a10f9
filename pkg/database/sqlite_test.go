package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, dsn, err := Open("sqlite://:memory:")
	require.NoError(t, err)
	require.Equal(t, ":memory:", dsn)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE sales (
			customer_id TEXT NOT NULL,
			product_id  TEXT NOT NULL,
			sale_date   DATETIME NOT NULL,
			quantity    INTEGER,
			amount      REAL NOT NULL
		);
		CREATE TABLE customers (customer_id TEXT PRIMARY KEY, name TEXT);
	`)
	require.NoError(t, err)
	return db
}

func TestLoadTransactions_SQLite(t *testing.T) {
	db := openMemory(t)
	d1 := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	for _, row := range []struct {
		c, p   string
		d      time.Time
		q      any
		amount float64
	}{
		{" C1 ", "P1", d1, 2, 40},
		{"C2", "P2", d2, nil, 15},
		{"C3", "P1", d2, 1, 0},   // dropped: amount <= 0
		{"C4", "P3", d1, 1, -10}, // dropped
	} {
		_, err := db.Exec(`INSERT INTO sales VALUES (?, ?, ?, ?, ?)`, row.c, row.p, row.d, row.q, row.amount)
		require.NoError(t, err)
	}

	txs, err := LoadTransactions(context.Background(), db, "sales", nil)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "C2", txs[0].CustomerID)
	assert.Equal(t, 1, txs[0].Quantity)
	assert.True(t, txs[0].Date.Equal(d2))

	assert.Equal(t, "C1", txs[1].CustomerID)
	assert.Equal(t, 2, txs[1].Quantity)
	assert.InDelta(t, 40.0, txs[1].Amount, 1e-9)
}

func TestLoadTransactions_RejectsTableName(t *testing.T) {
	db := openMemory(t)
	_, err := LoadTransactions(context.Background(), db, "sales; DROP TABLE sales", nil)
	assert.Error(t, err)
}

func TestLoadAll_MissingLookupsDegrade(t *testing.T) {
	db := openMemory(t)
	_, err := db.Exec(`INSERT INTO sales VALUES ('C1', 'P1', ?, 1, 10)`, time.Now().UTC())
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO customers VALUES ('C1', 'Padaria Central')`)
	require.NoError(t, err)

	ds, err := LoadAll(context.Background(), db, DefaultTables(), nil)
	require.NoError(t, err)
	assert.Len(t, ds.Transactions, 1)
	require.Len(t, ds.Customers, 1)
	assert.Equal(t, "Padaria Central", ds.Customers[0].Name)
	assert.Nil(t, ds.Products) // no products table
}

func TestLoadAll_MissingSalesTable(t *testing.T) {
	db := openMemory(t)
	_, err := LoadAll(context.Background(), db, Tables{Sales: "vendas"}, nil)
	assert.Error(t, err)
}
