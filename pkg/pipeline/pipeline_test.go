package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"sales-insights/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ref = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

// 20 clients : A+E ou A+B pour les pairs, C+D pour les impairs, dates et montants étalés.
func dataset() Input {
	var in Input
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("C%02d", i)
		date := ref.AddDate(0, 0, -10*i)
		items := []string{"A", "B"}
		switch {
		case i%2 == 1:
			items = []string{"C", "D"}
		case i%4 == 0:
			items = []string{"A", "E"}
		}
		for n := 0; n <= i%4; n++ {
			for _, p := range items {
				in.Transactions = append(in.Transactions, models.Transaction{
					CustomerID: id, ProductID: p, Date: date.AddDate(0, 0, -n), Quantity: 1,
					Amount: float64(100 * (i + 1)),
				})
			}
		}
		in.Customers = append(in.Customers, models.Customer{CustomerID: id, Name: "Cliente " + id})
	}
	in.Products = []models.Product{{ProductID: "A", Name: "Adubo"}, {ProductID: "B", Name: "Bomba"}}
	return in
}

func options() Options {
	opts := DefaultOptions()
	opts.Opportunities.MinValue = 0
	opts.Reference = ref
	return opts
}

func TestRun_EndToEnd(t *testing.T) {
	in := dataset()
	var progress bytes.Buffer
	opts := options()
	opts.Progress = &progress

	res, err := Run(context.Background(), in, opts)
	require.NoError(t, err)

	assert.Equal(t, len(in.Transactions), res.Data.Transactions)
	assert.Equal(t, 20, res.Data.UniqueCustomers)
	require.NotEmpty(t, res.Rules)
	for _, r := range res.Rules {
		assert.GreaterOrEqual(t, r.Lift, 1.0)
	}
	assert.Equal(t, len(res.Rules), res.RuleSummary.TotalRules)

	require.NotNil(t, res.RFM)
	assert.Len(t, res.RFM.Records, 20)
	assert.Equal(t, ref, res.RFM.Reference)
	assert.Equal(t, res.RFM.Summary, res.Segments)
	assert.Equal(t, 20, res.Insights.TotalCustomers)

	require.NotEmpty(t, res.Opportunities)
	for i := 1; i < len(res.Opportunities); i++ {
		assert.GreaterOrEqual(t, res.Opportunities[i-1].EstimatedValue, res.Opportunities[i].EstimatedValue)
	}
	assert.Equal(t, len(res.Opportunities), res.Summary.Total)
	assert.LessOrEqual(t, len(res.Summary.Top), opts.Opportunities.TopN)

	// A+E buyers are offered B and A+B buyers E
	crossSell := 0
	for _, op := range res.Opportunities {
		if op.Type != models.CrossSell {
			continue
		}
		crossSell++
		assert.Contains(t, []string{"B", "E"}, op.SuggestedProduct)
		assert.Equal(t, []string{"A"}, op.BasedOn)
		assert.Equal(t, "Cliente "+op.CustomerID, op.CustomerName)
	}
	assert.Equal(t, 10, crossSell)
	assert.NotEmpty(t, progress.String())
}

func TestRun_Idempotent(t *testing.T) {
	in := dataset()
	first, err := Run(context.Background(), in, options())
	require.NoError(t, err)
	second, err := Run(context.Background(), in, options())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRun_EmptyInput(t *testing.T) {
	res, err := Run(context.Background(), Input{}, options())
	require.NoError(t, err)
	assert.Empty(t, res.Rules)
	assert.Empty(t, res.RFM.Records)
	assert.Empty(t, res.Opportunities)
	assert.Zero(t, res.Summary.TotalValue)
}

func TestRun_InvalidConfig(t *testing.T) {
	opts := options()
	opts.Apriori.MinSupport = 0
	res, err := Run(context.Background(), dataset(), opts)
	assert.ErrorIs(t, err, models.ErrInvalidConfig)
	assert.Nil(t, res)

	opts = options()
	opts.Opportunities.MinValue = -5
	_, err = Run(context.Background(), dataset(), opts)
	assert.ErrorIs(t, err, models.ErrInvalidConfig)
}

func TestRun_InsufficientCustomers(t *testing.T) {
	in := Input{Transactions: dataset().Transactions[:4]}
	res, err := Run(context.Background(), in, options())
	assert.ErrorIs(t, err, models.ErrInsufficientCustomers)
	assert.ErrorContains(t, err, "scoring: ")
	assert.Nil(t, res)

	opts := options()
	opts.RFM.DegradeBins = true
	res, err = Run(context.Background(), in, opts)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RFM.Records)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Run(ctx, dataset(), options())
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorContains(t, err, "mining: ")
	assert.Nil(t, res)
}
