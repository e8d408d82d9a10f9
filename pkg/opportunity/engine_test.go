package opportunity

import (
	"testing"
	"time"

	"sales-insights/pkg/models"
	"sales-insights/pkg/rfm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func sale(customer, product string, amount float64) models.Transaction {
	return models.Transaction{CustomerID: customer, ProductID: product, Date: day, Quantity: 1, Amount: amount}
}

func newEngine(t *testing.T, minValue float64) *Engine {
	t.Helper()
	e, err := New(models.OpportunityConfig{MinValue: minValue, TopN: 5}, nil)
	require.NoError(t, err)
	return e
}

func TestPrioritize(t *testing.T) {
	assert.Equal(t, models.PriorityHigh, Prioritize(1, 600))
	assert.Equal(t, models.PriorityMedium, Prioritize(0.5, 600))
	assert.Equal(t, models.PriorityLow, Prioritize(0.1, 1000))
	assert.Equal(t, models.PriorityMedium, Prioritize(1, 500))
	assert.Equal(t, models.PriorityLow, Prioritize(1, 200))
}

func TestGenerate_CrossSell(t *testing.T) {
	txs := []models.Transaction{
		sale("C1", "A", 100),
		sale("C1", "X", 10),
		sale("C2", "A", 100),
		sale("C2", "B", 300),
		sale("C3", "B", 500),
	}
	rules := []models.Rule{
		{Antecedent: "A", Consequent: "B", Confidence: 0.8, Lift: 1.5},
		{Antecedent: "X", Consequent: "B", Confidence: 0.6, Lift: 1.2},
		{Antecedent: "B", Consequent: "A", Confidence: 0.4, Lift: 1.1},
	}
	products := []models.Product{{ProductID: "B", Name: "Bomba"}}
	customers := []models.Customer{{CustomerID: "C1", Name: "Cliente Um"}}

	opps := newEngine(t, 0).Generate(Input{
		Transactions: txs, Rules: rules, Customers: customers, Products: products,
	})
	require.Len(t, opps, 2)

	// C1 owns A and X: only the first rule for B is kept
	b := opps[0]
	assert.Equal(t, models.CrossSell, b.Type)
	assert.Equal(t, "C1", b.CustomerID)
	assert.Equal(t, "Cliente Um", b.CustomerName)
	assert.Equal(t, "B", b.SuggestedProduct)
	assert.Equal(t, "Bomba", b.ProductName)
	assert.Equal(t, []string{"A"}, b.BasedOn)
	assert.Equal(t, 0.8, b.Probability)
	assert.InDelta(t, 400.0, b.EstimatedValue, 1e-9)
	assert.Equal(t, models.PriorityMedium, b.Priority)
	assert.Equal(t, "Oferecer Bomba", b.Action)

	// C3 owns B only; falls back to raw ids for names
	a := opps[1]
	assert.Equal(t, "C3", a.CustomerID)
	assert.Equal(t, "C3", a.CustomerName)
	assert.Equal(t, "A", a.ProductName)
	assert.InDelta(t, 100.0, a.EstimatedValue, 1e-9)
	assert.Equal(t, models.PriorityLow, a.Priority)
}

func TestGenerate_Reactivation(t *testing.T) {
	records := []models.RFMRecord{
		{CustomerID: "R1", Segment: rfm.AtRisk, SegmentAction: "ligar", Monetary: 1000, R: 3, F: 2, M: 2, RecencyDays: 120},
		{CustomerID: "R2", Segment: rfm.AboutToSleep, Monetary: 5000, R: 3, F: 1, M: 1},
		{CustomerID: "R3", Segment: rfm.Lost, Monetary: 2000, R: 3, F: 1, M: 1},
		{CustomerID: "R4", Segment: rfm.Hibernating, Monetary: 1000, R: 3, F: 1, M: 1},
		{CustomerID: "N1", Segment: rfm.NeedAttention, Monetary: 9000, R: 3, F: 2, M: 2},
	}
	opps := newEngine(t, 0).Generate(Input{Records: records})
	react := ByType(opps, models.Reactivation)
	require.Len(t, react, 4)

	byID := map[string]models.Opportunity{}
	for _, op := range react {
		byID[op.CustomerID] = op
	}
	assert.InDelta(t, 90.0, byID["R1"].EstimatedValue, 1e-9)
	assert.Equal(t, 0.3, byID["R1"].SuccessProbability)
	assert.Equal(t, "ligar", byID["R1"].Action)
	assert.Equal(t, 120, byID["R1"].DaysSincePurchase)
	assert.Equal(t, models.PriorityLow, byID["R1"].Priority)

	// 5000 * 0.3 * 0.4; priority on 0.4 * 1500/1000 = 0.6
	assert.InDelta(t, 600.0, byID["R2"].EstimatedValue, 1e-9)
	assert.Equal(t, models.PriorityHigh, byID["R2"].Priority)

	assert.InDelta(t, 30.0, byID["R3"].EstimatedValue, 1e-9)
	assert.InDelta(t, 45.0, byID["R4"].EstimatedValue, 1e-9)
	assert.Equal(t, "Campanha de reactivação", byID["R4"].Action)
	assert.Empty(t, ByCustomer(opps, "N1"))
}

func TestGenerate_ChurnRiskNet(t *testing.T) {
	records := []models.RFMRecord{
		// good customer with degrading recency, not labelled At Risk
		{CustomerID: "G1", Segment: rfm.Others, R: 1, F: 4, M: 4, RFMScore: "144", Monetary: 2000},
		{CustomerID: "G2", Segment: rfm.Loyal, R: 3, F: 4, M: 4, RFMScore: "344", Monetary: 2000},
	}
	opps := newEngine(t, 0).Generate(Input{Records: records})
	churn := ByType(opps, models.ChurnRisk)
	require.Len(t, churn, 1)
	op := churn[0]
	assert.Equal(t, "G1", op.CustomerID)
	assert.Equal(t, 1.0, op.RiskScore)
	assert.InDelta(t, 1000.0, op.ValueAtRisk, 1e-9)
	assert.InDelta(t, 300.0, op.EstimatedValue, 1e-9)
	assert.Equal(t, models.PriorityHigh, op.Priority)
	assert.Equal(t, "144", op.RFMScore)
}

func TestGenerate_ChurnRiskPriorityFromRisk(t *testing.T) {
	records := []models.RFMRecord{
		{CustomerID: "A", Segment: rfm.AtRisk, R: 4, F: 3, M: 3, Monetary: 100000},
	}
	opps := newEngine(t, 0).Generate(Input{Records: records})
	churn := ByType(opps, models.ChurnRisk)
	require.Len(t, churn, 1)
	assert.Equal(t, 0.25, churn[0].RiskScore)
	assert.Equal(t, models.PriorityMedium, churn[0].Priority)
}

func TestGenerate_AtRiskCustomerInBothLists(t *testing.T) {
	records := []models.RFMRecord{
		{CustomerID: "A", Segment: rfm.AtRisk, R: 1, F: 4, M: 5, Monetary: 3000},
	}
	opps := newEngine(t, 0).Generate(Input{Records: records})
	require.Len(t, opps, 2)
	assert.Len(t, ByCustomer(opps, "A"), 2)
	assert.Equal(t, models.ChurnRisk, opps[0].Type) // 450 > 270
	assert.NotEqual(t, opps[0].ID, opps[1].ID)
}

func TestGenerate_SortsAndFilters(t *testing.T) {
	records := []models.RFMRecord{
		{CustomerID: "A", Segment: rfm.Hibernating, R: 1, F: 1, M: 1, Monetary: 100},
		{CustomerID: "B", Segment: rfm.AtRisk, R: 1, F: 4, M: 5, Monetary: 3000},
		{CustomerID: "C", Segment: rfm.AboutToSleep, R: 2, F: 1, M: 1, Monetary: 1200},
	}
	opps := newEngine(t, 100).Generate(Input{Records: records})
	require.NotEmpty(t, opps)
	for i, op := range opps {
		assert.GreaterOrEqual(t, op.EstimatedValue, 100.0)
		if i > 0 {
			assert.GreaterOrEqual(t, opps[i-1].EstimatedValue, op.EstimatedValue)
		}
	}
	assert.Empty(t, ByCustomer(opps, "A"))
	assert.Len(t, opps, 3)
}

func TestGenerate_EmptyInput(t *testing.T) {
	opps := newEngine(t, 0).Generate(Input{})
	assert.NotNil(t, opps)
	assert.Empty(t, opps)
}

func TestGenerate_DeterministicIDs(t *testing.T) {
	in := Input{
		Transactions: []models.Transaction{sale("C1", "A", 10), sale("C2", "B", 10)},
		Rules:        []models.Rule{{Antecedent: "A", Consequent: "B", Confidence: 0.5, Lift: 2}},
		Records:      []models.RFMRecord{{CustomerID: "C1", Segment: rfm.AtRisk, R: 1, F: 3, M: 3, Monetary: 500}},
	}
	e := newEngine(t, 0)
	first := e.Generate(in)
	assert.Equal(t, first, e.Generate(in))

	ids := map[string]struct{}{}
	for _, op := range first {
		ids[op.ID] = struct{}{}
	}
	assert.Len(t, ids, len(first))
}

func TestNew_RejectsNegativeMinValue(t *testing.T) {
	_, err := New(models.OpportunityConfig{MinValue: -1}, nil)
	assert.ErrorIs(t, err, models.ErrInvalidConfig)
}
