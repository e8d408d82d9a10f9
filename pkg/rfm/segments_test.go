package rfm

import (
	"testing"

	"sales-insights/pkg/models"

	"github.com/stretchr/testify/assert"
)

func TestAssign_FirstMatchWins(t *testing.T) {
	cases := []struct {
		r, f, m int
		want    string
	}{
		{5, 5, 5, Champions},
		{3, 4, 5, Loyal},
		{3, 1, 1, PotentialLoyalist},
		{5, 1, 5, NewCustomers},
		{2, 3, 3, NeedAttention},
		{2, 1, 2, AboutToSleep},
		{1, 4, 4, AtRisk},
		{2, 5, 3, AtRisk},
		{1, 1, 1, Hibernating},
		{1, 3, 1, Lost},
		{2, 4, 1, Others},
	}
	for _, c := range cases {
		got := Assign(c.r, c.f, c.m)
		assert.Equal(t, c.want, got.Name, "R=%d F=%d M=%d", c.r, c.f, c.m)
		assert.NotEmpty(t, got.Action)
	}
}

func TestAssign_EveryTripleHasASegment(t *testing.T) {
	for r := 1; r <= 5; r++ {
		for f := 1; f <= 5; f++ {
			for m := 1; m <= 5; m++ {
				assert.NotEmpty(t, Assign(r, f, m).Name)
			}
		}
	}
}

func TestLookup(t *testing.T) {
	s, ok := Lookup(AtRisk)
	assert.True(t, ok)
	assert.Equal(t, "Enviar campanha de reactivação, ligar", s.Action)

	s, ok = Lookup(Others)
	assert.True(t, ok)
	assert.Equal(t, "Analisar caso a caso", s.Action)

	_, ok = Lookup("Dormant")
	assert.False(t, ok)
}

func TestQueries(t *testing.T) {
	res := &Result{Records: []models.RFMRecord{
		{CustomerID: "A", Segment: Champions, Monetary: 1000, RecencyDays: 5},
		{CustomerID: "B", Segment: Loyal, Monetary: 600, RecencyDays: 15},
		{CustomerID: "C", Segment: AtRisk, Monetary: 300, RecencyDays: 200},
		{CustomerID: "D", Segment: Hibernating, Monetary: 50, RecencyDays: 300},
		{CustomerID: "E", Segment: Lost, Monetary: 400, RecencyDays: 400},
		{CustomerID: "F", Segment: AboutToSleep, Monetary: 150, RecencyDays: 100},
	}}

	assert.Len(t, res.BySegment(AtRisk), 1)
	assert.Len(t, res.Champions(), 2)

	atRisk := res.AtRisk()
	assert.ElementsMatch(t, []string{"C", "D", "F"}, ids(atRisk))

	targets := res.ReactivationTargets(100)
	assert.Equal(t, []string{"E", "C"}, ids(targets))

	in := res.Insights()
	assert.Equal(t, 6, in.TotalCustomers)
	assert.InDelta(t, 2500.0, in.TotalValue, 1e-9)
	assert.Equal(t, 2, in.Champions.Count)
	assert.InDelta(t, 64.0, in.Champions.ValuePercentage, 1e-9)
	assert.InDelta(t, 10.0, in.Champions.AvgRecencyDays, 1e-9)
	assert.Equal(t, 3, in.AtRisk.Count)
	assert.InDelta(t, 50.0, in.AtRisk.Percentage, 1e-9)
	assert.Len(t, in.Messages, 4)
	assert.Equal(t, "3 clientes (50.0%) precisam de reactivação", in.Messages[1])
}

func ids(recs []models.RFMRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.CustomerID)
	}
	return out
}
