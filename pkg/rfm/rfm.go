package rfm

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	"sales-insights/pkg/logging"
	"sales-insights/pkg/models"

	"github.com/sirupsen/logrus"
)

// Scorer calcule les scores Recency/Frequency/Monetary et les segments.
type Scorer struct {
	cfg models.RFMConfig
	log logrus.FieldLogger
	now func() time.Time
}

func New(cfg models.RFMConfig, log logrus.FieldLogger) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("rfm: %w", err)
	}
	return &Scorer{cfg: cfg, log: logging.OrDiscard(log), now: time.Now}, nil
}

// Result : table par client et son résumé par segment.
type Result struct {
	Reference time.Time
	Records   []models.RFMRecord
	Summary   []models.SegmentSummary
}

type aggregate struct {
	customerID string
	last       time.Time
	frequency  int
	monetary   float64
}

// Score agrège par client puis découpe chaque métrique en quantiles. Une référence à zéro
// prend la date configurée, puis maintenant.
func (s *Scorer) Score(txs []models.Transaction, reference time.Time) (*Result, error) {
	if reference.IsZero() {
		reference = s.cfg.ReferenceDate
	}
	if reference.IsZero() {
		reference = s.now()
	}

	aggs := aggregateCustomers(txs)
	res := &Result{Reference: reference, Records: make([]models.RFMRecord, 0, len(aggs))}
	if len(aggs) == 0 {
		res.Summary = []models.SegmentSummary{}
		return res, nil
	}

	rBins, fBins, mBins, err := s.bins(len(aggs))
	if err != nil {
		return nil, err
	}

	recency := make([]float64, len(aggs))
	frequency := make([]float64, len(aggs))
	monetary := make([]float64, len(aggs))
	for i, a := range aggs {
		recency[i] = float64(daysBetween(a.last, reference))
		frequency[i] = float64(a.frequency)
		monetary[i] = a.monetary
	}
	rIdx := QuantileBins(recency, rBins)
	fIdx := QuantileBins(frequency, fBins)
	mIdx := QuantileBins(monetary, mBins)

	for i, a := range aggs {
		r := rBins - rIdx[i] // la plus petite recency tombe dans le bin 0, score le plus haut
		f := fIdx[i] + 1
		m := mIdx[i] + 1
		seg := Assign(r, f, m)
		res.Records = append(res.Records, models.RFMRecord{
			CustomerID:    a.customerID,
			LastPurchase:  a.last,
			RecencyDays:   int(recency[i]),
			Frequency:     a.frequency,
			Monetary:      a.monetary,
			R:             r,
			F:             f,
			M:             m,
			RFMScore:      strconv.Itoa(r) + strconv.Itoa(f) + strconv.Itoa(m),
			Segment:       seg.Name,
			SegmentAction: seg.Action,
		})
	}
	res.Summary = summarize(res.Records)

	s.log.WithFields(logrus.Fields{
		"customers": len(res.Records),
		"segments":  len(res.Summary),
		"reference": reference.Format("2006-01-02"),
	}).Info("scoring RFM terminé")
	return res, nil
}

func (s *Scorer) bins(customers int) (r, f, m int, err error) {
	r, f, m = s.cfg.RBins, s.cfg.FBins, s.cfg.MBins
	if customers >= max(r, f, m) {
		return r, f, m, nil
	}
	if !s.cfg.DegradeBins {
		return 0, 0, 0, fmt.Errorf("rfm: %w: %d customers, bins r=%d f=%d m=%d",
			models.ErrInsufficientCustomers, customers, r, f, m)
	}
	s.log.WithFields(logrus.Fields{
		"customers": customers,
		"r_bins":    r,
		"f_bins":    f,
		"m_bins":    m,
	}).Warn("moins de clients que de quantiles, quantiles réduits")
	return min(r, customers), min(f, customers), min(m, customers), nil
}

// aggregateCustomers réduit les transactions à un agrégat par client, trié par identifiant.
// Cet ordre départage les ex aequo dans le classement des quantiles.
func aggregateCustomers(txs []models.Transaction) []aggregate {
	idx := make(map[string]int)
	var aggs []aggregate
	for _, tx := range txs {
		i, ok := idx[tx.CustomerID]
		if !ok {
			i = len(aggs)
			idx[tx.CustomerID] = i
			aggs = append(aggs, aggregate{customerID: tx.CustomerID, last: tx.Date})
		}
		a := &aggs[i]
		if tx.Date.After(a.last) {
			a.last = tx.Date
		}
		a.frequency++
		a.monetary += tx.Amount
	}
	slices.SortFunc(aggs, func(a, b aggregate) int { return cmp.Compare(a.customerID, b.customerID) })
	return aggs
}

// daysBetween compte les jours entiers entre last et reference, arrondi par défaut.
func daysBetween(last, reference time.Time) int {
	return int(math.Floor(reference.Sub(last).Hours() / 24))
}

// QuantileBins attribue à chaque valeur un bin dans [0, bins) en découpant ses rangs en
// quantiles de même effectif. Rangs 1..n par valeur, ex aequo départagés par position,
// donc tous distincts. Les bornes sont les quantiles interpolés des rangs, intervalles
// fermés à droite.
func QuantileBins(values []float64, bins int) []int {
	n := len(values)
	out := make([]int, n)
	if n == 0 || bins <= 1 {
		return out
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(values[a], values[b]) })

	edges := make([]float64, bins+1)
	for k := range edges {
		edges[k] = 1 + float64((n-1)*k)/float64(bins)
	}

	for pos, i := range order {
		rank := float64(pos + 1)
		b := 0
		for b < bins-1 && rank > edges[b+1] {
			b++
		}
		out[i] = b
	}
	return out
}

func summarize(records []models.RFMRecord) []models.SegmentSummary {
	type acc struct {
		count                      int
		recency, frequency, amount float64
	}
	bySegment := make(map[string]*acc)
	for _, r := range records {
		a, ok := bySegment[r.Segment]
		if !ok {
			a = &acc{}
			bySegment[r.Segment] = a
		}
		a.count++
		a.recency += float64(r.RecencyDays)
		a.frequency += float64(r.Frequency)
		a.amount += r.Monetary
	}

	names := make([]string, 0, len(Segments)+1)
	for _, s := range Segments {
		names = append(names, s.Name)
	}
	names = append(names, Others)

	total := float64(len(records))
	out := make([]models.SegmentSummary, 0, len(bySegment))
	for _, name := range names {
		a, ok := bySegment[name]
		if !ok {
			continue
		}
		n := float64(a.count)
		out = append(out, models.SegmentSummary{
			Segment:        name,
			Count:          a.count,
			AvgRecencyDays: a.recency / n,
			AvgFrequency:   a.frequency / n,
			AvgMonetary:    a.amount / n,
			TotalMonetary:  a.amount,
			Percentage:     n / total * 100,
		})
	}
	return out
}
