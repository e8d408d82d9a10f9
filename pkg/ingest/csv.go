package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"sales-insights/pkg/logging"
	"sales-insights/pkg/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"
)

// Alias de colonnes, le premier trouvé l'emporte. En-têtes en minuscules et sans espaces.
var (
	salesColumns = map[string][]string{
		"date":        {"data", "date", "dt", "data_venda", "sale_date", "invoice_date", "data_factura"},
		"customer_id": {"cliente_id", "customer_id", "client_id", "cliente", "customer", "cod_cliente", "id_cliente"},
		"product_id":  {"produto_id", "product_id", "item_id", "produto", "product", "cod_produto", "sku", "artigo"},
		"quantity":    {"quantidade", "quantity", "qty", "qtd", "qtde", "unidades"},
		"amount":      {"valor", "value", "amount", "total", "preco_total", "valor_total", "revenue", "montante"},
	}
	customerColumns = map[string][]string{
		"customer_id": salesColumns["customer_id"],
		"name":        {"nome", "name", "cliente_nome", "customer_name", "razao_social"},
		"segment":     {"segmento", "segment", "tipo", "type", "categoria"},
		"region":      {"regiao", "region", "zona", "area", "distrito"},
	}
	productColumns = map[string][]string{
		"product_id": salesColumns["product_id"],
		"name":       {"nome", "name", "descricao", "description", "produto_nome"},
		"category":   {"categoria", "category", "grupo", "group", "familia"},
		"unit_price": {"preco_unitario", "unit_price", "preco", "price", "pvp"},
	}
)

var separators = []rune{',', ';', '\t', '|'}

// Formats jour d'abord, essayés dans l'ordre.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"02-01-2006",
	"02.01.2006",
	"2006/01/02",
	"2/1/2006",
}

type table struct {
	header map[string]int
	rows   [][]string
}

func (t *table) get(row []string, col string) string {
	i, ok := t.header[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// readTable décode le CSV en devinant le séparateur et renomme les colonnes en noms canoniques.
func readTable(r io.Reader, aliases map[string][]string) (*table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		if data, err = charmap.Windows1252.NewDecoder().Bytes(data); err != nil {
			return nil, fmt.Errorf("decode cp1252: %w", err)
		}
	}

	var records [][]string
	for _, sep := range separators {
		cr := csv.NewReader(bytes.NewReader(data))
		cr.Comma = sep
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		recs, err := cr.ReadAll()
		if err != nil || len(recs) == 0 || len(recs[0]) < 2 {
			continue
		}
		records = recs
		break
	}
	if records == nil {
		return nil, fmt.Errorf("csv illisible: aucun séparateur reconnu")
	}

	raw := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		raw[strings.ToLower(strings.TrimSpace(h))] = i
	}
	t := &table{header: make(map[string]int), rows: records[1:]}
	for canonical, names := range aliases {
		for _, n := range names {
			if i, ok := raw[n]; ok {
				t.header[canonical] = i
				break
			}
		}
	}
	return t, nil
}

func (t *table) require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if _, ok := t.header[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("colonnes obligatoires manquantes: %v", missing)
	}
	return nil
}

// ReadTransactions normalise un CSV de ventes : dates jour d'abord (lignes invalides écartées),
// identifiants nettoyés (vides écartés), montant converti (invalide = 0), quantité 1 par défaut,
// lignes à montant <= 0 écartées, tri stable par date.
func ReadTransactions(r io.Reader, log logrus.FieldLogger) ([]models.Transaction, error) {
	log = logging.OrDiscard(log)
	t, err := readTable(r, salesColumns)
	if err != nil {
		return nil, err
	}
	if err := t.require("date", "customer_id", "product_id", "amount"); err != nil {
		return nil, err
	}

	txs := make([]models.Transaction, 0, len(t.rows))
	var badDates, nonPositive, missingIDs int
	for _, row := range t.rows {
		date, ok := ParseDate(t.get(row, "date"))
		if !ok {
			badDates++
			continue
		}
		amount := ParseAmount(t.get(row, "amount"))
		if amount <= 0 {
			nonPositive++
			continue
		}
		customerID, productID := t.get(row, "customer_id"), t.get(row, "product_id")
		if customerID == "" || productID == "" {
			missingIDs++
			continue
		}
		txs = append(txs, models.Transaction{
			CustomerID: customerID,
			ProductID:  productID,
			Date:       date,
			Quantity:   parseQuantity(t.get(row, "quantity")),
			Amount:     amount,
		})
	}
	if badDates > 0 {
		log.WithField("rows", badDates).Warn("lignes à date invalide écartées")
	}
	slices.SortStableFunc(txs, func(a, b models.Transaction) int { return a.Date.Compare(b.Date) })

	log.WithFields(logrus.Fields{
		"rows":         len(txs),
		"non_positive": nonPositive,
		"missing_ids":  missingIDs,
	}).Info("ventes chargées")
	return txs, nil
}

func ReadCustomers(r io.Reader) ([]models.Customer, error) {
	t, err := readTable(r, customerColumns)
	if err != nil {
		return nil, err
	}
	if err := t.require("customer_id"); err != nil {
		return nil, err
	}
	out := make([]models.Customer, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, models.Customer{
			CustomerID: t.get(row, "customer_id"),
			Name:       t.get(row, "name"),
			Segment:    t.get(row, "segment"),
			Region:     t.get(row, "region"),
		})
	}
	return out, nil
}

func ReadProducts(r io.Reader) ([]models.Product, error) {
	t, err := readTable(r, productColumns)
	if err != nil {
		return nil, err
	}
	if err := t.require("product_id"); err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, models.Product{
			ProductID: t.get(row, "product_id"),
			Name:      t.get(row, "name"),
			Category:  t.get(row, "category"),
			UnitPrice: ParseAmount(t.get(row, "unit_price")),
		})
	}
	return out, nil
}

func openCSV(path string) (*os.File, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".csv" {
		return nil, fmt.Errorf("format non supporté: %s", ext)
	}
	return os.Open(path)
}

func LoadTransactionsFile(path string, log logrus.FieldLogger) ([]models.Transaction, error) {
	f, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	txs, err := ReadTransactions(f, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return txs, nil
}

func LoadCustomersFile(path string) ([]models.Customer, error) {
	f, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCustomers(f)
}

func LoadProductsFile(path string) ([]models.Product, error) {
	f, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadProducts(f)
}

// ParseDate essaie les formats jour d'abord.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseAmount accepte "1234.5", "1234,5", "1.234,50", "1,234.50" et un symbole monétaire
// en tête ou en fin. Tout le reste vaut 0.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(strings.Trim(s, "€$ "))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0
	}
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseQuantity(s string) int {
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || v < 1 {
		return 1
	}
	return int(v)
}
