package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"sales-insights/pkg/logging"
	"sales-insights/pkg/models"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Tables nomme les tables sources. Customers/Products vides désactivent les lookups.
type Tables struct {
	Sales     string `yaml:"sales"`
	Customers string `yaml:"customers"`
	Products  string `yaml:"products"`
}

func DefaultTables() Tables {
	return Tables{Sales: "sales", Customers: "customers", Products: "products"}
}

var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Open DSN mariadb://, mysql://, postgres://, sqlite:// ou DSN MySQL natif.
// Retourne aussi le DSN effectivement passé au driver.
func Open(dsn string) (*sql.DB, string, error) {
	driver, driverDSN, err := resolveDSN(dsn)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open(driver, driverDSN)
	if err != nil {
		return nil, "", err
	}
	if driver == "sqlite3" {
		// une seule connexion : :memory: est propre à chaque connexion
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, driverDSN, nil
}

func resolveDSN(dsn string) (driver, driverDSN string, err error) {
	switch {
	case strings.HasPrefix(dsn, "mariadb://"), strings.HasPrefix(dsn, "mysql://"):
		d, err := toMySQLDSN(dsn)
		return "mysql", d, err
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "pgx", dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("dsn sqlite sans chemin")
		}
		return "sqlite3", path, nil
	case strings.HasPrefix(dsn, "file:"):
		return "sqlite3", dsn, nil
	}
	return "mysql", dsn, nil
}

func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pw, _ := u.User.Password()
			pass = pw
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("dsn incomplet (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	return dsn, nil
}

func checkTable(name string) error {
	if !tableNameRe.MatchString(name) {
		return fmt.Errorf("table invalide: %q", name)
	}
	return nil
}

// LoadTransactions lit la table des ventes (customer_id, product_id, sale_date, quantity, amount).
// Les lignes à montant <= 0 sont écartées, le résultat est trié par date.
func LoadTransactions(ctx context.Context, db *sql.DB, table string, log logrus.FieldLogger) ([]models.Transaction, error) {
	log = logging.OrDiscard(log)
	if err := checkTable(table); err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
		SELECT customer_id, product_id, sale_date, COALESCE(quantity, 1) AS quantity, amount
		FROM %s
		WHERE amount > 0
		ORDER BY sale_date, customer_id, product_id
	`, table)

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var txs []models.Transaction
	skipped := 0
	for rows.Next() {
		var (
			customerID, productID string
			date                  time.Time
			qty                   sql.NullInt64
			amount                float64
		)
		if err := rows.Scan(&customerID, &productID, &date, &qty, &amount); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		tx := models.Transaction{
			CustomerID: strings.TrimSpace(customerID),
			ProductID:  strings.TrimSpace(productID),
			Date:       date.UTC(),
			Quantity:   1,
			Amount:     amount,
		}
		if qty.Valid && qty.Int64 > 0 {
			tx.Quantity = int(qty.Int64)
		}
		if tx.CustomerID == "" || tx.ProductID == "" {
			skipped++
			continue
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"table":   table,
		"rows":    len(txs),
		"skipped": skipped,
	}).Info("transactions chargées")
	return txs, nil
}

// LoadCustomers lit la table clients (customer_id, name).
func LoadCustomers(ctx context.Context, db *sql.DB, table string) ([]models.Customer, error) {
	var out []models.Customer
	err := loadNames(ctx, db, table, "customer_id", func(id, name string) {
		out = append(out, models.Customer{CustomerID: id, Name: name})
	})
	return out, err
}

// LoadProducts lit la table produits (product_id, name).
func LoadProducts(ctx context.Context, db *sql.DB, table string) ([]models.Product, error) {
	var out []models.Product
	err := loadNames(ctx, db, table, "product_id", func(id, name string) {
		out = append(out, models.Product{ProductID: id, Name: name})
	})
	return out, err
}

func loadNames(ctx context.Context, db *sql.DB, table, idColumn string, add func(id, name string)) error {
	if err := checkTable(table); err != nil {
		return err
	}
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT %s, name FROM %s ORDER BY %s`, idColumn, table, idColumn))
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var name sql.NullString
		if err := rows.Scan(&id, &name); err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
		add(strings.TrimSpace(id), strings.TrimSpace(name.String))
	}
	return rows.Err()
}

// Dataset regroupe les tables lues pour une exécution.
type Dataset struct {
	Transactions []models.Transaction
	Customers    []models.Customer
	Products     []models.Product
}

// LoadAll lit la table des ventes puis les tables de référence. Une table de référence
// absente ou illisible est ignorée : les identifiants bruts servent alors de libellés.
func LoadAll(ctx context.Context, db *sql.DB, tables Tables, log logrus.FieldLogger) (*Dataset, error) {
	log = logging.OrDiscard(log)
	txs, err := LoadTransactions(ctx, db, tables.Sales, log)
	if err != nil {
		return nil, err
	}
	ds := &Dataset{Transactions: txs}

	if tables.Customers != "" {
		if ds.Customers, err = LoadCustomers(ctx, db, tables.Customers); err != nil {
			log.WithError(err).WithField("table", tables.Customers).Warn("table clients indisponible")
			ds.Customers = nil
		}
	}
	if tables.Products != "" {
		if ds.Products, err = LoadProducts(ctx, db, tables.Products); err != nil {
			log.WithError(err).WithField("table", tables.Products).Warn("table produits indisponible")
			ds.Products = nil
		}
	}
	return ds, nil
}
