package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"orderconv/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA busy_timeout = 5000;`,
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS products (
  code TEXT PRIMARY KEY,
  displayName TEXT NOT NULL,
  baseName TEXT,
  strength TEXT,
  variant TEXT,
  division TEXT,
  packSize REAL,
  boxPackSize REAL,
  lastSeenAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_products_displayName ON products(displayName);
CREATE INDEX IF NOT EXISTS idx_products_baseName ON products(baseName);

CREATE TABLE IF NOT EXISTS customers (
  code TEXT PRIMARY KEY,
  displayName TEXT NOT NULL,
  taxId TEXT,
  licenseIds TEXT,
  lastSeenAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_customers_displayName ON customers(displayName);

CREATE TABLE IF NOT EXISTS schemes (
  productCode TEXT PRIMARY KEY,
  active INTEGER NOT NULL DEFAULT 1,
  slabsJson TEXT NOT NULL,
  lastSeenAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS order_docs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  filename TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS line_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  orderId INTEGER NOT NULL,
  filename TEXT NOT NULL,
  customerName TEXT NOT NULL,
  customerCode TEXT,
  rowNo INTEGER NOT NULL,
  rawText TEXT,
  description TEXT,
  productCode TEXT,
  productName TEXT,
  division TEXT,
  qty REAL,
  packSize REAL,
  boxPack REAL,
  freeQty REAL,
  discountPct REAL,
  schemeApplied INTEGER NOT NULL DEFAULT 0,
  confidence REAL,
  strategy TEXT,
  status TEXT NOT NULL,
  reason TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(orderId) REFERENCES order_docs(id)
);
CREATE INDEX IF NOT EXISTS idx_line_items_orderId ON line_items(orderId);

CREATE TABLE IF NOT EXISTS row_issues (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  orderId INTEGER NOT NULL,
  filename TEXT NOT NULL,
  kind TEXT NOT NULL,
  rowNo INTEGER NOT NULL,
  field TEXT,
  value TEXT,
  message TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(orderId) REFERENCES order_docs(id)
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  orderId INTEGER,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(orderId) REFERENCES order_docs(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) UpsertProducts(products []internal.ProductEntry) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO products (code, displayName, baseName, strength, variant, division, packSize, boxPackSize, lastSeenAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(code) DO UPDATE SET
  displayName=excluded.displayName,
  baseName=excluded.baseName,
  strength=excluded.strength,
  variant=excluded.variant,
  division=excluded.division,
  packSize=excluded.packSize,
  boxPackSize=excluded.boxPackSize,
  lastSeenAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range products {
		if _, err := stmt.Exec(
			p.Code, p.DisplayName, p.BaseName, p.Strength, p.Variant,
			p.Division, p.PackSize, p.BoxPackSize,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListProducts() ([]internal.ProductEntry, error) {
	rows, err := d.conn.Query(`
SELECT code, displayName, baseName, strength, variant, division, packSize, boxPackSize
FROM products`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ProductEntry
	for rows.Next() {
		var p internal.ProductEntry
		var baseName, division sql.NullString
		var packSize, boxPackSize sql.NullFloat64
		if err := rows.Scan(
			&p.Code, &p.DisplayName, &baseName, &p.Strength, &p.Variant,
			&division, &packSize, &boxPackSize,
		); err != nil {
			return nil, err
		}
		p.BaseName = baseName.String
		p.Division = division.String
		p.PackSize = packSize.Float64
		p.BoxPackSize = boxPackSize.Float64
		out = append(out, p)
	}

	return out, rows.Err()
}

func (d *DB) UpsertCustomers(customers []internal.CustomerEntry) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO customers (code, displayName, taxId, licenseIds, lastSeenAt)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(code) DO UPDATE SET
  displayName=excluded.displayName,
  taxId=excluded.taxId,
  licenseIds=excluded.licenseIds,
  lastSeenAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range customers {
		licenseJSON, _ := json.Marshal(c.LicenseIDs)
		if _, err := stmt.Exec(c.Code, c.DisplayName, c.TaxID, string(licenseJSON)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListCustomers() ([]internal.CustomerEntry, error) {
	rows, err := d.conn.Query(`SELECT code, displayName, taxId, licenseIds FROM customers`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CustomerEntry
	for rows.Next() {
		var c internal.CustomerEntry
		var licenseJSON sql.NullString
		if err := rows.Scan(&c.Code, &c.DisplayName, &c.TaxID, &licenseJSON); err != nil {
			return nil, err
		}
		if licenseJSON.Valid {
			_ = json.Unmarshal([]byte(licenseJSON.String), &c.LicenseIDs)
		}
		out = append(out, c)
	}

	return out, rows.Err()
}

func (d *DB) UpsertSchemes(schemes []internal.Scheme) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO schemes (productCode, active, slabsJson, lastSeenAt)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(productCode) DO UPDATE SET
  active=excluded.active,
  slabsJson=excluded.slabsJson,
  lastSeenAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range schemes {
		slabsJSON, _ := json.Marshal(s.Slabs)
		if _, err := stmt.Exec(s.ProductCode, s.Active, string(slabsJSON)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListSchemes() ([]internal.Scheme, error) {
	rows, err := d.conn.Query(`SELECT productCode, active, slabsJson FROM schemes`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Scheme
	for rows.Next() {
		var s internal.Scheme
		var slabsJSON string
		if err := rows.Scan(&s.ProductCode, &s.Active, &slabsJSON); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(slabsJSON), &s.Slabs)
		out = append(out, s)
	}

	return out, rows.Err()
}

func (d *DB) UpsertOrderDoc(provider, messageID, subject, sender, receivedAt, filename, hash, rawRef, status string) (internal.OrderDocRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO order_docs (provider, messageId, subject, sender, receivedAt, filename, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  filename=excluded.filename,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, filename, hash, status, rawRef)
	if err != nil {
		return internal.OrderDocRow{}, err
	}

	row, err := d.GetOrderDocByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.OrderDocRow{}, err
	}
	if row == nil {
		return internal.OrderDocRow{}, errors.New("failed to upsert order doc")
	}
	return *row, nil
}

const orderDocColumns = `id, provider, messageId, subject, sender, receivedAt, filename, hash, status, rawRef`

func (d *DB) GetOrderDocByProviderMessageID(provider, messageID string) (*internal.OrderDocRow, error) {
	return d.getOrderDoc(`WHERE provider = ? AND messageId = ?`, provider, messageID)
}

func (d *DB) GetOrderDocByID(id int) (*internal.OrderDocRow, error) {
	return d.getOrderDoc(`WHERE id = ?`, id)
}

func (d *DB) getOrderDoc(where string, args ...any) (*internal.OrderDocRow, error) {
	var row internal.OrderDocRow
	err := d.conn.QueryRow(`SELECT `+orderDocColumns+` FROM order_docs `+where, args...).Scan(
		&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Filename, &row.Hash, &row.Status, &row.RawRef,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListOrderDocsByStatus(status string, limit int) ([]internal.OrderDocRow, error) {
	rows, err := d.conn.Query(
		`SELECT `+orderDocColumns+` FROM order_docs WHERE status = ? ORDER BY receivedAt ASC LIMIT ?`,
		status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.OrderDocRow
	for rows.Next() {
		var row internal.OrderDocRow
		if err := rows.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Filename, &row.Hash, &row.Status, &row.RawRef); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateOrderDocStatus(orderID int, status string) error {
	_, err := d.conn.Exec(`UPDATE order_docs SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, orderID)
	return err
}

func (d *DB) ClearOrderProcessing(orderID int) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM line_items WHERE orderId = ?`, orderID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM row_issues WHERE orderId = ?`, orderID); err != nil {
		return err
	}

	return tx.Commit()
}

func (d *DB) SaveConversion(orderID int, filename string, result internal.ConversionResult) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO line_items (
  orderId, filename, customerName, customerCode, rowNo, rawText, description,
  productCode, productName, division, qty, packSize, boxPack, freeQty,
  discountPct, schemeApplied, confidence, strategy, status, reason
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, item := range result.Items {
		if _, err := stmt.Exec(
			orderID, filename, result.CustomerName, result.CustomerCode,
			item.RowNo, item.RawText, item.Description,
			item.ProductCode, item.ProductName, item.Division,
			item.Qty, item.PackSize, item.BoxPack, item.FreeQty,
			item.DiscountPct, item.SchemeApplied, item.Confidence, string(item.Strategy),
			"ok", "",
		); err != nil {
			return err
		}
	}
	for _, failed := range result.Failed {
		if _, err := stmt.Exec(
			orderID, filename, result.CustomerName, result.CustomerCode,
			failed.RowNo, "", failed.Description,
			"", "", "",
			0.0, 0.0, 0.0, 0.0,
			0.0, false, 0.0, string(internal.StrategyNone),
			"failed", failed.Reason,
		); err != nil {
			return err
		}
	}

	issueStmt, err := tx.Prepare(`
INSERT INTO row_issues (orderId, filename, kind, rowNo, field, value, message)
VALUES (?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer issueStmt.Close()

	for _, issue := range result.Errors {
		if _, err := issueStmt.Exec(orderID, filename, "error", issue.RowNo, issue.Field, issue.Value, issue.Message); err != nil {
			return err
		}
	}
	for _, issue := range result.Warnings {
		if _, err := issueStmt.Exec(orderID, filename, "warning", issue.RowNo, issue.Field, issue.Value, issue.Message); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) GetExportRows(orderID int) ([]internal.ExportRow, error) {
	rows, err := d.conn.Query(`
SELECT
  rowNo, filename, customerName, rawText, description,
  productCode, productName, division, qty, packSize, boxPack,
  freeQty, discountPct, schemeApplied, confidence, strategy, status, reason
FROM line_items
WHERE orderId = ?
ORDER BY
  CASE status WHEN 'ok' THEN 1 ELSE 2 END,
  filename ASC,
  rowNo ASC
`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ExportRow
	for rows.Next() {
		var row internal.ExportRow
		if err := rows.Scan(
			&row.RowNo, &row.Filename, &row.CustomerName, &row.RawText, &row.Description,
			&row.ProductCode, &row.ProductName, &row.Division, &row.Qty, &row.PackSize, &row.BoxPack,
			&row.FreeQty, &row.DiscountPct, &row.SchemeApplied, &row.Confidence, &row.Strategy, &row.Status, &row.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

func (d *DB) InsertRun(traceID string, orderID int, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, orderId, timingsJson, countsJson) VALUES (?, ?, ?, ?)`, traceID, orderID, string(timingsJSON), string(countsJSON))
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP`,
		key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	switch err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &value, nil
}

func (d *DB) MustOrderDocByProviderMessageID(provider, messageID string) (internal.OrderDocRow, error) {
	row, err := d.GetOrderDocByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.OrderDocRow{}, err
	}
	if row == nil {
		return internal.OrderDocRow{}, fmt.Errorf("order doc not found: provider=%s messageId=%s", provider, messageID)
	}
	return *row, nil
}
