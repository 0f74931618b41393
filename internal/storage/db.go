// Package storage is the SQLite persistence gateway. Every mutating
// operation takes an explicit commit flag; passing false rolls the
// transaction back, which makes dry runs cheap.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"kbsync/internal"
	"kbsync/internal/util"
)

const (
	TableOrders          = "shiprocket_orders"
	TableCustoms         = "kbe_import_export"
	TableImporterMapping = "kbe_importer_mapping"
)

// dateColumns registers, per table, the column used by date-range deletes.
var dateColumns = map[string]string{
	TableOrders:  "shiprocket_created_at",
	TableCustoms: "date",
}

// knownTables is the allowlist for operations that interpolate a table name.
var knownTables = map[string]struct{}{
	TableOrders:          {},
	TableCustoms:         {},
	TableImporterMapping: {},
}

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

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
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
CREATE TABLE IF NOT EXISTS shiprocket_orders (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  shiprocket_id INTEGER NOT NULL,
  channel_order_id TEXT,
  shiprocket_created_at TEXT,
  invoice_no TEXT,
  customer_name TEXT,
  customer_email TEXT,
  customer_phone TEXT,
  customer_address TEXT,
  customer_address_2 TEXT,
  customer_city TEXT,
  customer_state TEXT,
  customer_pincode TEXT,
  status TEXT,
  payment_method TEXT,
  item_name TEXT,
  tax_percent TEXT,
  item_quantity REAL,
  item_net_price_excl_deduction REAL,
  item_sp_excl_tax REAL,
  item_disc_excl_tax REAL,
  item_sp_incl_tax REAL,
  item_disc_incl_tax REAL,
  order_total REAL,
  other_deduction REAL,
  picked_up_date TEXT,
  etd_date TEXT,
  out_for_delivery_date TEXT,
  delivered_date TEXT,
  rto_initiated_date TEXT,
  rto_delivered_date TEXT,
  cod_charges REAL,
  applied_weight_amount REAL,
  freight_charges REAL,
  charged_weight_amount REAL,
  charged_weight_amount_rto REAL,
  applied_weight_amount_rto REAL,
  billing_amount REAL,
  other_charges REAL,
  giftwrap_charges REAL,
  courier TEXT,
  weight REAL,
  dimensions TEXT,
  applied_weight REAL,
  charged_weight REAL,
  pickedup_timestamp TEXT,
  awb TEXT,
  delivery_executive_name TEXT,
  rto_risk TEXT,
  pickup_location TEXT,
  imported_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_orders_shiprocket_id ON shiprocket_orders(shiprocket_id);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON shiprocket_orders(shiprocket_created_at);

CREATE TABLE IF NOT EXISTS kbe_import_export (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  date TEXT,
  hs_code REAL,
  product_description TEXT,
  product_classified TEXT,
  quantity REAL,
  unit TEXT,
  fob_value_inr REAL,
  unit_price_inr REAL,
  fob_value_usd REAL,
  fob_value_foreign_currency REAL,
  unit_price_foreign_currency REAL,
  currency_name TEXT,
  fob_value_in_lacs_inr REAL,
  iec TEXT,
  indian_exporter_name TEXT,
  exporter_address TEXT,
  exporter_city TEXT,
  pin_code INTEGER,
  cha_name TEXT,
  foreign_importer_name TEXT,
  importer_address TEXT,
  importer_country TEXT,
  foreign_port TEXT,
  foreign_country TEXT,
  indian_port TEXT,
  item_no REAL,
  drawback REAL,
  chapter REAL,
  hs_4_digit REAL,
  month TEXT,
  year REAL,
  region TEXT,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_kbe_date ON kbe_import_export(date);
CREATE INDEX IF NOT EXISTS idx_kbe_classified ON kbe_import_export(product_classified);

CREATE TABLE IF NOT EXISTS kbe_importer_mapping (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  original_importer_name TEXT NOT NULL,
  standardized_importer_name TEXT NOT NULL,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  trace_id TEXT NOT NULL,
  stage TEXT NOT NULL,
  counts_json TEXT NOT NULL,
  duration_ms REAL NOT NULL,
  status TEXT NOT NULL,
  error TEXT,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func checkTable(table string) error {
	if _, ok := knownTables[table]; !ok {
		return fmt.Errorf("unknown table: %s", table)
	}
	return nil
}

func finish(tx *sql.Tx, commit bool) error {
	if commit {
		return tx.Commit()
	}
	return tx.Rollback()
}

// InsertOrderRows bulk-appends flattened order rows.
func (d *DB) InsertOrderRows(rows []internal.FlatOrderRow, commit bool) (int, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertOrderRowsTx(tx, rows); err != nil {
		return 0, err
	}
	return len(rows), finish(tx, commit)
}

// ReplaceOrders deletes every row of the given order ids and inserts the
// new rows in the same transaction, so a crash mid-replace cannot leave a
// range half-deleted.
func (d *DB) ReplaceOrders(ids []int64, rows []internal.FlatOrderRow, commit bool) (int64, int, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	deleted, err := deleteOrdersTx(tx, ids)
	if err != nil {
		return 0, 0, err
	}
	if err := insertOrderRowsTx(tx, rows); err != nil {
		return 0, 0, err
	}
	return deleted, len(rows), finish(tx, commit)
}

func insertOrderRowsTx(tx *sql.Tx, rows []internal.FlatOrderRow) error {
	stmt, err := tx.Prepare(`
INSERT INTO shiprocket_orders (
  shiprocket_id, channel_order_id, shiprocket_created_at, invoice_no,
  customer_name, customer_email, customer_phone, customer_address,
  customer_address_2, customer_city, customer_state, customer_pincode,
  status, payment_method, item_name, tax_percent,
  item_quantity, item_net_price_excl_deduction, item_sp_excl_tax, item_disc_excl_tax,
  item_sp_incl_tax, item_disc_incl_tax, order_total, other_deduction,
  picked_up_date, etd_date, out_for_delivery_date, delivered_date,
  rto_initiated_date, rto_delivered_date, cod_charges, applied_weight_amount,
  freight_charges, charged_weight_amount, charged_weight_amount_rto, applied_weight_amount_rto,
  billing_amount, other_charges, giftwrap_charges, courier,
  weight, dimensions, applied_weight, charged_weight,
  pickedup_timestamp, awb, delivery_executive_name, rto_risk,
  pickup_location
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(
			r.ShiprocketID, r.ChannelOrderID, util.FormatTimestamp(r.ShiprocketCreatedAt), r.InvoiceNo,
			r.CustomerName, r.CustomerEmail, r.CustomerPhone, r.CustomerAddress,
			r.CustomerAddress2, r.CustomerCity, r.CustomerState, r.CustomerPincode,
			r.Status, r.PaymentMethod, r.ItemName, r.TaxPercent,
			r.ItemQuantity, r.ItemNetPriceExclDeduction, r.ItemSpExclTax, r.ItemDiscExclTax,
			r.ItemSpInclTax, r.ItemDiscInclTax, r.OrderTotal, r.OtherDeduction,
			util.FormatTimestamp(r.PickedUpDate), util.FormatTimestamp(r.EtdDate), util.FormatTimestamp(r.OutForDeliveryDate), util.FormatTimestamp(r.DeliveredDate),
			util.FormatTimestamp(r.RtoInitiatedDate), util.FormatTimestamp(r.RtoDeliveredDate), r.CodCharges, r.AppliedWeightAmount,
			r.FreightCharges, r.ChargedWeightAmount, r.ChargedWeightAmountRto, r.AppliedWeightAmountRto,
			r.BillingAmount, r.OtherCharges, r.GiftwrapCharges, r.Courier,
			r.Weight, r.Dimensions, r.AppliedWeight, r.ChargedWeight,
			util.FormatTimestamp(r.PickedupTimestamp), r.Awb, r.DeliveryExecutive, r.RtoRisk,
			r.PickupLocation,
		); err != nil {
			return err
		}
	}
	return nil
}

// DeleteOrdersByShiprocketIDs removes every row whose parent order id is
// in the given set.
func (d *DB) DeleteOrdersByShiprocketIDs(ids []int64, commit bool) (int64, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	deleted, err := deleteOrdersTx(tx, ids)
	if err != nil {
		return 0, err
	}
	return deleted, finish(tx, commit)
}

func deleteOrdersTx(tx *sql.Tx, ids []int64) (int64, error) {
	var total int64
	// SQLite caps bound parameters per statement; delete in chunks.
	const chunkSize = 500
	for start := 0; start < len(ids); start += chunkSize {
		end := start + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		placeholders := strings.Repeat("?,", len(chunk))
		placeholders = placeholders[:len(placeholders)-1]
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}

		res, err := tx.Exec(`DELETE FROM shiprocket_orders WHERE shiprocket_id IN (`+placeholders+`)`, args...)
		if err != nil {
			return 0, err
		}
		affected, _ := res.RowsAffected()
		total += affected
	}
	return total, nil
}

// InsertCustomsRecords bulk-appends processed customs rows.
func (d *DB) InsertCustomsRecords(records []internal.CustomsRecord, commit bool) (int, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertCustomsRecordsTx(tx, records); err != nil {
		return 0, err
	}
	return len(records), finish(tx, commit)
}

// ReplaceCustomsDateRange deletes the covered date range and inserts the
// new rows in the same transaction.
func (d *DB) ReplaceCustomsDateRange(records []internal.CustomsRecord, startDate, endDate string, commit bool) (int64, int, error) {
	if startDate > endDate {
		return 0, 0, fmt.Errorf("start date %s is after end date %s", startDate, endDate)
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	deleted, err := deleteDateRangeTx(tx, TableCustoms, startDate, endDate)
	if err != nil {
		return 0, 0, err
	}
	if err := insertCustomsRecordsTx(tx, records); err != nil {
		return 0, 0, err
	}
	return deleted, len(records), finish(tx, commit)
}

func insertCustomsRecordsTx(tx *sql.Tx, records []internal.CustomsRecord) error {
	stmt, err := tx.Prepare(`
INSERT INTO kbe_import_export (
  date, hs_code, product_description, product_classified, quantity, unit,
  fob_value_inr, unit_price_inr, fob_value_usd, fob_value_foreign_currency,
  unit_price_foreign_currency, currency_name, fob_value_in_lacs_inr,
  iec, indian_exporter_name, exporter_address, exporter_city,
  pin_code, cha_name, foreign_importer_name, importer_address,
  importer_country, foreign_port, foreign_country, indian_port,
  item_no, drawback, chapter, hs_4_digit, month, year, region
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(
			util.FormatTimestamp(r.Date), r.HsCode, r.ProductDescription, r.ProductClassified, r.Quantity, r.Unit,
			r.FobValueINR, r.UnitPriceINR, r.FobValueUSD, r.FobValueForeignCurrency,
			r.UnitPriceForeignCurrency, r.CurrencyName, r.FobValueInLacsINR,
			r.IEC, r.IndianExporterName, r.ExporterAddress, r.ExporterCity,
			r.PinCode, r.ChaName, r.ForeignImporterName, r.ImporterAddress,
			r.ImporterCountry, r.ForeignPort, r.ForeignCountry, r.IndianPort,
			r.ItemNo, r.Drawback, r.Chapter, r.Hs4Digit, r.Month, r.Year, r.Region,
		); err != nil {
			return err
		}
	}
	return nil
}

// DeleteDateRange removes rows of the named table whose registered date
// column falls in [startDate, endDate]. Dates are YYYY-MM-DD strings.
func (d *DB) DeleteDateRange(table, startDate, endDate string, commit bool) (int64, error) {
	if startDate > endDate {
		return 0, fmt.Errorf("start date %s is after end date %s", startDate, endDate)
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	deleted, err := deleteDateRangeTx(tx, table, startDate, endDate)
	if err != nil {
		return 0, err
	}
	return deleted, finish(tx, commit)
}

func deleteDateRangeTx(tx *sql.Tx, table, startDate, endDate string) (int64, error) {
	column, ok := dateColumns[table]
	if !ok {
		return 0, fmt.Errorf("table %s has no registered date column", table)
	}

	// Stored timestamps are "YYYY-MM-DD HH:MM:SS"; widen the upper bound to
	// cover the whole end day.
	res, err := tx.Exec(
		`DELETE FROM `+table+` WHERE `+column+` >= ? AND `+column+` <= ?`,
		startDate, endDate+" 23:59:59",
	)
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// RowCount counts the rows of a known table.
func (d *DB) RowCount(table string) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	var count int64
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&count)
	return count, err
}

// TruncateTable deletes every row of a known table.
func (d *DB) TruncateTable(table string, commit bool) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`DELETE FROM ` + table)
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()

	return affected, finish(tx, commit)
}

// InsertImporterMappings bulk-appends importer-name mapping rows.
func (d *DB) InsertImporterMappings(mappings []internal.ImporterMapping, commit bool) (int, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO kbe_importer_mapping (original_importer_name, standardized_importer_name)
VALUES (?, ?)
`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, m := range mappings {
		if _, err := stmt.Exec(m.OriginalImporterName, m.StandardizedImporterName); err != nil {
			return 0, err
		}
	}

	return len(mappings), finish(tx, commit)
}

// ListCustomsDescriptions streams (id, product_description) pairs for the
// reclassification job.
func (d *DB) ListCustomsDescriptions() ([]internal.CustomsDescription, error) {
	rows, err := d.conn.Query(`SELECT id, COALESCE(product_description, '') FROM kbe_import_export ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CustomsDescription
	for rows.Next() {
		var rec internal.CustomsDescription
		if err := rows.Scan(&rec.ID, &rec.ProductDescription); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpdateClassifications writes reclassification results back.
func (d *DB) UpdateClassifications(updates []internal.ClassificationUpdate, commit bool) (int, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`UPDATE kbe_import_export SET product_classified = ? WHERE id = ?`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.Exec(u.Label, u.ID); err != nil {
			return 0, err
		}
	}

	return len(updates), finish(tx, commit)
}

// InsertRun records one pipeline run summary.
func (d *DB) InsertRun(run internal.RunRecord) error {
	countsJSON, _ := json.Marshal(run.Counts)
	_, err := d.conn.Exec(`
INSERT INTO runs (trace_id, stage, counts_json, duration_ms, status, error)
VALUES (?, ?, ?, ?, ?, ?)
`, run.TraceID, run.Stage, string(countsJSON), float64(run.Duration.Milliseconds()), string(run.Status), run.Error)
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// TableRows reads a whole known table generically, for export.
func (d *DB) TableRows(table string) ([]string, [][]any, error) {
	if err := checkTable(table); err != nil {
		return nil, nil, err
	}

	rows, err := d.conn.Query(`SELECT * FROM ` + table)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, nil, err
		}
		out = append(out, values)
	}

	return columns, out, rows.Err()
}
