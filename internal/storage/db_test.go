package storage

import (
	"path/filepath"
	"testing"
	"time"

	"kbsync/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func orderRow(id int64, channel string, created time.Time) internal.FlatOrderRow {
	return internal.FlatOrderRow{
		ShiprocketID:        id,
		ChannelOrderID:      channel,
		ShiprocketCreatedAt: &created,
		ItemName:            "FRESH OKRA",
		OrderTotal:          500,
	}
}

func customsRow(date time.Time, description string) internal.CustomsRecord {
	return internal.CustomsRecord{
		Date:               &date,
		ProductDescription: description,
		ProductClassified:  "OKRA",
		Quantity:           100,
		ForeignCountry:     "UNITED KINGDOM",
		Region:             "Europe",
	}
}

func TestInsertAndDeleteOrders(t *testing.T) {
	db := openTestDB(t)
	created := time.Date(2024, 8, 21, 17, 31, 0, 0, time.UTC)

	inserted, err := db.InsertOrderRows([]internal.FlatOrderRow{
		orderRow(101, "CH-1", created),
		orderRow(101, "CH-1", created),
		orderRow(102, "CH-2", created),
	}, true)
	if err != nil {
		t.Fatal(err)
	}
	if inserted != 3 {
		t.Fatalf("inserted=%d", inserted)
	}

	count, err := db.RowCount(TableOrders)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Fatalf("count=%d", count)
	}

	deleted, err := db.DeleteOrdersByShiprocketIDs([]int64{101}, true)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 2 {
		t.Fatalf("deleted=%d", deleted)
	}

	count, _ = db.RowCount(TableOrders)
	if count != 1 {
		t.Fatalf("count after delete=%d", count)
	}
}

func TestReplaceOrders(t *testing.T) {
	db := openTestDB(t)
	created := time.Date(2024, 8, 21, 17, 31, 0, 0, time.UTC)

	if _, err := db.InsertOrderRows([]internal.FlatOrderRow{
		orderRow(101, "CH-1", created),
		orderRow(101, "CH-1", created),
	}, true); err != nil {
		t.Fatal(err)
	}

	deleted, inserted, err := db.ReplaceOrders([]int64{101}, []internal.FlatOrderRow{
		orderRow(101, "CH-1", created),
	}, true)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 2 || inserted != 1 {
		t.Fatalf("deleted=%d inserted=%d", deleted, inserted)
	}

	count, _ := db.RowCount(TableOrders)
	if count != 1 {
		t.Fatalf("count=%d", count)
	}
}

func TestReplaceCustomsDateRangeNoCommit(t *testing.T) {
	db := openTestDB(t)
	date := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)

	if _, err := db.InsertCustomsRecords([]internal.CustomsRecord{customsRow(date, "FRESH OKRA")}, true); err != nil {
		t.Fatal(err)
	}

	// Dry run reports the replacement but rolls the whole thing back.
	deleted, inserted, err := db.ReplaceCustomsDateRange([]internal.CustomsRecord{
		customsRow(date, "GREEN CHILLI"),
		customsRow(date, "FRESH GUAVA"),
	}, "2024-08-01", "2024-08-31", false)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 || inserted != 2 {
		t.Fatalf("deleted=%d inserted=%d", deleted, inserted)
	}

	descriptions, err := db.ListCustomsDescriptions()
	if err != nil {
		t.Fatal(err)
	}
	if len(descriptions) != 1 || descriptions[0].ProductDescription != "FRESH OKRA" {
		t.Fatalf("rollback failed: %+v", descriptions)
	}
}

func TestInsertOrdersNoCommitRollsBack(t *testing.T) {
	db := openTestDB(t)
	created := time.Date(2024, 8, 21, 17, 31, 0, 0, time.UTC)

	if _, err := db.InsertOrderRows([]internal.FlatOrderRow{orderRow(101, "CH-1", created)}, false); err != nil {
		t.Fatal(err)
	}

	count, err := db.RowCount(TableOrders)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("dry run must not persist, count=%d", count)
	}
}

func TestDeleteDateRange(t *testing.T) {
	db := openTestDB(t)

	rows := []internal.CustomsRecord{
		customsRow(time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC), "FRESH OKRA"),
		customsRow(time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), "GREEN CHILLI"),
		customsRow(time.Date(2024, 8, 31, 0, 0, 0, 0, time.UTC), "FRESH GUAVA"),
		customsRow(time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC), "RED ONION"),
	}
	if _, err := db.InsertCustomsRecords(rows, true); err != nil {
		t.Fatal(err)
	}

	deleted, err := db.DeleteDateRange(TableCustoms, "2024-08-01", "2024-08-31", true)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 2 {
		t.Fatalf("deleted=%d", deleted)
	}

	count, _ := db.RowCount(TableCustoms)
	if count != 2 {
		t.Fatalf("count=%d", count)
	}
}

func TestDeleteDateRangeValidation(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.DeleteDateRange(TableCustoms, "2024-09-01", "2024-08-01", true); err == nil {
		t.Fatal("expected error for inverted range")
	}
	if _, err := db.DeleteDateRange("runs", "2024-08-01", "2024-08-31", true); err == nil {
		t.Fatal("expected error for table without date column")
	}
}

func TestTruncateTableGuard(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.TruncateTable("sqlite_master", true); err == nil {
		t.Fatal("expected error for unknown table")
	}

	date := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	if _, err := db.InsertCustomsRecords([]internal.CustomsRecord{customsRow(date, "FRESH OKRA")}, true); err != nil {
		t.Fatal(err)
	}

	// Without commit the delete is counted but rolled back.
	deleted, err := db.TruncateTable(TableCustoms, false)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Fatalf("deleted=%d", deleted)
	}
	count, _ := db.RowCount(TableCustoms)
	if count != 1 {
		t.Fatalf("rollback failed, count=%d", count)
	}

	if _, err := db.TruncateTable(TableCustoms, true); err != nil {
		t.Fatal(err)
	}
	count, _ = db.RowCount(TableCustoms)
	if count != 0 {
		t.Fatalf("count=%d", count)
	}
}

func TestImporterMappingsAndReclassification(t *testing.T) {
	db := openTestDB(t)

	inserted, err := db.InsertImporterMappings([]internal.ImporterMapping{
		{OriginalImporterName: "WEALMOOR", StandardizedImporterName: "WEALMOORLTD"},
	}, true)
	if err != nil {
		t.Fatal(err)
	}
	if inserted != 1 {
		t.Fatalf("inserted=%d", inserted)
	}

	date := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	if _, err := db.InsertCustomsRecords([]internal.CustomsRecord{customsRow(date, "FRESH OKRA 5KG")}, true); err != nil {
		t.Fatal(err)
	}

	descriptions, err := db.ListCustomsDescriptions()
	if err != nil {
		t.Fatal(err)
	}
	if len(descriptions) != 1 || descriptions[0].ProductDescription != "FRESH OKRA 5KG" {
		t.Fatalf("descriptions: %+v", descriptions)
	}

	updated, err := db.UpdateClassifications([]internal.ClassificationUpdate{
		{ID: descriptions[0].ID, Label: "OKRA"},
	}, true)
	if err != nil {
		t.Fatal(err)
	}
	if updated != 1 {
		t.Fatalf("updated=%d", updated)
	}
}

func TestRunsAndMetadata(t *testing.T) {
	db := openTestDB(t)

	err := db.InsertRun(internal.RunRecord{
		TraceID:  "trace-1",
		Stage:    "customs:import",
		Counts:   map[string]int{"rows": 10},
		Duration: 1500 * time.Millisecond,
		Status:   internal.RunOK,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := db.SetMetadata("ingested:abc", "file.xlsx"); err != nil {
		t.Fatal(err)
	}
	value, err := db.GetMetadata("ingested:abc")
	if err != nil {
		t.Fatal(err)
	}
	if value == nil || *value != "file.xlsx" {
		t.Fatalf("value=%v", value)
	}

	// Upsert keeps one row per key.
	if err := db.SetMetadata("ingested:abc", "file-v2.xlsx"); err != nil {
		t.Fatal(err)
	}
	value, _ = db.GetMetadata("ingested:abc")
	if value == nil || *value != "file-v2.xlsx" {
		t.Fatalf("value=%v", value)
	}

	missing, err := db.GetMetadata("ingested:missing")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing key, got %v", *missing)
	}
}

func TestTableRows(t *testing.T) {
	db := openTestDB(t)

	date := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	if _, err := db.InsertCustomsRecords([]internal.CustomsRecord{customsRow(date, "FRESH OKRA")}, true); err != nil {
		t.Fatal(err)
	}

	columns, rows, err := db.TableRows(TableCustoms)
	if err != nil {
		t.Fatal(err)
	}
	if len(columns) == 0 || columns[0] != "id" {
		t.Fatalf("columns: %v", columns)
	}
	if len(rows) != 1 {
		t.Fatalf("rows: %d", len(rows))
	}

	if _, _, err := db.TableRows("runs"); err == nil {
		t.Fatal("expected error for table outside the allowlist")
	}
}
