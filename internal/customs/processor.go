package customs

import (
	"log/slog"

	"kbsync/internal"
	"kbsync/internal/classify"
	"kbsync/internal/region"
	"kbsync/internal/util"
)

// ledger files carry the shipment date as e.g. "04-Sep-2024".
const ledgerDateLayout = "02-Jan-2006"

// expectedColumns is the full set of ledger columns the processor consumes.
// Missing columns are reconciled explicitly: each one is logged once per
// file and its values take the column's typed default.
var expectedColumns = []string{
	"date", "hs_code", "product_description", "quantity", "unit",
	"fob_value_inr", "unit_price_inr", "fob_value_usd",
	"fob_value_foreign_currency", "unit_price_foreign_currency",
	"currency_name", "fob_value_in_lacs_inr",
	"iec", "indian_exporter_name", "exporter_address", "exporter_city",
	"pin_code", "cha_name", "foreign_importer_name", "importer_address",
	"importer_country", "foreign_port", "foreign_country", "indian_port",
	"item_no", "drawback", "chapter", "hs_4_digit", "month", "year",
}

// tableRow resolves cells by normalized column name for one record.
type tableRow struct {
	index map[string]int
	cells []string
}

func (r tableRow) get(column string) string {
	i, ok := r.index[column]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return r.cells[i]
}

// ProcessRows cleans raw ledger rows into customs records. The source name
// is only used for log context.
func ProcessRows(source string, headers []string, rows [][]string) []internal.CustomsRecord {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[h] = i
	}
	for _, col := range expectedColumns {
		if _, ok := index[col]; !ok {
			slog.Warn("ledger column missing, using defaults", "file", source, "column", col)
		}
	}

	records := make([]internal.CustomsRecord, 0, len(rows))
	for _, cells := range rows {
		row := tableRow{index: index, cells: cells}
		records = append(records, processRow(row))
	}
	return records
}

// ProcessFile reads and cleans one ledger file.
func ProcessFile(path string) ([]internal.CustomsRecord, error) {
	headers, rows, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	return ProcessRows(path, headers, rows), nil
}

func processRow(row tableRow) internal.CustomsRecord {
	description := util.StripNonASCII(row.get("product_description"))

	exporter := classify.ApplyAliases(util.StripNonASCII(row.get("indian_exporter_name")), classify.ExporterAliases)
	exporter = classify.CanonicalizeEntity(exporter)

	importer := classify.ApplyAliases(util.StripNonASCII(row.get("foreign_importer_name")), classify.ImporterAliases)
	importer = classify.CanonicalizeEntity(importer)

	foreignCountry := util.StripNonASCII(row.get("foreign_country"))
	importerCountry := util.StripNonASCII(row.get("importer_country"))
	if importerCountry == "" {
		importerCountry = foreignCountry
	}

	return internal.CustomsRecord{
		Date:               util.ParseDate(row.get("date"), ledgerDateLayout),
		HsCode:             util.ParseNumeric(row.get("hs_code")),
		ProductDescription: description,
		ProductClassified:  classify.Classify(description),
		Quantity:           util.ParseNumeric(row.get("quantity")),
		Unit:               util.StripNonASCII(row.get("unit")),

		FobValueINR:              util.ParseNumeric(row.get("fob_value_inr")),
		UnitPriceINR:             util.ParseNumeric(row.get("unit_price_inr")),
		FobValueUSD:              util.ParseNumeric(row.get("fob_value_usd")),
		FobValueForeignCurrency:  util.ParseNumeric(row.get("fob_value_foreign_currency")),
		UnitPriceForeignCurrency: util.ParseNumeric(row.get("unit_price_foreign_currency")),
		CurrencyName:             util.StripNonASCII(row.get("currency_name")),
		FobValueInLacsINR:        util.ParseNumeric(row.get("fob_value_in_lacs_inr")),

		IEC:                 util.StripNonASCII(row.get("iec")),
		IndianExporterName:  exporter,
		ExporterAddress:     util.StripNonASCII(row.get("exporter_address")),
		ExporterCity:        util.StripNonASCII(row.get("exporter_city")),
		PinCode:             util.ParseDigits(row.get("pin_code")),
		ChaName:             util.StripNonASCII(row.get("cha_name")),
		ForeignImporterName: importer,
		ImporterAddress:     util.StripNonASCII(row.get("importer_address")),
		ImporterCountry:     importerCountry,
		ForeignPort:         util.StripNonASCII(row.get("foreign_port")),
		ForeignCountry:      foreignCountry,
		IndianPort:          util.StripNonASCII(row.get("indian_port")),

		ItemNo:   util.ParseNumeric(row.get("item_no")),
		Drawback: util.ParseNumeric(row.get("drawback")),
		Chapter:  util.ParseNumeric(row.get("chapter")),
		Hs4Digit: util.ParseNumeric(row.get("hs_4_digit")),
		Month:    util.StripNonASCII(row.get("month")),
		Year:     util.ParseNumeric(row.get("year")),
		Region:   region.Resolve(foreignCountry),
	}
}
