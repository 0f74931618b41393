package internal

import "time"

// FlatOrderRow is the flattened projection of one Shiprocket order joined
// with one of its line items and the order's single retained shipment.
// An order with N line items yields N rows; order-level monetary and weight
// fields carry their real value only on the first row of each order group.
type FlatOrderRow struct {
	ShiprocketID   int64
	ChannelOrderID string

	ShiprocketCreatedAt *time.Time

	InvoiceNo        string
	CustomerName     string
	CustomerEmail    string
	CustomerPhone    string
	CustomerAddress  string
	CustomerAddress2 string
	CustomerCity     string
	CustomerState    string
	CustomerPincode  string
	Status           string
	PaymentMethod    string

	ItemName                  string
	TaxPercent                string
	ItemQuantity              float64
	ItemNetPriceExclDeduction float64
	ItemSpExclTax             float64
	ItemDiscExclTax           float64
	ItemSpInclTax             float64
	ItemDiscInclTax           float64

	OrderTotal     float64
	OtherDeduction float64

	PickedUpDate       *time.Time
	EtdDate            *time.Time
	OutForDeliveryDate *time.Time
	DeliveredDate      *time.Time
	RtoInitiatedDate   *time.Time
	RtoDeliveredDate   *time.Time

	CodCharges             float64
	AppliedWeightAmount    float64
	FreightCharges         float64
	ChargedWeightAmount    float64
	ChargedWeightAmountRto float64
	AppliedWeightAmountRto float64
	BillingAmount          float64
	OtherCharges           float64
	GiftwrapCharges        float64

	Courier           string
	Weight            float64
	Dimensions        string
	AppliedWeight     float64
	ChargedWeight     float64
	PickedupTimestamp *time.Time
	Awb               string
	DeliveryExecutive string
	RtoRisk           string
	PickupLocation    string
}

// CustomsRecord is one cleaned row of a trade-export ledger file.
type CustomsRecord struct {
	Date               *time.Time
	HsCode             float64
	ProductDescription string
	ProductClassified  string
	Quantity           float64
	Unit               string

	FobValueINR              float64
	UnitPriceINR             float64
	FobValueUSD              float64
	FobValueForeignCurrency  float64
	UnitPriceForeignCurrency float64
	CurrencyName             string
	FobValueInLacsINR        float64

	IEC                 string
	IndianExporterName  string
	ExporterAddress     string
	ExporterCity        string
	PinCode             *int64
	ChaName             string
	ForeignImporterName string
	ImporterAddress     string
	ImporterCountry     string
	ForeignPort         string
	ForeignCountry      string
	IndianPort          string

	ItemNo   float64
	Drawback float64
	Chapter  float64
	Hs4Digit float64
	Month    string
	Year     float64
	Region   string
}

// ImporterMapping is one row of the importer-name standardization sheet.
type ImporterMapping struct {
	OriginalImporterName     string
	StandardizedImporterName string
}

// CustomsDescription pairs a persisted customs row id with its free-text
// product description, for the reclassification job.
type CustomsDescription struct {
	ID                 int64
	ProductDescription string
}

// ClassificationUpdate carries one reclassification result back to storage.
type ClassificationUpdate struct {
	ID    int64
	Label string
}

// RunStatus marks whether a sync/import run finished cleanly.
type RunStatus string

const (
	RunOK     RunStatus = "ok"
	RunFailed RunStatus = "failed"
)

// RunRecord is the structured summary persisted after each pipeline run.
type RunRecord struct {
	TraceID  string
	Stage    string
	Counts   map[string]int
	Duration time.Duration
	Status   RunStatus
	Error    string
}
