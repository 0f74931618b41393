package shiprocket

import (
	"bytes"
	"encoding/json"
	"strconv"

	"kbsync/internal/util"
)

// Flex is a scalar field whose JSON representation is not stable across
// orders: the API serves numbers, strings and nulls interchangeably.
// It decodes anything scalar into its textual form.
type Flex string

func (f *Flex) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*f = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = Flex(s)
		return nil
	}
	*f = Flex(trimmed)
	return nil
}

func (f Flex) String() string {
	return string(f)
}

// Float coerces to a number; anything unparseable is zero.
func (f Flex) Float() float64 {
	if f == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(string(f), 64); err == nil {
		return parsed
	}
	return util.ParseNumeric(string(f))
}

// Int coerces to an integer, truncating fractional values.
func (f Flex) Int() int64 {
	if f == "" {
		return 0
	}
	if parsed, err := strconv.ParseInt(string(f), 10, 64); err == nil {
		return parsed
	}
	return int64(f.Float())
}

// RawOrder is one order object as served by the orders endpoint.
type RawOrder struct {
	ID             Flex `json:"id"`
	ChannelOrderID Flex `json:"channel_order_id"`
	CreatedAt      Flex `json:"created_at"`
	InvoiceNo      Flex `json:"invoice_no"`

	CustomerName     Flex `json:"customer_name"`
	CustomerEmail    Flex `json:"customer_email"`
	CustomerPhone    Flex `json:"customer_phone"`
	CustomerAddress  Flex `json:"customer_address"`
	CustomerAddress2 Flex `json:"customer_address_2"`
	CustomerCity     Flex `json:"customer_city"`
	CustomerState    Flex `json:"customer_state"`
	CustomerPincode  Flex `json:"customer_pincode"`

	Status        Flex `json:"status"`
	PaymentMethod Flex `json:"payment_method"`

	Total    Flex `json:"total"`
	Discount Flex `json:"discount"`

	PickedUpDate       Flex `json:"picked_up_date"`
	EtdDate            Flex `json:"etd_date"`
	OutForDeliveryDate Flex `json:"out_for_delivery_date"`
	DeliveredDate      Flex `json:"delivered_date"`

	OtherCharges    Flex `json:"other_charges"`
	GiftwrapCharges Flex `json:"giftwrap_charges"`
	RtoRisk         Flex `json:"rto_risk"`
	PickupLocation  Flex `json:"pickup_location"`

	AwbData AwbData `json:"awb_data"`

	Products  []LineItem     `json:"products"`
	Shipments []ShipmentInfo `json:"shipments"`
	Others    OtherRecords   `json:"others"`
}

// AwbData nests the courier charge breakdown under the order.
type AwbData struct {
	Charges AwbCharges `json:"charges"`
}

type AwbCharges struct {
	CodCharges             Flex `json:"cod_charges"`
	AppliedWeightAmount    Flex `json:"applied_weight_amount"`
	FreightCharges         Flex `json:"freight_charges"`
	AppliedWeight          Flex `json:"applied_weight"`
	ChargedWeight          Flex `json:"charged_weight"`
	ChargedWeightAmount    Flex `json:"charged_weight_amount"`
	ChargedWeightAmountRto Flex `json:"charged_weight_amount_rto"`
	AppliedWeightAmountRto Flex `json:"applied_weight_amount_rto"`
	BillingAmount          Flex `json:"billing_amount"`
}

// LineItem is one product line nested under an order. It has no identity
// outside its parent order.
type LineItem struct {
	Name                 Flex `json:"name"`
	ChannelSku           Flex `json:"channel_sku"`
	Quantity             Flex `json:"quantity"`
	Available            Flex `json:"available"`
	Price                Flex `json:"price"`
	ProductCost          Flex `json:"product_cost"`
	Hsn                  Flex `json:"hsn"`
	Discount             Flex `json:"discount"`
	DiscountIncludingTax Flex `json:"discount_including_tax"`
	SellingPrice         Flex `json:"selling_price"`
	Mrp                  Flex `json:"mrp"`
	TaxPercentage        Flex `json:"tax_percentage"`
	Description          Flex `json:"description"`
}

// ShipmentInfo is one shipment sub-record. Orders carry at most one
// meaningful shipment; any later entries are dropped during flattening.
type ShipmentInfo struct {
	Courier               Flex `json:"courier"`
	Weight                Flex `json:"weight"`
	Dimensions            Flex `json:"dimensions"`
	PickedupTimestamp     Flex `json:"pickedup_timestamp"`
	Awb                   Flex `json:"awb"`
	RtoDeliveredDate      Flex `json:"rto_delivered_date"`
	RtoInitiatedDate      Flex `json:"rto_initiated_date"`
	DeliveryExecutiveName Flex `json:"delivery_executive_name"`
}

// OtherRecords normalizes the misc "others" field: a single object becomes
// a one-element sequence, anything that is neither object nor sequence is
// treated as absent.
type OtherRecords []map[string]any

func (o *OtherRecords) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		*o = nil
		return nil
	}
	switch trimmed[0] {
	case '[':
		var arr []map[string]any
		if err := json.Unmarshal(trimmed, &arr); err != nil {
			*o = nil
			return nil
		}
		*o = arr
	case '{':
		var single map[string]any
		if err := json.Unmarshal(trimmed, &single); err != nil {
			*o = nil
			return nil
		}
		*o = OtherRecords{single}
	default:
		*o = nil
	}
	return nil
}
