package shiprocket

import (
	"time"

	"kbsync/internal"
	"kbsync/internal/util"
)

// Per-column timestamp layouts. Columns not listed here fall back to
// generic day-first parsing.
const (
	layoutCreatedAt = "02 Jan 2006, 03:04 PM"
	layoutDispatch  = "02-01-2006 15:04:05"
)

// zeroTimestamp is the API's "no value" sentinel for shipment timestamps.
const zeroTimestamp = "0000-00-00 00:00:00"

// FlattenOrders turns a page of raw orders into flat rows, one per line
// item, and zeroes the one-time order-level fields on every row after the
// first within an order group so downstream sums are not double-counted.
func FlattenOrders(orders []RawOrder) []internal.FlatOrderRow {
	rows := make([]internal.FlatOrderRow, 0, len(orders))
	for _, order := range orders {
		rows = append(rows, flattenOrder(order)...)
	}
	applyFirstOccurrence(rows)
	return rows
}

func flattenOrder(order RawOrder) []internal.FlatOrderRow {
	// At most one meaningful shipment per order; later entries are dropped.
	var shipment ShipmentInfo
	if len(order.Shipments) > 0 {
		shipment = order.Shipments[0]
	}

	charges := order.AwbData.Charges
	base := internal.FlatOrderRow{
		ShiprocketID:   order.ID.Int(),
		ChannelOrderID: order.ChannelOrderID.String(),

		ShiprocketCreatedAt: util.ParseDate(order.CreatedAt.String(), layoutCreatedAt),

		InvoiceNo:        order.InvoiceNo.String(),
		CustomerName:     order.CustomerName.String(),
		CustomerEmail:    order.CustomerEmail.String(),
		CustomerPhone:    order.CustomerPhone.String(),
		CustomerAddress:  order.CustomerAddress.String(),
		CustomerAddress2: order.CustomerAddress2.String(),
		CustomerCity:     order.CustomerCity.String(),
		CustomerState:    order.CustomerState.String(),
		CustomerPincode:  order.CustomerPincode.String(),
		Status:           order.Status.String(),
		PaymentMethod:    order.PaymentMethod.String(),

		OrderTotal:     order.Total.Float(),
		OtherDeduction: order.Discount.Float(),

		PickedUpDate:       util.ParseDayFirst(order.PickedUpDate.String()),
		EtdDate:            util.ParseDate(order.EtdDate.String(), layoutDispatch),
		OutForDeliveryDate: util.ParseDate(order.OutForDeliveryDate.String(), layoutDispatch),
		DeliveredDate:      util.ParseDayFirst(order.DeliveredDate.String()),
		RtoInitiatedDate:   nullableDayFirst(shipment.RtoInitiatedDate.String()),
		RtoDeliveredDate:   nullableDayFirst(shipment.RtoDeliveredDate.String()),

		CodCharges:             charges.CodCharges.Float(),
		AppliedWeightAmount:    charges.AppliedWeightAmount.Float(),
		FreightCharges:         charges.FreightCharges.Float(),
		ChargedWeightAmount:    charges.ChargedWeightAmount.Float(),
		ChargedWeightAmountRto: charges.ChargedWeightAmountRto.Float(),
		AppliedWeightAmountRto: charges.AppliedWeightAmountRto.Float(),
		BillingAmount:          charges.BillingAmount.Float(),
		OtherCharges:           order.OtherCharges.Float(),
		GiftwrapCharges:        order.GiftwrapCharges.Float(),

		Courier:           util.CleanCourier(shipment.Courier.String()),
		Weight:            util.ParseWeight(shipment.Weight.String()),
		Dimensions:        shipment.Dimensions.String(),
		AppliedWeight:     charges.AppliedWeight.Float(),
		ChargedWeight:     charges.ChargedWeight.Float(),
		PickedupTimestamp: nullablePickup(shipment.PickedupTimestamp.String()),
		Awb:               shipment.Awb.String(),
		DeliveryExecutive: shipment.DeliveryExecutiveName.String(),
		RtoRisk:           order.RtoRisk.String(),
		PickupLocation:    order.PickupLocation.String(),
	}

	items := order.Products
	if len(items) == 0 {
		// Orders without line items still emit one placeholder row so the
		// order is not silently lost.
		items = []LineItem{{}}
	}

	out := make([]internal.FlatOrderRow, 0, len(items))
	for _, item := range items {
		row := base
		row.ItemName = item.Name.String()
		row.TaxPercent = item.TaxPercentage.String()
		row.ItemQuantity = item.Quantity.Float()
		row.ItemNetPriceExclDeduction = item.Price.Float()
		row.ItemSpExclTax = item.ProductCost.Float()
		row.ItemDiscExclTax = item.Discount.Float()
		row.ItemSpInclTax = item.SellingPrice.Float()
		row.ItemDiscInclTax = item.DiscountIncludingTax.Float()
		out = append(out, row)
	}
	return out
}

// nullablePickup parses the pickup timestamp, treating the all-zero
// sentinel and the empty string as null.
func nullablePickup(value string) *time.Time {
	if value == "" || value == zeroTimestamp {
		return nil
	}
	return util.ParseDate(value, layoutCreatedAt)
}

func nullableDayFirst(value string) *time.Time {
	if value == "" || value == zeroTimestamp {
		return nil
	}
	return util.ParseDayFirst(value)
}

type orderKey struct {
	id      int64
	channel string
}

// applyFirstOccurrence zeroes the one-time monetary and weight fields on
// every row after the first of its (order id, channel order id) group,
// preserving original record order.
func applyFirstOccurrence(rows []internal.FlatOrderRow) {
	seen := make(map[orderKey]bool, len(rows))
	for i := range rows {
		key := orderKey{id: rows[i].ShiprocketID, channel: rows[i].ChannelOrderID}
		if seen[key] {
			zeroOneTimeFields(&rows[i])
			continue
		}
		seen[key] = true
	}
}

func zeroOneTimeFields(row *internal.FlatOrderRow) {
	row.OrderTotal = 0
	row.OtherDeduction = 0
	row.CodCharges = 0
	row.AppliedWeightAmount = 0
	row.FreightCharges = 0
	row.ChargedWeightAmount = 0
	row.ChargedWeightAmountRto = 0
	row.AppliedWeightAmountRto = 0
	row.BillingAmount = 0
	row.OtherCharges = 0
	row.GiftwrapCharges = 0
	row.AppliedWeight = 0
	row.Weight = 0
	row.ChargedWeight = 0
}
