package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountCoercion(t *testing.T) {
	var item LineItem
	err := json.Unmarshal([]byte(`{"description":"Oil filter","quantity":"2","unitPrice":"325.5","total":651}`), &item)
	require.NoError(t, err)

	assert.Equal(t, Amount(2), item.Quantity)
	assert.Equal(t, Amount(325.5), item.UnitPrice)
	assert.Equal(t, Amount(651), item.Total)
}

func TestAmountInvalidDefaultsToZero(t *testing.T) {
	var item LineItem
	err := json.Unmarshal([]byte(`{"description":"Wash","quantity":"two","unitPrice":null,"total":"n/a"}`), &item)
	require.NoError(t, err)

	assert.Equal(t, Amount(0), item.Quantity)
	assert.Equal(t, Amount(0), item.UnitPrice)
	assert.Equal(t, Amount(0), item.Total)
}

func TestDocumentKindFromWire(t *testing.T) {
	var inv Document
	require.NoError(t, json.Unmarshal([]byte(`{"invoiceNumber":"2043","vehicleNumber":"AP05ED1314","customerName":"Babji garu","carModel":"Skoda Octavia","items":[]}`), &inv))
	assert.Equal(t, KindInvoice, inv.Kind)
	assert.Equal(t, "2043", inv.Number)

	var quote Document
	require.NoError(t, json.Unmarshal([]byte(`{"quotationNumber":"Q2043","vehicleNumber":"AP05ED1314","customerName":"Babji garu","carModel":"Skoda Octavia","items":[]}`), &quote))
	assert.Equal(t, KindQuotation, quote.Kind)
	assert.Equal(t, "Q2043", quote.Number)
}

func TestDocumentMarshalEmitsOneNumberKey(t *testing.T) {
	doc := Document{Kind: KindQuotation, Number: "Q2100", VehicleNumber: "AP05ED1314", CustomerName: "Babji garu", CarModel: "Skoda Octavia"}
	b, err := json.Marshal(doc)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "Q2100", m["quotationNumber"])
	_, hasInvoice := m["invoiceNumber"]
	assert.False(t, hasInvoice, "quotation must not carry invoiceNumber")
	assert.NotNil(t, m["items"], "items must marshal as [] not null")
}

func TestGrandTotalSumsItemTotals(t *testing.T) {
	doc := Document{Items: []LineItem{
		{Description: "Engine Oil", Total: 800},
		{Description: "Wiper blades", Quantity: 2, UnitPrice: 500, Total: 1000},
		{Description: "Labour", Total: 350.50},
	}}
	assert.InDelta(t, 2150.50, doc.GrandTotal(), 0.001)
}

func TestMissingFields(t *testing.T) {
	doc := Document{CustomerName: "  ", VehicleNumber: "AP05ED1314"}
	assert.Equal(t, []string{"Customer Name", "Car Model"}, doc.MissingFields())

	full := Document{CustomerName: "Babji garu", VehicleNumber: "AP05ED1314", CarModel: "Skoda Octavia"}
	assert.Empty(t, full.MissingFields())
}

func TestSyncItemTotals(t *testing.T) {
	items := []LineItem{
		{Description: "Wiper blades", Quantity: 2, UnitPrice: 500, Total: 0},
		{Description: "Lump sum service", Total: 1500},
		{Description: "Oil", Quantity: 1, UnitPrice: 650, Total: 650.005},
	}
	out := SyncItemTotals(items, TotalEpsilon)

	assert.Equal(t, Amount(1000), out[0].Total, "drifted total recomputed")
	assert.Equal(t, Amount(1500), out[1].Total, "lump sum untouched")
	assert.Equal(t, Amount(650.005), out[2].Total, "within epsilon untouched")

	// input is not mutated
	assert.Equal(t, Amount(0), items[0].Total)
}
