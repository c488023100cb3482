package serial

import "fmt"

// Label is one printable barcode derived from an allocation. Labels are
// never persisted; they are rebuilt from the audit record on demand.
type Label struct {
	BarcodeValue  string `json:"barcodeValue"`
	BarcodeNumber string `json:"barcodeNumber"`
	Serial        int64  `json:"serial"`
}

// BuildLabels derives one label per serial in [start, end].
func BuildLabels(prefix, barcodeNumber string, start, end int64) []Label {
	labels := make([]Label, 0, end-start+1)
	for s := start; s <= end; s++ {
		labels = append(labels, Label{
			BarcodeValue:  fmt.Sprintf("%s-%d", prefix, s),
			BarcodeNumber: barcodeNumber,
			Serial:        s,
		})
	}
	return labels
}

// AllocateRequest carries the validated allocation parameters.
type AllocateRequest struct {
	SKUPrefix     string
	PO            string
	BarcodeNumber string
	Quantity      int64
	// ExpectStart, when positive, is the start serial the client computed
	// from a previous /last-serial read. The ledger remains authoritative;
	// a mismatch rejects the request instead of trusting the client.
	ExpectStart int64
	// IdempotencyKey, when set, makes a retried request replay the
	// recorded result instead of consuming a fresh range.
	IdempotencyKey string
	Requester      string
}

// AllocateResult is the outcome of one successful allocation.
type AllocateResult struct {
	Labels     []Label
	LastSerial int64
	RecordID   string
	Replayed   bool
}
