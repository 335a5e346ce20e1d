package qr

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// GCashPayload carries everything the front desk shows a customer who
// pays by scanning.
type GCashPayload struct {
	AccountName    string
	AccountNumber  string
	AmountCentavos int64
	ReferenceNo    string
}

func formatCentavos(centavos int64) string {
	return fmt.Sprintf("%d.%02d", centavos/100, centavos%100)
}

// DataURI renders the payload as a PNG QR code wrapped in a data URI,
// ready to drop into an <img> tag.
func DataURI(p GCashPayload) (string, error) {
	ref := p.ReferenceNo
	if ref == "" {
		ref = "N/A"
	}

	content := fmt.Sprintf(
		"GCash Payment\nAccount: %s\nName: %s\nAmount: PHP %s\nRef: %s",
		p.AccountNumber, p.AccountName, formatCentavos(p.AmountCentavos), ref,
	)

	png, err := qrcode.Encode(content, qrcode.Low, 256)
	if err != nil {
		return "", fmt.Errorf("failed to encode payment qr: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
