package qrcode

import (
	qrcode "github.com/skip2/go-qrcode"
)

// EncodeDeepLink renders a upi://pay URI as a 256px PNG for the pay page.
func EncodeDeepLink(deepLink string) ([]byte, error) {
	return qrcode.Encode(deepLink, qrcode.Medium, 256)
}
