package models

// TOTPSetupResponse carries a freshly generated TOTP secret and its QR
// code as a data URL for the authenticator app
type TOTPSetupResponse struct {
	Secret      string `json:"secret"`
	QRCode      string `json:"qrCode"`
	Issuer      string `json:"issuer"`
	AccountName string `json:"accountName"`
}

// TOTPVerifyRequest is the body of POST /auth/totp/verify and
// POST /auth/totp/enable
type TOTPVerifyRequest struct {
	Code string `json:"code"`
}
