package domain

import "time"

// Email templates rendered by the mail worker
const (
	TemplateSignupOTP        = "accounts/otpEmail"
	TemplateResetPasswordOTP = "accounts/newEmail"
	TemplateAdminCredentials = "accounts/adminCredentialsEmail"
	TemplateResetUsername    = "accounts/resetUsername"
)

// EmailData is the typed template payload for account emails
type EmailData struct {
	ContactEmail     string  `json:"contactEmail"`
	Homepage         string  `json:"homepage,omitempty"`
	CopyrightDate    int     `json:"copyrightDate"`
	LegalName        string  `json:"legalName,omitempty"`
	PhysicalAddress  Address `json:"physicalAddress"`
	ShopName         string  `json:"shopName"`
	UserEmailAddress string  `json:"userEmailAddress"`
	OTP              string  `json:"otp,omitempty"`
	Username         string  `json:"username,omitempty"`
	Password         string  `json:"password,omitempty"`
}

// EmailMessage is one outbound email request
type EmailMessage struct {
	Template string    `json:"templateName"`
	To       string    `json:"to"`
	Language string    `json:"language,omitempty"`
	ShopID   string    `json:"shopId,omitempty"`
	Data     EmailData `json:"data"`
}

// NewEmailData fills the shop-derived branding fields
func NewEmailData(shop *Shop, recipient string, now time.Time) EmailData {
	return EmailData{
		ContactEmail:     shop.ContactEmail,
		Homepage:         shop.StorefrontHomeURL,
		CopyrightDate:    now.Year(),
		LegalName:        shop.Address.Company,
		PhysicalAddress:  shop.Address,
		ShopName:         shop.Name,
		UserEmailAddress: recipient,
	}
}

// MessageLanguage prefers the account's profile language over the shop default
func MessageLanguage(profile Profile, shop *Shop) string {
	if profile.Language != "" {
		return profile.Language
	}
	return shop.Language
}
