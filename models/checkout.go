package models

// Address is the address block shared by the account info and billing address steps.
type Address struct {
	Address       string `json:"address"`
	Address2      string `json:"address2"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zipCode"`
	Country       string `json:"country"`
	CustomCountry string `json:"customCountry"`
}

// BillingInfo is the account step of the checkout.
type BillingInfo struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	InstitutionName string `json:"institutionName"`
	Address
	Password        string `json:"-"`
	ConfirmPassword string `json:"-"`
}

// PaymentInfo holds card data for the payment step. It is never persisted.
type PaymentInfo struct {
	CardNumber string `json:"-"`
	ExpiryDate string `json:"expiryDate"`
	CVV        string `json:"-"`
}

type BillingAddress struct {
	Address
}
