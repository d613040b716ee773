package models

type FieldUpdateRequest struct {
	Step  int    `json:"step" validate:"required,min=1,max=3"`
	Field string `json:"field" validate:"required"`
	Value string `json:"value" validate:"max=256"`
}

type SameAddressRequest struct {
	Checked *bool `json:"checked" validate:"required"`
}

type AddOnsRequest struct {
	AddOns map[string]int `json:"add_ons" validate:"required,min=1"`
}

type PromoRequest struct {
	Code string `json:"code" validate:"max=32"`
}

type BillingRequest struct {
	Billing string `json:"billing" validate:"required,oneof=annual monthly"`
}

type PlanSelectionRequest struct {
	Plan string `json:"plan" validate:"required"`
}

type ConsentRequest struct {
	Necessary *bool `json:"necessary" validate:"required"`
}

type FAQRequest struct {
	Index *int `json:"index" validate:"required,min=-1"`
}

type CardDetectRequest struct {
	Number string `json:"number" validate:"max=32"`
}
