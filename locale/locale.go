package locale

import (
	"golang.org/x/text/language"

	"edusaas-checkout-api/validation"
)

const DefaultLanguage = "en"

// CountryOther lets the customer type a country that is not in the list.
const CountryOther = "other"

// Countries is the id list offered by the country selectors.
var Countries = []string{"us", "ca", "mx", "br", "gb", "es", "pt", CountryOther}

var messages = map[string]map[validation.ErrorKind]string{
	"en": {
		validation.KindRequired:         "This field is required",
		validation.KindInvalidEmail:     "Please enter a valid email address",
		validation.KindPasswordLength:   "Password must be at least 8 characters",
		validation.KindPasswordMismatch: "Passwords do not match",
		validation.KindInvalidCard:      "Please enter a valid card number",
		validation.KindInvalidExpiry:    "Please enter a valid expiry date (MM/YY)",
		validation.KindInvalidCVV:       "Please enter a valid CVV",
		validation.KindInvalidCountry:   "Please select a country from the list",
	},
	"es": {
		validation.KindRequired:         "Este campo es obligatorio",
		validation.KindInvalidEmail:     "Introduce un correo electrónico válido",
		validation.KindPasswordLength:   "La contraseña debe tener al menos 8 caracteres",
		validation.KindPasswordMismatch: "Las contraseñas no coinciden",
		validation.KindInvalidCard:      "Introduce un número de tarjeta válido",
		validation.KindInvalidExpiry:    "Introduce una fecha de caducidad válida (MM/AA)",
		validation.KindInvalidCVV:       "Introduce un CVV válido",
		validation.KindInvalidCountry:   "Selecciona un país de la lista",
	},
	"pt": {
		validation.KindRequired:         "Este campo é obrigatório",
		validation.KindInvalidEmail:     "Informe um e-mail válido",
		validation.KindPasswordLength:   "A senha deve ter pelo menos 8 caracteres",
		validation.KindPasswordMismatch: "As senhas não coincidem",
		validation.KindInvalidCard:      "Informe um número de cartão válido",
		validation.KindInvalidExpiry:    "Informe uma validade válida (MM/AA)",
		validation.KindInvalidCVV:       "Informe um CVV válido",
		validation.KindInvalidCountry:   "Selecione um país da lista",
	},
}

// Supported lists the languages with a message table; the first one is the fallback.
var Supported = []string{"en", "es", "pt"}

var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Spanish,
	language.Portuguese,
})

// Match picks the UI language. An explicit choice wins over the Accept-Language header.
func Match(explicit, acceptLanguage string) string {
	tag, _ := language.MatchStrings(matcher, explicit, acceptLanguage)
	base, _ := tag.Base()
	if _, ok := messages[base.String()]; ok {
		return base.String()
	}
	return DefaultLanguage
}

// Message renders kind in lang, falling back to English.
func Message(lang string, kind validation.ErrorKind) string {
	if table, ok := messages[lang]; ok {
		if msg, ok := table[kind]; ok {
			return msg
		}
	}
	if msg, ok := messages[DefaultLanguage][kind]; ok {
		return msg
	}
	return string(kind)
}

// Render turns stored error kinds into text for the active language.
func Render(lang string, errs validation.Errors) map[string]string {
	out := make(map[string]string, len(errs))
	for field, kind := range errs {
		out[field] = Message(lang, kind)
	}
	return out
}

func IsCountry(id string) bool {
	for _, c := range Countries {
		if c == id {
			return true
		}
	}
	return false
}
