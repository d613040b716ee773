package validation

// ErrorKind identifies why a field failed validation. Kinds are rendered into
// user-facing text only at display time.
type ErrorKind string

const (
	KindRequired         ErrorKind = "required"
	KindInvalidEmail     ErrorKind = "invalid_email"
	KindPasswordLength   ErrorKind = "password_length"
	KindPasswordMismatch ErrorKind = "password_mismatch"
	KindInvalidCard      ErrorKind = "invalid_card"
	KindInvalidExpiry    ErrorKind = "invalid_expiry"
	KindInvalidCVV       ErrorKind = "invalid_cvv"
	KindInvalidCountry   ErrorKind = "invalid_country"
)

// AllKinds lists every kind a message table has to cover.
var AllKinds = []ErrorKind{
	KindRequired,
	KindInvalidEmail,
	KindPasswordLength,
	KindPasswordMismatch,
	KindInvalidCard,
	KindInvalidExpiry,
	KindInvalidCVV,
	KindInvalidCountry,
}

// Errors maps a field name to its single error kind.
type Errors map[string]ErrorKind

func (e Errors) Empty() bool { return len(e) == 0 }

// Set records kind for field unless the field already failed.
func (e Errors) Set(field string, kind ErrorKind) {
	if _, exists := e[field]; exists {
		return
	}
	e[field] = kind
}

func (e Errors) Clear(field string) {
	delete(e, field)
}

func (e Errors) Clone() Errors {
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
