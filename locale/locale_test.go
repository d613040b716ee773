package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"edusaas-checkout-api/validation"
)

func TestEveryTableCoversEveryKind(t *testing.T) {
	for _, lang := range Supported {
		for _, kind := range validation.AllKinds {
			_, ok := messages[lang][kind]
			assert.True(t, ok, "%s is missing %s", lang, kind)
		}
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		accept   string
		want     string
	}{
		{"default", "", "", "en"},
		{"explicit spanish", "es", "pt-BR", "es"},
		{"header portuguese", "", "pt-BR,pt;q=0.9,en;q=0.8", "pt"},
		{"regional spanish", "", "es-MX", "es"},
		{"unsupported", "de", "fr-FR", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.explicit, tt.accept))
		})
	}
}

func TestRender_LanguageSwitchKeepsKinds(t *testing.T) {
	errs := validation.Errors{"email": validation.KindInvalidEmail}

	en := Render("en", errs)
	es := Render("es", errs)

	assert.Equal(t, "Please enter a valid email address", en["email"])
	assert.Equal(t, "Introduce un correo electrónico válido", es["email"])
	assert.Equal(t, validation.KindInvalidEmail, errs["email"])
}

func TestMessage_Fallbacks(t *testing.T) {
	assert.Equal(t, "This field is required", Message("xx", validation.KindRequired))
	assert.Equal(t, "mystery", Message("en", validation.ErrorKind("mystery")))
}

func TestIsCountry(t *testing.T) {
	assert.True(t, IsCountry("br"))
	assert.True(t, IsCountry(CountryOther))
	assert.False(t, IsCountry("atlantis"))
}
