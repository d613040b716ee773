package email

import (
	"fmt"
	"html"
	"net/url"
)

// Receipt is what the activation mail shows. The card is already masked.
type Receipt struct {
	Name        string
	Institution string
	Plan        string
	Billing     string
	Total       string
	MaskedCard  string
	RenewsOn    string
	Token       string
}

const newsletterHTML = `
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
	<h2>Thanks for subscribing!</h2>
	<p>%s will now receive product news and teaching tips from EduSaaS.</p>
	<p>Changed your mind? <a href="%s">Unsubscribe</a> at any time.</p>
</body>
</html>
`

const newsletterText = `
Thanks for subscribing!

%s will now receive product news and teaching tips from EduSaaS.

Unsubscribe at any time: %s
`

func renderNewsletterConfirmation(baseURL, to string) (string, string) {
	unsubscribe := fmt.Sprintf("%s/newsletter/unsubscribe?email=%s", baseURL, url.QueryEscape(to))
	return fmt.Sprintf(newsletterHTML, html.EscapeString(to), html.EscapeString(unsubscribe)),
		fmt.Sprintf(newsletterText, to, unsubscribe)
}

const activationHTML = `
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
	<h2>Welcome aboard, %s!</h2>
	<p>%s is set up on the <strong>%s</strong> plan (%s billing).</p>
	<table cellpadding="4">
		<tr><td>Total</td><td>%s</td></tr>
		<tr><td>Card</td><td>%s</td></tr>
		<tr><td>Renews on</td><td>%s</td></tr>
	</table>
	<p><a href="%s">Activate your workspace</a></p>
</body>
</html>
`

const activationText = `
Welcome aboard, %s!

%s is set up on the %s plan (%s billing).

Total: %s
Card:  %s
Renews on: %s

Activate your workspace: %s
`

func renderActivationReceipt(baseURL string, r Receipt) (string, string) {
	link := fmt.Sprintf("%s/activate?token=%s", baseURL, url.QueryEscape(r.Token))
	e := html.EscapeString
	return fmt.Sprintf(activationHTML, e(r.Name), e(r.Institution), e(r.Plan), e(r.Billing), e(r.Total), e(r.MaskedCard), e(r.RenewsOn), e(link)),
		fmt.Sprintf(activationText, r.Name, r.Institution, r.Plan, r.Billing, r.Total, r.MaskedCard, r.RenewsOn, link)
}
