package subscription

import (
	"fmt"

	"github.com/osteele/liquid"
)

// confirmSubject is the subject line of the confirmation email.
const confirmSubject = "Please confirm your subscription"

const confirmEmailHTML = `<div style="font-family: sans-serif; max-width: 540px; margin: 0 auto;">
  <h2>Confirm your subscription</h2>
  <p>Hi {{ first_name | default: "there" }},</p>
  <p>Thanks for signing up. Please confirm your email address by clicking the
  button below. The link expires in 24 hours.</p>
  <p style="margin: 24px 0;">
    <a href="{{ confirm_url }}" style="background: #111; color: #fff; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Confirm subscription</a>
  </p>
  <p style="color: #666; font-size: 13px;">If you didn't request this, you can
  safely ignore this email and nothing will happen.</p>
</div>`

const confirmEmailText = `Hi {{ first_name | default: "there" }},

Thanks for signing up. Please confirm your email address by visiting the link
below. The link expires in 24 hours.

{{ confirm_url }}

If you didn't request this, you can safely ignore this email.`

// templates holds the parsed Liquid templates for the confirmation email.
type templates struct {
	html *liquid.Template
	text *liquid.Template
}

func newTemplates() (*templates, error) {
	engine := liquid.NewEngine()

	html, err := engine.ParseString(confirmEmailHTML)
	if err != nil {
		return nil, fmt.Errorf("parsing confirmation email HTML template: %w", err)
	}
	text, err := engine.ParseString(confirmEmailText)
	if err != nil {
		return nil, fmt.Errorf("parsing confirmation email text template: %w", err)
	}

	return &templates{html: html, text: text}, nil
}

// render produces the HTML and plain-text bodies of the confirmation email.
func (t *templates) render(firstName, confirmURL string) (html, text string, err error) {
	bindings := map[string]interface{}{
		"first_name":  firstName,
		"confirm_url": confirmURL,
	}

	html, err = t.html.RenderString(bindings)
	if err != nil {
		return "", "", fmt.Errorf("rendering confirmation email HTML: %w", err)
	}
	text, err = t.text.RenderString(bindings)
	if err != nil {
		return "", "", fmt.Errorf("rendering confirmation email text: %w", err)
	}
	return html, text, nil
}
