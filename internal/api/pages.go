package api

import (
	"fmt"

	"github.com/osteele/liquid"
)

// Browser-facing confirmation pages. Presentation only; the workflow result
// decides which one renders.

const confirmSuccessHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Subscription confirmed</title></head>
<body style="font-family: sans-serif; max-width: 540px; margin: 48px auto;">
  <h1>You're subscribed!</h1>
  <p>{{ email }} has been confirmed. Welcome aboard.</p>
</body>
</html>`

const confirmErrorHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Confirmation failed</title></head>
<body style="font-family: sans-serif; max-width: 540px; margin: 48px auto;">
  <h1>Confirmation failed</h1>
  <p>{{ message }}</p>
</body>
</html>`

type pages struct {
	success *liquid.Template
	failure *liquid.Template
}

func newPages() (*pages, error) {
	engine := liquid.NewEngine()

	success, err := engine.ParseString(confirmSuccessHTML)
	if err != nil {
		return nil, fmt.Errorf("parsing success page template: %w", err)
	}
	failure, err := engine.ParseString(confirmErrorHTML)
	if err != nil {
		return nil, fmt.Errorf("parsing error page template: %w", err)
	}

	return &pages{success: success, failure: failure}, nil
}

func (p *pages) renderSuccess(email string) string {
	out, err := p.success.RenderString(map[string]interface{}{"email": email})
	if err != nil {
		return "<h1>You're subscribed!</h1>"
	}
	return out
}

func (p *pages) renderError(message string) string {
	out, err := p.failure.RenderString(map[string]interface{}{"message": message})
	if err != nil {
		return "<h1>Confirmation failed</h1>"
	}
	return out
}
