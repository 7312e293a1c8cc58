package emails

import (
	"fmt"
	"html"
	"time"
)

const (
	themePrimary   = "#1D4ED8"
	themeTextMain  = "#1F2937"
	themeBgBody    = "#F3F4F6"
	themeTextMuted = "#6B7280"
)

// EmailLayout wraps content in the portal's HTML frame.
func EmailLayout(contentHTML string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <style>
    body { margin: 0; padding: 0; background-color: %s; font-family: -apple-system, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; color: %s; }
    .card { max-width: 560px; margin: 32px auto; background: #FFFFFF; border-radius: 12px; padding: 32px; }
    .card h1 { font-size: 22px; margin-top: 0; }
    .card p { font-size: 15px; line-height: 1.6; }
    .button { display: inline-block; background: %s; color: #FFFFFF !important; padding: 12px 24px; border-radius: 8px; text-decoration: none; font-weight: 600; }
    .footer { text-align: center; font-size: 12px; color: %s; }
  </style>
</head>
<body>
  <div class="card">%s</div>
  <p class="footer">&copy; %d Procurement Portal</p>
</body>
</html>`, themeBgBody, themeTextMain, themePrimary, themeTextMuted, contentHTML, time.Now().Year())
}

func welcomeContent(companyName, portalURL string) string {
	return fmt.Sprintf(`
    <h1>Welcome, %s</h1>
    <p>Your vendor account is ready. You can now browse published RFPs and submit bids.</p>
    <p><a href="%s/rfps" class="button">Browse RFPs</a></p>
`, html.EscapeString(companyName), html.EscapeString(portalURL))
}

func notificationContent(title, message, url string) string {
	button := ""
	if url != "" {
		button = fmt.Sprintf(`<p><a href="%s" class="button">Open portal</a></p>`, html.EscapeString(url))
	}
	return fmt.Sprintf(`
    <h1>%s</h1>
    <p>%s</p>
    %s
`, html.EscapeString(title), html.EscapeString(message), button)
}
