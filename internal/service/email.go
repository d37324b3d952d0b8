package service

import (
	"bytes"
	htmltemplate "html/template"
	"net/url"
	"storefront/internal/client"
	"storefront/internal/model"
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
)

var emailFuncs = template.FuncMap{
	"money": formatMoney,
	"lineTotal": func(item model.OrderItem) string {
		return decimal.NewFromFloat(item.UnitPrice).Mul(decimal.NewFromInt(int64(item.Quantity))).StringFixed(2)
	},
}

var orderConfirmationText = template.Must(template.New("order-text").Funcs(emailFuncs).Parse(
	`Hi {{.CustomerInfo.Name}},

Thank you for your order. We have received it and it is now {{.OrderStatus}}.

Order ID: {{.ID}}
Payment:  {{.PaymentMethod}} ({{.PaymentStatus}})

{{range .Items}}- {{.Name}} x {{.Quantity}} @ {{money .UnitPrice}} = {{lineTotal .}}
{{end}}
Total: {{money .TotalAmount}}
{{if .OrderURL}}
View your order: {{.OrderURL}}
{{end}}`))

var orderConfirmationHTML = htmltemplate.Must(htmltemplate.New("order-html").Funcs(htmltemplate.FuncMap(emailFuncs)).Parse(
	`<h2>Thank you for your order, {{.CustomerInfo.Name}}!</h2>
<p>Order <strong>{{.ID}}</strong> is {{.OrderStatus}}. Payment: {{.PaymentMethod}} ({{.PaymentStatus}}).</p>
<table>
<tr><th>Item</th><th>Qty</th><th>Price</th><th>Subtotal</th></tr>
{{range .Items}}<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{money .UnitPrice}}</td><td>{{lineTotal .}}</td></tr>
{{end}}</table>
<p><strong>Total: {{money .TotalAmount}}</strong></p>
{{if .OrderURL}}<p><a href="{{.OrderURL}}">View your order</a></p>
{{end}}`))

var otpText = template.Must(template.New("otp-text").Parse(
	`Your verification code is {{.Code}}. It expires in {{.Minutes}} minute(s).
If you did not request this code you can ignore this email.
`))

var otpHTML = htmltemplate.Must(htmltemplate.New("otp-html").Parse(
	`<p>Your verification code is</p>
<h1 style="letter-spacing:4px">{{.Code}}</h1>
<p>It expires in {{.Minutes}} minute(s). If you did not request this code you can ignore this email.</p>
`))

type orderEmailData struct {
	*model.Order
	OrderURL string
}

// orderConfirmationEmail renders the confirmation; the order link is left out when baseURL is empty.
func orderConfirmationEmail(order *model.Order, baseURL string) (*client.Email, error) {
	data := orderEmailData{Order: order}
	if baseURL != "" {
		data.OrderURL = strings.TrimRight(baseURL, "/") + "/api/orders/" + url.PathEscape(order.ID)
	}

	var text, html bytes.Buffer
	if err := orderConfirmationText.Execute(&text, data); err != nil {
		return nil, err
	}
	if err := orderConfirmationHTML.Execute(&html, data); err != nil {
		return nil, err
	}

	return &client.Email{
		To:      order.CustomerInfo.Email,
		Subject: "Order confirmation #" + order.ID,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

func otpEmail(to, code string, ttl time.Duration) (*client.Email, error) {
	data := struct {
		Code    string
		Minutes int
	}{
		Code:    code,
		Minutes: max(1, int(ttl.Minutes())),
	}

	var text, html bytes.Buffer
	if err := otpText.Execute(&text, data); err != nil {
		return nil, err
	}
	if err := otpHTML.Execute(&html, data); err != nil {
		return nil, err
	}

	return &client.Email{
		To:      to,
		Subject: "Your verification code",
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

func formatMoney(amount float64) string {
	return "₹" + decimal.NewFromFloat(amount).StringFixed(2)
}
