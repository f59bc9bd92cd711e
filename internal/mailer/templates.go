package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/Harsh-Singh007/grabit/internal/entity"
)

var verificationHTML = template.Must(template.New("verification").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; padding: 20px; border: 1px solid #e0e0e0; border-radius: 10px;">
  <h2 style="color: #4f46e5; text-align: center;">{{if .Resend}}Account Verification{{else}}Welcome to Grabit!{{end}}</h2>
  <p>Hi {{.Name}},</p>
  <p>{{if .Resend}}You requested a new verification code.{{else}}Thank you for registering.{{end}} Please use the following One-Time Password (OTP) to verify your account:</p>
  <div style="background-color: #f3f4f6; padding: 15px; text-align: center; font-size: 24px; font-weight: bold; letter-spacing: 5px; color: #1f2937; border-radius: 5px; margin: 20px 0;">{{.OTP}}</div>
  <p>This OTP is valid for 24 hours.</p>
  <p>Best regards,<br/>The Grabit Team</p>
</div>`))

var orderUpdateHTML = template.Must(template.New("order").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; padding: 20px;">
  <h2 style="color: #4f46e5;">Order update</h2>
  <p>Hi {{.Name}},</p>
  <p>Your order <b>{{.OrderID}}</b> is now <b>{{.Status}}</b>.</p>
  {{if .CancelledBy}}<p>The order was cancelled by {{.CancelledBy}}.</p>{{end}}
  <p>Order total: {{.Amount}}</p>
  <p>Best regards,<br/>The Grabit Team</p>
</div>`))

func VerificationMessage(to, name, otp string, resend bool) (Message, error) {
	var html bytes.Buffer
	err := verificationHTML.Execute(&html, struct {
		Name   string
		OTP    string
		Resend bool
	}{name, otp, resend})
	if err != nil {
		return Message{}, err
	}

	text := fmt.Sprintf("Your verification OTP is %s. Please verify your account using this code.", otp)
	if resend {
		text = fmt.Sprintf("Your new verification OTP is %s.", otp)
	}
	return Message{
		To:      to,
		Subject: "Account Verification OTP",
		Text:    text,
		HTML:    html.String(),
	}, nil
}

func OrderUpdateMessage(to, name string, order *entity.Order) (Message, error) {
	var html bytes.Buffer
	err := orderUpdateHTML.Execute(&html, struct {
		Name        string
		OrderID     string
		Status      entity.OrderStatus
		CancelledBy entity.CancelledBy
		Amount      int64
	}{name, order.ID, order.Status, order.CancelledBy, order.Amount})
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:      to,
		Subject: fmt.Sprintf("Your order is %s", order.Status),
		Text:    fmt.Sprintf("Hi %s, your order %s is now %s.", name, order.ID, order.Status),
		HTML:    html.String(),
	}, nil
}
