package email

import (
	"bytes"
	"html/template"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Registration Confirmed</h2>
  <p>Dear {{.Name}},</p>
  <p>Your payment has been verified and your registration <b>{{.RegistrationID}}</b> is confirmed.</p>

  <h3>Payment Summary</h3>
  <table cellpadding="6" style="border-collapse: collapse;">
    <tr><td>Category</td><td>{{.Breakdown.RegistrationTypeLabel}}</td></tr>
    <tr><td>Registration fee</td><td>{{.Amount.Currency}} {{printf "%.2f" .Amount.Registration}}</td></tr>
    {{if .Breakdown.WorkshopFees}}
    <tr><td>Workshops</td><td>{{.Amount.Currency}} {{printf "%.2f" .Amount.Workshops}}</td></tr>
    {{range .Breakdown.WorkshopFees}}
    <tr><td style="padding-left: 20px;">{{.Name}}</td><td>{{printf "%.2f" .Amount}}</td></tr>
    {{end}}
    {{end}}
    {{if gt .Amount.AccompanyingPersons 0.0}}
    <tr><td>Accompanying persons</td><td>{{.Amount.Currency}} {{printf "%.2f" .Amount.AccompanyingPersons}}</td></tr>
    {{end}}
    {{if gt .Amount.Accommodation 0.0}}
    <tr><td>Accommodation</td><td>{{.Amount.Currency}} {{printf "%.2f" .Amount.Accommodation}}</td></tr>
    {{end}}
    <tr><td>GST ({{printf "%.0f" .Breakdown.GSTPercent}}%)</td><td>{{.Amount.Currency}} {{printf "%.2f" .Amount.GST}}</td></tr>
    {{if gt .Amount.Discount 0.0}}
    <tr><td>Discount</td><td>-{{.Amount.Currency}} {{printf "%.2f" .Amount.Discount}}</td></tr>
    {{end}}
    <tr><td><b>Total paid</b></td><td><b>{{.Amount.Currency}} {{printf "%.2f" .Amount.Total}}</b></td></tr>
  </table>

  <p>Transaction reference: {{.TransactionID}}</p>
  <p>Your check-in QR code is attached. Please present it at the registration desk.</p>
</body>
</html>
`))

var alertTmpl = template.Must(template.New("alert").Parse(`
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2 style="color: #b00;">URGENT: Payment captured but registration not recorded</h2>
  <p>A gateway payment was captured, but the registrant account could not be created.
  <b>Money has moved; the registration must be completed manually.</b></p>

  <table cellpadding="6" style="border-collapse: collapse;">
    <tr><td>Payment ID</td><td>{{.RazorpayPaymentID}}</td></tr>
    <tr><td>Order ID</td><td>{{.RazorpayOrderID}}</td></tr>
    <tr><td>Amount</td><td>{{.Currency}} {{printf "%.2f" .Amount}}</td></tr>
    <tr><td>Failure</td><td>{{.FailureReason}}</td></tr>
  </table>

  <h3>Intended registration details</h3>
  <pre>{{.RegistrantPayload}}</pre>

  <h3>Manual recovery steps</h3>
  <ol>
    <li>Verify the payment status in the Razorpay dashboard using the payment id above.</li>
    <li>Open the pending payments screen and resolve this record, which creates the
        registration from the stored payload.</li>
    <li>Confirm the registrant received their confirmation email afterwards.</li>
  </ol>
</body>
</html>
`))

func renderConfirmation(data ConfirmationData) (string, error) {
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderAlert(data AlertData) (string, error) {
	var buf bytes.Buffer
	if err := alertTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
