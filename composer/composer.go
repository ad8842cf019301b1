// Package composer renders a validated submission into an email.
package composer

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"regexp"
	texttemplate "text/template"

	"github.com/CorrelAid/order_mailer/models"
	"github.com/Masterminds/sprig/v3"
	"github.com/shopspring/decimal"
)

const (
	// Placeholder is rendered for optional values that were not submitted.
	Placeholder = "未填写"

	SubjectOrder    = "商标申请订单"
	SubjectContract = "商标代理服务合同"

	InvoiceSpecial  = "增值税专用发票"
	InvoiceOrdinary = "增值税普通发票"
)

// plainDecimal admits digits with an optional fraction. Exponent notation is
// refused since decimal would expand it to its full length.
var plainDecimal = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	textTemplate = texttemplate.Must(texttemplate.New("submission.txt.tmpl").
			Funcs(sprig.TxtFuncMap()).
			ParseFS(templateFS, "templates/submission.txt.tmpl"))
	htmlTemplate = htmltemplate.Must(htmltemplate.New("submission.html.tmpl").
			Funcs(sprig.HtmlFuncMap()).
			ParseFS(templateFS, "templates/submission.html.tmpl"))
)

type view struct {
	Title       string
	Document    string
	Applicant   string
	TmName      string
	Phone       string
	Contact     string
	Scheme      string
	SchemeName  string
	Total       string
	Invoice     string
	Placeholder string
}

// Compose builds the subject and bodies for a submission. Attachments are
// carried over unchanged and in order. An unparseable or negative finalTotal
// is rejected with a ValidationError.
func Compose(submission models.Submission, attachments []models.Attachment) (models.Email, error) {
	total, err := FormatTotal(submission.FinalTotal)
	if err != nil {
		return models.Email{}, err
	}

	v := view{
		Title:       SubjectContract,
		Document:    "合同",
		Applicant:   submission.Applicant,
		TmName:      submission.TmName,
		Phone:       submission.Phone,
		Contact:     submission.Contact,
		Scheme:      submission.Scheme,
		SchemeName:  submission.SchemeName,
		Total:       total,
		Invoice:     InvoiceOrdinary,
		Placeholder: Placeholder,
	}
	if submission.IsOrder() {
		v.Title = SubjectOrder
		v.Document = "订单"
	}
	if submission.SpecialInvoice() {
		v.Invoice = InvoiceSpecial
	}

	var text, html bytes.Buffer
	if err := textTemplate.Execute(&text, v); err != nil {
		return models.Email{}, fmt.Errorf("render text body: %w", err)
	}
	if err := htmlTemplate.Execute(&html, v); err != nil {
		return models.Email{}, fmt.Errorf("render html body: %w", err)
	}

	return models.Email{
		Subject:     fmt.Sprintf("%s - %s - %s", v.Title, submission.Applicant, submission.TmName),
		TextBody:    text.String(),
		HTMLBody:    html.String(),
		Attachments: append([]models.Attachment(nil), attachments...),
	}, nil
}

// FormatTotal renders a monetary total as ¥ with exactly two decimals,
// rounding half away from zero. An empty total renders the placeholder.
func FormatTotal(raw string) (string, error) {
	if raw == "" {
		return Placeholder, nil
	}
	if !plainDecimal.MatchString(raw) {
		return "", models.NewValidationError("finalTotal", fmt.Sprintf("%q is not a number", raw))
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return "", models.NewValidationError("finalTotal", fmt.Sprintf("%q is not a number", raw))
	}
	if amount.IsNegative() {
		return "", models.NewValidationError("finalTotal", "must not be negative")
	}
	return "¥" + amount.StringFixed(2), nil
}
