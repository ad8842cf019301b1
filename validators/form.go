package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/CorrelAid/order_mailer/models"
	"github.com/go-playground/validator/v10"
)

const (
	FieldPDF   = "pdf"
	FieldImage = "image"
)

// attachmentOrder is the order attachments appear in the outgoing mail.
var attachmentOrder = []string{FieldPDF, FieldImage}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateProcessFormData turns a parsed form into a submission and its
// attachments. The pdf file and the applicant and tmName fields are required.
// File fields other than pdf and image are dropped.
func ValidateProcessFormData(form *models.Form) (models.Submission, []models.Attachment, error) {
	submission := models.Submission{
		Type:        field(form, "type"),
		Applicant:   field(form, "applicant"),
		TmName:      field(form, "tmName"),
		Phone:       field(form, "phone"),
		Contact:     field(form, "contact"),
		Scheme:      field(form, "scheme"),
		SchemeName:  field(form, "schemeName"),
		FinalTotal:  field(form, "finalTotal"),
		WithInvoice: field(form, "withInvoice"),
	}

	if err := validate.Struct(submission); err != nil {
		return models.Submission{}, nil, toValidationError(err)
	}

	pdf, ok := form.Files[FieldPDF]
	if !ok || len(pdf.Content) == 0 {
		return models.Submission{}, nil, models.NewValidationError(FieldPDF, "file is required")
	}

	attachments := make([]models.Attachment, 0, len(attachmentOrder))
	for _, name := range attachmentOrder {
		if file, ok := form.Files[name]; ok && len(file.Content) > 0 {
			attachments = append(attachments, file)
		}
	}

	return submission, attachments, nil
}

func field(form *models.Form, name string) string {
	return strings.TrimSpace(form.Fields[name])
}

func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return models.NewValidationError("", err.Error())
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return models.NewValidationError(fe.Field(), "is required")
	case "max":
		return models.NewValidationError(fe.Field(), fmt.Sprintf("must be at most %s characters", fe.Param()))
	default:
		return models.NewValidationError(fe.Field(), fmt.Sprintf("failed %s validation", fe.Tag()))
	}
}
