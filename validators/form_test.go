package validators

import (
	"errors"
	"strings"
	"testing"

	"github.com/CorrelAid/order_mailer/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() *models.Form {
	form := models.NewForm()
	form.Fields = map[string]string{
		"type":        "order",
		"applicant":   " 上海某某有限公司 ",
		"tmName":      "Giraffe",
		"phone":       "13800000000",
		"contact":     "李四",
		"scheme":      "A",
		"schemeName":  "标准注册",
		"finalTotal":  "1234.5",
		"withInvoice": "true",
	}
	form.Files = map[string]models.Attachment{
		"image": {Field: "image", Filename: "logo.png", ContentType: "image/png", Content: []byte("png")},
		"pdf":   {Field: "pdf", Filename: "order.pdf", ContentType: "application/pdf", Content: []byte("%PDF")},
		"other": {Field: "other", Filename: "x.bin", ContentType: "application/octet-stream", Content: []byte("x")},
	}
	return form
}

func TestValidateProcessFormData_Valid(t *testing.T) {
	submission, attachments, err := ValidateProcessFormData(validForm())
	require.NoError(t, err)

	assert.Equal(t, models.Submission{
		Type:        "order",
		Applicant:   "上海某某有限公司",
		TmName:      "Giraffe",
		Phone:       "13800000000",
		Contact:     "李四",
		Scheme:      "A",
		SchemeName:  "标准注册",
		FinalTotal:  "1234.5",
		WithInvoice: "true",
	}, submission)

	require.Len(t, attachments, 2)
	assert.Equal(t, "pdf", attachments[0].Field)
	assert.Equal(t, "image", attachments[1].Field)
}

func TestValidateProcessFormData_PDFOnly(t *testing.T) {
	form := validForm()
	delete(form.Files, "image")

	_, attachments, err := ValidateProcessFormData(form)
	require.NoError(t, err)
	require.Len(t, attachments, 1)
	assert.Equal(t, "order.pdf", attachments[0].Filename)
}

func TestValidateProcessFormData_OptionalFieldsMayBeEmpty(t *testing.T) {
	form := validForm()
	for _, name := range []string{"type", "phone", "contact", "scheme", "schemeName", "finalTotal", "withInvoice"} {
		delete(form.Fields, name)
	}

	submission, _, err := ValidateProcessFormData(form)
	require.NoError(t, err)
	assert.Empty(t, submission.Phone)
	assert.Empty(t, submission.Contact)
}

func TestValidateProcessFormData_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*models.Form)
		wantField string
	}{
		{"missing applicant", func(f *models.Form) { delete(f.Fields, "applicant") }, "applicant"},
		{"blank applicant", func(f *models.Form) { f.Fields["applicant"] = "   " }, "applicant"},
		{"missing tmName", func(f *models.Form) { delete(f.Fields, "tmName") }, "tmName"},
		{"missing pdf", func(f *models.Form) { delete(f.Files, "pdf") }, "pdf"},
		{"empty pdf", func(f *models.Form) {
			f.Files["pdf"] = models.Attachment{Field: "pdf", Filename: "empty.pdf"}
		}, "pdf"},
		{"applicant too long", func(f *models.Form) { f.Fields["applicant"] = strings.Repeat("名", 257) }, "applicant"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(form)

			_, _, err := ValidateProcessFormData(form)
			var validationErr *models.ValidationError
			require.True(t, errors.As(err, &validationErr), "got %v", err)
			assert.Equal(t, tt.wantField, validationErr.Field)
		})
	}
}
