package models

// Form is the raw result of reading a multipart body: text fields and
// buffered file parts keyed by field name. Repeated names keep the last value.
type Form struct {
	Fields map[string]string
	Files  map[string]Attachment
}

func NewForm() *Form {
	return &Form{
		Fields: make(map[string]string),
		Files:  make(map[string]Attachment),
	}
}

type Attachment struct {
	Field       string
	Filename    string
	ContentType string
	Content     []byte
}

const (
	TypeOrder    = "order"
	TypeContract = "contract"
)

// Submission is the validated form data of one request.
type Submission struct {
	Type        string `form:"type" validate:"max=32"`
	Applicant   string `form:"applicant" validate:"required,max=256"`
	TmName      string `form:"tmName" validate:"required,max=256"`
	Phone       string `form:"phone" validate:"max=64"`
	Contact     string `form:"contact" validate:"max=128"`
	Scheme      string `form:"scheme" validate:"max=128"`
	SchemeName  string `form:"schemeName" validate:"max=256"`
	FinalTotal  string `form:"finalTotal" validate:"max=32"`
	WithInvoice string `form:"withInvoice" validate:"max=8"`
}

func (s Submission) IsOrder() bool {
	return s.Type == TypeOrder
}

// SpecialInvoice reports whether a VAT special invoice was requested. Only the
// literal "true" counts.
func (s Submission) SpecialInvoice() bool {
	return s.WithInvoice == "true"
}
