package models

// Email is a composed message. The From header is not part of it; each
// transport sets its own account address when sending.
type Email struct {
	MessageID   string
	To          string
	Subject     string
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
}

// Receipt describes a successful delivery.
type Receipt struct {
	MessageID string `json:"messageId"`
	Transport string `json:"transport"`
}
