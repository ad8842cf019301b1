// Package parsers reads submission bodies.
package parsers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/CorrelAid/order_mailer/config"
	"github.com/CorrelAid/order_mailer/models"
	"github.com/gabriel-vasile/mimetype"
)

const octetStream = "application/octet-stream"

// ParseMultipart consumes a multipart/form-data body part by part. Only the
// part currently being read is held in memory besides the already collected
// values. A body that is not multipart or breaks off yields a ParseError; a
// body or part over the configured limits yields a ValidationError.
func ParseMultipart(w http.ResponseWriter, r *http.Request, limits config.Limits) (*models.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxBodyBytes)

	reader, err := r.MultipartReader()
	if err != nil {
		return nil, &models.ParseError{Err: err}
	}

	form := models.NewForm()
	for {
		part, err := reader.NextPart()
		// Only a bare io.EOF marks the final boundary; a wrapped EOF means
		// the stream was cut short.
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, classify(err, limits)
		}

		name := part.FormName()
		if name == "" {
			part.Close()
			continue
		}

		if part.FileName() == "" {
			value, err := readPart(part, limits.MaxFieldBytes, limits)
			part.Close()
			if err != nil {
				return nil, fieldError(name, err)
			}
			form.Fields[name] = string(value)
			continue
		}

		content, err := readPart(part, limits.MaxFileBytes, limits)
		part.Close()
		if err != nil {
			return nil, fieldError(name, err)
		}
		form.Files[name] = models.Attachment{
			Field:       name,
			Filename:    part.FileName(),
			ContentType: contentType(part.Header.Get("Content-Type"), content),
			Content:     content,
		}
	}

	return form, nil
}

var errPartTooLarge = errors.New("part too large")

func readPart(r io.Reader, max int64, limits config.Limits) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, classify(err, limits)
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w: exceeds %d bytes", errPartTooLarge, max)
	}
	return data, nil
}

func classify(err error, limits config.Limits) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return models.NewValidationError("", fmt.Sprintf("request body exceeds the maximum size of %d bytes", limits.MaxBodyBytes))
	}
	return &models.ParseError{Err: err}
}

func fieldError(name string, err error) error {
	if errors.Is(err, errPartTooLarge) {
		return models.NewValidationError(name, "size exceeds the maximum limit")
	}
	return err
}

// contentType trusts the declared part type unless it is missing or generic,
// in which case the content is sniffed.
func contentType(declared string, content []byte) string {
	if declared != "" && declared != octetStream {
		return declared
	}
	return mimetype.Detect(content).String()
}
