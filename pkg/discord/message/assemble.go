package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Validation rules, reported on the first violation found.
const (
	RuleNothingToSend = "nothing_to_send"
	RuleTooManyEmbeds = "too_many_embeds"
	RuleTooManyFields = "too_many_fields"
	RuleTooManyFiles  = "too_many_files"
	RuleFileTooLarge  = "file_too_large"
	RuleBadColor      = "bad_color"
)

// Error messages
const (
	ErrNothingToSend = "nothing to send: add content, an embed, or a file"
	ErrTooManyEmbeds = "maximum of 10 embeds allowed"
	ErrTooManyFields = "maximum of 25 fields per embed allowed"
	ErrTooManyFiles  = "maximum of 10 files allowed"
	ErrFileTooLarge  = "files must be smaller than 25MB"
)

// ValidationError identifies the first rule a message violated. Validation
// never aggregates; one structured error is returned per failed assembly.
type ValidationError struct {
	Rule    string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "message validation error"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Assembled is a wire-ready request body. When Multipart is set, Body is a
// multipart/form-data encoding with a payload_json part plus one fileN part
// per attachment; otherwise Body is a plain JSON document.
type Assembled struct {
	Body        []byte
	ContentType string
	Multipart   bool
}

// Assemble validates a message snapshot and encodes it for the wire. The
// check order is fixed because it determines which error the user sees
// first: emptiness, embed limits, file limits, then normalization.
func Assemble(m Message) (*Assembled, error) {
	if strings.TrimSpace(m.Content) == "" && len(m.Embeds) == 0 && len(m.Files) == 0 {
		return nil, &ValidationError{Rule: RuleNothingToSend, Message: ErrNothingToSend}
	}

	if len(m.Embeds) > MaxEmbeds {
		return nil, &ValidationError{Rule: RuleTooManyEmbeds, Message: ErrTooManyEmbeds}
	}
	for _, embed := range m.Embeds {
		if len(embed.Fields) > MaxEmbedFields {
			return nil, &ValidationError{Rule: RuleTooManyFields, Message: ErrTooManyFields}
		}
	}

	if len(m.Files) > MaxFiles {
		return nil, &ValidationError{Rule: RuleTooManyFiles, Message: ErrTooManyFiles}
	}
	for _, f := range m.Files {
		if len(f.Data) > MaxFileSize {
			return nil, &ValidationError{Rule: RuleFileTooLarge, Message: ErrFileTooLarge}
		}
	}

	payload := WirePayload{
		Content:    m.Content,
		Username:   m.Username,
		AvatarURL:  m.AvatarURL,
		ThreadName: m.ThreadName,
	}

	flags := 0
	if m.SuppressEmbeds {
		flags |= FlagSuppressEmbeds
	}
	if m.SuppressNotifications {
		flags |= FlagSuppressNotifications
	}
	payload.Flags = flags

	if len(m.Embeds) > 0 {
		wire := make([]WireEmbed, 0, len(m.Embeds))
		for _, embed := range m.Embeds {
			we, err := normalizeEmbed(embed)
			if err != nil {
				return nil, err
			}
			wire = append(wire, we)
		}
		payload.Embeds = wire
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	if len(m.Files) == 0 {
		return &Assembled{Body: body, ContentType: "application/json"}, nil
	}

	return assembleMultipart(body, m.Files)
}

// normalizeEmbed converts composer embed state to the wire shape. Only the
// color representation changes; everything else passes through, including
// the absent-vs-empty distinction of the sub-objects.
func normalizeEmbed(e Embed) (WireEmbed, error) {
	we := WireEmbed{
		Title:       e.Title,
		Description: e.Description,
		URL:         e.URL,
		Author:      e.Author,
		Footer:      e.Footer,
		Image:       e.Image,
		Thumbnail:   e.Thumbnail,
		Fields:      e.Fields,
	}
	if e.Color != "" {
		v, err := ColorToDecimal(e.Color)
		if err != nil {
			return WireEmbed{}, &ValidationError{Rule: RuleBadColor, Message: fmt.Sprintf("invalid embed color %q", e.Color), Cause: err}
		}
		we.Color = &v
	}
	return we, nil
}

func assembleMultipart(payloadJSON []byte, files []File) (*Assembled, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("payload_json", string(payloadJSON)); err != nil {
		return nil, fmt.Errorf("write payload_json part: %w", err)
	}

	for i, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file%d"; filename=%q`, i, f.Name))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := w.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("create part for file%d: %w", i, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("write file%d: %w", i, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	return &Assembled{
		Body:        buf.Bytes(),
		ContentType: w.FormDataContentType(),
		Multipart:   true,
	}, nil
}
