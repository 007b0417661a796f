// Package message defines the composer's message model and assembles it into
// a wire-ready Discord webhook request body.
package message

// Structural limits enforced before any network call.
const (
	MaxEmbeds      = 10
	MaxEmbedFields = 25
	MaxFiles       = 10
	MaxFileSize    = 25 * 1024 * 1024
)

// Message flag bits.
const (
	FlagSuppressEmbeds        = 1 << 2
	FlagSuppressNotifications = 1 << 12
)

// Field is a single embed field. Inline fields share a row; full-width
// fields do not.
type Field struct {
	Name   string `json:"name,omitempty"`
	Value  string `json:"value,omitempty"`
	Inline bool   `json:"inline,omitempty"`
}

// Author is an embed author sub-object.
type Author struct {
	Name    string `json:"name,omitempty"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

// Footer is an embed footer sub-object.
type Footer struct {
	Text      string `json:"text,omitempty"`
	IconURL   string `json:"icon_url,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Media is an embed image or thumbnail reference.
type Media struct {
	URL string `json:"url,omitempty"`
}

// Embed is a rich-content block as held in composer state and in the local
// save/load format. Color is a hex string here; it is normalized to a
// decimal integer only at assembly time. Sub-objects are pointers so that
// absence stays distinct from an empty value.
type Embed struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	URL         string  `json:"url,omitempty"`
	Color       string  `json:"color,omitempty"`
	Author      *Author `json:"author,omitempty"`
	Footer      *Footer `json:"footer,omitempty"`
	Image       *Media  `json:"image,omitempty"`
	Thumbnail   *Media  `json:"thumbnail,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
}

// File is an attachment staged for upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message is a snapshot of composer state handed to Assemble. The composer
// owns the live state; Assemble only ever reads a copy.
type Message struct {
	Content               string
	Username              string
	AvatarURL             string
	ThreadName            string
	SuppressEmbeds        bool
	SuppressNotifications bool
	Embeds                []Embed
	Files                 []File
}

// Payload is the local save/load shape: a subset of the wire payload with
// colors still in hex form. Import does not enforce send-time limits; those
// apply only when the message is actually assembled.
type Payload struct {
	Content    string  `json:"content,omitempty"`
	Username   string  `json:"username,omitempty"`
	AvatarURL  string  `json:"avatar_url,omitempty"`
	ThreadName string  `json:"thread_name,omitempty"`
	Embeds     []Embed `json:"embeds,omitempty"`
}

// WireEmbed is the normalized embed shape sent to Discord.
type WireEmbed struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	URL         string  `json:"url,omitempty"`
	Color       *int    `json:"color,omitempty"`
	Author      *Author `json:"author,omitempty"`
	Footer      *Footer `json:"footer,omitempty"`
	Image       *Media  `json:"image,omitempty"`
	Thumbnail   *Media  `json:"thumbnail,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
}

// WirePayload is the JSON body posted to a webhook endpoint, either directly
// or as the payload_json part of a multipart request.
type WirePayload struct {
	Content    string      `json:"content,omitempty"`
	Username   string      `json:"username,omitempty"`
	AvatarURL  string      `json:"avatar_url,omitempty"`
	ThreadName string      `json:"thread_name,omitempty"`
	Flags      int         `json:"flags,omitempty"`
	Embeds     []WireEmbed `json:"embeds,omitempty"`
}
