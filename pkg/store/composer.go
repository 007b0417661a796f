// Package store holds the in-memory composer state: the single mutable copy
// of the message being built. The store is the only writer; everything that
// needs to read the message (assembly included) works from a snapshot taken
// at call time, never from the live state.
package store

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/small-frappuccino/hookcast/pkg/discord/message"
)

// DefaultEmbedColor is applied to newly added embeds.
const DefaultEmbedColor = "#5865F2"

// Composer owns the message being composed. All methods are safe for
// concurrent use, though the expected usage is a single interactive writer.
type Composer struct {
	mu  sync.RWMutex
	msg message.Message
}

// NewComposer returns an empty composer.
func NewComposer() *Composer {
	return &Composer{}
}

func (c *Composer) SetWebhookContent(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msg.Content = content
}

func (c *Composer) SetUsername(username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msg.Username = username
}

func (c *Composer) SetAvatarURL(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msg.AvatarURL = url
}

func (c *Composer) SetThreadName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msg.ThreadName = name
}

func (c *Composer) SetSuppressEmbeds(suppress bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msg.SuppressEmbeds = suppress
}

func (c *Composer) SetSuppressNotifications(suppress bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msg.SuppressNotifications = suppress
}

// SetFiles replaces the staged attachment list.
func (c *Composer) SetFiles(files []message.File) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msg.Files = append([]message.File(nil), files...)
}

// AddEmbed appends a new embed with the default accent color. Adding beyond
// the embed limit is a no-op, matching the composer UI affordance rather
// than producing an error; the limit is enforced again at assembly.
func (c *Composer) AddEmbed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.msg.Embeds) >= message.MaxEmbeds {
		return
	}
	c.msg.Embeds = append(c.msg.Embeds, message.Embed{Color: DefaultEmbedColor})
}

// UpdateEmbed replaces the embed at index.
func (c *Composer) UpdateEmbed(index int, embed message.Embed) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.msg.Embeds) {
		return fmt.Errorf("update embed: index %d out of range", index)
	}
	c.msg.Embeds[index] = embed
	return nil
}

// RemoveEmbed deletes the embed at index, preserving order.
func (c *Composer) RemoveEmbed(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.msg.Embeds) {
		return fmt.Errorf("remove embed: index %d out of range", index)
	}
	c.msg.Embeds = append(c.msg.Embeds[:index], c.msg.Embeds[index+1:]...)
	return nil
}

// AddField appends an empty full-width field to the embed at embedIndex.
// Adding beyond the field limit is a no-op.
func (c *Composer) AddField(embedIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if embedIndex < 0 || embedIndex >= len(c.msg.Embeds) {
		return fmt.Errorf("add field: embed index %d out of range", embedIndex)
	}
	embed := &c.msg.Embeds[embedIndex]
	if len(embed.Fields) >= message.MaxEmbedFields {
		return nil
	}
	embed.Fields = append(embed.Fields, message.Field{})
	return nil
}

// RemoveField deletes a field from the embed at embedIndex.
func (c *Composer) RemoveField(embedIndex, fieldIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if embedIndex < 0 || embedIndex >= len(c.msg.Embeds) {
		return fmt.Errorf("remove field: embed index %d out of range", embedIndex)
	}
	embed := &c.msg.Embeds[embedIndex]
	if fieldIndex < 0 || fieldIndex >= len(embed.Fields) {
		return fmt.Errorf("remove field: field index %d out of range", fieldIndex)
	}
	embed.Fields = append(embed.Fields[:fieldIndex], embed.Fields[fieldIndex+1:]...)
	return nil
}

// Reset discards all composed state.
func (c *Composer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msg = message.Message{}
}

// Snapshot returns a deep copy of the current message. Later mutation of
// the composer never changes a snapshot already handed out.
func (c *Composer) Snapshot() message.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyMessage(c.msg)
}

// ExportPayload serializes the composed message (minus files and flags) as
// the local save format. The export is not validated against send-time
// limits.
func (c *Composer) ExportPayload() ([]byte, error) {
	c.mu.RLock()
	snapshot := copyMessage(c.msg)
	c.mu.RUnlock()

	payload := message.Payload{
		Content:    snapshot.Content,
		Username:   snapshot.Username,
		AvatarURL:  snapshot.AvatarURL,
		ThreadName: snapshot.ThreadName,
		Embeds:     snapshot.Embeds,
	}
	return json.MarshalIndent(payload, "", "  ")
}

// ImportPayload loads a saved blob into the composer, replacing the text
// fields and embeds. Files and suppression flags are not part of the saved
// format and are left untouched.
func (c *Composer) ImportPayload(data []byte) error {
	var payload message.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("import payload: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.msg.Content = payload.Content
	c.msg.Username = payload.Username
	c.msg.AvatarURL = payload.AvatarURL
	c.msg.ThreadName = payload.ThreadName
	c.msg.Embeds = copyEmbeds(payload.Embeds)
	return nil
}

func copyMessage(m message.Message) message.Message {
	out := m
	out.Embeds = copyEmbeds(m.Embeds)
	if m.Files != nil {
		out.Files = make([]message.File, len(m.Files))
		for i, f := range m.Files {
			out.Files[i] = f
			out.Files[i].Data = append([]byte(nil), f.Data...)
		}
	}
	return out
}

func copyEmbeds(embeds []message.Embed) []message.Embed {
	if embeds == nil {
		return nil
	}
	out := make([]message.Embed, len(embeds))
	for i, e := range embeds {
		out[i] = e
		if e.Author != nil {
			author := *e.Author
			out[i].Author = &author
		}
		if e.Footer != nil {
			footer := *e.Footer
			out[i].Footer = &footer
		}
		if e.Image != nil {
			image := *e.Image
			out[i].Image = &image
		}
		if e.Thumbnail != nil {
			thumbnail := *e.Thumbnail
			out[i].Thumbnail = &thumbnail
		}
		if e.Fields != nil {
			out[i].Fields = append([]message.Field(nil), e.Fields...)
		}
	}
	return out
}
