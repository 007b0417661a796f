// Package webhook performs the remote metadata operations behind the
// composer: webhook lookups, recent-message listing, message prefill, and
// webhook message edit/delete. Webhook-scoped calls authenticate with the
// token embedded in the webhook URL; only the channel-message prefill needs
// a bot-token session.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/hookcast/pkg/discord/message"
	"github.com/small-frappuccino/hookcast/pkg/discord/urls"
)

// DefaultMessageListLimit bounds a recent-message listing when the caller
// does not say how many it wants.
const DefaultMessageListLimit = 10

// Info is the subset of webhook metadata the composer displays.
type Info struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatar,omitempty"`
	ChannelID string `json:"channelId"`
	GuildID   string `json:"guildId"`
}

func requestOptions(ctx context.Context) []discordgo.RequestOption {
	return []discordgo.RequestOption{
		discordgo.WithContext(ctx),
		discordgo.WithRestRetries(0),
		discordgo.WithRetryOnRatelimit(false),
	}
}

func resolveWebhook(webhookURL string) (*urls.WebhookRef, error) {
	if err := urls.ValidateWebhookURL(strings.TrimSpace(webhookURL)); err != nil {
		return nil, err
	}
	ref := urls.ParseWebhookURL(strings.TrimSpace(webhookURL))
	if ref == nil {
		return nil, errors.New(urls.ErrInvalidWebhookURL)
	}
	return ref, nil
}

// FetchInfo looks up a webhook through its own token and returns the
// metadata the composer shows next to the URL field.
func FetchInfo(ctx context.Context, session *discordgo.Session, webhookURL string) (*Info, error) {
	if session == nil {
		return nil, errors.New("fetch webhook info: nil discord session")
	}
	ref, err := resolveWebhook(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("fetch webhook info: %w", err)
	}

	wh, err := session.WebhookWithToken(ref.ID, ref.Token, requestOptions(ctx)...)
	if err != nil {
		return nil, wrapAPIError("webhook lookup", err)
	}

	info := &Info{
		Name:      wh.Name,
		ChannelID: wh.ChannelID,
		GuildID:   wh.GuildID,
	}
	if wh.Avatar != "" {
		info.AvatarURL = discordgo.EndpointUserAvatar(wh.ID, wh.Avatar)
	}
	return info, nil
}

// FetchRecentMessages lists up to limit messages previously sent by the
// webhook, newest first as Discord returns them.
func FetchRecentMessages(ctx context.Context, session *discordgo.Session, webhookURL string, limit int) ([]*discordgo.Message, error) {
	if session == nil {
		return nil, errors.New("fetch webhook messages: nil discord session")
	}
	ref, err := resolveWebhook(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("fetch webhook messages: %w", err)
	}
	if limit <= 0 {
		limit = DefaultMessageListLimit
	}

	endpoint := fmt.Sprintf("%s/messages?limit=%d", discordgo.EndpointWebhookToken(ref.ID, ref.Token), limit)
	body, err := session.Request("GET", endpoint, nil, requestOptions(ctx)...)
	if err != nil {
		return nil, wrapAPIError("webhook message listing", err)
	}

	var messages []*discordgo.Message
	if err := json.Unmarshal(body, &messages); err != nil {
		return nil, fmt.Errorf("fetch webhook messages: decode response: %w", err)
	}
	return messages, nil
}

// FetchChannelMessage retrieves a message by permalink and converts it into
// the composer's save/load payload shape so it can prefill the form. The
// session must carry a bot token with access to the channel.
func FetchChannelMessage(ctx context.Context, session *discordgo.Session, messageURL string) (*message.Payload, error) {
	if session == nil {
		return nil, errors.New("fetch message: nil discord session")
	}
	if err := urls.ValidateMessageURL(strings.TrimSpace(messageURL)); err != nil {
		return nil, fmt.Errorf("fetch message: %w", err)
	}
	ref := urls.ParseMessageURL(strings.TrimSpace(messageURL))
	if ref == nil {
		return nil, errors.New(urls.ErrInvalidMessageURL)
	}

	msg, err := session.ChannelMessage(ref.ChannelID, ref.MessageID, requestOptions(ctx)...)
	if err != nil {
		return nil, wrapAPIError("message lookup", err)
	}

	payload := &message.Payload{
		Content: msg.Content,
		Embeds:  embedsFromDiscord(msg.Embeds),
	}
	if msg.Author != nil {
		payload.Username = msg.Author.Username
		if msg.Author.Avatar != "" {
			payload.AvatarURL = msg.Author.AvatarURL("")
		}
	}
	return payload, nil
}

// EditMessage replaces the content and embeds of an existing webhook
// message. The embeds payload is a wire-format embeds array; it is checked
// against the same structural limits the assembler enforces before any
// request is made.
func EditMessage(ctx context.Context, session *discordgo.Session, webhookURL, messageID string, content string, embedsJSON json.RawMessage) (*discordgo.Message, error) {
	if session == nil {
		return nil, errors.New("edit webhook message: nil discord session")
	}
	if strings.TrimSpace(messageID) == "" {
		return nil, errors.New("edit webhook message: missing message_id")
	}
	ref, err := resolveWebhook(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("edit webhook message: %w", err)
	}

	embeds, err := decodeWireEmbeds(embedsJSON)
	if err != nil {
		return nil, fmt.Errorf("edit webhook message: %w", err)
	}

	edited, err := session.WebhookMessageEdit(ref.ID, ref.Token, messageID, &discordgo.WebhookEdit{
		Content: &content,
		Embeds:  &embeds,
	}, requestOptions(ctx)...)
	if err != nil {
		return nil, wrapAPIError("message edit", err)
	}
	return edited, nil
}

// DeleteMessage removes a message previously sent by the webhook.
func DeleteMessage(ctx context.Context, session *discordgo.Session, webhookURL, messageID string) error {
	if session == nil {
		return errors.New("delete webhook message: nil discord session")
	}
	if strings.TrimSpace(messageID) == "" {
		return errors.New("delete webhook message: missing message_id")
	}
	ref, err := resolveWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("delete webhook message: %w", err)
	}

	if err := session.WebhookMessageDelete(ref.ID, ref.Token, messageID, requestOptions(ctx)...); err != nil {
		return wrapAPIError("message delete", err)
	}
	return nil
}

// decodeWireEmbeds parses a wire-format embeds array and applies the
// structural limits shared with the assembler.
func decodeWireEmbeds(raw json.RawMessage) ([]*discordgo.MessageEmbed, error) {
	if len(raw) == 0 {
		return []*discordgo.MessageEmbed{}, nil
	}

	var embeds []*discordgo.MessageEmbed
	if err := json.Unmarshal(raw, &embeds); err != nil {
		return nil, fmt.Errorf("invalid embeds array: %w", err)
	}
	if len(embeds) > message.MaxEmbeds {
		return nil, &message.ValidationError{Rule: message.RuleTooManyEmbeds, Message: message.ErrTooManyEmbeds}
	}
	for _, e := range embeds {
		if e != nil && len(e.Fields) > message.MaxEmbedFields {
			return nil, &message.ValidationError{Rule: message.RuleTooManyFields, Message: message.ErrTooManyFields}
		}
	}
	return embeds, nil
}

// embedsFromDiscord converts fetched embeds back into composer state, with
// wire colors rendered as hex strings again.
func embedsFromDiscord(in []*discordgo.MessageEmbed) []message.Embed {
	if len(in) == 0 {
		return nil
	}
	out := make([]message.Embed, 0, len(in))
	for _, e := range in {
		if e == nil {
			continue
		}
		embed := message.Embed{
			Title:       e.Title,
			Description: e.Description,
			URL:         e.URL,
		}
		if e.Color != 0 {
			embed.Color = message.ColorFromDecimal(e.Color)
		}
		if e.Author != nil {
			embed.Author = &message.Author{Name: e.Author.Name, URL: e.Author.URL, IconURL: e.Author.IconURL}
		}
		if e.Footer != nil {
			embed.Footer = &message.Footer{Text: e.Footer.Text, IconURL: e.Footer.IconURL, Timestamp: e.Timestamp}
		}
		if e.Image != nil {
			embed.Image = &message.Media{URL: e.Image.URL}
		}
		if e.Thumbnail != nil {
			embed.Thumbnail = &message.Media{URL: e.Thumbnail.URL}
		}
		for _, f := range e.Fields {
			if f == nil {
				continue
			}
			embed.Fields = append(embed.Fields, message.Field{Name: f.Name, Value: f.Value, Inline: f.Inline})
		}
		out = append(out, embed)
	}
	return out
}
