package store

import (
	"encoding/json"
	"testing"

	"github.com/small-frappuccino/hookcast/pkg/discord/message"
)

func TestAddEmbedDefaultsAndCap(t *testing.T) {
	c := NewComposer()
	for i := 0; i < message.MaxEmbeds+5; i++ {
		c.AddEmbed()
	}

	snapshot := c.Snapshot()
	if len(snapshot.Embeds) != message.MaxEmbeds {
		t.Fatalf("embed count = %d, want %d", len(snapshot.Embeds), message.MaxEmbeds)
	}
	if snapshot.Embeds[0].Color != DefaultEmbedColor {
		t.Errorf("new embed color = %q, want %q", snapshot.Embeds[0].Color, DefaultEmbedColor)
	}
}

func TestAddFieldCap(t *testing.T) {
	c := NewComposer()
	c.AddEmbed()
	for i := 0; i < message.MaxEmbedFields+5; i++ {
		if err := c.AddField(0); err != nil {
			t.Fatalf("AddField: %v", err)
		}
	}

	snapshot := c.Snapshot()
	if got := len(snapshot.Embeds[0].Fields); got != message.MaxEmbedFields {
		t.Fatalf("field count = %d, want %d", got, message.MaxEmbedFields)
	}

	if err := c.AddField(3); err == nil {
		t.Error("AddField on missing embed should fail")
	}
}

func TestRemoveEmbedPreservesOrder(t *testing.T) {
	c := NewComposer()
	for i := 0; i < 3; i++ {
		c.AddEmbed()
	}
	_ = c.UpdateEmbed(0, message.Embed{Title: "a"})
	_ = c.UpdateEmbed(1, message.Embed{Title: "b"})
	_ = c.UpdateEmbed(2, message.Embed{Title: "c"})

	if err := c.RemoveEmbed(1); err != nil {
		t.Fatalf("RemoveEmbed: %v", err)
	}

	snapshot := c.Snapshot()
	if len(snapshot.Embeds) != 2 || snapshot.Embeds[0].Title != "a" || snapshot.Embeds[1].Title != "c" {
		t.Errorf("embeds after removal = %+v", snapshot.Embeds)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	c := NewComposer()
	c.SetWebhookContent("before")
	c.AddEmbed()
	_ = c.UpdateEmbed(0, message.Embed{
		Title:  "original",
		Author: &message.Author{Name: "author"},
		Fields: []message.Field{{Name: "f"}},
	})

	snapshot := c.Snapshot()

	// Mutations after the snapshot must not leak into it.
	c.SetWebhookContent("after")
	_ = c.UpdateEmbed(0, message.Embed{Title: "changed"})

	if snapshot.Content != "before" {
		t.Errorf("snapshot content = %q", snapshot.Content)
	}
	if snapshot.Embeds[0].Title != "original" {
		t.Errorf("snapshot embed title = %q", snapshot.Embeds[0].Title)
	}

	// Nor must mutating a snapshot leak back.
	snapshot.Embeds[0].Author.Name = "tampered"
	snapshot.Embeds[0].Fields[0].Name = "tampered"
	fresh := c.Snapshot()
	if fresh.Embeds[0].Title != "changed" {
		t.Errorf("live embed title = %q", fresh.Embeds[0].Title)
	}
}

func TestReset(t *testing.T) {
	c := NewComposer()
	c.SetWebhookContent("x")
	c.SetUsername("u")
	c.AddEmbed()
	c.SetFiles([]message.File{{Name: "f", Data: []byte("d")}})

	c.Reset()

	snapshot := c.Snapshot()
	if snapshot.Content != "" || snapshot.Username != "" || len(snapshot.Embeds) != 0 || len(snapshot.Files) != 0 {
		t.Errorf("state after reset = %+v", snapshot)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	c := NewComposer()
	c.SetWebhookContent("hello")
	c.SetUsername("hookcast")
	c.SetThreadName("updates")
	c.AddEmbed()
	_ = c.UpdateEmbed(0, message.Embed{
		Title: "t",
		Color: "#FF0000",
		Footer: &message.Footer{
			Text: "foot",
		},
	})

	blob, err := c.ExportPayload()
	if err != nil {
		t.Fatalf("ExportPayload: %v", err)
	}

	// The save format uses wire field names.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(blob, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"content", "username", "thread_name", "embeds"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("export missing %q: %s", key, blob)
		}
	}

	restored := NewComposer()
	if err := restored.ImportPayload(blob); err != nil {
		t.Fatalf("ImportPayload: %v", err)
	}

	snapshot := restored.Snapshot()
	if snapshot.Content != "hello" || snapshot.Username != "hookcast" || snapshot.ThreadName != "updates" {
		t.Errorf("restored message = %+v", snapshot)
	}
	if len(snapshot.Embeds) != 1 || snapshot.Embeds[0].Color != "#FF0000" {
		t.Errorf("restored embeds = %+v", snapshot.Embeds)
	}
	if snapshot.Embeds[0].Footer == nil || snapshot.Embeds[0].Footer.Text != "foot" {
		t.Errorf("restored footer = %+v", snapshot.Embeds[0].Footer)
	}
}

func TestImportDoesNotEnforceSendLimits(t *testing.T) {
	// Oversized imports load fine; limits apply only at assembly.
	oversized := message.Payload{Embeds: make([]message.Embed, message.MaxEmbeds+2)}
	blob, err := json.Marshal(oversized)
	if err != nil {
		t.Fatal(err)
	}

	c := NewComposer()
	if err := c.ImportPayload(blob); err != nil {
		t.Fatalf("ImportPayload: %v", err)
	}
	if got := len(c.Snapshot().Embeds); got != message.MaxEmbeds+2 {
		t.Fatalf("imported embed count = %d", got)
	}

	if _, err := message.Assemble(c.Snapshot()); err == nil {
		t.Error("assembling an over-limit import should fail")
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	c := NewComposer()
	if err := c.ImportPayload([]byte("{not json")); err == nil {
		t.Error("ImportPayload should reject invalid JSON")
	}
}
