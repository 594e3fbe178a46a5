package community

import (
	"testing"
	"time"

	"heritagecore/pkg/domain"
)

func TestMessagesSeedsWelcome(t *testing.T) {
	now := time.UnixMilli(1_000_000)
	rooms := NewRooms(WithNow(func() time.Time { return now }))
	msgs := rooms.Messages("Kateri")
	if len(msgs) != 1 {
		t.Fatalf("expected seeded welcome, got %d messages", len(msgs))
	}
	welcome := msgs[0]
	if welcome.SenderID != BotID || welcome.SenderName != BotName || welcome.Village != "Kateri" {
		t.Fatalf("unexpected welcome %+v", welcome)
	}
	if welcome.Text != "Welcome to the Kateri community chat. Connect with your kin!" {
		t.Fatalf("unexpected welcome text %q", welcome.Text)
	}
	if welcome.Timestamp != 900_000 {
		t.Fatalf("expected welcome 100s in the past, got %d", welcome.Timestamp)
	}
	if again := rooms.Messages("Kateri"); len(again) != 1 {
		t.Fatalf("room must be seeded once")
	}
}

func TestPostAppendsInOrder(t *testing.T) {
	rooms := NewRooms()
	session := domain.Session{ID: "u1", Name: "Musa", Village: "Adunu", Role: domain.RoleUser}
	first, ok := rooms.Post(session, "Adunu", "hello")
	if !ok {
		t.Fatalf("expected post accepted")
	}
	if _, ok := rooms.Post(session, "Adunu", "again"); !ok {
		t.Fatalf("expected second post accepted")
	}
	msgs := rooms.Messages("Adunu")
	if len(msgs) != 3 || msgs[1].ID != first.ID || msgs[2].Text != "again" {
		t.Fatalf("unexpected log %+v", msgs)
	}
	if msgs[1].SenderID != "u1" || msgs[1].SenderName != "Musa" {
		t.Fatalf("unexpected sender %+v", msgs[1])
	}
	if len(rooms.Messages("Kateri")) != 1 {
		t.Fatalf("rooms must be independent")
	}
}

func TestPostIgnoresBlankText(t *testing.T) {
	rooms := NewRooms()
	for _, text := range []string{"", "   ", "\n\t"} {
		if _, ok := rooms.Post(domain.Session{ID: "u"}, "Ishau", text); ok {
			t.Fatalf("expected %q ignored", text)
		}
	}
	if len(rooms.Messages("Ishau")) != 1 {
		t.Fatalf("blank posts must not append")
	}
}

func TestChatVillage(t *testing.T) {
	session := domain.Session{Village: "Kajuru"}
	if got := ChatVillage(session, domain.AllVillages); got != "Kajuru" {
		t.Fatalf("expected home village, got %s", got)
	}
	if got := ChatVillage(session, "Birnya"); got != "Birnya" {
		t.Fatalf("expected selected village, got %s", got)
	}
}
