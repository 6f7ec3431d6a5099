package digest

import (
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dustpunk/scout/internal/config"
	"github.com/dustpunk/scout/internal/db"
	"github.com/dustpunk/scout/internal/rank"
)

func sampleItem(title string, total float64) Item {
	price := 40.0
	return Item{
		Event: db.Event{
			EventID:      1,
			Title:        title,
			VenueName:    "Village Vanguard",
			Neighborhood: "West Village",
			StartAt:      time.Date(2026, 9, 4, 20, 0, 0, 0, time.UTC),
			PriceMin:     &price,
			TicketURL:    "https://tickets.example/123",
		},
		Scores:      rank.Breakdown{Total: total, Taste: 40, Convenience: 25, Social: 18, Novelty: 15},
		Explanation: "Village Vanguard is a legendary jazz spot in West Village.",
	}
}

func TestRenderHTML(t *testing.T) {
	t.Parallel()

	data := &Data{
		GeneratedAt: time.Date(2026, 9, 4, 8, 0, 0, 0, time.UTC),
		Tonight:     []Item{sampleItem("Brad Mehldau Trio", 98)},
	}

	html, err := RenderHTML(data)
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	for _, want := range []string{
		"Brad Mehldau Trio",
		"Village Vanguard",
		"https://tickets.example/123",
		"Tonight",
		"$40",
		"score 98.0",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered digest missing %q", want)
		}
	}
	if strings.Contains(html, "Wildcard") {
		t.Fatalf("empty wildcard bucket should not render")
	}
}

func TestRenderHTMLEmpty(t *testing.T) {
	t.Parallel()

	html, err := RenderHTML(&Data{GeneratedAt: time.Now()})
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if !strings.Contains(html, "Quiet week") {
		t.Fatalf("expected the empty-state copy")
	}
}

func TestMailerDisabledIsNoop(t *testing.T) {
	t.Parallel()

	m := NewMailer(&config.Config{}, zerolog.Nop())
	if m.Enabled() {
		t.Fatalf("mailer must be disabled without SMTP settings")
	}
	if err := m.Send("subject", "<p>hi</p>"); err != nil {
		t.Fatalf("disabled mailer must be a no-op, got %v", err)
	}
}

func TestMailerSendsHTMLMessage(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		SMTPHost:   "smtp.example",
		SMTPPort:   587,
		DigestFrom: "scout@example.com",
		DigestTo:   "me@example.com",
	}
	m := NewMailer(cfg, zerolog.Nop())

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	if err := m.Send("Scout digest", "<p>hi</p>"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotAddr != "smtp.example:587" || gotFrom != "scout@example.com" {
		t.Fatalf("unexpected delivery target %q from %q", gotAddr, gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "me@example.com" {
		t.Fatalf("unexpected recipients %v", gotTo)
	}
	body := string(gotMsg)
	if !strings.Contains(body, "Content-Type: text/html") || !strings.Contains(body, "<p>hi</p>") {
		t.Fatalf("message missing HTML payload:\n%s", body)
	}
	if !strings.Contains(body, "Subject: Scout digest") {
		t.Fatalf("message missing subject:\n%s", body)
	}
}
