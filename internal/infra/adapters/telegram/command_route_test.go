package telegram

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-scraper-bot/internal/domain/model"
	"telegram-scraper-bot/internal/domain/ports/adapter"
	"telegram-scraper-bot/internal/infra/logging"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in   string
		want model.Command
	}{
		{"/start", model.Command{Kind: model.CommandStart}},
		{"/help", model.Command{Kind: model.CommandHelp}},
		{"/help@ScraperShopBot", model.Command{Kind: model.CommandHelp}},
		{"/shop", model.Command{Kind: model.CommandListResources}},
		{"/cancel", model.Command{Kind: model.CommandCancel}},
		{"/EBAY", model.Command{Kind: model.CommandSelectResource, Resource: model.ResourceEbay}},
		{LabelHelp, model.Command{Kind: model.CommandHelp}},
		{LabelShops, model.Command{Kind: model.CommandListResources}},
		{LabelDigikala, model.Command{Kind: model.CommandSelectResource, Resource: model.ResourceDigikala}},
		{LabelEbay, model.Command{Kind: model.CommandSelectResource, Resource: model.ResourceEbay}},
		{"  " + LabelGlobal + " ", model.Command{Kind: model.CommandSelectResource, Resource: model.ResourceGlobal}},
		{LabelCancel, model.Command{Kind: model.CommandCancel}},
		{"/unknown", model.Command{Kind: model.CommandFreeText, Text: "/unknown"}},
		{"  iphone 15 ", model.Command{Kind: model.CommandFreeText, Text: "iphone 15"}},
		{"/", model.Command{Kind: model.CommandFreeText, Text: "/"}},
	}
	for _, tc := range cases {
		if got := ParseCommand(tc.in); got != tc.want {
			t.Errorf("ParseCommand(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestShardForIsStableAndInRange(t *testing.T) {
	for _, id := range []int64{0, 1, 7, -7, 123456789, -100200300} {
		s := shardFor(id, 4)
		if s < 0 || s >= 4 {
			t.Fatalf("shard %d out of range for %d", s, id)
		}
		if s != shardFor(id, 4) {
			t.Fatalf("shard not stable for %d", id)
		}
	}
	if shardFor(99, 1) != 0 {
		t.Fatal("single worker must get every chat")
	}
}

func TestToMessage(t *testing.T) {
	up := tgbotapi.Update{Message: &tgbotapi.Message{
		Text: LabelEbay,
		Chat: &tgbotapi.Chat{ID: 55},
		From: &tgbotapi.User{FirstName: "Nima"},
	}}
	msg, ok := toMessage(up)
	if !ok {
		t.Fatal("expected text update to convert")
	}
	if msg.SessionID != 55 || msg.FirstName != "Nima" || msg.Command.Resource != model.ResourceEbay {
		t.Errorf("unexpected message: %+v", msg)
	}
	if _, ok := toMessage(tgbotapi.Update{}); ok {
		t.Error("update without message must be skipped")
	}
}

func TestReplyKeyboard(t *testing.T) {
	if replyKeyboard(adapter.KeyboardNone) != nil {
		t.Error("no keyboard expected")
	}
	kb, ok := replyKeyboard(adapter.KeyboardResources).(tgbotapi.ReplyKeyboardMarkup)
	if !ok {
		t.Fatal("expected reply keyboard markup")
	}
	if len(kb.Keyboard) != 4 || !kb.ResizeKeyboard {
		t.Errorf("unexpected resources keyboard: %+v", kb)
	}
	for _, row := range kb.Keyboard {
		if got := ParseCommand(row[0].Text).Kind; got == model.CommandFreeText {
			t.Errorf("label %q does not parse to a command", row[0].Text)
		}
	}
}

type recordingHandler struct {
	mu   sync.Mutex
	msgs []model.Message
}

func (h *recordingHandler) HandleMessage(_ context.Context, msg model.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, msg)
	return nil
}

func TestNoopConsoleFeedsLines(t *testing.T) {
	in := strings.NewReader("/start\n\n" + LabelEbay + "\nphone\n")
	bot := NewNoopBotAdapter(logging.Nop(), in, 1)
	h := &recordingHandler{}

	if err := bot.StartPolling(context.Background(), h); err != nil {
		t.Fatalf("StartPolling: %v", err)
	}
	if len(h.msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(h.msgs))
	}
	if h.msgs[0].Command.Kind != model.CommandStart || h.msgs[2].Command.Text != "phone" || h.msgs[2].SessionID != 1 {
		t.Errorf("unexpected messages: %+v", h.msgs)
	}
	if err := bot.SendText(context.Background(), 1, "hi", adapter.SendOptions{}); err != nil {
		t.Errorf("SendText: %v", err)
	}
}

func TestRouteUpdatesStopsWithFullShard(t *testing.T) {
	updates := make(chan tgbotapi.Update, 4)
	shards := []chan tgbotapi.Update{make(chan tgbotapi.Update, 1)}
	for i := 0; i < 3; i++ {
		updates <- tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 42}, Text: "hi"}}
	}
	updates <- tgbotapi.Update{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		routeUpdates(ctx, updates, shards)
		close(done)
	}()

	// nobody reads the shard, so the second update is stuck on a full buffer
	deadline := time.After(2 * time.Second)
	for len(shards[0]) != 1 {
		select {
		case <-deadline:
			t.Fatal("first update never reached the shard")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("routing did not stop after cancel while the shard was full")
	}
}
