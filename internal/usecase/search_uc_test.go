//go:build !integration

package usecase_test

import (
	"context"
	"strings"
	"testing"

	"telegram-scraper-bot/internal/domain/model"
	"telegram-scraper-bot/internal/domain/ports/adapter"
	"telegram-scraper-bot/internal/infra/logging"
	"telegram-scraper-bot/internal/usecase"
)

func TestSearchUseCase_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers notice then formatted results", func(t *testing.T) {
		bot := &recordingMessenger{}
		sc := &stubScraper{results: []model.ResultRecord{
			{Title: "a", URL: "u1", Price: "1000"},
			{Title: "b", URL: "u2"},
			{Title: "c", URL: "u3"},
		}}
		uc := usecase.NewSearchUseCase(map[model.Resource]adapter.Scraper{model.ResourceEbay: sc}, bot, testTranslator(), 2, logging.Nop(), false)

		if err := uc.Run(ctx, 42, model.ResourceEbay, "laptop", ""); err != nil {
			t.Fatalf("Run: %v", err)
		}

		sent := bot.messages()
		if len(sent) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(sent))
		}
		if sent[0].Text != "searching eBay" || sent[0].ChatID != 42 {
			t.Errorf("unexpected notice: %+v", sent[0])
		}
		if !sent[1].Opts.HTML {
			t.Error("results must be sent as HTML")
		}
		if !strings.HasPrefix(sent[1].Text, "1|u1|a|1,000 T\n\n2|u2|b|unknown\n\ntook ") {
			t.Errorf("unexpected results text: %q", sent[1].Text)
		}
		if bot.Typing != 1 {
			t.Errorf("expected typing indicator, got %d", bot.Typing)
		}
		if len(sc.reqs) != 1 || sc.reqs[0].Query != "laptop" || sc.reqs[0].MaxResults != 2 {
			t.Errorf("unexpected scraper request: %+v", sc.reqs)
		}
	})

	t.Run("link is forwarded for global searches", func(t *testing.T) {
		bot := &recordingMessenger{}
		sc := &stubScraper{}
		uc := usecase.NewSearchUseCase(map[model.Resource]adapter.Scraper{model.ResourceGlobal: sc}, bot, testTranslator(), 5, logging.Nop(), false)

		if err := uc.Run(ctx, 1, model.ResourceGlobal, "shoes", "https://shop.test"); err != nil {
			t.Fatalf("Run: %v", err)
		}
		if sc.reqs[0].Link != "https://shop.test" {
			t.Errorf("link not forwarded: %+v", sc.reqs[0])
		}
		if sent := bot.messages(); !strings.HasPrefix(sent[1].Text, "no results") {
			t.Errorf("expected empty result text, got %q", sent[1].Text)
		}
	})

	t.Run("missing scraper yields empty results", func(t *testing.T) {
		bot := &recordingMessenger{}
		uc := usecase.NewSearchUseCase(nil, bot, testTranslator(), 5, logging.Nop(), false)
		if err := uc.Run(ctx, 1, model.ResourceDigikala, "x", ""); err != nil {
			t.Fatalf("Run: %v", err)
		}
		if sent := bot.messages(); len(sent) != 2 || !strings.HasPrefix(sent[1].Text, "no results") {
			t.Errorf("unexpected messages: %+v", sent)
		}
	})

	t.Run("delivery failure is returned", func(t *testing.T) {
		bot := &recordingMessenger{FailAll: true}
		uc := usecase.NewSearchUseCase(nil, bot, testTranslator(), 5, logging.Nop(), false)
		if err := uc.Run(ctx, 1, model.ResourceDigikala, "x", ""); err == nil {
			t.Fatal("expected delivery error")
		}
	})
}
