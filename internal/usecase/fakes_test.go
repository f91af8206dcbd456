//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing/fstest"

	"telegram-scraper-bot/internal/domain/model"
	"telegram-scraper-bot/internal/domain/ports/adapter"
	"telegram-scraper-bot/internal/infra/i18n"
)

type sentMessage struct {
	ChatID int64
	Text   string
	Opts   adapter.SendOptions
}

// recordingMessenger captures outbound messages.
type recordingMessenger struct {
	mu      sync.Mutex
	Sent    []sentMessage
	Typing  int
	FailAll bool
}

func (m *recordingMessenger) SendText(_ context.Context, chatID int64, text string, opts adapter.SendOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return errors.New("send failed")
	}
	m.Sent = append(m.Sent, sentMessage{ChatID: chatID, Text: text, Opts: opts})
	return nil
}

func (m *recordingMessenger) SendTyping(context.Context, int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Typing++
	return nil
}

func (m *recordingMessenger) messages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.Sent...)
}

type stubScraper struct {
	mu      sync.Mutex
	results []model.ResultRecord
	reqs    []adapter.SearchRequest
}

func (s *stubScraper) Search(_ context.Context, req adapter.SearchRequest) []model.ResultRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	return s.results
}

// testTranslator keeps the real catalog shape but with short deterministic strings.
func testTranslator() adapter.Translator {
	catalog := `
searching: "searching %s"
search_duration: "took %.2f"
results_empty: "no results"
result_item: "%d|%s|%s|%s"
result_no_title: "untitled"
price_unknown: "unknown"
price_toman: "%s T"
`
	fsys := fstest.MapFS{"locales/en.yaml": &fstest.MapFile{Data: []byte(catalog)}}
	tr, err := i18n.NewTranslator(fsys, "en")
	if err != nil {
		panic(fmt.Sprintf("test translator: %v", err))
	}
	return tr
}
