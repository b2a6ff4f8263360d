package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/at-ishikawa/sanabot/internal/dictionary"
)

//go:generate mockgen -source=handler.go -destination=../mocks/bot/mock_lookuper.go -package=mock_bot

const DefaultSeparator = "\n\n———\n\n"

const (
	welcomeText = "Hi! 👋\nI am a Finnish word analysis bot. Send me one or more words and I will reply with their morphological analyses."
	helpText    = `Here are the available commands:
/start - Start the bot
/help - Show this help message
Send one or more Finnish words separated by spaces and I'll reply with their analyses.`
)

var greetings = map[string]string{
	"hello":       "Hello! How are you?",
	"hi":          "Hello! How are you?",
	"how are you": "I'm doing great, thanks for asking! How about you?",
	"bye":         "Goodbye! Have a great day! 👋",
}

// Lookuper resolves one word into user-presentable text.
type Lookuper interface {
	Lookup(ctx context.Context, word string) dictionary.Result
}

type Config struct {
	Separator string
	// MaxWords caps the words looked up per message. Zero means unlimited.
	MaxWords int
}

type Handler struct {
	lookuper Lookuper
	config   Config
	logger   *slog.Logger
}

func NewHandler(lookuper Lookuper, config Config, logger *slog.Logger) *Handler {
	if config.Separator == "" {
		config.Separator = DefaultSeparator
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		lookuper: lookuper,
		config:   config,
		logger:   logger,
	}
}

// HandleMessage returns the reply for an incoming chat message.
// An empty reply means nothing should be sent.
func (h *Handler) HandleMessage(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if strings.HasPrefix(text, "/") {
		return h.handleCommand(text)
	}
	if reply, ok := greetings[dictionary.Normalize(strings.Join(strings.Fields(text), " "))]; ok {
		return reply
	}

	results := h.LookupWords(ctx, text)
	blocks := make([]string, 0, len(results)+1)
	for _, result := range results {
		blocks = append(blocks, result.Word+"\n"+result.Text)
	}
	if skipped := h.skippedWords(text); len(skipped) > 0 {
		blocks = append(blocks, fmt.Sprintf("Only the first %d words were looked up. Skipped: %s", h.config.MaxWords, strings.Join(skipped, ", ")))
	}
	return strings.Join(blocks, h.config.Separator)
}

// LookupWords looks up each distinct word of text once, in order of first occurrence.
// A failing word never stops its siblings; its result carries the error message.
func (h *Handler) LookupWords(ctx context.Context, text string) []dictionary.Result {
	words := h.limit(UniqueWords(text))
	results := make([]dictionary.Result, 0, len(words))
	for _, word := range words {
		result := h.lookuper.Lookup(ctx, word)
		h.logger.Debug("looked up word", "word", result.Word, "status", result.Status)
		results = append(results, result)
	}
	return results
}

func (h *Handler) handleCommand(text string) string {
	command, _, _ := strings.Cut(strings.Fields(text)[0], "@")
	switch strings.ToLower(command) {
	case "/start":
		return welcomeText
	default:
		return helpText
	}
}

func (h *Handler) limit(words []string) []string {
	if h.config.MaxWords > 0 && len(words) > h.config.MaxWords {
		return words[:h.config.MaxWords]
	}
	return words
}

func (h *Handler) skippedWords(text string) []string {
	words := UniqueWords(text)
	if h.config.MaxWords <= 0 || len(words) <= h.config.MaxWords {
		return nil
	}
	return words[h.config.MaxWords:]
}

// UniqueWords splits text on whitespace and drops words whose normalized form was already seen.
func UniqueWords(text string) []string {
	fields := strings.Fields(text)
	seen := make(map[string]struct{}, len(fields))
	words := make([]string, 0, len(fields))
	for _, field := range fields {
		key := dictionary.Normalize(field)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		words = append(words, field)
	}
	return words
}
