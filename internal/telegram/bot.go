// Package telegram serves the word analysis bot over the Telegram MTProto API.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf16"

	"github.com/gotd/td/session"
	gotdtelegram "github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxMessageLength is the Telegram limit for one text message, in UTF-16 code units.
	MaxMessageLength = 4096

	defaultWorkers = 8
	// defaultDrainTimeout bounds how long Run waits for in-flight messages after ctx is done.
	defaultDrainTimeout = 30 * time.Second
)

type Config struct {
	AppID       int
	AppHash     string
	BotToken    string
	SessionFile string
	// Workers bounds how many messages are handled at the same time.
	Workers int
	// DrainTimeout bounds how long shutdown waits for in-flight replies.
	DrainTimeout time.Duration
}

// MessageHandler turns an incoming text into a reply. An empty reply is not sent.
type MessageHandler interface {
	HandleMessage(ctx context.Context, text string) string
}

type replier interface {
	Reply(ctx context.Context, e tg.Entities, u message.AnswerableMessageUpdate, text string) error
}

type senderReplier struct {
	sender *message.Sender
}

func (r senderReplier) Reply(ctx context.Context, e tg.Entities, u message.AnswerableMessageUpdate, text string) error {
	if _, err := r.sender.Reply(e, u).Text(ctx, text); err != nil {
		return fmt.Errorf("sender.Reply > %w", err)
	}
	return nil
}

type Bot struct {
	config  Config
	handler MessageHandler
	logger  *slog.Logger
	client  *gotdtelegram.Client
	replier replier

	workers       *errgroup.Group
	workerCtx     context.Context
	cancelWorkers context.CancelFunc

	mu sync.RWMutex
	// draining is set once shutdown starts; later messages are not accepted.
	draining bool
}

func NewBot(config Config, handler MessageHandler, logger *slog.Logger) (*Bot, error) {
	if config.AppID <= 0 || config.AppHash == "" || config.BotToken == "" {
		return nil, fmt.Errorf("app id, app hash and bot token are required")
	}
	sessionStorage, err := newSessionStorage(config.SessionFile)
	if err != nil {
		return nil, fmt.Errorf("newSessionStorage > %w", err)
	}

	b := newBot(config, handler, nil, logger)
	b.client = gotdtelegram.NewClient(config.AppID, config.AppHash, gotdtelegram.Options{
		UpdateHandler:  newUpdateHandler(b.dispatcher()),
		SessionStorage: sessionStorage,
	})
	b.replier = senderReplier{sender: message.NewSender(b.client.API())}
	return b, nil
}

func newBot(config Config, handler MessageHandler, replier replier, logger *slog.Logger) *Bot {
	if config.Workers <= 0 {
		config.Workers = defaultWorkers
	}
	if config.DrainTimeout <= 0 {
		config.DrainTimeout = defaultDrainTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		config:  config,
		handler: handler,
		logger:  logger,
		replier: replier,
	}
}

// Run connects, logs in with the bot token when the session is not authorized yet
// and serves messages until ctx is done.
//
// When ctx is done the connection stays open while in-flight messages are answered,
// for at most Config.DrainTimeout. Replies still pending after that are cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.startWorkers(ctx)
	defer b.stopWorkers()

	// Until the bot is ready ctx cancels the client. After that the client outlives
	// ctx so that replies can still be sent while draining.
	clientCtx, cancelClient := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelClient()
	detach := context.AfterFunc(ctx, cancelClient)
	defer detach()

	runErr := b.client.Run(clientCtx, func(runCtx context.Context) error {
		if err := b.authenticate(runCtx); err != nil {
			return fmt.Errorf("authenticate > %w", err)
		}
		if !detach() {
			// ctx was done during login and the client is already stopping
			return nil
		}

		select {
		case <-ctx.Done():
		case <-runCtx.Done():
			return runCtx.Err()
		}
		if !b.drainWorkers(b.config.DrainTimeout) {
			b.logger.Warn("in-flight messages were not answered before the drain timeout",
				"timeout", b.config.DrainTimeout,
			)
		}
		return nil
	})

	if runErr != nil && ctx.Err() == nil {
		return fmt.Errorf("client.Run > %w", runErr)
	}
	return nil
}

func (b *Bot) dispatcher() tg.UpdateDispatcher {
	d := tg.NewUpdateDispatcher()
	d.OnNewMessage(b.onNewMessage)
	d.OnNewChannelMessage(b.onNewChannelMessage)
	return d
}

func (b *Bot) authenticate(ctx context.Context) error {
	status, err := b.client.Auth().Status(ctx)
	if err != nil {
		return fmt.Errorf("client.Auth().Status > %w", err)
	}
	if !status.Authorized {
		if _, err := b.client.Auth().Bot(ctx, b.config.BotToken); err != nil {
			return fmt.Errorf("client.Auth().Bot > %w", err)
		}
	}

	self, err := b.client.Self(ctx)
	if err != nil {
		return fmt.Errorf("client.Self > %w", err)
	}
	b.logger.Info("telegram bot is ready",
		"username", self.Username,
		"session_restored", status.Authorized,
		"workers", b.config.Workers,
	)
	return nil
}

// startWorkers detaches the worker context from ctx: messages accepted before
// shutdown are answered even after ctx is done, until stopWorkers is called.
func (b *Bot) startWorkers(ctx context.Context) {
	b.workers = &errgroup.Group{}
	b.workers.SetLimit(b.config.Workers)
	b.workerCtx, b.cancelWorkers = context.WithCancel(context.WithoutCancel(ctx))
	b.mu.Lock()
	b.draining = false
	b.mu.Unlock()
}

func (b *Bot) waitWorkers() {
	// workers never return errors
	_ = b.workers.Wait()
}

// drainWorkers waits for in-flight messages and reports whether they all finished within timeout.
func (b *Bot) drainWorkers(timeout time.Duration) bool {
	b.refuseMessages()
	done := make(chan struct{})
	go func() {
		b.waitWorkers()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

func (b *Bot) stopWorkers() {
	b.refuseMessages()
	b.cancelWorkers()
	b.waitWorkers()
}

func (b *Bot) refuseMessages() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.draining = true
}

func (b *Bot) onNewMessage(_ context.Context, e tg.Entities, u *tg.UpdateNewMessage) error {
	b.dispatch(e, u)
	return nil
}

// onNewChannelMessage serves supergroups, which deliver their messages as channel updates.
func (b *Bot) onNewChannelMessage(_ context.Context, e tg.Entities, u *tg.UpdateNewChannelMessage) error {
	b.dispatch(e, u)
	return nil
}

func (b *Bot) dispatch(e tg.Entities, u message.AnswerableMessageUpdate) {
	msg, ok := u.GetMessage().(*tg.Message)
	if !ok || msg.Out || strings.TrimSpace(msg.Message) == "" {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.draining {
		b.logger.Debug("message is not answered while shutting down")
		return
	}
	text := msg.Message
	b.workers.Go(func() error {
		b.respond(b.workerCtx, e, u, text)
		return nil
	})
}

func (b *Bot) respond(ctx context.Context, e tg.Entities, u message.AnswerableMessageUpdate, text string) {
	reply := b.handler.HandleMessage(ctx, text)
	if reply == "" {
		return
	}
	for _, part := range splitMessage(reply, MaxMessageLength) {
		if err := b.replier.Reply(ctx, e, u, part); err != nil {
			b.logger.Error("failed to send reply", "error", err)
			return
		}
	}
}

func newSessionStorage(path string) (*session.FileStorage, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("empty session file path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("filepath.Abs > %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o700); err != nil {
		return nil, fmt.Errorf("os.MkdirAll > %w", err)
	}
	return &session.FileStorage{Path: absPath}, nil
}

// splitMessage cuts text into parts of at most limit UTF-16 code units,
// preferring line boundaries and hard-cutting lines that are longer than limit.
func splitMessage(text string, limit int) []string {
	if utf16Len(text) <= limit {
		return []string{text}
	}

	var (
		parts      []string
		current    strings.Builder
		currentLen int
	)
	flush := func() {
		if part := strings.TrimRight(current.String(), "\n"); part != "" {
			parts = append(parts, part)
		}
		current.Reset()
		currentLen = 0
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		lineLen := utf16Len(line)
		if currentLen+lineLen > limit {
			flush()
		}
		for lineLen > limit {
			head, tail := cutUTF16(line, limit)
			parts = append(parts, head)
			line, lineLen = tail, utf16Len(tail)
		}
		current.WriteString(line)
		currentLen += lineLen
	}
	flush()
	return parts
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUTF16Len(r)
	}
	return n
}

func cutUTF16(s string, limit int) (string, string) {
	n := 0
	for i, r := range s {
		n += runeUTF16Len(r)
		if n > limit {
			return s[:i], s[i:]
		}
	}
	return s, ""
}

func runeUTF16Len(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}
