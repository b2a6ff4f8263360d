package telegram

import (
	"context"
	"sync"

	gotdtelegram "github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
)

// updateHandler expands the short message forms Telegram uses for small private and
// basic group chats into full updates, which is all tg.UpdateDispatcher routes.
//
// Short updates carry no entities, so users seen in full updates are remembered
// and attached to later short messages; a reply needs the user's access hash.
type updateHandler struct {
	next gotdtelegram.UpdateHandler

	mu    sync.RWMutex
	users map[int64]*tg.User
}

func newUpdateHandler(next gotdtelegram.UpdateHandler) *updateHandler {
	return &updateHandler{
		next:  next,
		users: make(map[int64]*tg.User),
	}
}

func (h *updateHandler) Handle(ctx context.Context, updates tg.UpdatesClass) error {
	switch u := updates.(type) {
	case *tg.Updates:
		h.remember(u.Users)
	case *tg.UpdatesCombined:
		h.remember(u.Users)
	case *tg.UpdateShortMessage:
		updates = h.expandShortMessage(u)
	case *tg.UpdateShortChatMessage:
		updates = h.expandShortChatMessage(u)
	}
	return h.next.Handle(ctx, updates)
}

func (h *updateHandler) remember(users []tg.UserClass) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, u := range users {
		// min users carry no usable access hash
		if user, ok := u.(*tg.User); ok && !user.Min {
			h.users[user.ID] = user
		}
	}
}

func (h *updateHandler) knownUsers(ids ...int64) []tg.UserClass {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var users []tg.UserClass
	for _, id := range ids {
		if user, ok := h.users[id]; ok {
			users = append(users, user)
		}
	}
	return users
}

func (h *updateHandler) expandShortMessage(u *tg.UpdateShortMessage) *tg.Updates {
	msg := &tg.Message{
		ID:      u.ID,
		Out:     u.Out,
		PeerID:  &tg.PeerUser{UserID: u.UserID},
		Date:    u.Date,
		Message: u.Message,
	}
	msg.SetFromID(&tg.PeerUser{UserID: u.UserID})
	if replyTo, ok := u.GetReplyTo(); ok {
		msg.SetReplyTo(replyTo)
	}

	return &tg.Updates{
		Updates: []tg.UpdateClass{&tg.UpdateNewMessage{Message: msg, Pts: u.Pts, PtsCount: u.PtsCount}},
		Users:   h.knownUsers(u.UserID),
		Date:    u.Date,
	}
}

func (h *updateHandler) expandShortChatMessage(u *tg.UpdateShortChatMessage) *tg.Updates {
	msg := &tg.Message{
		ID:      u.ID,
		Out:     u.Out,
		PeerID:  &tg.PeerChat{ChatID: u.ChatID},
		Date:    u.Date,
		Message: u.Message,
	}
	msg.SetFromID(&tg.PeerUser{UserID: u.FromID})
	if replyTo, ok := u.GetReplyTo(); ok {
		msg.SetReplyTo(replyTo)
	}

	return &tg.Updates{
		Updates: []tg.UpdateClass{&tg.UpdateNewMessage{Message: msg, Pts: u.Pts, PtsCount: u.PtsCount}},
		Users:   h.knownUsers(u.FromID),
		// basic groups are addressed by id alone
		Chats: []tg.ChatClass{&tg.Chat{ID: u.ChatID}},
		Date:  u.Date,
	}
}
