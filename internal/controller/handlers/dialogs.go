package handlers

import (
	"context"
	"strings"

	"github.com/Freeeeeet/massage_booking/internal/controller/state"
	"github.com/Freeeeeet/massage_booking/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleBook начинает диалог записи: /book <услуга> <YYYY-MM-DD> <HH:MM> [мастер]
func (h *Handlers) HandleBook(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	cat := h.booking.Catalog()

	q, err := parseBookArgs(cat, commandArgs(update.Message.Text))
	if err != nil {
		h.sendMessage(ctx, b, chatID, describeError(err))
		return
	}

	// сразу отсекаем заведомо недоступное время, окончательная проверка будет при записи
	res, err := h.booking.CheckAvailability(ctx, []model.Guest{q.guest}, q.start)
	if err != nil {
		h.logFailure("book", chatID, err)
		h.sendMessage(ctx, b, chatID, describeError(err))
		return
	}
	if !res.Available {
		h.sendMessage(ctx, b, chatID, formatCheck(res))
		return
	}

	h.stateManager.Start(chatID, state.StateBookingName, state.Draft{Guest: q.guest, Start: q.start})
	h.sendMessage(ctx, b, chatID, "📝 請輸入預約人姓名：\n\n取消請輸入 /cancel")
}

// HandleCancel обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	if h.stateManager.GetState(chatID) == state.StateNone {
		h.sendMessage(ctx, b, chatID, "❌ 目前沒有進行中的預約。")
		return
	}

	h.stateManager.ClearState(chatID)
	h.sendMessage(ctx, b, chatID, "✅ 已取消。")
}

// HandleTextMessage обрабатывает текстовые сообщения в зависимости от состояния пользователя
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	// Игнорируем команды (они обрабатываются другими handlers)
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)

	switch h.stateManager.GetState(chatID) {
	case state.StateBookingName:
		h.handleBookingName(ctx, b, chatID, text)
	case state.StateBookingPhone:
		h.handleBookingPhone(ctx, b, chatID, text)
	}
}

func (h *Handlers) handleBookingName(ctx context.Context, b *bot.Bot, chatID int64, name string) {
	draft, ok := h.stateManager.GetDraft(chatID)
	if !ok {
		return
	}
	if name == "" {
		h.sendMessage(ctx, b, chatID, "❌ 姓名不可空白，請重新輸入：")
		return
	}

	draft.Name = name
	if !h.stateManager.Advance(chatID, state.StateBookingPhone, draft) {
		return
	}
	h.sendMessage(ctx, b, chatID, "📞 請輸入聯絡電話：")
}

func (h *Handlers) handleBookingPhone(ctx context.Context, b *bot.Bot, chatID int64, phone string) {
	draft, ok := h.stateManager.GetDraft(chatID)
	if !ok {
		return
	}
	if !validPhone(phone) {
		h.sendMessage(ctx, b, chatID, "❌ 電話格式不正確，請重新輸入：")
		return
	}
	h.stateManager.ClearState(chatID)

	conf, err := h.booking.Book(ctx, model.Party{
		Customer: model.Customer{Name: draft.Name, Phone: phone},
		Guests:   []model.Guest{draft.Guest},
		Start:    draft.Start,
	})
	if err != nil {
		h.logFailure("book", chatID, err)
		h.sendMessage(ctx, b, chatID, describeError(err))
		return
	}

	h.logger.Info("Booking created from bot",
		zap.Int64("chat_id", chatID),
		zap.String("party_id", conf.PartyID))
	h.sendMessage(ctx, b, chatID, formatConfirmation(h.booking.Catalog().Location(), draft, conf.Bookings))
}

// validPhone цифры, пробелы, дефисы и ведущий +, от 6 цифр
func validPhone(phone string) bool {
	digits := 0
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == ' ' || r == '-':
		case r == '+' && i == 0:
		default:
			return false
		}
	}
	return digits >= 6
}
