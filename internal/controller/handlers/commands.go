package handlers

import (
	"bytes"
	"context"
	"time"

	"github.com/Freeeeeet/massage_booking/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const helpText = "📚 指令說明：\n\n" +
	"/services - 服務項目與師傅\n" +
	"/slots <服務> [YYYY-MM-DD] [師傅] - 當天可預約時間\n" +
	"/next <服務> [師傅] - 最近可預約時間\n" +
	"/check <服務> <YYYY-MM-DD> <HH:MM> [師傅] - 查詢指定時間\n" +
	"/chart [YYYY-MM-DD] - 當天預約狀況圖\n" +
	"/book <服務> <YYYY-MM-DD> <HH:MM> [師傅] - 預約\n" +
	"/cancel - 取消進行中的預約\n" +
	"/help - 顯示說明"

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	name := ""
	if update.Message.From != nil {
		name = update.Message.From.FirstName
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, "👋 "+name+" 您好！歡迎使用預約小幫手。\n\n"+helpText)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleServices список услуг и мастеров
func (h *Handlers) HandleServices(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, formatServices(h.booking.Catalog()))
}

// HandleSlots свободные времена начала за день
func (h *Handlers) HandleSlots(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	cat := h.booking.Catalog()

	q, err := parseSlotsArgs(cat, commandArgs(update.Message.Text), h.booking.Now())
	if err != nil {
		h.sendMessage(ctx, b, chatID, describeError(err))
		return
	}

	slots, err := h.booking.DaySlots(ctx, []model.Guest{q.guest}, q.day)
	if err != nil {
		h.logFailure("slots", chatID, err)
		h.sendMessage(ctx, b, chatID, describeError(err))
		return
	}
	h.sendMessage(ctx, b, chatID, formatSlots(cat, q, slots))
}

// HandleNext ближайшее свободное время в пределах суток
func (h *Handlers) HandleNext(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	cat := h.booking.Catalog()

	q, err := parseNextArgs(cat, commandArgs(update.Message.Text))
	if err != nil {
		h.sendMessage(ctx, b, chatID, describeError(err))
		return
	}

	next, err := h.booking.NextAvailable(ctx, []model.Guest{q.guest}, time.Time{})
	if err != nil {
		h.logFailure("next", chatID, err)
		h.sendMessage(ctx, b, chatID, describeError(err))
		return
	}
	h.sendMessage(ctx, b, chatID, "🕐 最近可預約："+next.In(cat.Location()).Format(dayLayout+" "+clockLayout))
}

// HandleCheck проверка конкретного времени, при отказе предлагает ближайшее в тот же день
func (h *Handlers) HandleCheck(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	cat := h.booking.Catalog()

	q, err := parseCheckArgs(cat, commandArgs(update.Message.Text))
	if err != nil {
		h.sendMessage(ctx, b, chatID, describeError(err))
		return
	}

	guests := []model.Guest{q.guest}
	res, err := h.booking.CheckAvailability(ctx, guests, q.start)
	if err != nil {
		h.logFailure("check", chatID, err)
		h.sendMessage(ctx, b, chatID, describeError(err))
		return
	}

	text := formatCheck(res)
	if !res.Available && res.Err != nil && res.Err.Recoverable() {
		if next, err := h.booking.NextAvailable(ctx, guests, q.day); err == nil {
			text += "\n💡 當天最近可預約：" + next.In(cat.Location()).Format(clockLayout)
		}
	}
	h.sendMessage(ctx, b, chatID, text)
}

// HandleChart картинка занятости за день, при неудаче - текстовое сообщение
func (h *Handlers) HandleChart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	cat := h.booking.Catalog()

	day, err := parseChartArgs(cat, commandArgs(update.Message.Text), h.booking.Now())
	if err != nil {
		h.sendMessage(ctx, b, chatID, describeError(err))
		return
	}

	chart, err := h.booking.DayChart(ctx, day)
	if err != nil {
		h.logFailure("chart", chatID, err)
		h.sendMessage(ctx, b, chatID, describeError(err))
		return
	}

	_, err = b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &models.InputFileUpload{Filename: "day.png", Data: bytes.NewReader(chart)},
		Caption: "📊 " + day.Format(dayLayout),
	})
	if err != nil {
		h.logger.Error("Failed to send chart", zap.Int64("chat_id", chatID), zap.Error(err))
		h.sendMessage(ctx, b, chatID, "❌ 無法傳送圖片，請稍後再試")
	}
}

func (h *Handlers) logFailure(command string, chatID int64, err error) {
	if derr, ok := model.AsError(err); ok && derr.Code != model.CodeUpstreamUnavailable {
		return
	}
	h.logger.Error("Bot command failed",
		zap.String("command", command),
		zap.Int64("chat_id", chatID),
		zap.Error(err))
}
