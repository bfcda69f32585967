package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/massage_booking/internal/availability"
	"github.com/Freeeeeet/massage_booking/internal/catalog"
	"github.com/Freeeeeet/massage_booking/internal/controller/state"
	"github.com/Freeeeeet/massage_booking/internal/model"
)

// query разобранные аргументы /slots, /check, /next
type query struct {
	guest model.Guest
	day   time.Time
	start time.Time
}

// commandArgs аргументы после команды ("/slots@shop_bot a b" -> [a b])
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields[1:]
}

func lookupService(cat *catalog.Catalog, raw string) (*model.Service, error) {
	if svc, err := cat.Lookup(raw); err == nil {
		return svc, nil
	}
	if svc, ok := cat.ByLabel(raw); ok {
		return svc, nil
	}
	return nil, model.NewInvalidService(raw)
}

// parseSlotsArgs /slots <услуга> [YYYY-MM-DD] [мастер]
func parseSlotsArgs(cat *catalog.Catalog, args []string, now time.Time) (query, error) {
	if len(args) == 0 {
		return query{}, fmt.Errorf("用法：/slots <服務> [YYYY-MM-DD] [師傅]")
	}
	svc, err := lookupService(cat, args[0])
	if err != nil {
		return query{}, err
	}

	q := query{guest: model.Guest{ServiceID: svc.ID}, day: cat.StartOfDay(now)}
	for _, arg := range args[1:] {
		if day, err := time.ParseInLocation(dayLayout, arg, cat.Location()); err == nil {
			q.day = day
			continue
		}
		q.guest.Practitioner = arg
	}
	return q, nil
}

// parseCheckArgs /check <услуга> <YYYY-MM-DD> <HH:MM> [мастер]
func parseCheckArgs(cat *catalog.Catalog, args []string) (query, error) {
	if len(args) < 3 {
		return query{}, fmt.Errorf("用法：/check <服務> <YYYY-MM-DD> <HH:MM> [師傅]")
	}
	svc, err := lookupService(cat, args[0])
	if err != nil {
		return query{}, err
	}

	raw := args[1] + " " + args[2]
	start, err := time.ParseInLocation(dayLayout+" "+clockLayout, raw, cat.Location())
	if err != nil {
		return query{}, model.NewMalformedTime(raw, err)
	}

	q := query{guest: model.Guest{ServiceID: svc.ID}, start: start, day: cat.StartOfDay(start)}
	if len(args) > 3 {
		q.guest.Practitioner = args[3]
	}
	return q, nil
}

// parseChartArgs /chart [YYYY-MM-DD], без даты - сегодня
func parseChartArgs(cat *catalog.Catalog, args []string, now time.Time) (time.Time, error) {
	if len(args) == 0 {
		return cat.StartOfDay(now), nil
	}
	day, err := time.ParseInLocation(dayLayout, args[0], cat.Location())
	if err != nil {
		return time.Time{}, model.NewMalformedTime(args[0], err)
	}
	return day, nil
}

// parseBookArgs /book <услуга> <YYYY-MM-DD> <HH:MM> [мастер]
func parseBookArgs(cat *catalog.Catalog, args []string) (query, error) {
	if len(args) < 3 {
		return query{}, fmt.Errorf("用法：/book <服務> <YYYY-MM-DD> <HH:MM> [師傅]")
	}
	return parseCheckArgs(cat, args)
}

// parseNextArgs /next <услуга> [мастер]
func parseNextArgs(cat *catalog.Catalog, args []string) (query, error) {
	if len(args) == 0 {
		return query{}, fmt.Errorf("用法：/next <服務> [師傅]")
	}
	svc, err := lookupService(cat, args[0])
	if err != nil {
		return query{}, err
	}
	q := query{guest: model.Guest{ServiceID: svc.ID}}
	if len(args) > 1 {
		q.guest.Practitioner = args[1]
	}
	return q, nil
}

func formatServices(cat *catalog.Catalog) string {
	var sb strings.Builder
	sb.WriteString("💆 服務項目：\n\n")
	for _, svc := range cat.Services() {
		fmt.Fprintf(&sb, "• %s (%s) %d 分鐘\n", svc.Label, svc.ID, svc.Duration)
	}

	sb.WriteString("\n👐 師傅：")
	names := make([]string, 0, len(cat.Practitioners()))
	for _, p := range cat.Practitioners() {
		names = append(names, p.Name)
	}
	sb.WriteString(strings.Join(names, "、"))
	return sb.String()
}

func formatSlots(cat *catalog.Catalog, q query, slots []time.Time) string {
	title := fmt.Sprintf("📅 %s %s", q.day.Format(dayLayout), q.guest.ServiceID)
	if q.guest.Practitioner != "" {
		title += " / " + q.guest.Practitioner
	}
	if len(slots) == 0 {
		return title + "\n\n😔 當天已無空檔"
	}

	times := make([]string, 0, len(slots))
	for i, s := range slots {
		if i == maxSlotsShown {
			times = append(times, "…")
			break
		}
		times = append(times, s.In(cat.Location()).Format(clockLayout))
	}
	return title + "\n\n" + strings.Join(times, "  ")
}

func formatCheck(res availability.Result) string {
	if res.Available {
		return "✅ 可以預約"
	}
	return "❌ 無法預約：" + describe(res.Code, res.Reason)
}

// describe причина отказа для клиента
func describe(code model.ErrorCode, reason string) string {
	switch code {
	case model.CodeCapacityExceeded:
		return "該時段已客滿"
	case model.CodePractitionerBusy:
		return "師傅該時段已有預約"
	case model.CodePastTime:
		return "時間已過"
	case model.CodeOutOfHours:
		return "不在營業時間內（" + reason + "）"
	case model.CodeNoSlot:
		return "找不到空檔"
	case model.CodeInvalidService:
		return "沒有這項服務"
	case model.CodeMalformedTime:
		return "時間格式錯誤"
	case model.CodeUpstreamUnavailable:
		return "行事曆暫時無法使用，請稍後再試"
	}
	return reason
}

// describeError текст ответа для ошибки команды
func describeError(err error) string {
	if derr, ok := model.AsError(err); ok {
		return "❌ " + describe(derr.Code, derr.Message)
	}
	return "❌ " + err.Error()
}

// formatConfirmation подтверждение записи из диалога /book
func formatConfirmation(loc *time.Location, draft state.Draft, bookings []model.Booking) string {
	var sb strings.Builder
	sb.WriteString("✅ 預約成功！\n\n")
	fmt.Fprintf(&sb, "👤 %s\n", draft.Name)
	for _, b := range bookings {
		fmt.Fprintf(&sb, "• %s %s-%s %s",
			b.Start.In(loc).Format(dayLayout),
			b.Start.In(loc).Format(clockLayout),
			b.End.In(loc).Format(clockLayout),
			b.ServiceLabel)
		if b.Practitioner != "" {
			sb.WriteString(" / " + b.Practitioner)
		}
		sb.WriteString("\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
