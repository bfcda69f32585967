package gcal

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/massage_booking/internal/model"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetAudit журнал записей в Google Sheets, одна строка на запись
type SheetAudit struct {
	svc           *sheets.Service
	spreadsheetID string
	sheet         string
}

func NewSheetAudit(ctx context.Context, spreadsheetID, sheet string, opts ...option.ClientOption) (*SheetAudit, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetAudit{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}, nil
}

// Append колонки: дата, имя, телефон, услуга, минуты, время, мастер
func (a *SheetAudit) Append(ctx context.Context, rows []model.AuditRow) error {
	if len(rows) == 0 {
		return nil
	}

	values := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		values = append(values, []interface{}{
			r.Date, r.CustomerName, r.Phone, r.Service, r.Duration, r.Time, r.Practitioner,
		})
	}

	_, err := a.svc.Spreadsheets.Values.
		Append(a.spreadsheetID, a.sheet+"!A:G", &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append audit rows: %w", err)
	}
	return nil
}
