package render

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"sort"
	"time"

	"github.com/Freeeeeet/massage_booking/internal/catalog"
	"github.com/Freeeeeet/massage_booking/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Константы размеров и отступов
const (
	imageWidth       = 1200
	imageHeight      = 900
	headerHeight     = 70
	laneHeaderHeight = 30
	leftLabelsWidth  = 70
	lanePaddingX     = 6
	minBlockHeight   = 8.0
	blockRadius      = 5.0
	shadowOffset     = 3.0
	defaultOpenHour  = 10
	defaultCloseHour = 21
)

// Цветовая схема
var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 220}
	hourLabelColor   = color.RGBA{110, 115, 120, 200}
	hourLineColor    = color.NRGBA{150, 150, 150, 255}
	evenLaneColor    = color.NRGBA{240, 240, 240, 255}
	oddLaneColor     = color.NRGBA{225, 225, 225, 255}
	overflowColor    = color.NRGBA{255, 99, 71, 90}
	currentTimeColor = color.NRGBA{255, 80, 80, 200}

	blockColors = []color.RGBA{
		{133, 193, 85, 220},
		{255, 182, 193, 255},
		{135, 180, 230, 230},
		{240, 200, 110, 230},
	}
	blockTextColor   = color.RGBA{20, 24, 28, 230}
	blockShadowColor = color.RGBA{0, 0, 0, 20}
)

// Lane одна единица ресурса (кушетка или кресло) и занявшие её записи
type Lane struct {
	Kind     model.ResourceKind
	Index    int
	Overflow bool // сверх вместимости: записи, добавленные в календарь вручную
	Bookings []model.Booking
}

// Label подпись колонки, например "FOOT 2"
func (l Lane) Label() string {
	label := fmt.Sprintf("%s %d", l.Kind, l.Index+1)
	if l.Overflow {
		label += " !"
	}
	return label
}

func (l Lane) freeAt(start time.Time) bool {
	if len(l.Bookings) == 0 {
		return true
	}
	return !l.Bookings[len(l.Bookings)-1].End.After(start)
}

// AssignLanes раскладывает записи дня по единицам ресурсов. Записи достаётся первая
// свободная единица её типа, а если свободных нет - дополнительная колонка сверх вместимости
func AssignLanes(cat *catalog.Catalog, bookings []model.Booking) []Lane {
	sorted := make([]model.Booking, len(bookings))
	copy(sorted, bookings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	byKind := make(map[model.ResourceKind][]*Lane)
	var order []model.ResourceKind
	addLane := func(kind model.ResourceKind, overflow bool) *Lane {
		if _, ok := byKind[kind]; !ok {
			order = append(order, kind)
		}
		lane := &Lane{Kind: kind, Index: len(byKind[kind]), Overflow: overflow}
		byKind[kind] = append(byKind[kind], lane)
		return lane
	}
	for _, kind := range cat.Kinds() {
		for i := 0; i < cat.Capacity(kind); i++ {
			addLane(kind, false)
		}
	}

	// запись занимает по единице каждого своего типа, как и при подсчёте вместимости
	for _, b := range sorted {
		for _, kind := range b.Kinds {
			lane := pickLane(byKind[kind], b.Start)
			if lane == nil {
				lane = addLane(kind, true)
			}
			lane.Bookings = append(lane.Bookings, b)
		}
	}

	var lanes []Lane
	for _, kind := range order {
		for _, l := range byKind[kind] {
			lanes = append(lanes, *l)
		}
	}
	return lanes
}

func pickLane(lanes []*Lane, start time.Time) *Lane {
	for _, l := range lanes {
		if l.freeAt(start) {
			return l
		}
	}
	return nil
}

// hourRange диапазон часов для отображения
type hourRange struct {
	start int
	end   int
	total int
}

func dayHours(cat *catalog.Catalog, day time.Time, bookings []model.Booking) hourRange {
	hours := hourRange{start: defaultOpenHour, end: defaultCloseHour}
	if opening, closing, ok := cat.DayBounds(day); ok {
		// считаем от полуночи: закрытие в 24:00 это 0 часов следующего дня
		midnight := cat.StartOfDay(day)
		hours.start = int(opening.Sub(midnight).Hours())
		hours.end = int(math.Ceil(closing.Sub(midnight).Hours()))
	}

	// записи вне часов работы тоже должны попасть на картинку
	loc := cat.Location()
	for _, b := range bookings {
		if h := b.Start.In(loc).Hour(); h < hours.start {
			hours.start = h
		}
		end := b.End.In(loc)
		h := end.Hour()
		if end.Minute() > 0 {
			h++
		}
		if h > hours.end && h <= 24 {
			hours.end = h
		}
	}
	hours.total = hours.end - hours.start
	if hours.total <= 0 {
		hours.total = 1
	}
	return hours
}

// DayChart рисует PNG с занятостью ресурсов за день: колонки - единицы ресурсов, строки - часы
func DayChart(cat *catalog.Catalog, day time.Time, bookings []model.Booking, now time.Time) ([]byte, error) {
	loc := cat.Location()
	day = cat.StartOfDay(day)
	lanes := AssignLanes(cat, bookings)
	hours := dayHours(cat, day, bookings)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	top := float64(headerHeight + laneHeaderHeight)
	cellHeight := (float64(imageHeight) - top) / float64(hours.total)
	laneWidth := float64(imageWidth-leftLabelsWidth) / float64(max(len(lanes), 1))

	drawHeader(dc, day, len(bookings))
	drawHourLabels(dc, hours, top, cellHeight)
	for i, lane := range lanes {
		x := float64(leftLabelsWidth) + float64(i)*laneWidth
		drawLane(dc, lane, i, x, top, laneWidth, cellHeight, hours, loc)
	}
	if cat.StartOfDay(now).Equal(day) {
		drawCurrentTimeLine(dc, now.In(loc), hours, top, cellHeight)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

func drawHeader(dc *gg.Context, day time.Time, total int) {
	dc.SetColor(textColor)
	title := fmt.Sprintf("%s (%s)  bookings: %d", day.Format("2006-01-02"), day.Weekday(), total)
	dc.DrawStringAnchored(title, float64(imageWidth)/2, float64(headerHeight)/2, 0.5, 0.5)
}

func drawHourLabels(dc *gg.Context, hours hourRange, top, cellHeight float64) {
	dc.SetColor(hourLabelColor)
	for i := 0; i <= hours.total; i++ {
		y := top + float64(i)*cellHeight
		dc.DrawStringAnchored(fmt.Sprintf("%02d:00", hours.start+i), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawLane(dc *gg.Context, lane Lane, index int, x, top, width, cellHeight float64, hours hourRange, loc *time.Location) {
	height := float64(hours.total) * cellHeight
	switch {
	case lane.Overflow:
		dc.SetColor(overflowColor)
	case index%2 == 0:
		dc.SetColor(evenLaneColor)
	default:
		dc.SetColor(oddLaneColor)
	}
	dc.DrawRectangle(x, top, width, height)
	dc.Fill()

	dc.SetColor(textColor)
	dc.DrawStringAnchored(lane.Label(), x+width/2, top-float64(laneHeaderHeight)/2, 0.5, 0.5)

	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)
	for i := 0; i <= hours.total; i++ {
		y := top + float64(i)*cellHeight
		dc.DrawLine(x, y, x+width, y)
		dc.Stroke()
	}

	for _, b := range lane.Bookings {
		drawBooking(dc, b, x, top, width, cellHeight, hours, loc)
	}
}

func drawBooking(dc *gg.Context, b model.Booking, x, top, width, cellHeight float64, hours hourRange, loc *time.Location) {
	start := b.Start.In(loc)
	startHour := float64(start.Hour()) + float64(start.Minute())/60.0
	endHour := startHour + b.End.Sub(b.Start).Hours()

	y := top + (startHour-float64(hours.start))*cellHeight
	h := (endHour - startHour) * cellHeight
	if h < minBlockHeight {
		h = minBlockHeight
	}
	w := width - lanePaddingX*2
	fill := blockColors[b.GuestIndex%len(blockColors)]

	// Тень
	dc.SetColor(blockShadowColor)
	dc.DrawRoundedRectangle(x+lanePaddingX+shadowOffset, y+2+shadowOffset, w, h-4, blockRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+lanePaddingX, y+2, w, h-4, blockRadius)
	dc.Fill()

	dc.SetColor(darkenColor(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+lanePaddingX, y+2, w, h-4, blockRadius)
	dc.Stroke()

	dc.SetColor(blockTextColor)
	txtX := x + lanePaddingX + 6
	dc.DrawStringAnchored(start.Format("15:04")+"-"+b.End.In(loc).Format("15:04"), txtX, y+16, 0, 0)
	if h > 30 && b.ServiceID != "" {
		dc.DrawStringAnchored(b.ServiceID, txtX, y+32, 0, 0)
	}
}

// darkenColor затемняет цвет на указанный множитель
func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

// drawCurrentTimeLine красная линия текущего времени
func drawCurrentTimeLine(dc *gg.Context, now time.Time, hours hourRange, top, cellHeight float64) {
	current := float64(now.Hour()) + float64(now.Minute())/60.0
	if current < float64(hours.start) || current > float64(hours.end) {
		return
	}

	y := top + (current-float64(hours.start))*cellHeight
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2.0)
	dc.DrawLine(float64(leftLabelsWidth), y, float64(imageWidth), y)
	dc.Stroke()
}
