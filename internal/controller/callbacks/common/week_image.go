package common

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

// WeekSlot занятие на конкретную дату с загрузкой
type WeekSlot struct {
	Slot     *model.Slot
	Date     time.Time
	Modality string
	Taken    int // активные записи и ожидающие заявки
	Capacity int
}

// WeekView данные для картинки недели
type WeekView struct {
	Start    time.Time // понедельник
	Slots    []WeekSlot
	Holidays map[time.Time]string
	Now      time.Time // локальное время студии
}

const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 120
	dayPaddingX      = 8
	minSlotHeight    = 8.0
	slotBorderRadius = 6.0
	shadowOffset     = 3.0
	totalDaysInWeek  = 7
	hourPadding      = 1
	defaultMinHour   = 8
	defaultMaxHour   = 21
)

const (
	titleFontSize      = 25.0
	dayFontSize        = 27.0
	hourLabelFontSize  = 18.0
	slotTimeFontSize   = 17.0
	legendItemFontSize = 12.0
)

var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 220}
	hourLabelColor   = color.RGBA{110, 115, 120, 200}
	hourLineColor    = color.NRGBA{150, 150, 150, 255}
	todayBgColor     = color.NRGBA{255, 99, 71, 125}
	holidayBgColor   = color.NRGBA{180, 180, 190, 255}
	evenDayColor     = color.NRGBA{240, 240, 240, 255}
	oddDayColor      = color.NRGBA{220, 220, 220, 255}
	currentTimeColor = color.NRGBA{255, 80, 80, 200}

	slotFreeColor     = color.RGBA{133, 193, 85, 220}
	slotFullColor     = color.RGBA{255, 182, 193, 255}
	slotHolidayColor  = color.RGBA{158, 158, 158, 200}
	slotTextColor     = color.RGBA{20, 24, 28, 230}
	slotFullTextColor = color.RGBA{120, 40, 50, 255}
	slotShadowColor   = color.RGBA{0, 0, 0, 20}

	legendItemColor = color.RGBA{70, 74, 78, 220}
)

type hourRange struct {
	start int
	end   int
	total int
}

var (
	fontsOnce   sync.Once
	regularFont *opentype.Font
	boldFont    *opentype.Font
)

// loadFont ставит шрифт Go нужного размера, при ошибке basicfont
func loadFont(dc *gg.Context, size float64, bold bool) {
	fontsOnce.Do(func() {
		regularFont, _ = opentype.Parse(goregular.TTF)
		boldFont, _ = opentype.Parse(gobold.TTF)
	})

	f := regularFont
	if bold {
		f = boldFont
	}
	if f == nil {
		dc.SetFontFace(basicfont.Face7x13)
		return
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		dc.SetFontFace(basicfont.Face7x13)
		return
	}
	dc.SetFontFace(face)
}

// GenerateWeekImage рисует неделю студии: занятия, их загрузку и праздники
func GenerateWeekImage(view WeekView) ([]byte, error) {
	start := formatting.WeekStart(model.DateOf(view.Start))
	today := model.DateOf(view.Now)
	showNow := !today.Before(start) && today.Before(model.AddDays(start, totalDaysInWeek))

	byDay := make(map[time.Time][]WeekSlot)
	for _, ws := range view.Slots {
		day := model.DateOf(ws.Date)
		byDay[day] = append(byDay[day], ws)
	}
	hours := calculateHourRange(view.Slots)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()

	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / totalDaysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, start)
	drawHourLabels(dc, hours, cellHeight)
	for i := 0; i < totalDaysInWeek; i++ {
		day := model.AddDays(start, i)
		x := float64(leftLabelsWidth + i*dayWidth)
		y := float64(headerHeight)
		_, holiday := view.Holidays[day]

		drawDayBackground(dc, x, y, dayWidth, dayHeight, i, showNow && day.Equal(today), holiday)
		drawDayHeader(dc, day, x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)
		for _, ws := range byDay[day] {
			drawSlot(dc, ws, holiday, x, y, dayWidth, hours, cellHeight)
		}
	}
	if showNow {
		drawCurrentTimeLine(dc, view.Now, hours, cellHeight, dayWidth)
	}
	drawLegend(dc, dayWidth)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode week image: %w", err)
	}
	return buf.Bytes(), nil
}

func calculateHourRange(slots []WeekSlot) hourRange {
	minHour, maxHour := 24, 0
	for _, ws := range slots {
		startH := ws.Slot.StartTime.Hour()
		endH := ws.Slot.EndTime.Hour()
		if ws.Slot.EndTime.Minute() > 0 {
			endH++
		}
		minHour = min(minHour, startH)
		maxHour = max(maxHour, endH)
	}
	if minHour == 24 {
		minHour, maxHour = defaultMinHour, defaultMaxHour
	}

	start := max(minHour-hourPadding, 0)
	end := min(maxHour+hourPadding, 24)
	return hourRange{start: start, end: end, total: end - start}
}

func drawHeader(dc *gg.Context, start time.Time) {
	end := model.AddDays(start, totalDaysInWeek-1)
	title := fmt.Sprintf("Расписание студии %s - %s", start.Format("02.01"), end.Format("02.01.2006"))

	loadFont(dc, titleFontSize, true)
	dc.SetColor(textColor)
	_, h := dc.MeasureString(title)
	dc.DrawStringAnchored(title, float64(leftLabelsWidth), float64(headerHeight)/8+h/2, 0, 0)
}

func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	loadFont(dc, hourLabelFontSize, false)
	dc.SetColor(hourLabelColor)

	for i := 0; i <= hours.total; i++ {
		y := float64(headerHeight) + float64(i)*cellHeight
		label := model.ClockTime(((hours.start + i) % 24) * 60).String()
		dc.DrawStringAnchored(label, float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, dayIndex int, isToday, isHoliday bool) {
	switch {
	case isHoliday:
		dc.SetColor(holidayBgColor)
	case isToday:
		dc.SetColor(todayBgColor)
	case dayIndex%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

func drawDayHeader(dc *gg.Context, date time.Time, x, y float64, dayWidth int) {
	loadFont(dc, dayFontSize, true)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(date.Format("02.01"), x+float64(dayWidth)/2, y, 0.5, -1)
	dc.DrawStringAnchored(formatting.GetWeekdayShortName(int(date.Weekday())), x+float64(dayWidth)/2, y, 0.5, -0.2)
}

func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)
	for i := 0; i <= hours.total; i++ {
		hy := y + float64(i)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

func drawSlot(dc *gg.Context, ws WeekSlot, holiday bool, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	startHour := float64(ws.Slot.StartTime) / 60
	endHour := float64(ws.Slot.EndTime) / 60

	slotY := y + (startHour-float64(hours.start))*cellHeight
	slotHeight := max((endHour-startHour)*cellHeight, minSlotHeight)
	slotWidth := float64(dayWidth) - float64(dayPaddingX*2)

	full := ws.Taken >= ws.Capacity
	fill, ink := slotFreeColor, slotTextColor
	switch {
	case holiday:
		fill = slotHolidayColor
	case full:
		fill, ink = slotFullColor, slotFullTextColor
	}

	dc.SetColor(slotShadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, slotY+2+shadowOffset, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+dayPaddingX, slotY+2, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(darkenColor(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+dayPaddingX, slotY+2, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Stroke()

	loadFont(dc, slotTimeFontSize, false)
	dc.SetColor(ink)
	txtX := x + dayPaddingX + 8
	txtY := slotY + 18
	dc.DrawStringAnchored(fmt.Sprintf("%s  %d/%d", ws.Slot.StartTime, ws.Taken, ws.Capacity), txtX, txtY, 0, 0)

	if ws.Modality != "" && slotHeight > 25 {
		label := []rune(ws.Modality)
		if len(label) > 18 {
			label = append(label[:15], []rune("...")...)
		}
		loadFont(dc, slotTimeFontSize-2, false)
		dc.DrawStringAnchored(string(label), txtX, txtY+16, 0, 0)
	}
}

func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

func drawCurrentTimeLine(dc *gg.Context, now time.Time, hours hourRange, cellHeight float64, dayWidth int) {
	current := float64(now.Hour()) + float64(now.Minute())/60.0
	if current < float64(hours.start) || current > float64(hours.end) {
		return
	}

	lineY := float64(headerHeight) + (current-float64(hours.start))*cellHeight
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2.0)
	dc.DrawLine(float64(leftLabelsWidth), lineY, float64(leftLabelsWidth+totalDaysInWeek*dayWidth), lineY)
	dc.Stroke()
}

func drawLegend(dc *gg.Context, dayWidth int) {
	legendX := float64(leftLabelsWidth + totalDaysInWeek*dayWidth + 10)
	legendY := float64(imageHeight) - 100.0

	items := []struct {
		label string
		clr   color.Color
	}{
		{"Есть места", slotFreeColor},
		{"Мест нет", slotFullColor},
		{"Праздник", slotHolidayColor},
	}

	const boxW, boxH = 20.0, 14.0
	liY := legendY + 22
	for _, item := range items {
		dc.SetColor(item.clr)
		dc.DrawRoundedRectangle(legendX, liY, boxW, boxH, 3)
		dc.Fill()

		loadFont(dc, legendItemFontSize, false)
		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.label, legendX+boxW+8, liY+boxH/2+1, 0, 0.2)
		liY += boxH + 14
	}
}
