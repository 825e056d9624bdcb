package planner

import (
	"fmt"
	"sort"
	"time"

	"github.com/edbrsk/uoc-planner/internal/model"
)

// ── 路线图（泳道甘特图）布局 ──────────────────────────────────
//
// 任务锚定在所属周的开始日期，截止日期锚定在自身日期，两者投影到同一条
// 以天为单位的横轴上；按课程分泳道，泳道内按日期贪心分配堆叠行，
// 同一行内相邻卡片的水平区间互不相交。
// ─────────────────────────────────────────────────────────────

// Color 泳道配色
type Color struct {
	Bg     string `json:"bg"`
	Card   string `json:"card"`
	Border string `json:"border"`
}

// DefaultPalette 固定调色板，按课程排序后的下标取模分配
var DefaultPalette = []Color{
	{Bg: "#fff7ed", Card: "#ffedd5", Border: "#fb923c"}, // orange
	{Bg: "#f0fdf4", Card: "#dcfce7", Border: "#4ade80"}, // green
	{Bg: "#faf5ff", Card: "#f3e8ff", Border: "#c084fc"}, // purple
	{Bg: "#f0f9ff", Card: "#e0f2fe", Border: "#38bdf8"}, // sky
	{Bg: "#fef2f2", Card: "#fce7e7", Border: "#f87171"}, // red
	{Bg: "#f0fdfa", Card: "#ccfbf1", Border: "#2dd4bf"}, // teal
	{Bg: "#fefce8", Card: "#fef9c3", Border: "#facc15"}, // yellow
	{Bg: "#fdf2f8", Card: "#fce7f3", Border: "#f472b6"}, // pink
	{Bg: "#eff6ff", Card: "#dbeafe", Border: "#60a5fa"}, // blue
	{Bg: "#ecfdf5", Card: "#d1fae5", Border: "#34d399"}, // emerald
}

// LayoutOptions 布局常量（像素）。零值字段使用默认值。
type LayoutOptions struct {
	DayPx    int
	CardW    int
	CardH    int
	CardGap  int
	LabelW   int
	LanePad  int
	MinGap   int
	Palette  []Color
	YearHint int // 旧版文本日期使用的年份，0 表示取今天所在年份
}

// DefaultLayoutOptions 默认布局常量
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{
		DayPx:   18,
		CardW:   260,
		CardH:   70,
		CardGap: 8,
		LabelW:  280,
		LanePad: 12,
		MinGap:  10,
		Palette: DefaultPalette,
	}
}

func (o LayoutOptions) withDefaults() LayoutOptions {
	d := DefaultLayoutOptions()
	if o.DayPx <= 0 {
		o.DayPx = d.DayPx
	}
	if o.CardW <= 0 {
		o.CardW = d.CardW
	}
	if o.CardH <= 0 {
		o.CardH = d.CardH
	}
	if o.CardGap <= 0 {
		o.CardGap = d.CardGap
	}
	if o.LabelW <= 0 {
		o.LabelW = d.LabelW
	}
	if o.LanePad <= 0 {
		o.LanePad = d.LanePad
	}
	if o.MinGap <= 0 {
		o.MinGap = d.MinGap
	}
	if len(o.Palette) == 0 {
		o.Palette = d.Palette
	}
	return o
}

// EventKind 事件类型
type EventKind string

const (
	EventTask     EventKind = "task"
	EventDeadline EventKind = "deadline"
)

// Event 投影到时间轴上的事件
type Event struct {
	ID     string    `json:"id"`
	Kind   EventKind `json:"type"`
	Date   string    `json:"date"`
	Label  string    `json:"label"`
	Course string    `json:"course"`
	Done   bool      `json:"done,omitempty"`
	Urgent bool      `json:"urgent,omitempty"`
}

// PlacedEvent 已定位事件：X 为左边缘像素偏移，Row 为泳道内堆叠行
type PlacedEvent struct {
	Event
	X   int `json:"x"`
	Row int `json:"row"`
}

// Lane 单门课程的泳道
type Lane struct {
	Course string        `json:"course"`
	Color  Color         `json:"color"`
	Rows   int           `json:"rows"`
	Height int           `json:"height"`
	Items  []PlacedEvent `json:"items"`
}

// MonthMarker 月份分隔标记
type MonthMarker struct {
	Label  string `json:"label"`
	Date   string `json:"date"`
	Offset int    `json:"offset"`
}

// Roadmap 布局结果，足以让任意渲染层画出泳道图
type Roadmap struct {
	Courses     []string      `json:"courses"`
	Lanes       []Lane        `json:"lanes"`
	Months      []MonthMarker `json:"months"`
	StartDate   string        `json:"start_date"`
	EndDate     string        `json:"end_date"`
	TotalDays   int           `json:"total_days"`
	TotalWidth  int           `json:"total_width"`
	TodayOffset int           `json:"today_offset"`
	CardWidth   int           `json:"card_width"`
	CardHeight  int           `json:"card_height"`
}

// BuildRoadmap 计算路线图布局。没有任何可定位事件时返回 ok=false（"无数据"终态）。
func BuildRoadmap(weeks model.WeekMap, tasks []model.Task, deadlines []model.Deadline, today time.Time, opts LayoutOptions) (*Roadmap, bool) {
	opts = opts.withDefaults()
	year := opts.YearHint
	if year == 0 {
		year = today.Year()
	}

	// 1. 周次 → 开始日期
	weekStart := make(map[int]string, len(weeks))
	var boundDates []string
	for _, w := range weeks.Sorted() {
		start, end, ok := ResolveWeek(w, year)
		if !ok {
			continue
		}
		weekStart[w.Num] = start
		boundDates = append(boundDates, start, end)
	}

	// 2. 收集事件
	var events []Event
	for _, t := range tasks {
		date, ok := weekStart[t.WeekNum]
		if !ok || t.Course == "" {
			continue
		}
		events = append(events, Event{
			ID: "task-" + t.TaskID, Kind: EventTask, Date: date,
			Label: t.Text, Course: t.Course, Done: t.Done,
		})
	}
	for _, d := range deadlines {
		if _, ok := ParseISO(d.Date); !ok || d.Course == "" {
			continue
		}
		events = append(events, Event{
			ID: "dl-" + d.DeadlineID, Kind: EventDeadline, Date: d.Date,
			Label: d.Label, Course: d.Course, Urgent: d.Urgent,
		})
	}

	// 3. 无数据
	if len(events) == 0 {
		return nil, false
	}

	// 4. 课程与配色
	courseSet := make(map[string]struct{})
	for _, e := range events {
		courseSet[e.Course] = struct{}{}
		boundDates = append(boundDates, e.Date)
	}
	courses := sortedKeys(courseSet)

	// 5. 时间轴边界，对齐到月初 / 月末
	minDate, maxDate := boundDates[0], boundDates[0]
	for _, d := range boundDates[1:] {
		if d < minDate {
			minDate = d
		}
		if d > maxDate {
			maxDate = d
		}
	}
	lo, _ := ParseISO(minDate)
	hi, _ := ParseISO(maxDate)
	start := time.Date(lo.Year(), lo.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(hi.Year(), hi.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	totalDays := daysBetween(start, end) + 1

	offsetOf := func(t time.Time) int {
		return daysBetween(start, t)*opts.DayPx + opts.LabelW
	}

	// 6. 泳道与堆叠行
	lanes := make([]Lane, 0, len(courses))
	for i, course := range courses {
		var items []Event
		for _, e := range events {
			if e.Course == course {
				items = append(items, e)
			}
		}
		sort.SliceStable(items, func(a, b int) bool { return items[a].Date < items[b].Date })

		placed, rows := stackRows(items, func(e Event) int {
			t, _ := ParseISO(e.Date)
			return offsetOf(t)
		}, opts.CardW, opts.MinGap)

		lanes = append(lanes, Lane{
			Course: course,
			Color:  opts.Palette[i%len(opts.Palette)],
			Rows:   rows,
			Height: opts.LanePad*2 + rows*(opts.CardH+opts.CardGap),
			Items:  placed,
		})
	}

	// 7. 月份标记与今天
	var months []MonthMarker
	for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
		months = append(months, MonthMarker{
			Label:  fmt.Sprintf("%s %d", monthLong[m.Month()-1], m.Year()),
			Date:   FormatISO(m),
			Offset: offsetOf(m),
		})
	}

	return &Roadmap{
		Courses:     courses,
		Lanes:       lanes,
		Months:      months,
		StartDate:   FormatISO(start),
		EndDate:     FormatISO(end),
		TotalDays:   totalDays,
		TotalWidth:  totalDays*opts.DayPx + opts.LabelW + opts.CardW + 60,
		TodayOffset: offsetOf(dateOf(today)),
		CardWidth:   opts.CardW,
		CardHeight:  opts.CardH,
	}, true
}

// stackRows 区间图贪心分行：每个事件放入编号最小的、上一张卡片右边缘
// 不超过 x - minGap 的行。items 必须已按日期升序。
func stackRows(items []Event, xOf func(Event) int, cardW, minGap int) ([]PlacedEvent, int) {
	var rowEnds []int
	placed := make([]PlacedEvent, 0, len(items))
	for _, item := range items {
		x := xOf(item)
		row := 0
		for row < len(rowEnds) && rowEnds[row] > x-minGap {
			row++
		}
		if row == len(rowEnds) {
			rowEnds = append(rowEnds, 0)
		}
		rowEnds[row] = x + cardW
		placed = append(placed, PlacedEvent{Event: item, X: x, Row: row})
	}
	rows := len(rowEnds)
	if rows == 0 {
		rows = 1
	}
	return placed, rows
}
