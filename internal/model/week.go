package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// DateRep 周次日期的两种表示：结构化 ISO 日期，或旧版自由文本。
// 两者互斥，不允许混合保存。
type DateRep interface {
	isDateRep()
}

// StructuredDates ISO 日期区间（"2026-02-17" ~ "2026-02-23"）
type StructuredDates struct {
	Start string
	End   string
}

// LegacyDates 旧版文本日期（如 "Feb 17 – 23"），需要时再解析
type LegacyDates struct {
	Text string
}

func (StructuredDates) isDateRep() {}
func (LegacyDates) isDateRep()     {}

// Week 学期中的一周。周次号作为 WeekMap 的键，不单独序列化。
type Week struct {
	Num   int     `json:"-"`
	Title string  `json:"title"`
	Dates DateRep `json:"-"`
}

// weekJSON 对外交换格式（导入导出与数据库 JSON 列共用）
type weekJSON struct {
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Dates     string `json:"dates,omitempty"`
	Title     string `json:"title"`
}

// MarshalJSON 结构化日期输出 startDate/endDate，旧版输出 dates。
func (w Week) MarshalJSON() ([]byte, error) {
	out := weekJSON{Title: w.Title}
	switch d := w.Dates.(type) {
	case StructuredDates:
		out.StartDate = d.Start
		out.EndDate = d.End
	case LegacyDates:
		out.Dates = d.Text
	}
	return json.Marshal(out)
}

// UnmarshalJSON 只要出现任一 ISO 字段即视为结构化表示，否则回退到旧版文本。
func (w *Week) UnmarshalJSON(data []byte) error {
	var in weekJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	w.Title = in.Title
	switch {
	case in.StartDate != "" || in.EndDate != "":
		w.Dates = StructuredDates{Start: in.StartDate, End: in.EndDate}
	case in.Dates != "":
		w.Dates = LegacyDates{Text: in.Dates}
	default:
		w.Dates = nil
	}
	return nil
}

// Structured 返回结构化日期；旧版或缺失时 ok=false。
func (w Week) Structured() (StructuredDates, bool) {
	d, ok := w.Dates.(StructuredDates)
	return d, ok
}

// WeekMap 周次号 → 周。允许编号不连续。
type WeekMap map[int]Week

// UnmarshalJSON 键必须是规范的正整数字符串（不带前导零或符号），并回填 Week.Num。
func (m *WeekMap) UnmarshalJSON(data []byte) error {
	var raw map[string]Week
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(WeekMap, len(raw))
	for k, w := range raw {
		n, err := strconv.Atoi(k)
		if err != nil || n <= 0 || strconv.Itoa(n) != k {
			return fmt.Errorf("周次编号无效: %q", k)
		}
		w.Num = n
		out[n] = w
	}
	*m = out
	return nil
}

// Nums 升序返回所有周次号
func (m WeekMap) Nums() []int {
	nums := make([]int, 0, len(m))
	for n := range m {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// Sorted 按周次号升序返回周列表
func (m WeekMap) Sorted() []Week {
	out := make([]Week, 0, len(m))
	for _, n := range m.Nums() {
		w := m[n]
		w.Num = n
		out = append(out, w)
	}
	return out
}

// MaxNum 最大周次号；没有周时为 0
func (m WeekMap) MaxNum() int {
	max := 0
	for n := range m {
		if n > max {
			max = n
		}
	}
	return max
}

// Clone 浅拷贝（Week 为值类型，拷贝后互不影响）
func (m WeekMap) Clone() WeekMap {
	out := make(WeekMap, len(m))
	for n, w := range m {
		w.Num = n
		out[n] = w
	}
	return out
}
