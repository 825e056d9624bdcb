package planner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/edbrsk/uoc-planner/internal/model"
)

// ── 导入导出交换格式 ──────────────────────────────────────────

// DocSemester 文档中的学期头
type DocSemester struct {
	Name      string `json:"name"`
	Label     string `json:"label,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// DocTask 文档中的任务。ID 仅在导入时用于笔记引用，导出时不输出。
type DocTask struct {
	ID      json.RawMessage `json:"id,omitempty"`
	WeekNum int             `json:"weekNum"`
	Course  string          `json:"course"`
	Text    string          `json:"text"`
	Order   int             `json:"order"`
	Done    bool            `json:"done"`
}

// DocDeadline 文档中的截止日期
type DocDeadline struct {
	Date   string `json:"date"`
	Label  string `json:"label"`
	Course string `json:"course"`
	Urgent bool   `json:"urgent"`
	Order  int    `json:"order"`
}

// DocNote 文档中的笔记，TaskID 可以是任意 JSON 标量
type DocNote struct {
	TaskID json.RawMessage `json:"taskId"`
	Text   string          `json:"text"`
}

// Document 完整交换文档
type Document struct {
	Semester  DocSemester   `json:"semester"`
	Weeks     model.WeekMap `json:"weeks"`
	Tasks     []DocTask     `json:"tasks"`
	Deadlines []DocDeadline `json:"deadlines"`
	Notes     []DocNote     `json:"notes,omitempty"`
}

// ValidationError 导入校验失败，Field 指出出错字段
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// DecodeDocument 解析并校验导入文档。
// 校验顺序：JSON 语法 → semester.name → weeks → tasks → deadlines → 各元素类型。
// 任一失败立即返回 *ValidationError。
func DecodeDocument(raw []byte) (*Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, invalid("", "JSON 无效，请确认复制了完整的 JSON")
	}

	// semester.name
	var sem map[string]json.RawMessage
	if err := json.Unmarshal(top["semester"], &sem); err != nil || sem == nil {
		return nil, invalid("semester.name", `缺少 "semester.name"`)
	}
	var name string
	if err := json.Unmarshal(sem["name"], &name); err != nil || name == "" {
		return nil, invalid("semester.name", `缺少 "semester.name"`)
	}

	if kindOf(top["weeks"]) != '{' {
		return nil, invalid("weeks", `缺少 "weeks"`)
	}
	if kindOf(top["tasks"]) != '[' {
		return nil, invalid("tasks", `"tasks" 必须是数组`)
	}
	if kindOf(top["deadlines"]) != '[' {
		return nil, invalid("deadlines", `"deadlines" 必须是数组`)
	}
	if notes, ok := top["notes"]; ok && kindOf(notes) != '[' && kindOf(notes) != 'n' {
		return nil, invalid("notes", `"notes" 必须是数组`)
	}

	doc := &Document{}
	if err := json.Unmarshal(top["semester"], &doc.Semester); err != nil {
		return nil, invalid("semester", "学期字段类型错误")
	}
	if err := json.Unmarshal(top["weeks"], &doc.Weeks); err != nil {
		return nil, invalid("weeks", err.Error())
	}

	var rawTasks []json.RawMessage
	_ = json.Unmarshal(top["tasks"], &rawTasks)
	doc.Tasks = make([]DocTask, 0, len(rawTasks))
	for i, rt := range rawTasks {
		var t DocTask
		if kindOf(rt) != '{' || json.Unmarshal(rt, &t) != nil {
			return nil, invalid(fmt.Sprintf("tasks[%d]", i), "任务格式错误")
		}
		doc.Tasks = append(doc.Tasks, t)
	}

	var rawDeadlines []json.RawMessage
	_ = json.Unmarshal(top["deadlines"], &rawDeadlines)
	doc.Deadlines = make([]DocDeadline, 0, len(rawDeadlines))
	for i, rd := range rawDeadlines {
		var d DocDeadline
		if kindOf(rd) != '{' || json.Unmarshal(rd, &d) != nil {
			return nil, invalid(fmt.Sprintf("deadlines[%d]", i), "截止日期格式错误")
		}
		doc.Deadlines = append(doc.Deadlines, d)
	}

	if kindOf(top["notes"]) == '[' {
		var rawNotes []json.RawMessage
		_ = json.Unmarshal(top["notes"], &rawNotes)
		for i, rn := range rawNotes {
			var n DocNote
			if kindOf(rn) != '{' || json.Unmarshal(rn, &n) != nil {
				return nil, invalid(fmt.Sprintf("notes[%d]", i), "笔记格式错误")
			}
			doc.Notes = append(doc.Notes, n)
		}
	}
	if err := checkLimits(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// checkLimits 字段长度与取值范围，两种存储按同一规则拒绝
func checkLimits(doc *Document) *ValidationError {
	if tooLong(doc.Semester.Name, MaxSemesterName) {
		return invalid("semester.name", fmt.Sprintf("学期名称不能超过 %d 个字符", MaxSemesterName))
	}
	if tooLong(doc.Semester.Label, MaxSemesterLabel) {
		return invalid("semester.label", fmt.Sprintf("学期标题不能超过 %d 个字符", MaxSemesterLabel))
	}
	if _, ok := ParseISO(doc.Semester.StartDate); doc.Semester.StartDate != "" && !ok {
		return invalid("semester.startDate", "日期必须为 YYYY-MM-DD")
	}
	if _, ok := ParseISO(doc.Semester.EndDate); doc.Semester.EndDate != "" && !ok {
		return invalid("semester.endDate", "日期必须为 YYYY-MM-DD")
	}
	for i, t := range doc.Tasks {
		field := fmt.Sprintf("tasks[%d]", i)
		switch {
		case t.WeekNum < 0 || t.WeekNum > MaxWeekNum:
			return invalid(field, "周次超出范围")
		case t.Order < 0 || t.Order > MaxOrder:
			return invalid(field, "order 超出范围")
		case tooLong(t.Course, MaxCourse):
			return invalid(field, fmt.Sprintf("课程名称不能超过 %d 个字符", MaxCourse))
		case tooLong(t.Text, MaxTaskText):
			return invalid(field, fmt.Sprintf("任务内容不能超过 %d 个字符", MaxTaskText))
		}
	}
	for i, d := range doc.Deadlines {
		field := fmt.Sprintf("deadlines[%d]", i)
		if _, ok := ParseISO(d.Date); !ok {
			return invalid(field, "日期必须为 YYYY-MM-DD")
		}
		switch {
		case d.Order < 0 || d.Order > MaxOrder:
			return invalid(field, "order 超出范围")
		case tooLong(d.Course, MaxCourse):
			return invalid(field, fmt.Sprintf("课程名称不能超过 %d 个字符", MaxCourse))
		case tooLong(d.Label, MaxDeadlineLabel):
			return invalid(field, fmt.Sprintf("截止日期标题不能超过 %d 个字符", MaxDeadlineLabel))
		}
	}
	return nil
}

// kindOf 返回 JSON 值的首字符（'{' '[' '"' 'n' ...），缺失时为 0
func kindOf(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

// EncodeDocument 以两空格缩进输出文档
func EncodeDocument(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// ── 预览 ──

// ImportPreview 导入前的摘要
type ImportPreview struct {
	Name      string   `json:"name"`
	Weeks     int      `json:"weeks"`
	Tasks     int      `json:"tasks"`
	Deadlines int      `json:"deadlines"`
	Courses   []string `json:"courses"`
}

// Preview 统计文档内容；课程去重排序，没有课程时为空数组
func Preview(doc *Document) ImportPreview {
	set := make(map[string]struct{})
	for _, t := range doc.Tasks {
		if t.Course != "" {
			set[t.Course] = struct{}{}
		}
	}
	for _, d := range doc.Deadlines {
		if d.Course != "" {
			set[d.Course] = struct{}{}
		}
	}
	name := doc.Semester.Label
	if name == "" {
		name = doc.Semester.Name
	}
	return ImportPreview{
		Name:      name,
		Weeks:     len(doc.Weeks),
		Tasks:     len(doc.Tasks),
		Deadlines: len(doc.Deadlines),
		Courses:   sortedKeys(set),
	}
}

// ── 导出 ──

// Export 将学期及其任务、截止日期、笔记序列化为交换文档。
// 任务按周次、order 排序且不带 id；笔记以任务在导出数组中的下标引用任务。
func Export(sem model.Semester, tasks []model.Task, deadlines []model.Deadline, notes []model.Note) *Document {
	sortedTasks := append([]model.Task(nil), tasks...)
	sort.SliceStable(sortedTasks, func(i, j int) bool {
		if sortedTasks[i].WeekNum != sortedTasks[j].WeekNum {
			return sortedTasks[i].WeekNum < sortedTasks[j].WeekNum
		}
		return sortedTasks[i].Order < sortedTasks[j].Order
	})
	sortedDeadlines := append([]model.Deadline(nil), deadlines...)
	SortDeadlines(sortedDeadlines)

	weeks := sem.Weeks.Clone()
	doc := &Document{
		Semester: DocSemester{
			Name:      sem.Name,
			Label:     sem.Label,
			StartDate: sem.StartDate,
			EndDate:   sem.EndDate,
		},
		Weeks:     weeks,
		Tasks:     make([]DocTask, 0, len(sortedTasks)),
		Deadlines: make([]DocDeadline, 0, len(sortedDeadlines)),
	}

	index := make(map[string]int, len(sortedTasks))
	for i, t := range sortedTasks {
		index[t.TaskID] = i
		doc.Tasks = append(doc.Tasks, DocTask{
			WeekNum: t.WeekNum, Course: t.Course, Text: t.Text, Order: t.Order, Done: t.Done,
		})
	}
	for _, d := range sortedDeadlines {
		doc.Deadlines = append(doc.Deadlines, DocDeadline{
			Date: d.Date, Label: d.Label, Course: d.Course, Urgent: d.Urgent, Order: d.Order,
		})
	}

	sortedNotes := append([]model.Note(nil), notes...)
	sort.SliceStable(sortedNotes, func(i, j int) bool { return sortedNotes[i].CreatedAt.Before(sortedNotes[j].CreatedAt) })
	for _, n := range sortedNotes {
		i, ok := index[n.TaskID]
		if !ok {
			continue
		}
		doc.Notes = append(doc.Notes, DocNote{TaskID: json.RawMessage(strconv.Itoa(i)), Text: n.Text})
	}
	return doc
}

// ── 导入提交计划 ──

// ImportPlan 导入需要写入的全部记录，调用方在同一事务中落库
type ImportPlan struct {
	Semester  model.Semester
	Tasks     []model.Task
	Deadlines []model.Deadline
	Notes     []model.Note
	// RemappedNotes 引用无法解析、回退到第一个任务的笔记数
	RemappedNotes int
	// DroppedNotes 文档没有任务时被丢弃的笔记数
	DroppedNotes int
}

// PlanImport 由已校验的文档生成新记录：全部重新生成 id，
// 笔记 taskId 经旧 id → 新 id 映射（旧 id 取任务的 "id" 字段，缺省为数组下标）。
func PlanImport(doc *Document, ownerID string, newID func() string, now time.Time) ImportPlan {
	label := doc.Semester.Label
	if label == "" {
		label = model.DefaultLabel(doc.Semester.Name)
	}
	weeks := doc.Weeks.Clone()

	semID := newID()
	plan := ImportPlan{
		Semester: model.Semester{
			SemesterID: semID,
			OwnerID:    ownerID,
			Name:       doc.Semester.Name,
			Label:      label,
			StartDate:  doc.Semester.StartDate,
			EndDate:    doc.Semester.EndDate,
			Weeks:      weeks,
			VersionedModel: model.VersionedModel{
				BaseModel: model.BaseModel{CreatedAt: now, UpdatedAt: now},
				Version:   1,
			},
		},
		Tasks:     make([]model.Task, 0, len(doc.Tasks)),
		Deadlines: make([]model.Deadline, 0, len(doc.Deadlines)),
	}
	base := model.BaseModel{CreatedAt: now, UpdatedAt: now}

	idMap := make(map[string]string, len(doc.Tasks))
	for i, t := range doc.Tasks {
		id := newID()
		key := scalarKey(t.ID)
		if key == "" {
			key = strconv.Itoa(i)
		}
		idMap[key] = id
		plan.Tasks = append(plan.Tasks, model.Task{
			TaskID: id, SemesterID: semID, WeekNum: t.WeekNum,
			Course: t.Course, Text: t.Text, Order: t.Order, Done: t.Done,
			BaseModel: base,
		})
	}

	for _, d := range doc.Deadlines {
		plan.Deadlines = append(plan.Deadlines, model.Deadline{
			DeadlineID: newID(), SemesterID: semID, Date: d.Date,
			Label: d.Label, Course: d.Course, Urgent: d.Urgent, Order: d.Order,
			BaseModel: base,
		})
	}

	for i, n := range doc.Notes {
		if len(plan.Tasks) == 0 {
			plan.DroppedNotes++
			continue
		}
		taskID, ok := idMap[scalarKey(n.TaskID)]
		if !ok {
			taskID = plan.Tasks[0].TaskID
			plan.RemappedNotes++
		}
		// 保持文档中的先后顺序
		created := now.Add(time.Duration(i) * time.Millisecond)
		plan.Notes = append(plan.Notes, model.Note{
			NoteID: newID(), SemesterID: semID, TaskID: taskID, Text: n.Text,
			CreatedAt: created, UpdatedAt: created,
		})
	}
	return plan
}

// scalarKey 把 JSON 标量规范为映射键：字符串去引号，数字保持原文，其余为空
func scalarKey(raw json.RawMessage) string {
	switch kindOf(raw) {
	case 0, 'n', '{', '[':
		return ""
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	default:
		var num json.Number
		if err := json.Unmarshal(raw, &num); err != nil {
			return ""
		}
		if i, err := num.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return num.String()
	}
}
