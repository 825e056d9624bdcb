package planner

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/edbrsk/uoc-planner/internal/model"
)

const sampleDoc = `{
  "semester": { "name": "2025-2", "startDate": "2026-02-17", "endDate": "2026-03-02" },
  "weeks": {
    "1": { "startDate": "2026-02-17", "endDate": "2026-02-23", "title": "Intro" },
    "2": { "dates": "Feb 24 – Mar 2", "title": "Tema 1" }
  },
  "tasks": [
    { "id": "x1", "weekNum": 1, "course": "AL", "text": "Leer tema 1", "order": 0, "done": true },
    { "id": 7, "weekNum": 2, "course": "Prob", "text": "Ejercicios", "order": 0 }
  ],
  "deadlines": [
    { "date": "2026-03-10", "label": "PEC1", "course": "AL", "urgent": true, "order": 0 }
  ],
  "notes": [
    { "taskId": "x1", "text": "Repasar matrices" },
    { "taskId": 7, "text": "Pedir ayuda" },
    { "taskId": "ghost", "text": "Huérfana" }
  ]
}`

func seqID() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestDecodeDocument_Empty(t *testing.T) {
	doc, err := DecodeDocument([]byte(`{"semester":{"name":"X"},"weeks":{},"tasks":[],"deadlines":[]}`))
	if err != nil {
		t.Fatalf("空文档应通过校验: %v", err)
	}
	p := Preview(doc)
	if p.Weeks != 0 || p.Tasks != 0 || p.Deadlines != 0 || p.Courses == nil || len(p.Courses) != 0 {
		t.Errorf("预览错误: %+v", p)
	}
}

func TestDecodeDocument_ValidationOrder(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"非 JSON", `{oops`, ""},
		{"顶层数组", `[]`, ""},
		{"缺少 semester", `{"weeks":{},"tasks":[],"deadlines":[]}`, "semester.name"},
		{"name 为空", `{"semester":{"name":""},"weeks":{},"tasks":[],"deadlines":[]}`, "semester.name"},
		{"name 非字符串", `{"semester":{"name":3},"weeks":{},"tasks":[],"deadlines":[]}`, "semester.name"},
		{"缺少 weeks", `{"semester":{"name":"X"},"tasks":[],"deadlines":[]}`, "weeks"},
		{"weeks 为数组", `{"semester":{"name":"X"},"weeks":[],"tasks":[],"deadlines":[]}`, "weeks"},
		{"tasks 非数组", `{"semester":{"name":"X"},"weeks":{},"tasks":{},"deadlines":[]}`, "tasks"},
		{"deadlines 缺失", `{"semester":{"name":"X"},"weeks":{},"tasks":[]}`, "deadlines"},
		{"周次键无效", `{"semester":{"name":"X"},"weeks":{"a":{}},"tasks":[],"deadlines":[]}`, "weeks"},
		{"周次键带前导零", `{"semester":{"name":"X"},"weeks":{"1":{},"01":{}},"tasks":[],"deadlines":[]}`, "weeks"},
		{"周次键带正号", `{"semester":{"name":"X"},"weeks":{"+2":{}},"tasks":[],"deadlines":[]}`, "weeks"},
		{"任务类型错误", `{"semester":{"name":"X"},"weeks":{},"tasks":[{"weekNum":"1"}],"deadlines":[]}`, "tasks[0]"},
		{"截止日期非对象", `{"semester":{"name":"X"},"weeks":{},"tasks":[],"deadlines":[1]}`, "deadlines[0]"},
		{"notes 非数组", `{"semester":{"name":"X"},"weeks":{},"tasks":[],"deadlines":[],"notes":"x"}`, "notes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDocument([]byte(tt.raw))
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("期望 ValidationError，实际 %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("期望字段 %q，实际 %q (%s)", tt.field, ve.Field, ve.Message)
			}
		})
	}
}

func TestDecodeDocument_FieldLimits(t *testing.T) {
	long := func(n int) string { return strings.Repeat("á", n) }
	wrap := func(semester, tasks, deadlines string) string {
		return `{"semester":` + semester + `,"weeks":{},"tasks":[` + tasks + `],"deadlines":[` + deadlines + `]}`
	}
	okTask := `{"weekNum":1,"course":"AL","text":"t"}`
	okDeadline := `{"date":"2026-03-10","label":"PEC","course":"AL"}`

	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"学期名过长", wrap(`{"name":"`+long(101)+`"}`, "", ""), "semester.name"},
		{"学期标题过长", wrap(`{"name":"X","label":"`+long(201)+`"}`, "", ""), "semester.label"},
		{"学期开始日期无效", wrap(`{"name":"X","startDate":"17/02/2026"}`, "", ""), "semester.startDate"},
		{"课程名过长", wrap(`{"name":"X"}`, `{"weekNum":1,"course":"`+long(51)+`","text":"t"}`, ""), "tasks[0]"},
		{"任务内容过长", wrap(`{"name":"X"}`, okTask+`,{"weekNum":1,"course":"AL","text":"`+long(501)+`"}`, ""), "tasks[1]"},
		{"周次超出范围", wrap(`{"name":"X"}`, `{"weekNum":40000,"course":"AL","text":"t"}`, ""), "tasks[0]"},
		{"截止日期无效", wrap(`{"name":"X"}`, "", `{"date":"2026-02-30","label":"PEC","course":"AL"}`), "deadlines[0]"},
		{"截止日期标题过长", wrap(`{"name":"X"}`, "", okDeadline+`,{"date":"2026-03-10","label":"`+long(301)+`","course":"AL"}`), "deadlines[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDocument([]byte(tt.raw))
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("期望 ValidationError，实际 %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("期望字段 %q，实际 %q (%s)", tt.field, ve.Field, ve.Message)
			}
		})
	}

	// 恰好等于上限时通过，按字符而非字节计数
	raw := wrap(`{"name":"`+long(100)+`"}`, `{"weekNum":1,"course":"`+long(50)+`","text":"`+long(500)+`"}`, okDeadline)
	if _, err := DecodeDocument([]byte(raw)); err != nil {
		t.Errorf("上限以内应通过，实际 %v", err)
	}
}

func TestPreview(t *testing.T) {
	doc, err := DecodeDocument([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	p := Preview(doc)
	if p.Name != "2025-2" || p.Weeks != 2 || p.Tasks != 2 || p.Deadlines != 1 {
		t.Errorf("预览错误: %+v", p)
	}
	if !reflect.DeepEqual(p.Courses, []string{"AL", "Prob"}) {
		t.Errorf("课程错误: %v", p.Courses)
	}
	if _, ok := doc.Weeks[2].Dates.(model.LegacyDates); !ok {
		t.Error("第 2 周应为旧版文本日期")
	}
}

func TestPlanImport_NoteRemap(t *testing.T) {
	doc, _ := DecodeDocument([]byte(sampleDoc))
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	plan := PlanImport(doc, "owner-1", seqID(), now)

	if plan.Semester.SemesterID != "id-1" || plan.Semester.OwnerID != "owner-1" {
		t.Errorf("学期 id/归属错误: %+v", plan.Semester)
	}
	if plan.Semester.Label != "Semestre 2025-2" {
		t.Errorf("缺省标签应为 Semestre <name>，实际 %q", plan.Semester.Label)
	}
	if len(plan.Tasks) != 2 || plan.Tasks[0].TaskID == "x1" {
		t.Fatalf("任务 id 应重新生成: %+v", plan.Tasks)
	}
	for _, tk := range plan.Tasks {
		if tk.SemesterID != plan.Semester.SemesterID {
			t.Error("任务应归属新学期")
		}
	}
	if len(plan.Notes) != 3 {
		t.Fatalf("期望 3 条笔记，实际 %d", len(plan.Notes))
	}
	if plan.Notes[0].TaskID != plan.Tasks[0].TaskID {
		t.Error("字符串 id 引用应映射到第一个任务")
	}
	if plan.Notes[1].TaskID != plan.Tasks[1].TaskID {
		t.Error("数字 id 引用应映射到第二个任务")
	}
	if plan.Notes[2].TaskID != plan.Tasks[0].TaskID || plan.RemappedNotes != 1 {
		t.Error("无法解析的引用应回退到第一个任务")
	}
	if !plan.Notes[0].CreatedAt.Before(plan.Notes[1].CreatedAt) {
		t.Error("笔记应保持文档顺序")
	}
}

func TestPlanImport_NotesWithoutTasksDropped(t *testing.T) {
	doc, _ := DecodeDocument([]byte(`{"semester":{"name":"X"},"weeks":{},"tasks":[],"deadlines":[],"notes":[{"taskId":0,"text":"n"}]}`))
	plan := PlanImport(doc, "o", seqID(), time.Now())
	if len(plan.Notes) != 0 || plan.DroppedNotes != 1 {
		t.Errorf("没有任务时笔记应被丢弃: %+v", plan)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	doc, _ := DecodeDocument([]byte(sampleDoc))
	plan := PlanImport(doc, "o", seqID(), time.Now())

	exported := Export(plan.Semester, plan.Tasks, plan.Deadlines, plan.Notes)
	raw, err := EncodeDocument(exported)
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}
	again, err := DecodeDocument(raw)
	if err != nil {
		t.Fatalf("重新解析失败: %v", err)
	}

	if len(again.Tasks) != len(doc.Tasks) || len(again.Deadlines) != len(doc.Deadlines) {
		t.Fatalf("数量不一致: %d/%d", len(again.Tasks), len(again.Deadlines))
	}
	for i := range doc.Tasks {
		a, b := doc.Tasks[i], again.Tasks[i]
		if a.WeekNum != b.WeekNum || a.Course != b.Course || a.Text != b.Text || a.Order != b.Order || a.Done != b.Done {
			t.Errorf("任务 %d 不一致: %+v / %+v", i, a, b)
		}
		if len(b.ID) != 0 {
			t.Error("导出的任务不应带 id")
		}
	}
	if !reflect.DeepEqual(doc.Deadlines, again.Deadlines) {
		t.Errorf("截止日期不一致: %+v / %+v", doc.Deadlines, again.Deadlines)
	}
	if !reflect.DeepEqual(Preview(doc).Courses, Preview(again).Courses) {
		t.Error("课程集合不一致")
	}
	if !reflect.DeepEqual(doc.Weeks, again.Weeks) {
		t.Errorf("周次不一致: %+v / %+v", doc.Weeks, again.Weeks)
	}

	// 笔记按导出下标引用，再次导入后仍指向同一任务内容
	plan2 := PlanImport(again, "o", seqID(), time.Now())
	if plan2.Notes[1].TaskID != plan2.Tasks[1].TaskID || plan2.RemappedNotes != 0 {
		t.Error("导出的笔记引用应能被再次解析")
	}
}
