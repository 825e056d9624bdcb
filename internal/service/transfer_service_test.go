package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/edbrsk/uoc-planner/internal/dto"
	"github.com/edbrsk/uoc-planner/internal/planner"
)

const sampleDocument = `{
  "semester": {"name": "2025-2", "label": "Semestre 2025-2"},
  "weeks": {
    "1": {"startDate": "2026-02-17", "endDate": "2026-02-23", "title": "Intro"},
    "2": {"dates": "Feb 24 – Mar 2", "title": "Tema 1"}
  },
  "tasks": [
    {"id": "a", "weekNum": 1, "course": "AL", "text": "Leer", "order": 0, "done": true},
    {"id": "b", "weekNum": 2, "course": "Prob", "text": "PEC", "order": 0, "done": false}
  ],
  "deadlines": [
    {"date": "2026-03-10", "label": "PEC1", "course": "AL", "urgent": true, "order": 0}
  ],
  "notes": [
    {"taskId": "b", "text": "para b"},
    {"taskId": "zzz", "text": "huérfana"}
  ]
}`

func TestTransferService_Preview(t *testing.T) {
	svc, mocks, _, _ := setupTestService()

	p, err := svc.Transfer.Preview(context.Background(), []byte(sampleDocument))
	if err != nil {
		t.Fatalf("Preview 应成功: %v", err)
	}
	if p.Name != "Semestre 2025-2" || p.Weeks != 2 || p.Tasks != 2 || p.Deadlines != 1 {
		t.Errorf("预览统计错误: %+v", p)
	}
	if len(p.Courses) != 2 || p.Courses[0] != "AL" || p.Courses[1] != "Prob" {
		t.Errorf("预览课程错误: %v", p.Courses)
	}
	if len(mocks.semester.semesters) != 0 {
		t.Error("预览不应写入任何数据")
	}
}

func TestTransferService_Preview_Invalid(t *testing.T) {
	svc, _, _, _ := setupTestService()

	cases := []struct {
		name  string
		raw   string
		field string
	}{
		{"非 JSON", `{not json`, ""},
		{"缺少学期名", `{"semester": {}, "weeks": {}, "tasks": [], "deadlines": []}`, "semester.name"},
		{"weeks 不是对象", `{"semester": {"name": "x"}, "weeks": [], "tasks": [], "deadlines": []}`, "weeks"},
		{"tasks 不是数组", `{"semester": {"name": "x"}, "weeks": {}, "tasks": {}, "deadlines": []}`, "tasks"},
		{"deadlines 缺失", `{"semester": {"name": "x"}, "weeks": {}, "tasks": []}`, "deadlines"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Transfer.Preview(context.Background(), []byte(tc.raw))
			if !errors.Is(err, ErrImportInvalid) {
				t.Fatalf("期望 ErrImportInvalid，实际: %v", err)
			}
			var verr *planner.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("期望包含 ValidationError，实际: %v", err)
			}
			if verr.Field != tc.field {
				t.Errorf("期望字段=%q，实际=%q", tc.field, verr.Field)
			}
		})
	}
}

func TestTransferService_Import(t *testing.T) {
	svc, mocks, _, _ := setupTestService()
	ctx := context.Background()

	resp, err := svc.Transfer.Import(ctx, testOwner, []byte(sampleDocument))
	if err != nil {
		t.Fatalf("Import 应成功: %v", err)
	}
	if resp.Tasks != 2 || resp.Deadlines != 1 || resp.Notes != 2 || resp.RemappedNotes != 1 || resp.DroppedNotes != 0 {
		t.Errorf("导入统计错误: %+v", resp)
	}

	sem := mocks.semester.semesters[resp.Semester.ID]
	if sem == nil || sem.OwnerID != testOwner || len(sem.Weeks) != 2 {
		t.Fatalf("学期未正确写入: %+v", sem)
	}

	byText := map[string]string{}
	for _, task := range mocks.task.tasks {
		if task.SemesterID != sem.SemesterID {
			t.Error("任务应属于新学期")
		}
		if task.TaskID == "a" || task.TaskID == "b" {
			t.Error("导入应重新生成任务 id")
		}
		byText[task.Text] = task.TaskID
	}
	for _, note := range mocks.note.notes {
		switch note.Text {
		case "para b":
			if note.TaskID != byText["PEC"] {
				t.Errorf("笔记应映射到原任务 b 的新 id")
			}
		case "huérfana":
			if note.TaskID != byText["Leer"] {
				t.Errorf("无法解析的引用应回退到第一个任务")
			}
		}
	}

	pref := mocks.preference.prefs[testOwner]
	if pref == nil || *pref.LastSemesterID != sem.SemesterID {
		t.Error("导入的学期应成为最近打开的学期")
	}
}

func TestTransferService_ExportRoundTrip(t *testing.T) {
	svc, mocks, _, _ := setupTestService()
	ctx := context.Background()
	semID := seedSemester(t, svc)
	a, _ := svc.Task.Create(ctx, testOwner, semID, &dto.CreateTaskRequest{WeekNum: 2, Course: "AL", Text: "segunda semana"})
	b, _ := svc.Task.Create(ctx, testOwner, semID, &dto.CreateTaskRequest{WeekNum: 1, Course: "Prob", Text: "primera semana"})
	_, _ = svc.Task.Toggle(ctx, testOwner, semID, b.Task.ID, true)
	_, _ = svc.Note.Create(ctx, testOwner, semID, &dto.CreateNoteRequest{TaskID: a.Task.ID, Text: "nota de a"})
	_, _ = svc.Deadline.Create(ctx, testOwner, semID, &dto.CreateDeadlineRequest{Date: "2026-03-10", Label: "PEC", Course: "AL"})

	file, err := svc.Transfer.Export(ctx, testOwner, semID)
	if err != nil {
		t.Fatalf("Export 应成功: %v", err)
	}
	if file.Filename != "uoc_planner_2025-2.json" || file.ContentType != "application/json" {
		t.Errorf("文件信息错误: %s %s", file.Filename, file.ContentType)
	}

	var doc planner.Document
	if err := json.Unmarshal(file.Body, &doc); err != nil {
		t.Fatalf("导出内容应为合法 JSON: %v", err)
	}
	if len(doc.Tasks) != 2 || doc.Tasks[0].Text != "primera semana" || !doc.Tasks[0].Done {
		t.Errorf("导出任务应按周次排序: %+v", doc.Tasks)
	}
	if len(doc.Notes) != 1 || string(doc.Notes[0].TaskID) != "1" {
		t.Errorf("笔记应以任务下标引用: %+v", doc.Notes)
	}
	if strings.Contains(string(file.Body), a.Task.ID) {
		t.Error("导出内容不应包含任务 id")
	}

	// 再次导入得到等价的学期
	imported, err := svc.Transfer.Import(ctx, testOwner, file.Body)
	if err != nil {
		t.Fatalf("导出内容应能再次导入: %v", err)
	}
	if imported.Tasks != 2 || imported.Deadlines != 1 || imported.Notes != 1 || imported.RemappedNotes != 0 {
		t.Errorf("往返导入统计错误: %+v", imported)
	}
	for _, note := range mocks.note.notes {
		if note.SemesterID != imported.Semester.ID {
			continue
		}
		task := mocks.task.tasks[note.TaskID]
		if task == nil || task.Text != "segunda semana" {
			t.Errorf("往返后笔记应仍属于原任务: %+v", task)
		}
	}
}
