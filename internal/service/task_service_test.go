package service

import (
	"context"
	"errors"
	"testing"

	"github.com/edbrsk/uoc-planner/internal/dto"
)

func TestTaskService_Create_AppendsOrder(t *testing.T) {
	svc, _, cache, _ := setupTestService()
	ctx := context.Background()
	semID := seedSemester(t, svc)
	cache.invalidated = nil

	var orders []int
	for _, text := range []string{"uno", "dos", "tres"} {
		resp, err := svc.Task.Create(ctx, testOwner, semID, &dto.CreateTaskRequest{WeekNum: 2, Course: "AL", Text: text})
		if err != nil {
			t.Fatalf("Create 应成功: %v", err)
		}
		orders = append(orders, resp.Task.Order)
	}
	if orders[0] != 0 || orders[1] != 1 || orders[2] != 2 {
		t.Errorf("order 应为该周已有任务数: %v", orders)
	}
	if len(cache.invalidated) != 3 {
		t.Errorf("每次写入都应失效缓存，实际 %d 次", len(cache.invalidated))
	}

	other, _ := svc.Task.Create(ctx, testOwner, semID, &dto.CreateTaskRequest{WeekNum: 1, Course: "AL", Text: "otra"})
	if other.Task.Order != 0 {
		t.Errorf("其他周的 order 应从0开始，实际=%d", other.Task.Order)
	}
}

func TestTaskService_Create_Validation(t *testing.T) {
	svc, _, _, _ := setupTestService()
	ctx := context.Background()
	semID := seedSemester(t, svc)

	cases := []struct {
		name string
		req  dto.CreateTaskRequest
		want error
	}{
		{"周不存在", dto.CreateTaskRequest{WeekNum: 9, Course: "AL", Text: "x"}, ErrWeekNotFound},
		{"内容为空", dto.CreateTaskRequest{WeekNum: 1, Course: "AL", Text: "  "}, ErrTaskTextRequired},
		{"课程为空", dto.CreateTaskRequest{WeekNum: 1, Course: "", Text: "x"}, ErrCourseRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Task.Create(ctx, testOwner, semID, &tc.req)
			if !errors.Is(err, tc.want) {
				t.Errorf("期望 %v，实际: %v", tc.want, err)
			}
		})
	}
}

func TestTaskService_ToggleAndReset(t *testing.T) {
	svc, _, _, _ := setupTestService()
	ctx := context.Background()
	semID := seedSemester(t, svc)

	a, _ := svc.Task.Create(ctx, testOwner, semID, &dto.CreateTaskRequest{WeekNum: 1, Course: "AL", Text: "a"})
	b, _ := svc.Task.Create(ctx, testOwner, semID, &dto.CreateTaskRequest{WeekNum: 2, Course: "Prob", Text: "b"})

	resp, err := svc.Task.Toggle(ctx, testOwner, semID, a.Task.ID, true)
	if err != nil {
		t.Fatalf("Toggle 应成功: %v", err)
	}
	if !resp.Task.Done || resp.Overview.Progress != 50 {
		t.Errorf("期望进度=50: %+v", resp.Overview)
	}
	resp, _ = svc.Task.Toggle(ctx, testOwner, semID, b.Task.ID, true)
	if resp.Overview.Progress != 100 {
		t.Errorf("期望进度=100，实际=%d", resp.Overview.Progress)
	}

	reset, err := svc.Task.Reset(ctx, testOwner, semID)
	if err != nil {
		t.Fatalf("Reset 应成功: %v", err)
	}
	if reset.Reset != 2 || reset.Overview.Progress != 0 {
		t.Errorf("重置后进度应为0: %+v", reset)
	}

	if _, err := svc.Task.Toggle(ctx, testOwner, semID, "missing", true); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("期望 ErrTaskNotFound，实际: %v", err)
	}
}

func TestTaskService_Update(t *testing.T) {
	svc, _, _, _ := setupTestService()
	ctx := context.Background()
	semID := seedSemester(t, svc)
	created, _ := svc.Task.Create(ctx, testOwner, semID, &dto.CreateTaskRequest{WeekNum: 1, Course: "AL", Text: "a"})

	course, text := "Redes", "Leer RFC"
	resp, err := svc.Task.Update(ctx, testOwner, semID, created.Task.ID, &dto.UpdateTaskRequest{Course: &course, Text: &text})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if resp.Task.Course != "Redes" || resp.Task.Text != "Leer RFC" {
		t.Errorf("更新结果错误: %+v", resp.Task)
	}
	if len(resp.Overview.Courses) != 1 || resp.Overview.Courses[0] != "Redes" {
		t.Errorf("课程列表应随之更新: %v", resp.Overview.Courses)
	}

	empty := " "
	if _, err := svc.Task.Update(ctx, testOwner, semID, created.Task.ID, &dto.UpdateTaskRequest{Text: &empty}); !errors.Is(err, ErrTaskTextRequired) {
		t.Errorf("期望 ErrTaskTextRequired，实际: %v", err)
	}
}

func TestTaskService_Delete_RemovesNotes(t *testing.T) {
	svc, mocks, _, _ := setupTestService()
	ctx := context.Background()
	semID := seedSemester(t, svc)
	created, _ := svc.Task.Create(ctx, testOwner, semID, &dto.CreateTaskRequest{WeekNum: 1, Course: "AL", Text: "a"})
	_, _ = svc.Note.Create(ctx, testOwner, semID, &dto.CreateNoteRequest{TaskID: created.Task.ID, Text: "n1"})
	_, _ = svc.Note.Create(ctx, testOwner, semID, &dto.CreateNoteRequest{TaskID: created.Task.ID, Text: "n2"})

	if _, err := svc.Task.Delete(ctx, testOwner, semID, created.Task.ID); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if len(mocks.task.tasks) != 0 || len(mocks.note.notes) != 0 {
		t.Error("任务及其笔记应被删除")
	}
	if _, err := svc.Task.Delete(ctx, testOwner, semID, created.Task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("期望 ErrTaskNotFound，实际: %v", err)
	}
}

func TestTaskService_List_FilterAndNotes(t *testing.T) {
	svc, _, _, _ := setupTestService()
	ctx := context.Background()
	semID := seedSemester(t, svc)
	a, _ := svc.Task.Create(ctx, testOwner, semID, &dto.CreateTaskRequest{WeekNum: 2, Course: "AL", Text: "a"})
	_, _ = svc.Task.Create(ctx, testOwner, semID, &dto.CreateTaskRequest{WeekNum: 1, Course: "Prob", Text: "b"})
	_, _ = svc.Note.Create(ctx, testOwner, semID, &dto.CreateNoteRequest{TaskID: a.Task.ID, Text: "n"})

	all, err := svc.Task.List(ctx, testOwner, semID, 0, "All")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].WeekNum != 1 {
		t.Errorf("应按周次排序返回全部任务: %+v", all)
	}
	onlyAL, _ := svc.Task.List(ctx, testOwner, semID, 0, "AL")
	if len(onlyAL) != 1 || !onlyAL[0].HasNotes {
		t.Errorf("按课程筛选错误: %+v", onlyAL)
	}
}
