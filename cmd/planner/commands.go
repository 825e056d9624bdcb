package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edbrsk/uoc-planner/internal/dto"
	"github.com/edbrsk/uoc-planner/internal/planner"
	"github.com/edbrsk/uoc-planner/internal/service"
)

// ────────────────────── validate ──────────────────────

func validateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "校验导入文件并显示摘要（不写入）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.svc.Transfer.Preview(cmd.Context(), raw)
			if err != nil {
				return describeImportError(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "学期:     %s\n", p.Name)
			fmt.Fprintf(out, "周数:     %d\n", p.Weeks)
			fmt.Fprintf(out, "任务:     %d\n", p.Tasks)
			fmt.Fprintf(out, "截止日期: %d\n", p.Deadlines)
			fmt.Fprintf(out, "课程:     %s\n", strings.Join(p.Courses, ", "))
			return nil
		},
	}
}

// ────────────────────── import ──────────────────────

func importCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "导入 JSON 文件为新学期",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.svc.Transfer.Import(cmd.Context(), a.owner, raw)
			if err != nil {
				return describeImportError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已导入 %s (%s): %d 任务, %d 截止日期, %d 笔记\n",
				resp.Semester.Label, resp.Semester.ID, resp.Tasks, resp.Deadlines, resp.Notes)
			if resp.RemappedNotes > 0 || resp.DroppedNotes > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "笔记重新关联 %d 条, 丢弃 %d 条\n", resp.RemappedNotes, resp.DroppedNotes)
			}
			return nil
		},
	}
}

// ────────────────────── list ──────────────────────

func listCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "列出学期（最新在前）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			semesters, err := a.svc.Semester.List(cmd.Context(), a.owner)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(semesters) == 0 {
				fmt.Fprintln(out, "(empty)")
				return nil
			}
			for _, s := range semesters {
				fmt.Fprintf(out, "%s  %-20s %2d 周  %s ~ %s\n", s.ID, s.Name, s.WeekCount, s.StartDate, s.EndDate)
			}
			return nil
		},
	}
}

// ────────────────────── export ──────────────────────

func exportCmd(flags *globalFlags) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export [semester-id]",
		Short: "导出学期（json / xlsx / ics）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			file, err := exportFile(cmd.Context(), a, args[0], format)
			if err != nil {
				return err
			}
			path := output
			if path == "" {
				path = file.Filename
			} else if info, err := os.Stat(path); err == nil && info.IsDir() {
				path = filepath.Join(path, file.Filename)
			}
			if err := os.WriteFile(path, file.Body, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已写入 %s (%d bytes)\n", path, len(file.Body))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "导出格式: json, xlsx, ics")
	cmd.Flags().StringVarP(&output, "output", "o", "", "输出文件或目录（默认使用建议文件名）")
	return cmd
}

func exportFile(ctx context.Context, a *app, semesterID, format string) (*dto.FileResponse, error) {
	var (
		file *dto.FileResponse
		err  error
	)
	switch format {
	case "json":
		file, err = a.svc.Transfer.Export(ctx, a.owner, semesterID)
	case "xlsx":
		file, err = a.svc.Export.Spreadsheet(ctx, a.owner, semesterID)
	case "ics":
		file, err = a.svc.Export.Calendar(ctx, a.owner, semesterID)
	default:
		return nil, fmt.Errorf("未知导出格式 %q", format)
	}
	if errors.Is(err, service.ErrSemesterNotFound) {
		return nil, fmt.Errorf("学期 %s 不存在", semesterID)
	}
	return file, err
}

// ────────────────────── roadmap ──────────────────────

func roadmapCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "roadmap [semester-id]",
		Short: "显示路线图泳道",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.svc.Roadmap.Get(cmd.Context(), a.owner, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			if resp.Empty {
				fmt.Fprintln(out, "(empty)")
				return nil
			}
			printRoadmap(cmd, resp.Roadmap)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "以 JSON 输出完整布局")
	return cmd
}

func printRoadmap(cmd *cobra.Command, rm *planner.Roadmap) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s ~ %s\n", rm.StartDate, rm.EndDate)
	fmt.Fprintln(out, strings.Repeat("=", 40))
	for _, lane := range rm.Lanes {
		fmt.Fprintf(out, "\n%s (%d)\n", lane.Course, len(lane.Items))
		for _, item := range lane.Items {
			fmt.Fprintf(out, "  %s  %s\n", item.Date, item.Label)
		}
	}
}

// describeImportError 把校验错误转成带字段名的提示
func describeImportError(err error) error {
	var verr *planner.ValidationError
	if errors.As(err, &verr) {
		if verr.Field == "" {
			return fmt.Errorf("导入文件无效: %s", verr.Message)
		}
		return fmt.Errorf("导入文件无效 [%s]: %s", verr.Field, verr.Message)
	}
	return err
}
