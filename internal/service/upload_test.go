package service_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"ScriptStats/internal/adapter"
	"ScriptStats/internal/adapter/excel"
	"ScriptStats/internal/config"
	"ScriptStats/internal/interfaces"
	"ScriptStats/internal/model"
	"ScriptStats/internal/service"

	"github.com/xuri/excelize/v2"
)

// buildWorkbook 生成带标准表头的 .xlsx，rows 中每行只填前几列
func buildWorkbook(t *testing.T, headers []string, rows ...[]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	header := interfaces.ToRow(headers)
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		t.Fatalf("SetSheetRow header: %v", err)
	}
	for i, r := range rows {
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		r := r
		if err := f.SetSheetRow(sheet, cellRef, &r); err != nil {
			t.Fatalf("SetSheetRow %d: %v", i, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func newUploadService(t *testing.T, fx *fixture, maxSizeMB int) (*service.UploadService, string) {
	t.Helper()
	dir := t.TempDir()
	registry := adapter.NewEmptyRegistry(fx.logger)
	registry.Add(excel.NewProducer("", fx.logger))
	cfg := &config.UploadConfig{Dir: dir, MaxSizeMB: maxSizeMB, BatchSize: 2}
	return service.NewUploadService(fx.store, registry, fx.trigger, cfg, fx.logger), dir
}

func TestUploadParsesRowsInBackground(t *testing.T) {
	fx := newFixture()
	svc, dir := newUploadService(t, fx, 10)
	ctx := context.Background()

	data := buildWorkbook(t, excel.HeaderNames(),
		[]interface{}{"代理-威塔课程", "2024-06-01", "抖音", "", "1,200"},
		[]interface{}{"", "2024-06-01", "抖音", "", "5"},
		[]interface{}{"口播老师", "2024-06-02", "快手", "", "30"},
		[]interface{}{"合计", "", "", "", "1235"},
	)
	res, err := svc.Upload(ctx, "6月 数据.xlsx", " 第1期 ", "alice", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	svc.Wait()

	task, err := svc.TaskStatus(ctx, res.TaskID)
	if err != nil {
		t.Fatalf("TaskStatus: %v", err)
	}
	if task.Status != model.TaskDone || task.Progress != 4 || task.Total != 4 {
		t.Fatalf("task=%+v, want done 4/4", task)
	}

	rows, _ := fx.store.ListRowsByUpload(ctx, res.UploadID)
	if len(rows) != 3 {
		t.Fatalf("rows=%d, want 3 (empty material name skipped)", len(rows))
	}
	if rows[0].TotalCost == nil || *rows[0].TotalCost != 1200 {
		t.Fatalf("first row cost=%v, want 1200", rows[0].TotalCost)
	}
	if rows[1].RowIndex != 3 || rows[1].MaterialName != "口播老师" {
		t.Fatalf("second row=%+v", rows[1])
	}

	uploads, _ := svc.ListUploads(ctx)
	if len(uploads) != 1 || uploads[0].Period != "第1期" || uploads[0].RowCount != 4 {
		t.Fatalf("uploads=%+v", uploads)
	}
	if fx.trigger.count() != 1 || fx.trigger.reasons[0] != "upload:"+res.UploadID {
		t.Fatalf("triggers=%v", fx.trigger.reasons)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), res.UploadID+"_") {
		t.Fatalf("saved files=%v", entries)
	}
}

func TestUploadRejectsBadHeaders(t *testing.T) {
	fx := newFixture()
	svc, _ := newUploadService(t, fx, 10)
	ctx := context.Background()

	headers := excel.HeaderNames()
	headers[4] = "成本"
	data := buildWorkbook(t, headers, []interface{}{"威塔课程", "", "抖音", "", "1"})
	res, err := svc.Upload(ctx, "bad.xlsx", "第1期", "", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	svc.Wait()

	task, _ := svc.TaskStatus(ctx, res.TaskID)
	if task.Status != model.TaskError || task.Error == nil || !strings.Contains(*task.Error, "E列") {
		t.Fatalf("task=%+v, want header error mentioning column E", task)
	}
	if fx.trigger.count() != 0 {
		t.Fatalf("failed upload should not trigger recompute")
	}
}

func TestUploadValidation(t *testing.T) {
	fx := newFixture()
	svc, _ := newUploadService(t, fx, 1)
	ctx := context.Background()

	cases := []struct {
		name     string
		filename string
		period   string
		body     []byte
	}{
		{"missing period", "a.xlsx", "  ", []byte("x")},
		{"unsupported extension", "a.csv", "第1期", []byte("x")},
		{"too large", "a.xlsx", "第1期", bytes.Repeat([]byte("x"), 1<<20+1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, tc.filename, tc.period, "", bytes.NewReader(tc.body))
			if !errors.Is(err, service.ErrInvalidUpload) {
				t.Fatalf("err=%v, want ErrInvalidUpload", err)
			}
		})
	}
	if uploads, _ := svc.ListUploads(ctx); len(uploads) != 0 {
		t.Fatalf("uploads=%d, want 0", len(uploads))
	}
	if _, err := svc.TaskStatus(ctx, "nope"); !errors.Is(err, service.ErrTaskNotFound) {
		t.Fatalf("err=%v, want ErrTaskNotFound", err)
	}
}

func TestDeleteUploadTriggersRecompute(t *testing.T) {
	fx := newFixture()
	svc, _ := newUploadService(t, fx, 10)
	ctx := context.Background()
	fx.addUpload(t, "u1", "第1期", row("威塔课程", str("抖音"), 1, 1, 1))

	if err := svc.DeleteUpload(ctx, "u1"); err != nil {
		t.Fatalf("DeleteUpload: %v", err)
	}
	if rows, _ := fx.store.ListRows(ctx); len(rows) != 0 {
		t.Fatalf("rows=%d, want 0", len(rows))
	}
	if fx.trigger.count() != 1 {
		t.Fatalf("triggers=%d, want 1", fx.trigger.count())
	}
	if err := svc.DeleteUpload(ctx, "u1"); !errors.Is(err, service.ErrUploadNotFound) {
		t.Fatalf("err=%v, want ErrUploadNotFound", err)
	}
}
