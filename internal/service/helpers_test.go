package service_test

import (
	"context"
	"io"
	"sync"
	"testing"

	"ScriptStats/internal/model"
	"ScriptStats/internal/repository"
	"ScriptStats/internal/service"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func f(v float64) *float64 { return &v }
func str(v string) *string { return &v }

// recordingTrigger 记录触发原因，不执行重算
type recordingTrigger struct {
	mu      sync.Mutex
	reasons []string
}

func (r *recordingTrigger) Trigger(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
}

func (r *recordingTrigger) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reasons)
}

type fixture struct {
	store    *repository.MemoryStore
	pipeline *service.Pipeline
	trigger  *recordingTrigger
	logger   *logrus.Logger
}

func newFixture() *fixture {
	store := repository.NewMemoryStore()
	logger := quietLogger()
	return &fixture{
		store:    store,
		pipeline: service.NewPipeline(store, store, store, store, logger),
		trigger:  &recordingTrigger{},
		logger:   logger,
	}
}

func (fx *fixture) addScript(t *testing.T, id, name string, parentID *string) {
	t.Helper()
	if err := fx.store.CreateScript(context.Background(), &model.Script{ID: id, Name: name, ParentID: parentID}); err != nil {
		t.Fatalf("CreateScript(%s): %v", name, err)
	}
}

func (fx *fixture) addUpload(t *testing.T, id, period string, rows ...*model.SpendRow) {
	t.Helper()
	ctx := context.Background()
	if err := fx.store.CreateUpload(ctx, &model.ExcelUpload{ID: id, Period: period}, &model.UploadTask{ID: "task-" + id}); err != nil {
		t.Fatalf("CreateUpload(%s): %v", id, err)
	}
	for i, r := range rows {
		r.UploadID = id
		r.RowIndex = i + 1
	}
	if err := fx.store.InsertRows(ctx, rows); err != nil {
		t.Fatalf("InsertRows(%s): %v", id, err)
	}
}

func (fx *fixture) recompute(t *testing.T) *service.RecomputeResult {
	t.Helper()
	res, err := fx.pipeline.RecomputeAll(context.Background())
	if err != nil {
		t.Fatalf("RecomputeAll: %v", err)
	}
	return res
}

func row(name string, channel *string, cost, customers, revenue float64) *model.SpendRow {
	return &model.SpendRow{
		MaterialName: name,
		Channel:      channel,
		RowMetrics: model.RowMetrics{
			TotalCost:         f(cost),
			Customers:         f(customers),
			HighCourseRevenue: f(revenue),
		},
	}
}
