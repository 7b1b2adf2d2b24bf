package service_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"ScriptStats/internal/service"
)

// blockingRecomputer 第一次调用阻塞到 release 关闭
type blockingRecomputer struct {
	calls   int32
	started chan struct{}
	release chan struct{}
}

func (b *blockingRecomputer) RecomputeAll(ctx context.Context) (*service.RecomputeResult, error) {
	if atomic.AddInt32(&b.calls, 1) == 1 {
		close(b.started)
		<-b.release
	}
	return &service.RecomputeResult{}, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDispatcherCoalescesPendingTriggers(t *testing.T) {
	rec := &blockingRecomputer{started: make(chan struct{}), release: make(chan struct{})}
	d := service.NewDispatcher(rec, quietLogger(), 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)
	defer d.Stop()

	d.Trigger("first")
	<-rec.started
	for i := 0; i < 5; i++ {
		d.Trigger("burst")
	}
	close(rec.release)

	waitFor(t, func() bool { return atomic.LoadInt32(&rec.calls) == 2 })
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&rec.calls); got != 2 {
		t.Fatalf("calls=%d, want 2", got)
	}
}

func TestDispatcherOutlivesCancelledContext(t *testing.T) {
	var calls int32
	rec := recomputerFunc(func(ctx context.Context) (*service.RecomputeResult, error) {
		if ctx.Err() != nil {
			t.Errorf("recompute ran with cancelled ctx: %v", ctx.Err())
		}
		atomic.AddInt32(&calls, 1)
		return &service.RecomputeResult{}, nil
	})
	d := service.NewDispatcher(rec, quietLogger(), 1)
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	defer d.Stop()

	d.Trigger("before")
	waitFor(t, func() bool { return atomic.LoadInt32(&calls) == 1 })

	// 进程收到退出信号后，HTTP 服务仍在排空请求，此时的变更必须继续触发重算
	cancel()
	d.Trigger("after cancel")
	waitFor(t, func() bool { return atomic.LoadInt32(&calls) == 2 })
}

func TestDispatcherStopRunsPendingTrigger(t *testing.T) {
	rec := &blockingRecomputer{started: make(chan struct{}), release: make(chan struct{})}
	d := service.NewDispatcher(rec, quietLogger(), 1)
	d.Start(context.Background())

	d.Trigger("first")
	<-rec.started
	d.Trigger("pending")

	stopped := make(chan struct{})
	go func() {
		d.Stop()
		close(stopped)
	}()
	close(rec.release)
	<-stopped
	if got := atomic.LoadInt32(&rec.calls); got != 2 {
		t.Fatalf("calls=%d, want 2", got)
	}
}

func TestDispatcherIgnoresTriggersAfterStop(t *testing.T) {
	var calls int32
	rec := recomputerFunc(func(context.Context) (*service.RecomputeResult, error) {
		atomic.AddInt32(&calls, 1)
		return &service.RecomputeResult{}, nil
	})
	d := service.NewDispatcher(rec, quietLogger(), 1)
	d.Start(context.Background())
	d.Stop()

	d.Trigger("late")
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Fatalf("calls=%d, want 0", got)
	}
}

type panickingRecomputer struct{}

func (panickingRecomputer) RecomputeAll(context.Context) (*service.RecomputeResult, error) {
	panic("boom")
}

func TestDispatcherRunNowRecoversPanic(t *testing.T) {
	d := service.NewDispatcher(panickingRecomputer{}, quietLogger(), 1)
	if _, err := d.RunNow(context.Background()); err == nil {
		t.Fatalf("RunNow err=nil, want panic converted to error")
	}
}

func TestDispatcherBackgroundFailureDoesNotStopWorker(t *testing.T) {
	var calls int32
	rec := recomputerFunc(func(context.Context) (*service.RecomputeResult, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			panic("first pass fails")
		}
		return &service.RecomputeResult{}, nil
	})
	d := service.NewDispatcher(rec, quietLogger(), 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)
	defer d.Stop()

	d.Trigger("a")
	waitFor(t, func() bool { return atomic.LoadInt32(&calls) == 1 })
	d.Trigger("b")
	waitFor(t, func() bool { return atomic.LoadInt32(&calls) == 2 })
}

type recomputerFunc func(context.Context) (*service.RecomputeResult, error)

func (f recomputerFunc) RecomputeAll(ctx context.Context) (*service.RecomputeResult, error) {
	return f(ctx)
}

func TestDispatcherRunNowUsesPipeline(t *testing.T) {
	fx := newFixture()
	fx.addScript(t, "s1", "威塔课程", nil)
	fx.addUpload(t, "u1", "第1期", row("威塔课程", str("抖音"), 100, 2, 50))

	d := service.NewDispatcher(fx.pipeline, fx.logger, 0)
	res, err := d.RunNow(context.Background())
	if err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if res.MatchedScripts != 1 {
		t.Fatalf("matched=%d, want 1", res.MatchedScripts)
	}
}
