package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Recomputer 执行一次全量重算
type Recomputer interface {
	RecomputeAll(ctx context.Context) (*RecomputeResult, error)
}

// RecomputeTrigger 变更类操作通过它异步触发重算，不等待结果
type RecomputeTrigger interface {
	Trigger(reason string)
}

// Dispatcher 后台重算调度：单 worker 串行执行，排队中的触发会被合并。
// 一次重算在开始时读取全部输入，所以排队的那一次总能看到最新数据。
type Dispatcher struct {
	pipeline Recomputer
	logger   *logrus.Logger

	queue chan string
	// running 保证同一时刻至多一次重算（后台与 RunNow 共用）
	running sync.Mutex

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDispatcher queueSize 为最多排队的触发数，小于 1 时按 1 处理
func NewDispatcher(pipeline Recomputer, logger *logrus.Logger, queueSize int) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		pipeline: pipeline,
		logger:   logger,
		queue:    make(chan string, queueSize),
		stop:     make(chan struct{}),
	}
}

// Start 启动后台 worker，只有 Stop 能让它退出。
// ctx 只提供取值，取消 ctx 不会中断重算，变更类操作的触发在 Stop 之前都会被执行
func (d *Dispatcher) Start(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-d.stop:
				// 退出前补跑排队中的那一次，停止前提交的变更不会漏算
				select {
				case reason := <-d.queue:
					d.runLogged(ctx, reason)
				default:
				}
				return
			case reason := <-d.queue:
				d.runLogged(ctx, reason)
			}
		}
	}()
}

// Stop 等待正在执行与排队中的重算结束后返回，之后的触发被忽略
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stop) })
	d.wg.Wait()
}

// Trigger 非阻塞；队列已满时本次触发与排队中的合并
func (d *Dispatcher) Trigger(reason string) {
	select {
	case <-d.stop:
		d.logger.WithField("reason", reason).Warn("重算调度已停止，忽略本次触发")
		return
	default:
	}
	select {
	case d.queue <- reason:
		d.logger.WithField("reason", reason).Debug("已提交统计重算")
	default:
		d.logger.WithField("reason", reason).Debug("已有排队中的重算，合并本次触发")
	}
}

// RunNow 同步执行一次重算，供管理员手动触发
func (d *Dispatcher) RunNow(ctx context.Context) (*RecomputeResult, error) {
	return d.run(ctx)
}

func (d *Dispatcher) run(ctx context.Context) (res *RecomputeResult, err error) {
	d.running.Lock()
	defer d.running.Unlock()
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("重算 panic: %v", r)
		}
	}()
	return d.pipeline.RecomputeAll(ctx)
}

// runLogged 后台重算失败只记录日志，不影响触发它的操作
func (d *Dispatcher) runLogged(ctx context.Context, reason string) {
	res, err := d.run(ctx)
	if err != nil {
		d.logger.WithError(err).WithField("reason", reason).Error("统计重算失败")
		return
	}
	d.logger.WithFields(logrus.Fields{
		"reason":        reason,
		"scripts":       res.Scripts,
		"matched":       res.MatchedScripts,
		"channel_stats": res.ChannelStats,
		"period_stats":  res.ChannelPeriodStats,
		"duration":      res.Duration.String(),
	}).Info("统计重算完成")
}
