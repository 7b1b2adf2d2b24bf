package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Serve 在 ln 上提供服务，ctx 取消后停止接收新连接，并在 timeout 内等待处理中的请求结束。
// 正常关闭返回 nil
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration, logger *logrus.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP服务异常退出: %w", err)
	case <-ctx.Done():
	}

	logger.Info("收到退出信号，停止接收新请求")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP服务关闭超时: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP服务异常退出: %w", err)
	}
	return nil
}
