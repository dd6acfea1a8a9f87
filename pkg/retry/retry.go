package retry

import (
	"context"
	"fmt"
	"time"
)

// 指数退避重试策略。Indexer 客户端和事件发布器共用。

// Policy 描述一次可重试操作的参数
type Policy struct {
	MaxAttempts int           // 最大尝试次数（含第一次）
	BaseDelay   time.Duration // 第一次重试前的等待
	Multiplier  float64       // 每次重试等待的放大倍数
	MaxDelay    time.Duration // 等待上限，0 表示不设上限

	// Sleep 可注入，测试时替换为记录调用的假实现
	Sleep func(ctx context.Context, d time.Duration) error
}

// Delay 返回第 attempt 次失败后的等待时间，attempt 从 0 开始
func (p Policy) Delay(attempt int) time.Duration {
	d := time.Duration(float64(p.BaseDelay) * pow(p.Multiplier, attempt))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

func pow(base float64, n int) float64 {
	if base <= 0 {
		base = 2
	}
	out := 1.0
	for i := 0; i < n; i++ {
		out *= base
	}
	return out
}

// Permanent 包装一个不应重试的错误
type Permanent struct {
	Err error
}

func (p Permanent) Error() string { return p.Err.Error() }
func (p Permanent) Unwrap() error { return p.Err }

// Do 执行 fn，失败则按策略退避重试。fn 返回 Permanent 包装的错误时立即放弃。
func (p Policy) Do(ctx context.Context, fn func() error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := fn()
		if err == nil {
			return nil
		}
		if perm, ok := err.(Permanent); ok {
			return perm.Err
		}
		lastErr = err

		if attempt == p.MaxAttempts-1 {
			break
		}
		if err := sleep(ctx, p.Delay(attempt)); err != nil {
			return err
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
