package rest

import (
	"errors"
	"fmt"
)

// ErrNoData 表示远端没有该主体的数据，属于正常情况，调用方自行决定跳过
var ErrNoData = errors.New("indexer: no data")

// APIError 区分可重试与不可重试的远端失败。
// Retryable=false 的错误（如地址非法、400类）不应再次请求。
type APIError struct {
	Status    int
	Body      string
	Retryable bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("indexer: http %d: %s", e.Status, e.Body)
}

// IsRetryable 判断一个错误是否值得重试
func IsRetryable(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Retryable
	}
	// 网络层错误默认可重试
	return !errors.Is(err, ErrNoData)
}
