package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"perpwatch/conf"
	"perpwatch/pkg/indexer/types"
	"perpwatch/pkg/retry"
)

// IndexerClient 是 indexer API 的类型化封装。无状态；
// 所有调用共享一个限速器，保证对远端配额的总量遵守。
type IndexerClient struct {
	url            string
	leaderboardURL string
	httpClient     *http.Client
	limiter        *rate.Limiter
	policy         retry.Policy
	pageLimit      int
}

func NewIndexerClient(cfg conf.IndexerConfig) (*IndexerClient, error) {
	urls := []string{cfg.BaseURL, cfg.LeaderboardURL}
	parsedUrls := make([]string, len(urls))

	for i, inputUrl := range urls {
		parsedUrl, err := url.Parse(inputUrl)
		if err != nil || parsedUrl.Scheme == "" || parsedUrl.Host == "" {
			return nil, fmt.Errorf("invalid URL: %s", inputUrl)
		}
		if len(parsedUrl.Path) > 0 && parsedUrl.Path[len(parsedUrl.Path)-1:] == "/" {
			parsedUrl.Path = parsedUrl.Path[:len(parsedUrl.Path)-1]
		}
		parsedUrls[i] = parsedUrl.String()
	}

	minInterval := cfg.MinInterval
	if minInterval <= 0 {
		minInterval = 200 * time.Millisecond
	}
	pageLimit := cfg.PageLimit
	if pageLimit <= 0 {
		pageLimit = 2000
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}
	baseDelay := cfg.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}

	return &IndexerClient{
		url:            parsedUrls[0],
		leaderboardURL: parsedUrls[1],
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		limiter:        rate.NewLimiter(rate.Every(minInterval), 1),
		policy: retry.Policy{
			MaxAttempts: maxRetries,
			BaseDelay:   baseDelay,
			Multiplier:  2,
		},
		pageLimit: pageLimit,
	}, nil
}

// doRequest 发送 POST /info 请求并在 429/网络错误时按策略退避重试。
// 非 429 的 4xx 视为永久失败，立即放弃。
func (c *IndexerClient) doRequest(ctx context.Context, requestType string, additionalParams map[string]interface{}, result interface{}) error {
	reqBody := map[string]interface{}{"type": requestType}
	for key, value := range additionalParams {
		reqBody[key] = value
	}
	reqBodyJSON, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	return c.policy.Do(ctx, func() error {
		// 限速闸门：所有 worker 共享
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.Permanent{Err: err}
		}

		// 每次重试重建请求体，bytes.NewBuffer 读完后不可复用
		req, err := http.NewRequestWithContext(ctx, "POST", c.url+"/info", bytes.NewBuffer(reqBodyJSON))
		if err != nil {
			return retry.Permanent{Err: fmt.Errorf("failed to create new request: %w", err)}
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to execute request (network error): %w", err)
		}
		defer resp.Body.Close()

		byteData, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.Unmarshal(byteData, result); err != nil {
				return retry.Permanent{Err: fmt.Errorf("failed to unmarshal response: %w", err)}
			}
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return &APIError{Status: resp.StatusCode, Body: trim(byteData), Retryable: true}
		default:
			return retry.Permanent{Err: &APIError{Status: resp.StatusCode, Body: trim(byteData), Retryable: false}}
		}
	})
}

func trim(b []byte) string {
	const max = 200
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}

// UserFillsPage 拉取 [startTime, endTime) 内的一页成交，按时间升序返回。
// 返回数量达到单页上限说明被截断，HasMore=true，Cursor 为下一页起点。
func (c *IndexerClient) UserFillsPage(ctx context.Context, userAddress string, startTime, endTime int64) (*types.FillsPage, error) {
	if startTime >= endTime {
		return &types.FillsPage{Cursor: startTime}, nil
	}

	params := map[string]interface{}{
		"user":      userAddress,
		"startTime": startTime,
		"endTime":   endTime,
	}

	var fills []*types.FillRecord
	if err := c.doRequest(ctx, "userFillsByTime", params, &fills); err != nil {
		return nil, err
	}

	sortFills(fills)

	page := &types.FillsPage{Fills: fills}
	if len(fills) >= c.pageLimit {
		// 截断：下一页从本页最新成交之后继续，边界加一毫秒避免死循环
		page.HasMore = true
		page.Cursor = fills[len(fills)-1].Time + 1
	} else {
		page.Cursor = endTime
	}
	return page, nil
}

// sortFills 按时间升序，同一毫秒内按 Tid 保证稳定
func sortFills(fills []*types.FillRecord) {
	sort.Slice(fills, func(i, j int) bool {
		if fills[i].Time == fills[j].Time {
			return fills[i].Tid < fills[j].Tid
		}
		return fills[i].Time < fills[j].Time
	})
}

// Leaderboard 拉取全量排行榜，429/网络错误与 POST 路径走同一套退避重试
func (c *IndexerClient) Leaderboard(ctx context.Context) ([]types.TraderPerformance, error) {
	var rawResponse types.RawLeaderboardResponse
	err := c.policy.Do(ctx, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.Permanent{Err: err}
		}

		req, err := http.NewRequestWithContext(ctx, "GET", c.leaderboardURL, nil)
		if err != nil {
			return retry.Permanent{Err: err}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to execute request (network error): %w", err)
		}
		defer resp.Body.Close()

		byteData, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.Unmarshal(byteData, &rawResponse); err != nil {
				return retry.Permanent{Err: fmt.Errorf("failed to unmarshal response: %w", err)}
			}
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return &APIError{Status: resp.StatusCode, Body: trim(byteData), Retryable: true}
		default:
			return retry.Permanent{Err: &APIError{Status: resp.StatusCode, Body: trim(byteData), Retryable: false}}
		}
	})
	if err != nil {
		return nil, err
	}
	if len(rawResponse.LeaderboardRows) == 0 {
		return nil, ErrNoData
	}

	performances := make([]types.TraderPerformance, 0, len(rawResponse.LeaderboardRows))
	for _, item := range rawResponse.LeaderboardRows {
		tp := types.TraderPerformance{
			EthAddress:   item.EthAddress,
			DisplayName:  item.DisplayName,
			AccountValue: parseStringToFloat(item.AccountValue),
		}
		// windowPerformances 固定为 [day, week, month, allTime] 四组
		periods := []*types.PeriodPerformance{&tp.Day, &tp.Week, &tp.Month, &tp.AllTime}
		for i, dst := range periods {
			if i >= len(item.WindowPerformances) || len(item.WindowPerformances[i]) < 2 {
				continue
			}
			m, ok := item.WindowPerformances[i][1].(map[string]interface{})
			if !ok {
				continue
			}
			dst.Pnl = parseAnyToFloat(m["pnl"])
			dst.Roi = parseAnyToFloat(m["roi"])
			dst.Vlm = parseAnyToFloat(m["vlm"])
		}
		performances = append(performances, tp)
	}
	return performances, nil
}

// PortfolioHistory 拉取账户资产/盈亏历史（type: "portfolio"）。
// 数值保持字符串形式，由调用方按定点小数处理。
func (c *IndexerClient) PortfolioHistory(ctx context.Context, userAddress string) (*types.PortfolioHistory, error) {
	var raw [][]json.RawMessage
	params := map[string]interface{}{"user": userAddress}
	if err := c.doRequest(ctx, "portfolio", params, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrNoData
	}

	result := &types.PortfolioHistory{}
	for _, entry := range raw {
		if len(entry) != 2 {
			continue
		}

		var period string
		if err := json.Unmarshal(entry[0], &period); err != nil {
			continue
		}

		var detail struct {
			AccountValueHistory [][]interface{} `json:"accountValueHistory"`
			PnlHistory          [][]interface{} `json:"pnlHistory"`
			Vlm                 string          `json:"vlm"`
		}
		if err := json.Unmarshal(entry[1], &detail); err != nil {
			continue
		}

		pd := types.PeriodData{Vlm: detail.Vlm}
		pd.AccountValue = parseHistory(detail.AccountValueHistory)
		pd.Pnl = parseHistory(detail.PnlHistory)

		switch period {
		case "day":
			result.Day = pd
		case "week":
			result.Week = pd
		case "month":
			result.Month = pd
		case "allTime":
			result.AllTime = pd
		}
	}
	return result, nil
}

func parseHistory(rows [][]interface{}) []types.DataPoint {
	var points []types.DataPoint
	for _, arr := range rows {
		if len(arr) != 2 {
			continue
		}
		ts, ok := toInt64(arr[0])
		if !ok {
			continue
		}
		val, ok := toString(arr[1])
		if !ok {
			continue
		}
		points = append(points, types.DataPoint{Time: time.UnixMilli(ts), Value: val})
	}
	return points
}
