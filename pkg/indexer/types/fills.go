package types

// 用户已成交的订单。价格/数量/费用等字段由 API 以十进制字符串下发，
// 入库前必须按定点小数解析，禁止转成二进制浮点参与累加。
type FillRecord struct {
	Coin          string `json:"coin"`
	Px            string `json:"px"`
	Sz            string `json:"sz"`
	Side          string `json:"side"` // "B" 买 / "A" 卖
	Dir           string `json:"dir"`  // e.g. "Open Long", "Close Short"
	Time          int64  `json:"time"` // 毫秒时间戳
	StartPosition string `json:"startPosition"`
	ClosedPnl     string `json:"closedPnl"`
	Hash          string `json:"hash"`
	Oid           int64  `json:"oid"`
	Tid           int64  `json:"tid"` // 全局唯一成交ID，幂等键的一半
	Fee           string `json:"fee"`
	FeeToken      string `json:"feeToken"`
	Crossed       bool   `json:"crossed"`
}

// FillsPage 一页成交数据，按时间升序
type FillsPage struct {
	Fills   []*FillRecord
	HasMore bool  // 是否还有更早/更多的数据
	Cursor  int64 // 下一页的起始毫秒时间戳
}
