package model

import "time"

// EventPayload 投递到事件出口的消息体。EventId 稳定，消费端按它去重。
type EventPayload struct {
	EventId    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	Address    string    `json:"address"`
	SubAccount int       `json:"sub_account"`
	Coin       string    `json:"coin"`
	Side       string    `json:"side"`
	Px         string    `json:"px"`
	Sz         string    `json:"sz"`
	Notional   string    `json:"notional"`
	OccurredAt time.Time `json:"occurred_at"`

	// 各事件类型的附加字段
	Detail map[string]string `json:"detail,omitempty"`
}
