package events

import (
	"sync"

	"github.com/google/uuid"
)

type Type string

const (
	TypeCreate Type = "create"
	TypeUpdate Type = "update"
	TypeDelete Type = "delete"
)

// 注文変更イベント。createとupdateはorder全体、deleteはidだけを載せる。
type OrderEvent struct {
	Type  Type        `json:"type"`
	Order interface{} `json:"order,omitempty"`
	ID    string      `json:"id,omitempty"`
}

// usecaseが依存するのはこれだけ。グローバル変数は持たない。
type Bus interface {
	Publish(ev OrderEvent)
}

// プロセス内のファンアウト。永続化もリプレイもしない。
// 配信はリスナーごとにat-most-once。遅いリスナーはイベントを落とす。
type Hub struct {
	mu   sync.Mutex
	subs map[string]chan OrderEvent
}

func NewHub() *Hub {
	return &Hub{subs: map[string]chan OrderEvent{}}
}

// 全リスナーへ送る。リスナーがいなければ何もしない。
// バッファが埋まっているリスナーへはブロックせず捨てる。
func (h *Hub) Publish(ev OrderEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// 購読を開始する。返ってきたcancelで必ず解除すること。
func (h *Hub) Subscribe() (<-chan OrderEvent, func()) {
	id := uuid.NewString()
	ch := make(chan OrderEvent, 16)

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// 現在の購読数
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
