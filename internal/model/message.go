package model

import "time"

type Message struct {
	ID          string    `json:"_id,omitempty"`
	Msg         string    `json:"msg"`
	MsgFrom     string    `json:"msgFrom"`
	MsgDateTime time.Time `json:"msgDateTime"`
}
