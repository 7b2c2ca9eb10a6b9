package repository

import (
	"time"

	"msgboard/internal/model"
)

type userRecord struct {
	ID         string    `gorm:"primaryKey;size:36"`
	Username   string    `gorm:"size:64;not null;uniqueIndex"`
	Password   string    `gorm:"size:255;not null"`
	DateJoined time.Time `gorm:"not null"`
}

func (userRecord) TableName() string {
	return "users"
}

func (r userRecord) toModel() model.User {
	return model.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.Password,
		DateJoined:   r.DateJoined,
	}
}

type messageRecord struct {
	ID          string    `gorm:"primaryKey;size:36"`
	Msg         string    `gorm:"type:text;not null"`
	MsgFrom     string    `gorm:"size:64;not null"`
	MsgDateTime time.Time `gorm:"not null;index"`
}

func (messageRecord) TableName() string {
	return "messages"
}

func (r messageRecord) toModel() model.Message {
	return model.Message{
		ID:          r.ID,
		Msg:         r.Msg,
		MsgFrom:     r.MsgFrom,
		MsgDateTime: r.MsgDateTime,
	}
}

// SQLModels returns the tables owned by the SQL repositories, for AutoMigrate.
func SQLModels() []any {
	return []any{&userRecord{}, &messageRecord{}}
}
