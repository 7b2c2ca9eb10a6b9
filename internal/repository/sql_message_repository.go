package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"msgboard/internal/model"
)

type SQLMessageRepository struct {
	db *gorm.DB
}

func NewSQLMessageRepository(db *gorm.DB) *SQLMessageRepository {
	return &SQLMessageRepository{db: db}
}

func (r *SQLMessageRepository) Create(ctx context.Context, message *model.Message) error {
	record := messageRecord{
		ID:          uuid.NewString(),
		Msg:         message.Msg,
		MsgFrom:     message.MsgFrom,
		MsgDateTime: message.MsgDateTime,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("create message failed: %w", err)
	}
	message.ID = record.ID
	return nil
}

func (r *SQLMessageRepository) ListAll(ctx context.Context) ([]model.Message, error) {
	var records []messageRecord
	if err := r.db.WithContext(ctx).Order("msg_date_time ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	return lo.Map(records, func(record messageRecord, _ int) model.Message {
		return record.toModel()
	}), nil
}
