package chat

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"tuckertrips/internal/domain"
)

// MessageModel is the GORM mapping for a stored message. Seq is the
// database-assigned monotonic sequence shared by all conversations.
type MessageModel struct {
	Seq         int64     `gorm:"primaryKey;autoIncrement"`
	ID          string    `gorm:"uniqueIndex;not null"`
	SenderID    string    `gorm:"not null;index"`
	RecipientID string    `gorm:"not null;index"`
	Content     string    `gorm:"not null"`
	Read        bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null;index"`
}

// GormStore implements Store on Postgres via GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore runs migrations and returns the store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&MessageModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate messages: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Append inserts the message; the database assigns the sequence.
func (s *GormStore) Append(msg domain.Message) (domain.Message, error) {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	model := MessageModel{
		ID:          msg.ID,
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		Content:     msg.Content,
		Read:        msg.Read,
		CreatedAt:   msg.CreatedAt,
	}
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Message{}, err
	}
	msg.Seq = model.Seq
	return msg, nil
}

// UnreadCounts tallies unread messages addressed to the user, keyed by sender.
func (s *GormStore) UnreadCounts(userID string) (map[string]int, error) {
	var rows []struct {
		SenderID string
		Count    int
	}
	err := s.db.Model(&MessageModel{}).
		Select("sender_id, COUNT(*) as count").
		Where("recipient_id = ? AND read = ?", userID, false).
		Group("sender_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.SenderID] = row.Count
	}
	return counts, nil
}

// Conversation selects both directions of the pair in chronological order
// and flips the caller's unread messages inside one transaction.
func (s *GormStore) Conversation(callerID, otherID string) ([]domain.Message, error) {
	var models []MessageModel
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
				callerID, otherID, otherID, callerID).
			Order("created_at ASC, seq ASC").
			Find(&models).Error; err != nil {
			return err
		}
		return tx.Model(&MessageModel{}).
			Where("sender_id = ? AND recipient_id = ? AND read = ?", otherID, callerID, false).
			Update("read", true).Error
	})
	if err != nil {
		return nil, err
	}
	res := make([]domain.Message, 0, len(models))
	for _, m := range models {
		res = append(res, domain.Message{
			ID:          m.ID,
			SenderID:    m.SenderID,
			RecipientID: m.RecipientID,
			Content:     m.Content,
			Read:        m.Read,
			CreatedAt:   m.CreatedAt,
			Seq:         m.Seq,
		})
	}
	return res, nil
}
