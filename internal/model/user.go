package model

import "time"

type User struct {
	ID           string    `gorm:"primaryKey;size:36;not null" json:"id"`
	Name         string    `gorm:"size:50;not null" json:"name"`
	Email        string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:72;not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type OtpRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Email     string    `gorm:"size:254;index;not null"`
	Code      string    `gorm:"size:6;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"index"`
}

func (r *OtpRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
