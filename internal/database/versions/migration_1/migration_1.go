package migration_1

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Adds the admin-managed site configuration tables.

type AdminSetting struct {
	SettingKey   string `gorm:"primaryKey"`
	SettingValue string
	SettingType  string `gorm:"size:10;not null;default:string"`

	UpdatedAt time.Time
}

type SystemNotification struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Title    string `gorm:"not null"`
	Message  string
	Type     string `gorm:"size:10;not null;default:info"`
	IsActive bool   `gorm:"default:true"`

	CreatedAt time.Time
}

type Faq struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Question   string `gorm:"not null"`
	Answer     string
	Category   string `gorm:"size:50;not null;default:general"`
	OrderIndex int    `gorm:"default:0"`
	IsActive   bool   `gorm:"default:true"`

	CreatedAt time.Time
}

type PricingPlan struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name           string         `gorm:"not null"`
	Price          float64        `gorm:"not null;default:0"`
	DurationMonths int            `gorm:"default:1"`
	Features       datatypes.JSON `gorm:"type:jsonb"`
	IsActive       bool           `gorm:"default:true"`

	CreatedAt time.Time
}

func Migration(db *gorm.DB) error {
	if err := db.AutoMigrate(&AdminSetting{}, &SystemNotification{}, &Faq{}, &PricingPlan{}); err != nil {
		return fmt.Errorf("error creating site configuration tables: %w", err)
	}
	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropTable(&PricingPlan{}, &Faq{}, &SystemNotification{}, &AdminSetting{}); err != nil {
		return fmt.Errorf("error dropping site configuration tables: %w", err)
	}
	return nil
}
