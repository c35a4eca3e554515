package models

import "time"

type SubmissionStatus string

const (
	SubmissionRejected SubmissionStatus = "rejected" // отбита валидацией, CRM не трогали
	SubmissionFailed   SubmissionStatus = "failed"   // контакт/компания не разрешились
	SubmissionPartial  SubmissionStatus = "partial"  // часть сделок не создалась
	SubmissionOK       SubmissionStatus = "ok"
)

// Submission — локальный журнал заявок: запись остаётся даже когда CRM
// проглотила запрос.
type Submission struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	PublicID  string `gorm:"size:36;uniqueIndex;not null"`
	Product   string `gorm:"size:20;not null"`
	Email     string `gorm:"size:255"`
	IsCompany bool

	VehicleCount   int
	ContactID      int64
	CompanyID      int64
	DealIDs        string `gorm:"type:text"` // JSON-массив id созданных сделок
	FailedVehicles string `gorm:"type:text"` // JSON-массив индексов провалившихся авто

	Status SubmissionStatus `gorm:"size:20;not null"`
	Error  string           `gorm:"type:text"`

	// атрибуция
	PageURL string `gorm:"type:text"`
	UTM     string `gorm:"type:text"`
}
