package database

import (
	"log"

	"crm-integrator/internal/models"
)

// RecordSubmission пишет запись в журнал заявок. Ошибка записи никогда не
// влияет на ответ клиенту — только лог.
func RecordSubmission(rec *models.Submission) {
	if DB == nil {
		return
	}
	if err := DB.Create(rec).Error; err != nil {
		log.Printf("failed to record submission %s: %v", rec.PublicID, err)
	}
}

// ListSubmissions — журнал заявок, свежие первыми.
func ListSubmissions(limit, offset int) ([]models.Submission, int64, error) {
	var total int64
	if err := DB.Model(&models.Submission{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Submission
	err := DB.Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, total, err
}

// GetSubmission — одна запись по публичному id.
func GetSubmission(publicID string) (*models.Submission, error) {
	var rec models.Submission
	if err := DB.Where("public_id = ?", publicID).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}
