package crm

import (
	"context"
	"encoding/base64"
	"log"

	"crm-integrator/internal/bitrix"
)

// Vehicle — одна единица транспорта из заявки.
type Vehicle struct {
	Index              int // позиция в форме, определяет порядок создания сделок
	Plate              string
	TechPassportNumber string
	Type               string
	Country            string
	StartDate          string // ISO
	Period             string
	Files              []Attachment
}

// Attachment — файл техпаспорта, привязан ровно к одному авто.
type Attachment struct {
	Name string
	Data []byte
}

// DealResult — исход по одному авто; провалы не выбрасываются, а
// возвращаются явно.
type DealResult struct {
	Index  int
	DealID int64
	Err    error
}

// FanOut создаёт по одной сделке на каждое авто, строго в порядке индексов.
// Сделки независимы: провал k-й не останавливает k+1 и не откатывает уже
// созданные (у портала нет транзакций).
type FanOut struct {
	crm bitrix.Caller
}

func NewFanOut(c bitrix.Caller) *FanOut {
	return &FanOut{crm: c}
}

func (f *FanOut) CreateDeals(ctx context.Context, product Product, contactID, companyID int64, vehicles []Vehicle, comment string) []DealResult {
	results := make([]DealResult, 0, len(vehicles))
	for _, v := range vehicles {
		id, err := f.createDeal(ctx, product, contactID, companyID, v, comment)
		if err != nil {
			log.Printf("crm: deal for vehicle %d (%s) failed: %v", v.Index, v.Plate, err)
		}
		results = append(results, DealResult{Index: v.Index, DealID: id, Err: err})
	}
	return results
}

func (f *FanOut) createDeal(ctx context.Context, product Product, contactID, companyID int64, v Vehicle, comment string) (int64, error) {
	keys := product.Deal
	fields := map[string]any{
		fieldTitle:       product.DealTitle + " " + v.Plate,
		"CONTACT_ID":     contactID,
		fieldCompanyID:   companyID,
		"CATEGORY_ID":    product.CategoryID,
		"SOURCE_ID":      product.SourceID,
		"COMMENTS":       comment,
		keys.Plate:       v.Plate,
		keys.VehicleType: v.Type,
		keys.Country:     v.Country,
		keys.StartDate:   FormatDate(v.StartDate),
		keys.Period:      v.Period,
	}
	if v.TechPassportNumber != "" {
		fields[keys.TechPassport] = v.TechPassportNumber
	}
	if len(v.Files) > 0 {
		fields[keys.Files] = encodeFiles(v.Files)
	}

	raw, err := f.crm.Call(ctx, "deal.add", map[string]any{"fields": fields})
	if err != nil {
		return 0, err
	}
	return parseID(raw)
}

// encodeFiles пакует вложения в формат файловых полей портала:
// {"fileData": [имя, base64]}.
func encodeFiles(files []Attachment) []map[string]any {
	encoded := make([]map[string]any, 0, len(files))
	for _, f := range files {
		encoded = append(encoded, map[string]any{
			"fileData": []string{f.Name, base64.StdEncoding.EncodeToString(f.Data)},
		})
	}
	return encoded
}
