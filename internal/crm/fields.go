package crm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Стандартные поля контакта/компании Битрикса.
const (
	fieldName       = "NAME"
	fieldLastName   = "LAST_NAME"
	fieldSecondName = "SECOND_NAME"
	fieldEmail      = "EMAIL"
	fieldPhone      = "PHONE"
	fieldBirthdate  = "BIRTHDATE"
	fieldAddress    = "ADDRESS"
	fieldCompanyID  = "COMPANY_ID"
	fieldTitle      = "TITLE"
)

// Пользовательские поля портала (логические имена вместо магических строк).
const (
	ufContactIIN            = "UF_CRM_CONTACT_IIN"
	ufContactCountry        = "UF_CRM_CONTACT_COUNTRY"
	ufContactGender         = "UF_CRM_CONTACT_GENDER"
	ufContactPassportNumber = "UF_CRM_CONTACT_PASSPORT_NUMBER"
	ufContactPassportIssuer = "UF_CRM_CONTACT_PASSPORT_ISSUER"
	ufContactPassportIssue  = "UF_CRM_CONTACT_PASSPORT_ISSUE_DATE"
	ufContactPassportExpiry = "UF_CRM_CONTACT_PASSPORT_EXPIRY_DATE"

	ufCompanyBIN = "UF_CRM_COMPANY_BIN"
)

// DealFieldKeys — ключи пользовательских полей сделки; у каждой продуктовой
// линейки в портале свой набор.
type DealFieldKeys struct {
	Plate        string
	TechPassport string
	VehicleType  string
	Country      string
	StartDate    string
	Period       string
	Files        string
}

// Product описывает продуктовую линейку: различия между эндпоинтами — это
// данные, а не отдельные ветки кода.
type Product struct {
	Code         string
	DealTitle    string
	RequirePhone bool
	CategoryID   int
	SourceID     string
	Deal         DealFieldKeys
}

var products = map[string]Product{
	"osago": {
		Code:         "osago",
		DealTitle:    "ОСАГО",
		RequirePhone: true,
		CategoryID:   4,
		SourceID:     "WEB_OSAGO",
		Deal: DealFieldKeys{
			Plate:        "UF_CRM_OSAGO_PLATE",
			TechPassport: "UF_CRM_OSAGO_TECH_PASSPORT",
			VehicleType:  "UF_CRM_OSAGO_VEHICLE_TYPE",
			Country:      "UF_CRM_OSAGO_COUNTRY",
			StartDate:    "UF_CRM_OSAGO_START_DATE",
			Period:       "UF_CRM_OSAGO_PERIOD",
			Files:        "UF_CRM_OSAGO_FILES",
		},
	},
	"greencard": {
		Code:         "greencard",
		DealTitle:    "Зелёная карта",
		RequirePhone: false,
		CategoryID:   6,
		SourceID:     "WEB_GREENCARD",
		Deal: DealFieldKeys{
			Plate:        "UF_CRM_GC_PLATE",
			TechPassport: "UF_CRM_GC_TECH_PASSPORT",
			VehicleType:  "UF_CRM_GC_VEHICLE_TYPE",
			Country:      "UF_CRM_GC_COUNTRY",
			StartDate:    "UF_CRM_GC_START_DATE",
			Period:       "UF_CRM_GC_PERIOD",
			Files:        "UF_CRM_GC_FILES",
		},
	},
}

func ProductByCode(code string) (Product, bool) {
	p, ok := products[code]
	return p, ok
}

// FormatDate переводит ISO-дату (YYYY-MM-DD) в формат портала DD.MM.YYYY.
// Всё, что не совпадает с шаблоном, превращается в пустую строку.
func FormatDate(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return ""
	}
	return t.Format("02.01.2006")
}

// parseID разбирает result методов *.add — портал отдаёт число,
// но местами и строку.
func parseID(raw json.RawMessage) (int64, error) {
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("crm: unexpected id in response: %s", string(raw))
}

// parseIDList разбирает result методов *.list (нужны только ID).
func parseIDList(raw json.RawMessage) ([]int64, error) {
	var rows []struct {
		ID string `json:"ID"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("crm: unexpected list response: %w", err)
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		id, err := strconv.ParseInt(row.ID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("crm: unexpected id %q in list response", row.ID)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// multifield — формат EMAIL/PHONE у контактов и компаний.
func multifield(value string) []map[string]string {
	return []map[string]string{{"VALUE": value, "VALUE_TYPE": "WORK"}}
}
