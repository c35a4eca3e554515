package order

import (
	"strings"
	"time"
)

// коды списочных значений поля "пол" в портале
var genderCodes = map[string]string{
	"male":   "263",
	"female": "264",
}

// NormalizeGender переводит двузначный селектор формы в код портала;
// всё незнакомое — пустая строка.
func NormalizeGender(raw string) string {
	return genderCodes[strings.ToLower(strings.TrimSpace(raw))]
}

// ISODate возвращает дату как есть, если она соответствует YYYY-MM-DD,
// иначе пустую строку.
func ISODate(raw string) string {
	raw = strings.TrimSpace(raw)
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return ""
	}
	return raw
}

// Normalize приводит форму к виду, ожидаемому CRM: валидация дат,
// маппинг пола, верхний регистр у идентификаторов.
func (f *Form) Normalize() {
	f.Gender = NormalizeGender(f.Gender)
	f.BirthDate = ISODate(f.BirthDate)
	f.PassportIssueDate = ISODate(f.PassportIssueDate)
	f.PassportExpiryDate = ISODate(f.PassportExpiryDate)
	f.CompanyTaxID = strings.ToUpper(strings.TrimSpace(f.CompanyTaxID))
	f.IIN = strings.ToUpper(strings.TrimSpace(f.IIN))
	f.PassportNumber = strings.ToUpper(strings.TrimSpace(f.PassportNumber))
}
