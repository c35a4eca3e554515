package order

import (
	"fmt"
	"io"
	"mime/multipart"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"crm-integrator/internal/crm"
)

// vehicles[N][field] — плоская индексированная схема имён полей формы
var vehicleKeyRe = regexp.MustCompile(`^vehicles\[(\d+)\]\[([a-zA-Z]+)\]$`)

// Form — типизированная заявка, собранная из multipart-формы.
type Form struct {
	Product crm.Product

	FirstName  string
	LastName   string
	MiddleName string
	Email      string
	Phone      string

	IsCompany    bool
	CompanyTaxID string
	CompanyTitle string
	CompanyEmail string

	// поля физлица
	Gender             string
	BirthDate          string
	IIN                string
	Country            string
	Address            string
	PassportNumber     string
	PassportIssuer     string
	PassportIssueDate  string
	PassportExpiryDate string

	// атрибуция
	PageURL string
	UTM     string // непрозрачный JSON-блоб маркетинговых меток

	Vehicles []crm.Vehicle
}

// ParseForm разбирает multipart-форму: скалярные поля контакта/компании
// плюс реконструкция списка авто из vehicles[N][field] и их файлов.
func ParseForm(mf *multipart.Form) (*Form, error) {
	field := func(name string) string {
		vals := mf.Value[name]
		if len(vals) == 0 {
			return ""
		}
		return strings.TrimSpace(vals[0])
	}

	f := &Form{
		FirstName:  field("firstName"),
		LastName:   field("lastName"),
		MiddleName: field("middleName"),
		Email:      field("email"),
		Phone:      field("phone"),

		CompanyTaxID: field("companyBin"),
		CompanyTitle: field("companyTitle"),
		CompanyEmail: field("companyEmail"),

		Gender:             field("gender"),
		BirthDate:          field("birthDate"),
		IIN:                field("iin"),
		Country:            field("country"),
		Address:            field("address"),
		PassportNumber:     field("passportNumber"),
		PassportIssuer:     field("passportIssuer"),
		PassportIssueDate:  field("passportIssueDate"),
		PassportExpiryDate: field("passportExpiryDate"),

		PageURL: field("pageUrl"),
		UTM:     field("utm"),
	}

	switch field("isCompany") {
	case "true", "1", "on":
		f.IsCompany = true
	}

	byIndex := map[int]*crm.Vehicle{}
	vehicle := func(idx int) *crm.Vehicle {
		v, ok := byIndex[idx]
		if !ok {
			v = &crm.Vehicle{Index: idx}
			byIndex[idx] = v
		}
		return v
	}

	for key, vals := range mf.Value {
		m := vehicleKeyRe.FindStringSubmatch(key)
		if m == nil || len(vals) == 0 {
			continue
		}
		idx, _ := strconv.Atoi(m[1])
		value := strings.TrimSpace(vals[0])

		switch m[2] {
		case "plate":
			vehicle(idx).Plate = strings.ToUpper(value)
		case "techPassportNumber":
			vehicle(idx).TechPassportNumber = strings.ToUpper(value)
		case "type":
			vehicle(idx).Type = value
		case "country":
			vehicle(idx).Country = value
		case "startDate":
			vehicle(idx).StartDate = value
		case "period":
			vehicle(idx).Period = value
		}
	}

	for key, headers := range mf.File {
		m := vehicleKeyRe.FindStringSubmatch(key)
		if m == nil || m[2] != "techPassportFiles" {
			continue
		}
		idx, _ := strconv.Atoi(m[1])
		for _, fh := range headers {
			data, err := readFile(fh)
			if err != nil {
				return nil, fmt.Errorf("order: read file %q: %w", fh.Filename, err)
			}
			v := vehicle(idx)
			v.Files = append(v.Files, crm.Attachment{Name: fh.Filename, Data: data})
		}
	}

	indexes := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	f.Vehicles = make([]crm.Vehicle, 0, len(indexes))
	for _, idx := range indexes {
		f.Vehicles = append(f.Vehicles, *byIndex[idx])
	}

	return f, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// Validate — обязательные поля; любой провал означает, что к CRM ещё не
// было ни одного обращения.
func (f *Form) Validate() error {
	if f.FirstName == "" {
		return &ValidationError{Msg: "Не указано имя"}
	}
	if f.LastName == "" {
		return &ValidationError{Msg: "Не указана фамилия"}
	}
	if f.Email == "" {
		return &ValidationError{Msg: "Не указан e-mail"}
	}
	if f.Product.RequirePhone && f.Phone == "" {
		return &ValidationError{Msg: "Не указан телефон"}
	}
	if len(f.Vehicles) == 0 {
		return &ValidationError{Msg: "Не добавлено ни одного транспортного средства"}
	}
	if f.IsCompany && f.CompanyTaxID == "" {
		return &ValidationError{Msg: "Не указан БИН/ИИН компании"}
	}
	return nil
}
