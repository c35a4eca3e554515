package crm

import (
	"context"
	"errors"

	"crm-integrator/internal/bitrix"
)

// Person — нормализованные поля контакта из формы.
type Person struct {
	FirstName  string
	LastName   string
	MiddleName string
	Email      string
	Phone      string

	// только для физлиц
	IIN                string
	BirthDate          string // ISO
	Country            string
	Address            string
	Gender             string // код списочного значения портала
	PassportNumber     string
	PassportIssuer     string
	PassportIssueDate  string // ISO
	PassportExpiryDate string // ISO

	IsCompany bool
}

// Company — поля юрлица из формы.
type Company struct {
	TaxID string // БИН/ИИН, ключ дедупликации
	Title string
	Email string
}

// Resolver реализует find-or-create для контактов и компаний.
// Гонка двух одновременных заявок с одним и тем же новым e-mail/БИН
// сознательно не закрыта: у портала нет уникальных ограничений на создание.
type Resolver struct {
	crm             bitrix.Caller
	retailCompanyID int64
}

func NewResolver(c bitrix.Caller, retailCompanyID int64) *Resolver {
	return &Resolver{crm: c, retailCompanyID: retailCompanyID}
}

// ResolveContact ищет контакт по точному совпадению e-mail, при отсутствии
// создаёт. Для найденного контакта физлица досылается разреженный патч:
// только непустые поля, ничего не затирается.
func (r *Resolver) ResolveContact(ctx context.Context, p Person) (int64, error) {
	raw, err := r.crm.Call(ctx, "contact.list", map[string]any{
		"filter": map[string]any{fieldEmail: p.Email},
		"select": []string{"ID"},
	})
	if err != nil {
		return 0, err
	}

	ids, err := parseIDList(raw)
	if err != nil {
		return 0, err
	}

	if len(ids) > 0 {
		id := ids[0]
		if !p.IsCompany {
			patch := personPatch(p)
			if len(patch) > 0 {
				if _, err := r.crm.Call(ctx, "contact.update", map[string]any{
					"id":     id,
					"fields": patch,
				}); err != nil {
					return 0, err
				}
			}
		}
		return id, nil
	}

	raw, err = r.crm.Call(ctx, "contact.add", map[string]any{
		"fields": personFields(p),
	})
	if err != nil {
		return 0, err
	}
	return parseID(raw)
}

// ResolveCompany: для физлица — фиксированная "розничная" компания и
// перепривязка контакта к ней; для юрлица — поиск по БИН, создание при
// отсутствии. Пустой БИН отсекается ещё в пайплайне, здесь только страховка.
func (r *Resolver) ResolveCompany(ctx context.Context, isCompany bool, co Company, contactID int64) (int64, error) {
	if !isCompany {
		if _, err := r.crm.Call(ctx, "contact.update", map[string]any{
			"id":     contactID,
			"fields": map[string]any{fieldCompanyID: r.retailCompanyID},
		}); err != nil {
			return 0, err
		}
		return r.retailCompanyID, nil
	}

	if co.TaxID == "" {
		return 0, errors.New("crm: empty tax id for company submission")
	}

	raw, err := r.crm.Call(ctx, "company.list", map[string]any{
		"filter": map[string]any{ufCompanyBIN: co.TaxID},
		"select": []string{"ID"},
	})
	if err != nil {
		return 0, err
	}

	ids, err := parseIDList(raw)
	if err != nil {
		return 0, err
	}
	if len(ids) > 0 {
		return ids[0], nil
	}

	fields := map[string]any{
		fieldTitle:   co.Title,
		ufCompanyBIN: co.TaxID,
	}
	if co.Email != "" {
		fields[fieldEmail] = multifield(co.Email)
	}

	raw, err = r.crm.Call(ctx, "company.add", map[string]any{"fields": fields})
	if err != nil {
		return 0, err
	}
	return parseID(raw)
}

// personFields — полный набор полей для contact.add.
func personFields(p Person) map[string]any {
	fields := map[string]any{
		fieldName:     p.FirstName,
		fieldLastName: p.LastName,
		fieldEmail:    multifield(p.Email),
	}
	if p.Phone != "" {
		fields[fieldPhone] = multifield(p.Phone)
	}
	for key, value := range personExtra(p) {
		fields[key] = value
	}
	return fields
}

// personPatch — разреженный патч для contact.update: только непустые поля.
func personPatch(p Person) map[string]any {
	patch := map[string]any{}
	if p.FirstName != "" {
		patch[fieldName] = p.FirstName
	}
	if p.LastName != "" {
		patch[fieldLastName] = p.LastName
	}
	if p.Phone != "" {
		patch[fieldPhone] = multifield(p.Phone)
	}
	for key, value := range personExtra(p) {
		patch[key] = value
	}
	return patch
}

func personExtra(p Person) map[string]any {
	extra := map[string]any{}
	if p.MiddleName != "" {
		extra[fieldSecondName] = p.MiddleName
	}
	if p.BirthDate != "" {
		extra[fieldBirthdate] = p.BirthDate
	}
	if p.Address != "" {
		extra[fieldAddress] = p.Address
	}
	if p.IIN != "" {
		extra[ufContactIIN] = p.IIN
	}
	if p.Country != "" {
		extra[ufContactCountry] = p.Country
	}
	if p.Gender != "" {
		extra[ufContactGender] = p.Gender
	}
	if p.PassportNumber != "" {
		extra[ufContactPassportNumber] = p.PassportNumber
	}
	if p.PassportIssuer != "" {
		extra[ufContactPassportIssuer] = p.PassportIssuer
	}
	if p.PassportIssueDate != "" {
		extra[ufContactPassportIssue] = p.PassportIssueDate
	}
	if p.PassportExpiryDate != "" {
		extra[ufContactPassportExpiry] = p.PassportExpiryDate
	}
	return extra
}
