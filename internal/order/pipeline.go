package order

import (
	"context"
	"fmt"
	"log"
	"strings"

	"crm-integrator/internal/crm"
)

// DealNotification — данные для письма-уведомления по одной сделке.
type DealNotification struct {
	Product      string
	DealID       int64
	Plate        string
	CustomerName string
	Email        string
	Phone        string
	PageURL      string
}

// Notifier — best-effort рассылка; ошибки логируются и никогда не влияют
// на ответ клиенту.
type Notifier interface {
	DealCreated(n DealNotification) error
}

// Result — агрегированный итог обработки заявки.
type Result struct {
	OK             bool
	ContactID      int64
	CompanyID      int64
	Deals          []int64
	FailedVehicles []int
	Message        string
}

// Pipeline — оркестратор заявки: валидация, нормализация, контакт,
// компания, по сделке на каждое авто, уведомления.
type Pipeline struct {
	resolver *crm.Resolver
	fanout   *crm.FanOut
	notifier Notifier // nil — рассылка выключена
}

func NewPipeline(resolver *crm.Resolver, fanout *crm.FanOut, notifier Notifier) *Pipeline {
	return &Pipeline{resolver: resolver, fanout: fanout, notifier: notifier}
}

// Process прогоняет заявку по всем шагам. Контакт разрешается раньше
// компании: ветка физлица перепривязывает уже найденный контакт к
// "розничной" компании. Вызовы к CRM идут на фоновом контексте: обрыв
// клиента не должен прерывать запись сделки на полпути.
func (p *Pipeline) Process(ctx context.Context, f *Form) (*Result, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	f.Normalize()

	contactID, err := p.resolver.ResolveContact(ctx, f.person())
	if err != nil {
		return nil, &ResolutionError{Stage: "contact", Err: err}
	}

	companyID, err := p.resolver.ResolveCompany(ctx, f.IsCompany, crm.Company{
		TaxID: f.CompanyTaxID,
		Title: f.CompanyTitle,
		Email: f.CompanyEmail,
	}, contactID)
	if err != nil {
		return nil, &ResolutionError{Stage: "company", Err: err}
	}

	results := p.fanout.CreateDeals(ctx, f.Product, contactID, companyID, f.Vehicles, f.comment())

	res := &Result{
		OK:        true,
		ContactID: contactID,
		CompanyID: companyID,
	}
	for _, r := range results {
		if r.Err != nil {
			res.FailedVehicles = append(res.FailedVehicles, r.Index)
			continue
		}
		res.Deals = append(res.Deals, r.DealID)
	}

	switch {
	case len(res.FailedVehicles) == 0:
		res.Message = "Заявка принята"
	default:
		res.Message = fmt.Sprintf("Заявка принята частично: оформлено %d из %d транспортных средств",
			len(res.Deals), len(f.Vehicles))
	}

	p.notify(f, results)

	return res, nil
}

// notify отправляет по письму на каждую созданную сделку; исход заявки к
// этому моменту уже определён, поэтому в фоне и без возврата ошибок.
func (p *Pipeline) notify(f *Form, results []crm.DealResult) {
	if p.notifier == nil {
		return
	}
	plates := map[int]string{}
	for _, v := range f.Vehicles {
		plates[v.Index] = v.Plate
	}
	go func() {
		for _, r := range results {
			if r.Err != nil {
				continue
			}
			n := DealNotification{
				Product:      f.Product.Code,
				DealID:       r.DealID,
				Plate:        plates[r.Index],
				CustomerName: strings.TrimSpace(f.LastName + " " + f.FirstName),
				Email:        f.Email,
				Phone:        f.Phone,
				PageURL:      f.PageURL,
			}
			if err := p.notifier.DealCreated(n); err != nil {
				log.Printf("order: notification for deal %d failed: %v", r.DealID, err)
			}
		}
	}()
}

func (f *Form) person() crm.Person {
	return crm.Person{
		FirstName:          f.FirstName,
		LastName:           f.LastName,
		MiddleName:         f.MiddleName,
		Email:              f.Email,
		Phone:              f.Phone,
		IIN:                f.IIN,
		BirthDate:          f.BirthDate,
		Country:            f.Country,
		Address:            f.Address,
		Gender:             f.Gender,
		PassportNumber:     f.PassportNumber,
		PassportIssuer:     f.PassportIssuer,
		PassportIssueDate:  f.PassportIssueDate,
		PassportExpiryDate: f.PassportExpiryDate,
		IsCompany:          f.IsCompany,
	}
}

// comment — общий блок комментария сделки: страница, метки, сводка по
// заявителю.
func (f *Form) comment() string {
	var b strings.Builder
	if f.PageURL != "" {
		fmt.Fprintf(&b, "Страница: %s\n", f.PageURL)
	}
	if f.UTM != "" {
		fmt.Fprintf(&b, "Метки: %s\n", f.UTM)
	}
	fmt.Fprintf(&b, "Заявитель: %s %s", f.LastName, f.FirstName)
	if f.Phone != "" {
		fmt.Fprintf(&b, ", %s", f.Phone)
	}
	fmt.Fprintf(&b, ", %s\n", f.Email)
	if f.IsCompany {
		fmt.Fprintf(&b, "Договор на юрлицо: %s (БИН/ИИН %s)\n", f.CompanyTitle, f.CompanyTaxID)
	} else {
		b.WriteString("Договор на физлицо\n")
	}
	return b.String()
}
