package service

import (
	"bytes"
	"html/template"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/techfix/techfix-backend/internal/domain"
	"github.com/techfix/techfix-backend/internal/util"
)

// ReceiptService renders printable HTML: sale receipts and the payment
// booklet (carnê) handed to crediário customers.
type ReceiptService struct {
	profileRepo domain.StoreProfileRepository
	planRepo    domain.InstallmentPlanRepository
	saleRepo    domain.SaleRepository
	clock       util.Clock
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(
	profileRepo domain.StoreProfileRepository,
	planRepo domain.InstallmentPlanRepository,
	saleRepo domain.SaleRepository,
	clock util.Clock,
) *ReceiptService {
	return &ReceiptService{
		profileRepo: profileRepo,
		planRepo:    planRepo,
		saleRepo:    saleRepo,
		clock:       clock,
	}
}

var templateFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return "R$ " + d.StringFixed(2) },
	"date":  func(t time.Time) string { return t.Format("02/01/2006") },
}

var bookletTemplate = template.Must(template.New("booklet").Funcs(templateFuncs).Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Carnê de Pagamento</title>
<style>
body { font-family: sans-serif; margin: 2em; }
.slip { border: 1px solid #333; padding: 1em; margin-bottom: 1em; page-break-inside: avoid; }
.slip h3 { margin: 0 0 .5em 0; }
.meta { color: #555; font-size: .9em; }
.paid { color: #2a7; font-weight: bold; }
.overdue { color: #c33; font-weight: bold; }
table { width: 100%; }
</style>
</head>
<body>
<h1>{{.CompanyName}}</h1>
<p class="meta">{{.CompanyLine}}</p>
<h2>Carnê de Pagamento — {{.Plan.ProductName}}</h2>
<p>Cliente: <strong>{{.Plan.CustomerName}}</strong><br>
{{if .Plan.CustomerAddress}}Endereço: {{.Plan.CustomerAddress}}<br>{{end}}
Valor financiado: <strong>{{money .Financed}}</strong> em {{len .Plan.Installments}} parcelas ({{.FrequencyLabel}})</p>
{{range .Slips}}
<div class="slip">
<h3>Parcela {{.Number}} de {{len $.Plan.Installments}}</h3>
<table><tr>
<td>Vencimento: <strong>{{date .DueDate}}</strong></td>
<td>Valor: <strong>{{money .Value}}</strong></td>
<td>{{if .Paid}}<span class="paid">PAGO em {{date .PaidAt}}</span>{{else if .Overdue}}<span class="overdue">EM ATRASO</span>{{else}}Em aberto{{end}}</td>
</tr></table>
</div>
{{end}}
</body>
</html>
`))

var receiptTemplate = template.Must(template.New("receipt").Funcs(templateFuncs).Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Recibo</title>
<style>
body { font-family: monospace; max-width: 28em; margin: 2em auto; }
hr { border: none; border-top: 1px dashed #333; }
table { width: 100%; }
td:last-child { text-align: right; }
</style>
</head>
<body>
<h2>{{.CompanyName}}</h2>
<p>{{.CompanyLine}}</p>
<hr>
<p>Venda #{{.Sale.ID}} — {{date .Sale.CreatedAt}}</p>
{{if .Sale.CustomerName}}<p>Cliente: {{.Sale.CustomerName}}</p>{{end}}
<table>
{{range .Sale.Items}}
<tr><td>{{.Quantity}}x {{.ProductName}}</td><td>{{money .Subtotal}}</td></tr>
{{end}}
{{if not .Sale.Discount.IsZero}}<tr><td>Desconto</td><td>-{{money .Sale.Discount}}</td></tr>{{end}}
<tr><td><strong>Total</strong></td><td><strong>{{money .Sale.Total}}</strong></td></tr>
</table>
<hr>
<p>Pagamento: {{.PaymentLabel}}</p>
</body>
</html>
`))

type bookletSlip struct {
	Number  int32
	DueDate time.Time
	Value   decimal.Decimal
	Paid    bool
	PaidAt  time.Time
	Overdue bool
}

// RenderBooklet renders the plan's payment booklet as HTML
func (s *ReceiptService) RenderBooklet(storeID int32, planID uuid.UUID) ([]byte, error) {
	plan, err := s.planRepo.GetByID(storeID, planID)
	if err != nil {
		return nil, err
	}

	profile, err := s.profile(storeID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	slips := make([]bookletSlip, 0, len(plan.Installments))
	for _, inst := range plan.Installments {
		slip := bookletSlip{
			Number:  inst.Number,
			DueDate: inst.DueDate,
			Value:   inst.Value,
			Paid:    inst.Status == domain.InstallmentPaid,
			Overdue: inst.IsOverdue(now),
		}
		if inst.PaidAt != nil {
			slip.PaidAt = *inst.PaidAt
		}
		slips = append(slips, slip)
	}

	data := map[string]interface{}{
		"CompanyName":    companyName(profile),
		"CompanyLine":    companyLine(profile),
		"Plan":           plan,
		"Financed":       plan.FinancedAmount(),
		"FrequencyLabel": frequencyLabel(plan.Frequency),
		"Slips":          slips,
	}

	var buf bytes.Buffer
	if err := bookletTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderSaleReceipt renders a sale receipt as HTML
func (s *ReceiptService) RenderSaleReceipt(storeID int32, saleID int32) ([]byte, error) {
	sale, err := s.saleRepo.GetByID(storeID, saleID)
	if err != nil {
		return nil, err
	}

	profile, err := s.profile(storeID)
	if err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"CompanyName":  companyName(profile),
		"CompanyLine":  companyLine(profile),
		"Sale":         sale,
		"PaymentLabel": paymentLabel(sale.PaymentMethod),
	}

	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ReceiptService) profile(storeID int32) (*domain.StoreProfile, error) {
	profile, err := s.profileRepo.Get(storeID)
	if err != nil {
		if err == domain.ErrNotFound {
			return &domain.StoreProfile{StoreID: storeID}, nil
		}
		return nil, err
	}
	return profile, nil
}

func companyName(p *domain.StoreProfile) string {
	if p.CompanyName != "" {
		return p.CompanyName
	}
	return "Recibo"
}

func companyLine(p *domain.StoreProfile) string {
	var parts []string
	if p.Document != nil && *p.Document != "" {
		parts = append(parts, "CNPJ "+*p.Document)
	}
	if p.Phone != nil && *p.Phone != "" {
		parts = append(parts, *p.Phone)
	}
	if p.City != nil && *p.City != "" {
		city := *p.City
		if p.State != nil && *p.State != "" {
			city += " - " + *p.State
		}
		parts = append(parts, city)
	}
	line := ""
	for i, part := range parts {
		if i > 0 {
			line += " | "
		}
		line += part
	}
	return line
}

func frequencyLabel(f domain.PlanFrequency) string {
	if f == domain.FrequencyWeekly {
		return "semanal"
	}
	return "mensal"
}

func paymentLabel(m domain.PaymentMethod) string {
	switch m {
	case domain.PaymentCash:
		return "Dinheiro"
	case domain.PaymentCard:
		return "Cartão"
	case domain.PaymentPix:
		return "Pix"
	}
	return string(m)
}
