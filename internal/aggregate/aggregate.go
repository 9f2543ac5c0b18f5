// Package aggregate computes dashboard views over accounts and
// transactions already loaded in memory. Every function here is pure:
// no I/O, no mutation of its inputs, and a malformed record (bad date)
// is skipped rather than failing the whole computation.
package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zeno-ml/zeno.systems/fincore/internal/domain"
	"github.com/zeno-ml/zeno.systems/fincore/internal/transform"
)

const (
	transfersCategory   = "Transfers"
	debtPaymentCategory = "Debt Payment"
)

// recurringCategories is the fixed set of categories eligible for the
// upcoming-bill forecast.
var recurringCategories = map[string]struct{}{
	"Utilities":        {},
	"Mortgage":         {},
	"Subscriptions":    {},
	"Health & Fitness": {},
}

// forecastHorizonDays bounds how far ahead a predicted bill may fall
// before it is suppressed.
const forecastHorizonDays = 60

// Window is a bounded date range over which income and spending are
// computed. Build one with MonthToDate or TrailingDays.
type Window struct {
	start time.Time // inclusive
	end   time.Time // inclusive
}

// MonthToDate covers the first of now's calendar month through now.
func MonthToDate(now time.Time) Window {
	return Window{
		start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
		end:   now,
	}
}

// TrailingDays covers the n days ending at now.
func TrailingDays(now time.Time, n int) Window {
	return Window{start: now.AddDate(0, 0, -n), end: now}
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.start) && !t.After(w.end)
}

// Summary is windowed income and spending. Spending is reported as a
// positive magnitude.
type Summary struct {
	Income   decimal.Decimal `json:"income"`
	Spending decimal.Decimal `json:"spending"`
}

// MonthPoint is one calendar-month bucket of the income-vs-spending
// series.
type MonthPoint struct {
	Label    string          `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Spending decimal.Decimal `json:"spending"`
}

// CategoryTotal is one slice of the spending breakdown.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// BillForecast is one predicted recurring charge.
type BillForecast struct {
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     time.Time       `json:"dueDate"`
}

// Dashboard bundles every computed view for one owner.
type Dashboard struct {
	NetWorth      decimal.Decimal `json:"netWorth"`
	MonthToDate   Summary         `json:"monthToDate"`
	TrailingMonth Summary         `json:"trailing30Days"`
	Months        []MonthPoint    `json:"incomeVsSpendingByMonth"`
	Categories    []CategoryTotal `json:"spendingByCategory"`
	UpcomingBills []BillForecast  `json:"upcomingBills"`
}

// BuildDashboard computes the full set of views in one pass over the
// loaded data. The category breakdown uses the month-to-date window.
func BuildDashboard(accounts []*domain.Account, txs []*domain.Transaction, now time.Time) Dashboard {
	mtd := MonthToDate(now)
	return Dashboard{
		NetWorth:      NetWorth(accounts),
		MonthToDate:   WindowedSummary(accounts, txs, mtd),
		TrailingMonth: WindowedSummary(accounts, txs, TrailingDays(now, 30)),
		Months:        MonthlySeries(accounts, txs),
		Categories:    CategoryBreakdown(accounts, txs, mtd),
		UpcomingBills: UpcomingBills(txs, now),
	}
}

// NetWorth sums account balances. Transactions are not involved.
func NetWorth(accounts []*domain.Account) decimal.Decimal {
	total := decimal.Zero
	for _, acc := range accounts {
		total = total.Add(acc.Balance)
	}
	return total
}

// accountTypes indexes accounts by ID for the exclusion rules, which
// need to know whether a transaction sits on a credit card.
func accountTypes(accounts []*domain.Account) map[string]domain.AccountType {
	types := make(map[string]domain.AccountType, len(accounts))
	for _, acc := range accounts {
		types[acc.ID] = acc.Type
	}
	return types
}

// countsAsIncome reports whether a positive-amount transaction in the
// given category, on the given account type, contributes to income.
// Transfers never do. A "Debt Payment" credit on a credit card is debt
// reduction, not income.
func countsAsIncome(category string, acctType domain.AccountType) bool {
	if category == transfersCategory {
		return false
	}
	if category == debtPaymentCategory && acctType == domain.AccountTypeCreditCard {
		return false
	}
	return true
}

// countsAsSpending is the asymmetric counterpart: a "Debt Payment"
// drawn from a non-card account is an internal transfer of the
// holder's own money, so it is excluded, while the same category
// charged on the card itself is real outflow.
func countsAsSpending(category string, acctType domain.AccountType) bool {
	if category == transfersCategory {
		return false
	}
	if category == debtPaymentCategory && acctType != domain.AccountTypeCreditCard {
		return false
	}
	return true
}

// WindowedSummary computes income and spending for transactions whose
// date falls inside the window. Records with unparseable dates are
// skipped.
func WindowedSummary(accounts []*domain.Account, txs []*domain.Transaction, window Window) Summary {
	types := accountTypes(accounts)
	summary := Summary{Income: decimal.Zero, Spending: decimal.Zero}

	for _, tx := range txs {
		date, err := tx.ParsedDate()
		if err != nil || !window.Contains(date) {
			continue
		}
		category := tx.EffectiveCategory()
		acctType := types[tx.AccountID]

		switch {
		case tx.Amount.IsPositive():
			if countsAsIncome(category, acctType) {
				summary.Income = summary.Income.Add(tx.Amount)
			}
		case tx.Amount.IsNegative():
			if countsAsSpending(category, acctType) {
				summary.Spending = summary.Spending.Add(tx.Amount.Abs())
			}
		}
	}
	return summary
}

// MonthlySeries buckets every transaction by calendar month and
// computes income and spending per bucket under the same exclusion
// rules as WindowedSummary. The series is sorted ascending by month.
func MonthlySeries(accounts []*domain.Account, txs []*domain.Transaction) []MonthPoint {
	types := accountTypes(accounts)
	buckets := make(map[time.Time]*MonthPoint)

	for _, tx := range txs {
		date, err := tx.ParsedDate()
		if err != nil {
			continue
		}
		month := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
		point, ok := buckets[month]
		if !ok {
			point = &MonthPoint{
				Label:    transform.MonthLabel(month),
				Income:   decimal.Zero,
				Spending: decimal.Zero,
			}
			buckets[month] = point
		}

		category := tx.EffectiveCategory()
		acctType := types[tx.AccountID]
		switch {
		case tx.Amount.IsPositive():
			if countsAsIncome(category, acctType) {
				point.Income = point.Income.Add(tx.Amount)
			}
		case tx.Amount.IsNegative():
			if countsAsSpending(category, acctType) {
				point.Spending = point.Spending.Add(tx.Amount.Abs())
			}
		}
	}

	months := make([]time.Time, 0, len(buckets))
	for m := range buckets {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	series := make([]MonthPoint, 0, len(months))
	for _, m := range months {
		series = append(series, *buckets[m])
	}
	return series
}

// CategoryBreakdown sums absolute spending per effective category over
// the window, sorted descending by total. Categories with no spending
// in the window do not appear.
func CategoryBreakdown(accounts []*domain.Account, txs []*domain.Transaction, window Window) []CategoryTotal {
	types := accountTypes(accounts)
	totals := make(map[string]decimal.Decimal)

	for _, tx := range txs {
		date, err := tx.ParsedDate()
		if err != nil || !window.Contains(date) {
			continue
		}
		if !tx.Amount.IsNegative() {
			continue
		}
		category := tx.EffectiveCategory()
		if !countsAsSpending(category, types[tx.AccountID]) {
			continue
		}
		totals[category] = totals[category].Add(tx.Amount.Abs())
	}

	breakdown := make([]CategoryTotal, 0, len(totals))
	for category, total := range totals {
		breakdown = append(breakdown, CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if !breakdown[i].Total.Equal(breakdown[j].Total) {
			return breakdown[i].Total.GreaterThan(breakdown[j].Total)
		}
		return breakdown[i].Category < breakdown[j].Category
	})
	return breakdown
}

// billGroup accumulates the occurrences of one recurring description.
type billGroup struct {
	category    string
	occurrences []billOccurrence
}

type billOccurrence struct {
	date   time.Time
	amount decimal.Decimal
}

// UpcomingBills predicts the next occurrence of recurring charges.
// Negative-amount transactions in the recurring category set are
// grouped by exact description; a group needs at least two occurrences
// before an interval can be estimated. The prediction is the last
// occurrence plus the rounded mean gap in days, emitted only when it
// lands after now and before the 60-day horizon. Results are sorted
// ascending by due date.
func UpcomingBills(txs []*domain.Transaction, now time.Time) []BillForecast {
	groups := make(map[string]*billGroup)

	for _, tx := range txs {
		if !tx.Amount.IsNegative() {
			continue
		}
		category := tx.EffectiveCategory()
		if _, ok := recurringCategories[category]; !ok {
			continue
		}
		date, err := tx.ParsedDate()
		if err != nil {
			continue
		}
		g, ok := groups[tx.Description]
		if !ok {
			g = &billGroup{category: category}
			groups[tx.Description] = g
		}
		g.occurrences = append(g.occurrences, billOccurrence{date: date, amount: tx.Amount})
	}

	horizon := now.AddDate(0, 0, forecastHorizonDays)
	var forecasts []BillForecast

	for description, g := range groups {
		if len(g.occurrences) < 2 {
			continue
		}
		sort.Slice(g.occurrences, func(i, j int) bool {
			return g.occurrences[i].date.Before(g.occurrences[j].date)
		})

		var totalGapDays float64
		for i := 1; i < len(g.occurrences); i++ {
			totalGapDays += g.occurrences[i].date.Sub(g.occurrences[i-1].date).Hours() / 24
		}
		meanGap := int(math.Round(totalGapDays / float64(len(g.occurrences)-1)))

		last := g.occurrences[len(g.occurrences)-1]
		predicted := last.date.AddDate(0, 0, meanGap)
		if !predicted.After(now) || !predicted.Before(horizon) {
			continue
		}

		forecasts = append(forecasts, BillForecast{
			Description: description,
			Category:    g.category,
			Amount:      last.amount.Abs(),
			DueDate:     predicted,
		})
	}

	sort.Slice(forecasts, func(i, j int) bool {
		if !forecasts[i].DueDate.Equal(forecasts[j].DueDate) {
			return forecasts[i].DueDate.Before(forecasts[j].DueDate)
		}
		return forecasts[i].Description < forecasts[j].Description
	})
	return forecasts
}
