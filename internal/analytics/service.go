package analytics

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"fintrack/internal/core"
)

// LedgerReader is the read-only slice of the repository the aggregations
// need. Analytics never touches the wallet store: every query derives from
// the ledger directly.
type LedgerReader interface {
	ListCountedTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error)
	ListTransactionsByOwner(ctx context.Context, ownerID string) ([]core.Transaction, error)
	ListSavingGoalsByOwner(ctx context.Context, ownerID string) ([]core.SavingGoal, error)
}

// Service is the stateless analytical aggregation layer. Each method is
// scoped to one owner; an owner with no records yields an empty result.
type Service struct {
	ledger LedgerReader
}

func NewService(ledger LedgerReader) *Service {
	return &Service{ledger: ledger}
}

// MonthlyTrend groups Success transactions by (year, month) and emits
// per-bucket income and expense totals, chronologically ascending.
func (s *Service) MonthlyTrend(ctx context.Context, ownerID string) ([]MonthPoint, error) {
	transactions, err := s.ledger.ListCountedTransactions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("monthly trend: %w", err)
	}

	buckets := make(map[monthKey]*MonthPoint)
	for _, t := range transactions {
		k := keyOf(t.TransactionDate)
		p, ok := buckets[k]
		if !ok {
			p = &MonthPoint{Month: k.label()}
			buckets[k] = p
		}
		switch t.CategoryType {
		case core.Income:
			p.Income = p.Income.Add(t.Amount)
		case core.Expense:
			p.Expense = p.Expense.Add(t.Amount)
		}
	}

	return sortedByMonth(buckets, func(p *MonthPoint) MonthPoint { return *p }), nil
}

// ExpensesByCategory groups Success expense transactions by category name,
// sorted descending by total.
func (s *Service) ExpensesByCategory(ctx context.Context, ownerID string) ([]CategoryTotal, error) {
	transactions, err := s.ledger.ListCountedTransactions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("expenses by category: %w", err)
	}

	totals := make(map[string]core.Money)
	for _, t := range transactions {
		if t.CategoryType != core.Expense {
			continue
		}
		totals[t.CategoryName] = totals[t.CategoryName].Add(t.Amount)
	}

	results := make([]CategoryTotal, 0, len(totals))
	for name, total := range totals {
		results = append(results, CategoryTotal{Category: name, Total: total})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Total.Cents > results[j].Total.Cents
	})
	return results, nil
}

// SpendingBySource groups Success expense transactions by funding-channel
// detail, sorted descending by total.
func (s *Service) SpendingBySource(ctx context.Context, ownerID string) ([]SourceTotal, error) {
	transactions, err := s.ledger.ListCountedTransactions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("spending by source: %w", err)
	}

	totals := make(map[string]core.Money)
	for _, t := range transactions {
		if t.CategoryType != core.Expense {
			continue
		}
		totals[t.SourceDetail] = totals[t.SourceDetail].Add(t.Amount)
	}

	results := make([]SourceTotal, 0, len(totals))
	for source, total := range totals {
		results = append(results, SourceTotal{Source: source, Total: total})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Total.Cents > results[j].Total.Cents
	})
	return results, nil
}

// PaymentAppUsage totals Success transactions carrying a payment-app tag,
// sorted descending by total amount.
func (s *Service) PaymentAppUsage(ctx context.Context, ownerID string) ([]AppUsage, error) {
	transactions, err := s.ledger.ListCountedTransactions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("payment app usage: %w", err)
	}

	usage := make(map[string]*AppUsage)
	for _, t := range transactions {
		if t.PaymentApp == "" {
			continue
		}
		app := string(t.PaymentApp)
		u, ok := usage[app]
		if !ok {
			u = &AppUsage{App: app}
			usage[app] = u
		}
		u.Total = u.Total.Add(t.Amount)
		u.Count++
	}

	results := make([]AppUsage, 0, len(usage))
	for _, u := range usage {
		results = append(results, *u)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Total.Cents > results[j].Total.Cents
	})
	return results, nil
}

// SavingProgress reports advancement for every goal of the owner.
func (s *Service) SavingProgress(ctx context.Context, ownerID string) ([]SavingProgress, error) {
	goals, err := s.ledger.ListSavingGoalsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("saving progress: %w", err)
	}

	results := make([]SavingProgress, 0, len(goals))
	for _, g := range goals {
		results = append(results, SavingProgress{
			ID:            g.ID,
			Purpose:       g.Purpose,
			CurrentAmount: g.CurrentAmount,
			TargetAmount:  g.TargetAmount,
			Percent:       progressPercent(g.CurrentAmount, g.TargetAmount),
			IsCompleted:   g.IsCompleted,
		})
	}
	return results, nil
}

// FinancialOverview merges monthly income/expense totals with monthly
// accumulated savings into one chronologically sorted series. Savings are
// bucketed by the contribution's transaction date and are not status gated.
func (s *Service) FinancialOverview(ctx context.Context, ownerID string) ([]OverviewPoint, error) {
	buckets, err := s.overviewBuckets(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("financial overview: %w", err)
	}
	return sortedByMonth(buckets, func(p *OverviewPoint) OverviewPoint { return *p }), nil
}

// BalanceGrowth folds the financial overview into a running cumulative net:
// per bucket net = income - expense - savings, balance = prior balance + net.
func (s *Service) BalanceGrowth(ctx context.Context, ownerID string) ([]BalancePoint, error) {
	buckets, err := s.overviewBuckets(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("balance growth: %w", err)
	}

	sorted := sortedByMonth(buckets, func(p *OverviewPoint) OverviewPoint { return *p })

	var cumulative core.Money
	results := make([]BalancePoint, 0, len(sorted))
	for _, p := range sorted {
		net := p.Income.Sub(p.Expense).Sub(p.Savings)
		cumulative = cumulative.Add(net)
		results = append(results, BalancePoint{Month: p.Month, Balance: cumulative.String()})
	}
	return results, nil
}

// TransactionHeatmap counts Success transactions per calendar day,
// chronologically ordered.
func (s *Service) TransactionHeatmap(ctx context.Context, ownerID string) ([]HeatmapPoint, error) {
	transactions, err := s.ledger.ListCountedTransactions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("transaction heatmap: %w", err)
	}

	counts := make(map[core.Date]int)
	for _, t := range transactions {
		day := core.NewDate(t.TransactionDate.Year(), t.TransactionDate.Month(), t.TransactionDate.Day())
		counts[day]++
	}

	results := make([]HeatmapPoint, 0, len(counts))
	for day, count := range counts {
		results = append(results, HeatmapPoint{Date: day.Time, Count: count})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Date.Before(results[j].Date)
	})
	return results, nil
}

// SavingsStatus counts goals by completion flag.
func (s *Service) SavingsStatus(ctx context.Context, ownerID string) ([]StatusCount, error) {
	goals, err := s.ledger.ListSavingGoalsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("savings status: %w", err)
	}

	var completed, inProgress int
	for _, g := range goals {
		if g.IsCompleted {
			completed++
		} else {
			inProgress++
		}
	}

	var results []StatusCount
	if completed > 0 {
		results = append(results, StatusCount{Status: "Completed", Count: completed})
	}
	if inProgress > 0 {
		results = append(results, StatusCount{Status: "In Progress", Count: inProgress})
	}
	return results, nil
}

// ExpenseStatusBreakdown counts expense-type transactions by lifecycle
// status. This is the one transaction aggregation with no Success gate.
func (s *Service) ExpenseStatusBreakdown(ctx context.Context, ownerID string) ([]StatusCount, error) {
	transactions, err := s.ledger.ListTransactionsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("expense status breakdown: %w", err)
	}

	counts := make(map[core.Status]int)
	for _, t := range transactions {
		if t.CategoryType != core.Expense {
			continue
		}
		counts[t.Status]++
	}

	var results []StatusCount
	for _, status := range []core.Status{core.StatusPending, core.StatusSuccess, core.StatusFailed} {
		if n := counts[status]; n > 0 {
			results = append(results, StatusCount{Status: string(status), Count: n})
		}
	}
	return results, nil
}

// SourceOverview merges per source-detail income/expense totals with savings
// totals. Not status gated; it mirrors the ledger as written.
func (s *Service) SourceOverview(ctx context.Context, ownerID string) ([]SourceOverview, error) {
	transactions, err := s.ledger.ListTransactionsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("source overview: %w", err)
	}
	goals, err := s.ledger.ListSavingGoalsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("source overview: %w", err)
	}

	overview := make(map[string]*SourceOverview)
	get := func(detail string) *SourceOverview {
		o, ok := overview[detail]
		if !ok {
			o = &SourceOverview{SourceDetail: detail}
			overview[detail] = o
		}
		return o
	}

	for _, t := range transactions {
		o := get(t.SourceDetail)
		switch t.CategoryType {
		case core.Income:
			o.Income = o.Income.Add(t.Amount)
		case core.Expense:
			o.Expense = o.Expense.Add(t.Amount)
		}
		o.TransactionCount++
	}
	for _, g := range goals {
		o := get(g.SourceDetail)
		o.Savings = o.Savings.Add(g.CurrentAmount)
		o.SavingCount++
	}

	results := make([]SourceOverview, 0, len(overview))
	for _, o := range overview {
		results = append(results, *o)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].SourceDetail < results[j].SourceDetail
	})
	return results, nil
}

func (s *Service) overviewBuckets(ctx context.Context, ownerID string) (map[monthKey]*OverviewPoint, error) {
	transactions, err := s.ledger.ListCountedTransactions(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	goals, err := s.ledger.ListSavingGoalsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	buckets := make(map[monthKey]*OverviewPoint)
	get := func(k monthKey) *OverviewPoint {
		p, ok := buckets[k]
		if !ok {
			p = &OverviewPoint{Month: k.label()}
			buckets[k] = p
		}
		return p
	}

	for _, t := range transactions {
		p := get(keyOf(t.TransactionDate))
		switch t.CategoryType {
		case core.Income:
			p.Income = p.Income.Add(t.Amount)
		case core.Expense:
			p.Expense = p.Expense.Add(t.Amount)
		}
	}
	for _, g := range goals {
		p := get(keyOf(g.TransactionDate))
		p.Savings = p.Savings.Add(g.CurrentAmount)
	}
	return buckets, nil
}

// sortedByMonth flattens a month-keyed bucket map chronologically ascending.
func sortedByMonth[T any](buckets map[monthKey]*T, value func(*T) T) []T {
	keys := make([]monthKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].before(keys[j]) })

	results := make([]T, 0, len(keys))
	for _, k := range keys {
		results = append(results, value(buckets[k]))
	}
	return results
}

// progressPercent renders min(current/target*100, 100) to two decimals.
func progressPercent(current, target core.Money) string {
	if target.Cents <= 0 {
		return "0.00"
	}
	p := float64(current.Cents) / float64(target.Cents) * 100
	if p > 100 {
		p = 100
	}
	return strconv.FormatFloat(p, 'f', 2, 64)
}
