package analytics

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// Aggregation results. Month labels use the "M-YYYY" form, e.g. "1-2024".
type (
	// MonthPoint is a per-month income/expense pair.
	MonthPoint struct {
		Month   string
		Income  core.Money
		Expense core.Money
	}

	// CategoryTotal is a spend total grouped by category name.
	CategoryTotal struct {
		Category string
		Total    core.Money
	}

	// SourceTotal is a spend total grouped by funding-channel detail.
	SourceTotal struct {
		Source string
		Total  core.Money
	}

	// AppUsage is amount and count of transactions per payment app.
	AppUsage struct {
		App   string
		Total core.Money
		Count int
	}

	// SavingProgress reports one goal's advancement. Percent is rendered to
	// two decimals at presentation, capped at 100.
	SavingProgress struct {
		ID            string
		Purpose       string
		CurrentAmount core.Money
		TargetAmount  core.Money
		Percent       string
		IsCompleted   bool
	}

	// OverviewPoint merges monthly income/expense with monthly savings.
	OverviewPoint struct {
		Month   string
		Income  core.Money
		Expense core.Money
		Savings core.Money
	}

	// BalancePoint is one month of the cumulative balance series.
	BalancePoint struct {
		Month   string
		Balance string
	}

	// HeatmapPoint counts transactions on one calendar day.
	HeatmapPoint struct {
		Date  time.Time
		Count int
	}

	// StatusCount is a record count labeled by status.
	StatusCount struct {
		Status string
		Count  int
	}

	// SourceOverview merges per-source income, expense and savings totals.
	SourceOverview struct {
		SourceDetail     string
		Income           core.Money
		Expense          core.Money
		TransactionCount int
		Savings          core.Money
		SavingCount      int
	}
)

// monthKey buckets a date by (year, month).
type monthKey struct {
	year  int
	month int
}

func keyOf(d core.Date) monthKey {
	return monthKey{year: d.Year(), month: d.Month()}
}

func (k monthKey) label() string {
	return fmt.Sprintf("%d-%d", k.month, k.year)
}

func (k monthKey) before(other monthKey) bool {
	if k.year != other.year {
		return k.year < other.year
	}
	return k.month < other.month
}
