package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  CategoryType = "income"
	Expense CategoryType = "expense"
	Saving  CategoryType = "saving"

	StatusPending Status = "Pending"
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"

	SourceCash        Source = "Cash"
	SourceBankAccount Source = "Bank Account"
	SourceOther       Source = "Other"
)

type (
	CategoryType string
	Status       string
	Source       string
	PaymentApp   string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single spend or earn ledger record. Amount is a
	// magnitude; direction comes from CategoryType.
	Transaction struct {
		ID              string
		OwnerID         string
		Amount          Money
		Source          Source
		SourceDetail    string
		PaymentApp      PaymentApp // empty when no payment app was involved
		Description     string
		CategoryID      string
		CategoryType    CategoryType
		CategoryName    string
		Status          Status
		TransactionDate Date
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}

	// SavingGoal is a savings contribution record: an amount accumulated
	// towards a target. Contributions have no Pending/Failed lifecycle.
	SavingGoal struct {
		ID              string
		OwnerID         string
		Source          Source
		SourceDetail    string
		PaymentApp      PaymentApp
		Purpose         string
		CurrentAmount   Money
		TargetAmount    Money
		IsCompleted     bool
		ExpectedAt      Date
		TransactionDate Date
		EvidenceRef     string // optional attachment reference
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}

	// Wallet is the derived summary aggregate for one owner. It is never
	// authored directly; every field is a function of the owner's ledger.
	Wallet struct {
		OwnerID   string
		Income    Money
		Expense   Money
		Savings   Money
		Balance   Money
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Category classifies transactions. System categories have no owner.
	Category struct {
		ID          string
		OwnerID     string
		Name        string
		Type        CategoryType
		UserDefined bool
	}
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrEmptyDescription     = errors.New("empty description")
	ErrEmptyPurpose         = errors.New("empty purpose")
	ErrInvalidSource        = errors.New("invalid source")
	ErrMissingSourceDetail  = errors.New("source detail required for bank account source")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidCategoryType  = errors.New("invalid category type")
	ErrInvalidPaymentApp    = errors.New("invalid payment app")
	ErrInvalidDate          = errors.New("invalid date")
	ErrCurrentExceedsTarget = errors.New("current amount exceeds target amount")
	ErrNegativeCurrent      = errors.New("current amount cannot be negative")
)

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (t CategoryType) Validate() error {
	switch t {
	case Income, Expense, Saving:
		return nil
	}
	return ErrInvalidCategoryType
}

func (s Status) Validate() error {
	switch s {
	case StatusPending, StatusSuccess, StatusFailed:
		return nil
	}
	return ErrInvalidStatus
}

func (s Source) Validate() error {
	switch s {
	case SourceCash, SourceBankAccount, SourceOther:
		return nil
	}
	return ErrInvalidSource
}

// Validate accepts the empty string: the payment app is optional.
func (a PaymentApp) Validate() error {
	switch a {
	case "", "PhonePe", "GPay", "AmazonPay", "Paytm", "RazorPay", "Other":
		return nil
	}
	return ErrInvalidPaymentApp
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.CategoryType.Validate(); err != nil {
		return err
	}
	// Saving-type records are auto-generated deposit deltas; they may carry
	// zero (initial deposit) or a negative correction. Spend/earn amounts
	// must be positive magnitudes.
	if t.CategoryType != Saving {
		if err := t.Amount.Validate(); err != nil {
			return err
		}
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := t.Source.Validate(); err != nil {
		return err
	}
	if t.Source == SourceBankAccount && strings.TrimSpace(t.SourceDetail) == "" {
		return ErrMissingSourceDetail
	}
	if err := t.PaymentApp.Validate(); err != nil {
		return err
	}
	if err := t.Status.Validate(); err != nil {
		return err
	}
	return t.TransactionDate.Validate()
}

// Counted reports whether the transaction contributes to wallet totals and
// to the status-gated aggregations. Only Success records count.
func (t Transaction) Counted() bool {
	return t.Status == StatusSuccess
}

func (s SavingGoal) Validate() error {
	if len(strings.TrimSpace(s.Purpose)) == 0 {
		return ErrEmptyPurpose
	}
	if err := s.TargetAmount.Validate(); err != nil {
		return err
	}
	if s.CurrentAmount.Cents < 0 {
		return ErrNegativeCurrent
	}
	if s.CurrentAmount.Cents > s.TargetAmount.Cents {
		return ErrCurrentExceedsTarget
	}
	if err := s.Source.Validate(); err != nil {
		return err
	}
	if s.Source == SourceBankAccount && strings.TrimSpace(s.SourceDetail) == "" {
		return ErrMissingSourceDetail
	}
	if err := s.PaymentApp.Validate(); err != nil {
		return err
	}
	if err := s.ExpectedAt.Validate(); err != nil {
		return err
	}
	return s.TransactionDate.Validate()
}

// SetCurrent updates the accumulated amount and re-derives the completion
// flag. The flag is never set independently of the amounts.
func (s *SavingGoal) SetCurrent(amount Money) error {
	if amount.Cents < 0 {
		return ErrNegativeCurrent
	}
	if amount.Cents > s.TargetAmount.Cents {
		return ErrCurrentExceedsTarget
	}
	s.CurrentAmount = amount
	s.IsCompleted = amount.Cents == s.TargetAmount.Cents
	return nil
}
