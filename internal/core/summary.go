package core

import "sort"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Summary holds the running totals over a transaction collection.
type Summary struct {
	TotalTransactions int     `json:"totalTransactions"`
	TotalIncome       float64 `json:"totalIncome"`
	TotalExpenses     float64 `json:"totalExpenses"`
	NetBalance        float64 `json:"netBalance"`
}

// The aggregates below are pure functions over the collection. They are
// recomputed on every call and never cached, so the rendering layer always
// sees figures consistent with the current collection.

// TotalIncome sums the amounts of all income transactions.
func TotalIncome(transactions []Transaction) float64 {
	var sum float64
	for _, t := range transactions {
		if t.Type == Income {
			sum += t.Amount
		}
	}
	return sum
}

// TotalExpenses sums the amounts of all expense transactions.
func TotalExpenses(transactions []Transaction) float64 {
	var sum float64
	for _, t := range transactions {
		if t.Type == Expense {
			sum += t.Amount
		}
	}
	return sum
}

// NetBalance is total income minus total expenses.
func NetBalance(transactions []Transaction) float64 {
	return TotalIncome(transactions) - TotalExpenses(transactions)
}

// Summarize computes the full summary in one pass.
func Summarize(transactions []Transaction) Summary {
	s := Summary{TotalTransactions: len(transactions)}
	for _, t := range transactions {
		switch t.Type {
		case Income:
			s.TotalIncome += t.Amount
		case Expense:
			s.TotalExpenses += t.Amount
		}
	}
	s.NetBalance = s.TotalIncome - s.TotalExpenses
	return s
}

// CategoryTotals aggregates amounts per category, sorted descending by sum
// for chart consumption. Ties sort by name so the order is deterministic.
// With expenseOnly set, income transactions are skipped.
func CategoryTotals(transactions []Transaction, expenseOnly bool) []CategoryAmount {
	sums := make(map[string]float64)
	for _, t := range transactions {
		if expenseOnly && t.Type != Expense {
			continue
		}
		sums[t.Category] += t.Amount
	}

	totals := make([]CategoryAmount, 0, len(sums))
	for name, amount := range sums {
		totals = append(totals, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Amount != totals[j].Amount {
			return totals[i].Amount > totals[j].Amount
		}
		return totals[i].Name < totals[j].Name
	})
	return totals
}

// Filter returns the transactions matching both predicates, preserving the
// collection order. An empty category or type matches everything.
func Filter(transactions []Transaction, category string, typ Type) []Transaction {
	out := make([]Transaction, 0, len(transactions))
	for _, t := range transactions {
		if category != "" && t.Category != category {
			continue
		}
		if typ != "" && t.Type != typ {
			continue
		}
		out = append(out, t)
	}
	return out
}
