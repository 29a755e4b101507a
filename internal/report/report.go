// Package report recomputes the financial summary from the raw collections
// on every call. Nothing here is cached or stored; the snapshot is a pure
// function of its inputs.
package report

import "bukutoko/backend/internal/domain"

// Compute derives the summary figures from the current collections.
//
// Cost of goods sold joins each sale to the product catalog by the sale's
// snapshotted product name against the product's current name. A sale whose
// name no longer matches any product contributes revenue but zero cost, so
// renaming a product shifts its historical margin. The top product ranks by
// total quantity sold, ties broken by whichever name was encountered first
// in sale order.
func Compute(products []domain.Product, sales []domain.Sale, expenses []domain.Expense) domain.ReportSnapshot {
	costByName := make(map[string]int64, len(products))
	for _, p := range products {
		costByName[p.Name] = p.CostCents
	}

	var revenue, cogs int64
	qtyByName := make(map[string]int, len(sales))
	nameOrder := make([]string, 0, len(sales))
	for _, sale := range sales {
		revenue += sale.TotalCents
		if cost, ok := costByName[sale.ProductName]; ok {
			cogs += cost * int64(sale.Quantity)
		}
		if _, seen := qtyByName[sale.ProductName]; !seen {
			nameOrder = append(nameOrder, sale.ProductName)
		}
		qtyByName[sale.ProductName] += sale.Quantity
	}

	var expenseTotal int64
	for _, e := range expenses {
		expenseTotal += e.AmountCents
	}

	top := domain.TopProductNone
	bestQty := 0
	for _, name := range nameOrder {
		if qtyByName[name] > bestQty {
			top = name
			bestQty = qtyByName[name]
		}
	}

	gross := revenue - cogs
	return domain.ReportSnapshot{
		RevenueCents:     revenue,
		CostCents:        cogs,
		GrossProfitCents: gross,
		ExpenseCents:     expenseTotal,
		NetProfitCents:   gross - expenseTotal,
		TopProduct:       top,
	}
}
