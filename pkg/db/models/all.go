package models

// All lists every model in dependency order, for AutoMigrate in tests and
// sqlite development databases.
func All() []any {
	return []any{
		&CreditStatus{},
		&Packaging{},
		&VisitOutcome{},
		&TimeAllowance{},
		&Client{},
		&Product{},
		&Seller{},
		&Route{},
		&RouteClient{},
		&Sale{},
		&SaleLine{},
		&HistoricalSale{},
		&HistoricalSaleLine{},
		&VisitLog{},
		&PhotoEvidence{},
		&ReportFile{},
		&User{},
	}
}
