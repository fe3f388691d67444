package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lfk/lfk-backend/internal/cart"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	classesSheet = "classes"
	dateLayout   = "2006-01-02"
)

// Column order of the classes sheet. The first row is a header.
const (
	colCoachEmail = iota
	colTitle
	colAlias
	colPrice
	colStartDate
	colEndDate
	colMembershipType
	colPlans
	colPassword
	minColumns = colEndDate + 1
)

// classRow is one class parsed from the workbook.
type classRow struct {
	Line           int
	CoachEmail     string
	Title          string
	Alias          string
	Price          decimal.Decimal
	StartDate      time.Time
	EndDate        time.Time
	MembershipType string
	Plans          map[string]decimal.Decimal
	Password       string
}

type rowError struct {
	Line   int
	Reason string
}

func (e rowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Line, e.Reason)
}

// readClasses parses the classes sheet. Invalid rows are returned as
// rowErrors and do not stop the import.
func readClasses(r io.Reader) ([]classRow, []rowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := classesSheet
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("sheet %q has no data rows", sheet)
	}

	var (
		classes []classRow
		skipped []rowError
		aliases = make(map[string]int)
	)
	for i, cells := range rows[1:] {
		line := i + 2
		row, err := parseClassRow(line, cells)
		if err != nil {
			skipped = append(skipped, rowError{Line: line, Reason: err.Error()})
			continue
		}
		if first, dup := aliases[row.Alias]; dup {
			skipped = append(skipped, rowError{Line: line, Reason: fmt.Sprintf("alias %q already used on row %d", row.Alias, first)})
			continue
		}
		aliases[row.Alias] = line
		classes = append(classes, row)
	}
	return classes, skipped, nil
}

func parseClassRow(line int, cells []string) (classRow, error) {
	if len(cells) < minColumns {
		return classRow{}, fmt.Errorf("expected at least %d columns, got %d", minColumns, len(cells))
	}
	cell := func(i int) string {
		if i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}

	row := classRow{
		Line:           line,
		CoachEmail:     strings.ToLower(cell(colCoachEmail)),
		Title:          cell(colTitle),
		Alias:          strings.ToLower(cell(colAlias)),
		MembershipType: cell(colMembershipType),
		Password:       cell(colPassword),
	}
	if row.CoachEmail == "" || row.Title == "" || row.Alias == "" {
		return classRow{}, fmt.Errorf("coach email, title and alias are required")
	}

	price, err := decimal.NewFromString(cell(colPrice))
	if err != nil || price.IsNegative() {
		return classRow{}, fmt.Errorf("invalid price %q", cell(colPrice))
	}
	row.Price = price

	if row.StartDate, err = time.Parse(dateLayout, cell(colStartDate)); err != nil {
		return classRow{}, fmt.Errorf("invalid start date %q", cell(colStartDate))
	}
	if row.EndDate, err = time.Parse(dateLayout, cell(colEndDate)); err != nil {
		return classRow{}, fmt.Errorf("invalid end date %q", cell(colEndDate))
	}
	if row.EndDate.Before(row.StartDate) {
		return classRow{}, fmt.Errorf("end date before start date")
	}

	if row.MembershipType != "" {
		plans, err := parsePlans(cell(colPlans))
		if err != nil {
			return classRow{}, err
		}
		row.Plans = plans
	}
	return row, nil
}

// parsePlans reads "monthly=100;six_months=540".
func parsePlans(s string) (map[string]decimal.Decimal, error) {
	plans := make(map[string]decimal.Decimal)
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid plan %q", part)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(kv[1]))
		if err != nil || !price.IsPositive() {
			return nil, fmt.Errorf("invalid plan price %q", kv[1])
		}
		name := strings.ToLower(strings.TrimSpace(kv[0]))
		if !cart.IsSubscriptionType(name) {
			return nil, fmt.Errorf("unknown subscription type %q", kv[0])
		}
		plans[name] = price
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("membership class needs at least one plan")
	}
	return plans, nil
}
