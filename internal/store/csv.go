package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/equityflow-dev/equityflow/internal/model"
)

// CSV headers for the books files.
const (
	AccountsHeader     = "id,name,kind,balance,permanent"
	CategoriesHeader   = "id,name,kind"
	ProjectsHeader     = "id,name,notes"
	TransactionsHeader = "id,kind,amount,date,description,account_id,from_account_id,to_account_id,project_id,category_id,contact_id,batch_id,intent"
)

const dateFormat = "2006-01-02"

const (
	acctFields    = 5
	acctColID     = 0
	acctColName   = 1
	acctColKind   = 2
	acctColBal    = 3
	acctColPerm   = 4
	catFields     = 3
	catColID      = 0
	catColName    = 1
	catColKind    = 2
	projFields    = 3
	projColID     = 0
	projColName   = 1
	projColNotes  = 2
	txnFields     = 13
	txnColID      = 0
	txnColKind    = 1
	txnColAmount  = 2
	txnColDate    = 3
	txnColDesc    = 4
	txnColAcct    = 5
	txnColFrom    = 6
	txnColTo      = 7
	txnColProject = 8
	txnColCat     = 9
	txnColContact = 10
	txnColBatch   = 11
	txnColIntent  = 12
)

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(a model.Account) []string {
	row := make([]string, acctFields)
	row[acctColID] = a.ID
	row[acctColName] = a.Name
	row[acctColKind] = string(a.Kind)
	row[acctColBal] = a.Balance.StringFixed(2)
	if a.Permanent {
		row[acctColPerm] = "true"
	}
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != acctFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", acctFields, len(record))
	}

	balance, err := decimal.NewFromString(record[acctColBal])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing balance %q: %w", record[acctColBal], err)
	}

	permanent := false
	if record[acctColPerm] != "" {
		permanent, err = strconv.ParseBool(record[acctColPerm])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing permanent %q: %w", record[acctColPerm], err)
		}
	}

	return model.Account{
		ID:        record[acctColID],
		Name:      record[acctColName],
		Kind:      model.AccountKind(record[acctColKind]),
		Balance:   balance,
		Permanent: permanent,
	}, nil
}

// MarshalCategory converts a Category to a CSV row.
func MarshalCategory(c model.Category) []string {
	row := make([]string, catFields)
	row[catColID] = c.ID
	row[catColName] = c.Name
	row[catColKind] = string(c.Kind)
	return row
}

// UnmarshalCategory converts a CSV row to a Category.
func UnmarshalCategory(record []string) (model.Category, error) {
	if len(record) != catFields {
		return model.Category{}, fmt.Errorf("expected %d fields, got %d", catFields, len(record))
	}
	return model.Category{
		ID:   record[catColID],
		Name: record[catColName],
		Kind: model.CategoryKind(record[catColKind]),
	}, nil
}

// MarshalProject converts a Project to a CSV row.
func MarshalProject(p model.Project) []string {
	row := make([]string, projFields)
	row[projColID] = p.ID
	row[projColName] = p.Name
	row[projColNotes] = p.Notes
	return row
}

// UnmarshalProject converts a CSV row to a Project.
func UnmarshalProject(record []string) (model.Project, error) {
	if len(record) != projFields {
		return model.Project{}, fmt.Errorf("expected %d fields, got %d", projFields, len(record))
	}
	return model.Project{
		ID:    record[projColID],
		Name:  record[projColName],
		Notes: record[projColNotes],
	}, nil
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(t model.Transaction) []string {
	row := make([]string, txnFields)
	row[txnColID] = t.ID
	row[txnColKind] = string(t.Kind)
	row[txnColAmount] = t.Amount.StringFixed(2)
	row[txnColDate] = t.Date.Format(dateFormat)
	row[txnColDesc] = t.Description
	row[txnColAcct] = t.AccountID
	row[txnColFrom] = t.FromAccountID
	row[txnColTo] = t.ToAccountID
	row[txnColProject] = t.ProjectID
	row[txnColCat] = t.CategoryID
	row[txnColContact] = t.ContactID
	row[txnColBatch] = t.BatchID
	row[txnColIntent] = string(t.Intent)
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != txnFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", txnFields, len(record))
	}

	amount, err := decimal.NewFromString(record[txnColAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[txnColAmount], err)
	}

	day, err := time.Parse(dateFormat, record[txnColDate])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", record[txnColDate], err)
	}

	return model.Transaction{
		ID:            record[txnColID],
		Kind:          model.TxKind(record[txnColKind]),
		Amount:        amount,
		Date:          day,
		Description:   record[txnColDesc],
		AccountID:     record[txnColAcct],
		FromAccountID: record[txnColFrom],
		ToAccountID:   record[txnColTo],
		ProjectID:     record[txnColProject],
		CategoryID:    record[txnColCat],
		ContactID:     record[txnColContact],
		BatchID:       record[txnColBatch],
		Intent:        model.Intent(record[txnColIntent]),
	}, nil
}

func readRows(r io.Reader, fields int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	// Skip header row.
	return records[1:], nil
}

func writeRows(w io.Writer, header string, rows [][]string) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}
