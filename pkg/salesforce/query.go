package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Account represents a Salesforce Account record.
type Account struct {
	ID                string `json:"Id" salesforce:"Id"`
	Name              string `json:"Name" salesforce:"Name"`
	Type              string `json:"Type" salesforce:"Type"`
	Phone             string `json:"Phone" salesforce:"Phone"`
	Website           string `json:"Website" salesforce:"Website"`
	BillingStreet     string `json:"BillingStreet" salesforce:"BillingStreet"`
	BillingCity       string `json:"BillingCity" salesforce:"BillingCity"`
	BillingState      string `json:"BillingState" salesforce:"BillingState"`
	BillingPostalCode string `json:"BillingPostalCode" salesforce:"BillingPostalCode"`
	Description       string `json:"Description" salesforce:"Description"`
	CreatedDate       string `json:"CreatedDate" salesforce:"CreatedDate"`
	LastModifiedDate  string `json:"LastModifiedDate" salesforce:"LastModifiedDate"`
}

// accountFields are the SOQL fields selected for Account queries.
var accountFields = []string{
	"Id", "Name", "Type", "Phone", "Website",
	"BillingStreet", "BillingCity", "BillingState", "BillingPostalCode",
	"Description", "CreatedDate", "LastModifiedDate",
}

// ListAccounts returns every Account, optionally restricted to one Type.
// The Salesforce client follows query pagination.
func ListAccounts(ctx context.Context, c Client, accountType string) ([]Account, error) {
	soql := fmt.Sprintf("SELECT %s FROM Account", strings.Join(accountFields, ", "))
	if accountType != "" {
		soql += fmt.Sprintf(" WHERE Type = '%s'", escapeSoql(accountType))
	}
	soql += " ORDER BY CreatedDate, Id"

	var accounts []Account
	if err := c.Query(ctx, soql, &accounts); err != nil {
		return nil, eris.Wrap(err, "sf: list accounts")
	}
	return accounts, nil
}

// FindAccountByID queries Salesforce for an Account by its ID.
// Returns nil if no account is found.
func FindAccountByID(ctx context.Context, c Client, id string) (*Account, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Account WHERE Id = '%s' LIMIT 1",
		strings.Join(accountFields, ", "),
		escapeSoql(id),
	)

	var accounts []Account
	if err := c.Query(ctx, soql, &accounts); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: find account by id %s", id))
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return &accounts[0], nil
}

// soqlEscaper escapes backslashes as well as quotes; an unescaped
// backslash would consume the quote escape.
var soqlEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// escapeSoql escapes a value for a single-quoted SOQL string literal.
func escapeSoql(s string) string {
	return soqlEscaper.Replace(s)
}
