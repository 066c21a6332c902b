package salesforce

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
)

// UpdateAccount updates an Account record with the given fields.
func UpdateAccount(ctx context.Context, c Client, accountID string, fields map[string]any) error {
	if accountID == "" {
		return eris.New("sf: account id is required")
	}
	if len(fields) == 0 {
		return eris.New("sf: no fields to update")
	}
	if err := c.UpdateOne(ctx, "Account", accountID, fields); err != nil {
		return eris.Wrap(err, fmt.Sprintf("sf: update account %s", accountID))
	}
	return nil
}

// CreateAccount creates a new Account record and returns the new Salesforce ID.
func CreateAccount(ctx context.Context, c Client, fields map[string]any) (string, error) {
	if fields["Name"] == nil || fields["Name"] == "" {
		return "", eris.New("sf: account Name is required")
	}
	id, err := c.InsertOne(ctx, "Account", fields)
	if err != nil {
		return "", eris.Wrap(err, "sf: create account")
	}
	return id, nil
}

// DeleteAccounts deletes Accounts one at a time, stopping at the first failure.
func DeleteAccounts(ctx context.Context, c Client, ids []string) error {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if err := c.DeleteOne(ctx, "Account", id); err != nil {
			return eris.Wrap(err, fmt.Sprintf("sf: delete account %s", id))
		}
	}
	return nil
}
