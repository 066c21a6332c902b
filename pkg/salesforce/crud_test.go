package salesforce

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccount(t *testing.T) {
	t.Run("creates account", func(t *testing.T) {
		mock := &mockClient{
			insertOneFn: func(_ context.Context, sObjectName string, record map[string]any) (string, error) {
				assert.Equal(t, "Account", sObjectName)
				assert.Equal(t, "Acme Corp", record["Name"])
				return "001new", nil
			},
		}

		id, err := CreateAccount(context.Background(), mock, map[string]any{"Name": "Acme Corp"})
		require.NoError(t, err)
		assert.Equal(t, "001new", id)
	})

	t.Run("requires name", func(t *testing.T) {
		_, err := CreateAccount(context.Background(), &mockClient{}, map[string]any{"Phone": "555"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Name is required")
	})

	t.Run("wraps insert error", func(t *testing.T) {
		mock := &mockClient{
			insertOneFn: func(context.Context, string, map[string]any) (string, error) {
				return "", errors.New("duplicate value")
			},
		}
		_, err := CreateAccount(context.Background(), mock, map[string]any{"Name": "Acme"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sf: create account")
	})
}

func TestUpdateAccount(t *testing.T) {
	t.Run("updates account", func(t *testing.T) {
		var gotID string
		mock := &mockClient{
			updateOneFn: func(_ context.Context, sObjectName, id string, fields map[string]any) error {
				assert.Equal(t, "Account", sObjectName)
				assert.Equal(t, "Austin", fields["BillingCity"])
				gotID = id
				return nil
			},
		}

		err := UpdateAccount(context.Background(), mock, "001xx", map[string]any{"BillingCity": "Austin"})
		require.NoError(t, err)
		assert.Equal(t, "001xx", gotID)
	})

	t.Run("requires id", func(t *testing.T) {
		err := UpdateAccount(context.Background(), &mockClient{}, "", map[string]any{"Name": "x"})
		assert.ErrorContains(t, err, "account id is required")
	})

	t.Run("requires fields", func(t *testing.T) {
		err := UpdateAccount(context.Background(), &mockClient{}, "001xx", nil)
		assert.ErrorContains(t, err, "no fields to update")
	})
}

func TestDeleteAccounts(t *testing.T) {
	t.Run("deletes each id", func(t *testing.T) {
		var deleted []string
		mock := &mockClient{
			deleteOneFn: func(_ context.Context, sObjectName, id string) error {
				assert.Equal(t, "Account", sObjectName)
				deleted = append(deleted, id)
				return nil
			},
		}

		require.NoError(t, DeleteAccounts(context.Background(), mock, []string{"001a", "", "001b"}))
		assert.Equal(t, []string{"001a", "001b"}, deleted)
	})

	t.Run("stops at first failure", func(t *testing.T) {
		calls := 0
		mock := &mockClient{
			deleteOneFn: func(_ context.Context, _ string, id string) error {
				calls++
				if id == "001a" {
					return errors.New("ENTITY_IS_DELETED")
				}
				return nil
			},
		}

		err := DeleteAccounts(context.Background(), mock, []string{"001a", "001b"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sf: delete account 001a")
		assert.Equal(t, 1, calls)
	})
}
