package salesforce

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// mockClient implements Client for testing.
type mockClient struct {
	queryFn     func(ctx context.Context, soql string, out any) error
	insertOneFn func(ctx context.Context, sObjectName string, record map[string]any) (string, error)
	updateOneFn func(ctx context.Context, sObjectName string, id string, fields map[string]any) error
	deleteOneFn func(ctx context.Context, sObjectName string, id string) error
}

func (m *mockClient) Query(ctx context.Context, soql string, out any) error {
	if m.queryFn != nil {
		return m.queryFn(ctx, soql, out)
	}
	return nil
}

func (m *mockClient) InsertOne(ctx context.Context, sObjectName string, record map[string]any) (string, error) {
	if m.insertOneFn != nil {
		return m.insertOneFn(ctx, sObjectName, record)
	}
	return "001000000000001", nil
}

func (m *mockClient) UpdateOne(ctx context.Context, sObjectName string, id string, fields map[string]any) error {
	if m.updateOneFn != nil {
		return m.updateOneFn(ctx, sObjectName, id, fields)
	}
	return nil
}

func (m *mockClient) DeleteOne(ctx context.Context, sObjectName string, id string) error {
	if m.deleteOneFn != nil {
		return m.deleteOneFn(ctx, sObjectName, id)
	}
	return nil
}

func TestMockClientImplementsInterface(t *testing.T) {
	t.Parallel()
	var _ Client = (*mockClient)(nil)
}

func TestNewClientReturnsClient(t *testing.T) {
	var _ Client = (*sfClient)(nil)

	client := NewClient(nil)
	require.NotNil(t, client)
}

func TestWithRateLimit(t *testing.T) {
	t.Run("sets limiter", func(t *testing.T) {
		c := NewClient(nil, WithRateLimit(10)).(*sfClient)
		require.NotNil(t, c.limiter)
		assert.Equal(t, rate.Limit(10), c.limiter.Limit())
		assert.Equal(t, 10, c.limiter.Burst())
	})

	t.Run("zero rate skips limiter", func(t *testing.T) {
		c := NewClient(nil, WithRateLimit(0)).(*sfClient)
		assert.Nil(t, c.limiter)
	})

	t.Run("negative rate skips limiter", func(t *testing.T) {
		c := NewClient(nil, WithRateLimit(-5)).(*sfClient)
		assert.Nil(t, c.limiter)
	})

	t.Run("fractional rate gets burst of 1", func(t *testing.T) {
		c := NewClient(nil, WithRateLimit(0.5)).(*sfClient)
		require.NotNil(t, c.limiter)
		assert.Equal(t, 1, c.limiter.Burst())
	})
}

func TestRateLimiter_CancelledContext(t *testing.T) {
	// Zero burst so Wait always blocks.
	c := &sfClient{
		limiter: rate.NewLimiter(rate.Every(time.Hour), 0),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, c.wait(ctx))

	err := c.DeleteOne(ctx, "Account", "001xx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sf: rate limit")
}
