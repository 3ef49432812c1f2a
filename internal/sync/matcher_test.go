package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fieldsync/internal/model"
	"github.com/sells-group/fieldsync/internal/store"
)

func newMatcherStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMatchCustomerByPhone(t *testing.T) {
	s := newMatcherStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertCustomer(ctx, &model.Customer{
		FirstName: "Ann", Phone: "(312) 555-0199", Active: true,
	}))
	require.NoError(t, s.InsertCustomer(ctx, &model.Customer{
		FirstName: "Bob", Phone: "312-555-0123", Active: true,
	}))

	m := NewMatcher(s)

	// Different formatting on both sides still matches.
	got, err := m.MatchCustomerByPhone(ctx, "+1 312 555 0199")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ann", got.FirstName)

	got, err = m.MatchCustomerByPhone(ctx, "3125550123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Bob", got.FirstName)
}

func TestMatchCustomerByPhone_NoMatch(t *testing.T) {
	s := newMatcherStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertCustomer(ctx, &model.Customer{
		FirstName: "Ann", Phone: "(312) 555-0199", Active: true,
	}))

	m := NewMatcher(s)

	got, err := m.MatchCustomerByPhone(ctx, "773-555-0000")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMatchCustomerByPhone_ShortInputUnmatchable(t *testing.T) {
	s := newMatcherStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertCustomer(ctx, &model.Customer{
		FirstName: "Ann", Phone: "555-0199", Active: true,
	}))

	m := NewMatcher(s)

	// Fewer than ten digits never matches, even against an identical stored
	// value.
	got, err := m.MatchCustomerByPhone(ctx, "555-0199")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMatchCustomerByPhone_SkipsInactive(t *testing.T) {
	s := newMatcherStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertCustomer(ctx, &model.Customer{
		FirstName: "Old", Phone: "312-555-0199", Active: false,
	}))

	m := NewMatcher(s)

	got, err := m.MatchCustomerByPhone(ctx, "312-555-0199")
	require.NoError(t, err)
	assert.Nil(t, got)
}
