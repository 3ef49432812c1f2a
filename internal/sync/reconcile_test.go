package sync

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileInsertsWhenAbsent(t *testing.T) {
	inserted := false
	u := Upsert{
		ExternalID: "ext-1",
		Find:       func(ctx context.Context, id string) (string, error) { return "", nil },
		Insert:     func(ctx context.Context) error { inserted = true; return nil },
		Update:     func(ctx context.Context, id string) error { t.Fatal("update must not run"); return nil },
	}

	out, err := NewReconciler(false).Reconcile(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, out)
	assert.True(t, inserted)
}

func TestReconcileUpdatesWhenPresent(t *testing.T) {
	var updatedID string
	u := Upsert{
		ExternalID: "ext-1",
		Find:       func(ctx context.Context, id string) (string, error) { return "local-7", nil },
		Insert:     func(ctx context.Context) error { t.Fatal("insert must not run"); return nil },
		Update:     func(ctx context.Context, id string) error { updatedID = id; return nil },
	}

	out, err := NewReconciler(false).Reconcile(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, out)
	assert.Equal(t, "local-7", updatedID)
}

func TestReconcileSkipsMissingExternalID(t *testing.T) {
	u := Upsert{
		ExternalID: "",
		Find:       func(ctx context.Context, id string) (string, error) { t.Fatal("find must not run"); return "", nil },
	}

	out, err := NewReconciler(false).Reconcile(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, out)
}

func TestReconcileDryRun(t *testing.T) {
	r := NewReconciler(true)

	out, err := r.Reconcile(context.Background(), Upsert{
		ExternalID: "ext-1",
		Find:       func(ctx context.Context, id string) (string, error) { return "", nil },
		Insert:     func(ctx context.Context) error { t.Fatal("dry run must not insert"); return nil },
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, out, "outcome is still reported")

	out, err = r.Reconcile(context.Background(), Upsert{
		ExternalID: "ext-2",
		Find:       func(ctx context.Context, id string) (string, error) { return "local-1", nil },
		Update:     func(ctx context.Context, id string) error { t.Fatal("dry run must not update"); return nil },
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, out)
}

func TestReconcilePropagatesErrors(t *testing.T) {
	r := NewReconciler(false)

	_, err := r.Reconcile(context.Background(), Upsert{
		ExternalID: "ext-1",
		Find:       func(ctx context.Context, id string) (string, error) { return "", eris.New("db down") },
	})
	assert.Error(t, err)

	_, err = r.Reconcile(context.Background(), Upsert{
		ExternalID: "ext-1",
		Find:       func(ctx context.Context, id string) (string, error) { return "", nil },
		Insert:     func(ctx context.Context) error { return eris.New("constraint violation") },
	})
	assert.Error(t, err)
}
