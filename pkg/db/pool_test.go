package db

import (
	"context"
	"testing"
)

const poolTestPrefix = "db:pool_test"

func TestNewPool_BadURLs(t *testing.T) {
	for _, u := range []string{"invalid://not-a-valid-database-url", ""} {
		pool, err := NewPool(context.Background(), u)
		if err == nil {
			pool.Close()
			t.Errorf("%s - NewPool(%q) should fail", poolTestPrefix, u)
			continue
		}
		if pool != nil {
			t.Errorf("%s - NewPool(%q) returned a pool with an error", poolTestPrefix, u)
		}
	}
}

func TestMigrationDown_IsForwardOnly(t *testing.T) {
	if err := MigrationDown(context.Background(), nil, ""); err != nil {
		t.Errorf("%s - MigrationDown returned %v, want nil", poolTestPrefix, err)
	}
}
