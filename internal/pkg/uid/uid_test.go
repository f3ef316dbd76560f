package uid

import (
	"testing"

	"github.com/google/uuid"
)

func TestSnowflake_Generate(t *testing.T) {
	gen, err := NewSnowflakeNode(7)
	if err != nil {
		t.Fatalf("NewSnowflakeNode: %v", err)
	}

	seen := make(map[int64]struct{}, 1000)
	prev := int64(0)
	for range 1000 {
		id := gen.Generate()
		if id <= prev {
			t.Fatalf("ids must increase: %d after %d", id, prev)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = struct{}{}
		prev = id
	}
}

func TestNewSnowflakeNode_OutOfRange(t *testing.T) {
	if _, err := NewSnowflakeNode(5000); err == nil {
		t.Fatalf("expected error for node out of range")
	}
}

func TestUUID_Generate(t *testing.T) {
	id, err := uuid.Parse(NewUUID().Generate())
	if err != nil {
		t.Fatalf("parse uuid: %v", err)
	}
	if id.Version() != 7 {
		t.Fatalf("version = %d, want 7", id.Version())
	}
}
