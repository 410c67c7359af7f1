package database

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventIsFull(t *testing.T) {
	tcases := []struct {
		name     string
		count    int
		capacity int
		expected bool
	}{
		{name: "below capacity", count: 3, capacity: 4, expected: false},
		{name: "at capacity", count: 4, capacity: 4, expected: true},
		{name: "over capacity", count: 5, capacity: 4, expected: true},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			e := Event{ParticipantCount: tc.count, Capacity: tc.capacity}
			assert.Equal(t, tc.expected, e.IsFull())
		})
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	assert.NoError(t, err, "expected migrations directory to be embedded")

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}

	assert.Contains(t, names, "000001_init.up.sql")
	assert.Contains(t, names, "000001_init.down.sql")
}
