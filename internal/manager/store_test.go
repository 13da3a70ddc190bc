package manager

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/sqlbook/internal/db/models"
)

func testConfig(name string) models.ConnectionConfig {
	return models.ConnectionConfig{
		Name:   name,
		URI:    "mysql://u:p@" + name + "/db",
		Driver: models.DriverMySQL,
	}
}

func TestStore_AppendAndInfos(t *testing.T) {
	s := NewStore(nil)

	assert.Equal(t, 0, s.Append(testConfig("a"), nil))
	assert.Equal(t, 1, s.Append(testConfig("b"), nil))

	assert.Equal(t, []models.ConnectionInfo{
		{ID: 0, Name: "a", Host: "a"},
		{ID: 1, Name: "b", Host: "b"},
	}, s.Infos())
}

func TestStore_RemoveShiftsIDs(t *testing.T) {
	s := NewStore([]models.ConnectionConfig{testConfig("a"), testConfig("b"), testConfig("c")})

	removed, err := s.Remove(0)
	require.NoError(t, err)
	assert.Equal(t, "a", removed.Config.Name)

	infos := s.Infos()
	require.Len(t, infos, 2)
	assert.Equal(t, models.ConnectionInfo{ID: 0, Name: "b", Host: "b"}, infos[0])
	assert.Equal(t, models.ConnectionInfo{ID: 1, Name: "c", Host: "c"}, infos[1])
}

func TestStore_Replace(t *testing.T) {
	first := &fakeConn{}
	s := NewStore(nil)
	s.Append(testConfig("a"), first)

	old, err := s.Replace(0, testConfig("z"), nil)
	require.NoError(t, err)
	assert.Same(t, first, old)
	assert.Equal(t, []models.ConnectionConfig{testConfig("z")}, s.Configs())
}

func TestStore_OutOfRange(t *testing.T) {
	s := NewStore([]models.ConnectionConfig{testConfig("a")})

	for _, id := range []int{-1, 1, 42} {
		_, err := s.Get(id)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange), "Get(%d)", id)

		_, err = s.Replace(id, testConfig("x"), nil)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange), "Replace(%d)", id)

		_, err = s.Remove(id)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange), "Remove(%d)", id)
	}
	assert.Equal(t, 1, s.Len())
}

func TestStore_ConfigsIsCopy(t *testing.T) {
	s := NewStore([]models.ConnectionConfig{testConfig("a")})

	configs := s.Configs()
	configs[0].Name = "mutated"

	entry, err := s.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "a", entry.Config.Name)
}
