package listops

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   int64
	Name string
}

func (i item) Key() int64 { return i.ID }

func ids(list []item) []int64 {
	out := make([]int64, len(list))
	for i, el := range list {
		out[i] = el.ID
	}
	return out
}

func TestInsertFrontOnEmpty(t *testing.T) {
	got := InsertFront(nil, item{ID: 101, Name: "Ada"})
	require.Len(t, got, 1)
	assert.Equal(t, item{ID: 101, Name: "Ada"}, got[0])
}

func TestInsertFrontReplacesDuplicate(t *testing.T) {
	list := []item{{ID: 1}, {ID: 2}, {ID: 3}}
	got := InsertFront(list, item{ID: 2, Name: "new"})

	assert.Equal(t, []int64{2, 1, 3}, ids(got))
	assert.Equal(t, "new", got[0].Name)
	assert.Equal(t, []int64{1, 2, 3}, ids(list), "input must not change")
}

func TestReplaceByID(t *testing.T) {
	list := []item{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
	got := ReplaceByID(list, 2, func(i item) item { i.Name = "B"; return i })

	assert.Equal(t, []item{{ID: 1, Name: "a"}, {ID: 2, Name: "B"}}, got)
	assert.Equal(t, "b", list[1].Name)
}

func TestReplaceByIDAbsentIsEqual(t *testing.T) {
	list := []item{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
	got := ReplaceByID(list, 99, func(item) item { t.Fatal("updater must not run"); return item{} })
	assert.Equal(t, list, got)
}

func TestReplace(t *testing.T) {
	list := []item{{ID: 1}, {ID: 2, Name: "old"}}
	got := Replace(list, item{ID: 2, Name: "new"})
	assert.Equal(t, "new", got[1].Name)
}

func TestRemoveByID(t *testing.T) {
	list := []item{{ID: 5}, {ID: 9}}
	got := RemoveByID(list, 5)
	assert.Equal(t, []int64{9}, ids(got))

	again := RemoveByID(got, 5)
	assert.Equal(t, got, again)
}

func TestFindAndIndexOf(t *testing.T) {
	list := []item{{ID: 4, Name: "x"}, {ID: 8, Name: "y"}}

	found, ok := Find(list, 8)
	require.True(t, ok)
	assert.Equal(t, "y", found.Name)

	_, ok = Find(list, 1)
	assert.False(t, ok)

	assert.Equal(t, 1, IndexOf(list, 8))
	assert.Equal(t, -1, IndexOf(list, 1))
}

// Random sequences of edits never introduce duplicate ids and never reorder
// untouched elements.
func TestRandomEditSequencesKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		var list []item
		for step := 0; step < 40; step++ {
			id := int64(rng.Intn(12))
			before := list

			switch rng.Intn(3) {
			case 0:
				list = InsertFront(list, item{ID: id})
				require.Equal(t, id, list[0].ID)
				assertRelativeOrder(t, RemoveByID(before, id), list[1:])
			case 1:
				list = ReplaceByID(list, id, func(i item) item { i.Name = "touched"; return i })
				require.Equal(t, ids(before), ids(list))
			case 2:
				list = RemoveByID(list, id)
				assertRelativeOrder(t, RemoveByID(before, id), list)
			}
			assertUnique(t, list)
		}
	}
}

func assertUnique(t *testing.T, list []item) {
	t.Helper()
	seen := make(map[int64]bool, len(list))
	for _, el := range list {
		require.False(t, seen[el.ID], "duplicate id %d in %v", el.ID, ids(list))
		seen[el.ID] = true
	}
}

func assertRelativeOrder(t *testing.T, want, got []item) {
	t.Helper()
	require.Equal(t, ids(want), ids(got))
}
