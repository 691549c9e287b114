package hashtable

import (
	"bytes"
	"math/rand"
	"sync"
	"testing"

	"github.com/joeycumines/go-objrt/internal/logging"
	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constHash[K any](K) uint64 { return 42 }

func newIntTable(t *testing.T, free FreeFunc[int], options ...Option) *Table[int, int] {
	t.Helper()
	x, err := New[int, int](Integer[int], free, append([]Option{WithSink(nil)}, options...)...)
	require.NoError(t, err)
	return x
}

func TestNew_nilHashFunc(t *testing.T) {
	x, err := New[string, int](nil, nil)
	assert.Nil(t, x)
	assert.ErrorIs(t, err, ErrNilHashFunc)
}

func TestNew_invalidOptions(t *testing.T) {
	_, err := New[int, int](Integer[int], nil, WithInitialExponent(31))
	assert.Error(t, err)
	_, err = New[int, int](Integer[int], nil, WithMaxExponent(-1))
	assert.Error(t, err)
}

func TestNew_defaults(t *testing.T) {
	x := newIntTable(t, nil)
	assert.Equal(t, 0, x.Len())
	assert.Equal(t, 1<<DefaultExponent, x.Cap())
	assert.Equal(t, int32(1), x.RefCount())
}

func TestTable_InsertLookupRemove(t *testing.T) {
	var freed []int
	x := newIntTable(t, func(v int) { freed = append(freed, v) })

	x.Insert(1, 10)
	x.Insert(2, 20)
	assert.Equal(t, 2, x.Len())

	v, ok := x.Lookup(1)
	assert.True(t, ok)
	assert.Equal(t, 10, v)

	x.Insert(1, 11)
	assert.Equal(t, 2, x.Len())
	assert.Equal(t, []int{10}, freed)
	v, _ = x.Lookup(1)
	assert.Equal(t, 11, v)

	assert.True(t, x.Remove(2))
	assert.False(t, x.Remove(2))
	assert.Equal(t, []int{10, 20}, freed)
	assert.Equal(t, 1, x.Len())

	_, ok = x.Lookup(2)
	assert.False(t, ok)
	assert.False(t, x.Contains(2))
	assert.True(t, x.Contains(1))
}

func TestTable_Steal(t *testing.T) {
	var freed int
	x := newIntTable(t, func(int) { freed++ })
	x.Insert(7, 49)
	v, ok := x.Steal(7)
	assert.True(t, ok)
	assert.Equal(t, 49, v)
	assert.Equal(t, 0, freed)
	assert.Equal(t, 0, x.Len())
	_, ok = x.Steal(7)
	assert.False(t, ok)
}

func TestTable_collidingKeysDoNotAlias(t *testing.T) {
	x, err := New[string, int](constHash[string], nil, WithSink(nil))
	require.NoError(t, err)
	x.Insert(`a`, 1)
	x.Insert(`b`, 2)
	x.Insert(`c`, 3)
	assert.Equal(t, 3, x.Len())
	for k, want := range map[string]int{`a`: 1, `b`: 2, `c`: 3} {
		v, ok := x.Lookup(k)
		assert.True(t, ok, k)
		assert.Equal(t, want, v, k)
	}
	assert.True(t, x.Remove(`b`))
	assert.Equal(t, 2, x.Len())
	_, ok := x.Lookup(`b`)
	assert.False(t, ok)
}

func TestTable_Lookup_movesHitToChainHead(t *testing.T) {
	x, err := New[int, string](constHash[int], nil, WithSink(nil))
	require.NoError(t, err)
	x.Insert(1, `one`)
	x.Insert(2, `two`)
	x.Insert(3, `three`)

	i := x.index(42)
	chain := func() (keys []int) {
		for b := x.slots[i]; b != nil; b = b.next {
			keys = append(keys, b.key)
		}
		return
	}
	// inserts prepend
	assert.Equal(t, []int{3, 2, 1}, chain())

	_, ok := x.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, []int{1, 3, 2}, chain())

	_, ok = x.Lookup(3)
	require.True(t, ok)
	assert.Equal(t, []int{3, 1, 2}, chain())

	// a miss leaves the order untouched
	_, ok = x.Lookup(4)
	require.False(t, ok)
	assert.Equal(t, []int{3, 1, 2}, chain())

	// Contains and Peek do not reorder
	assert.True(t, x.Contains(2))
	v, ok := x.Peek(2)
	assert.True(t, ok)
	assert.Equal(t, `two`, v)
	assert.Equal(t, []int{3, 1, 2}, chain())

	// the chain stays in the same slot, and its links are consistent
	for b := x.slots[i]; b != nil; b = b.next {
		if b.next != nil {
			assert.Same(t, b, b.next.prev)
		}
	}
	assert.Nil(t, x.slots[i].prev)
}

func TestTable_growthPreservesMappings(t *testing.T) {
	x := newIntTable(t, nil, WithInitialExponent(2))
	for i := 1; i <= 1000; i++ {
		x.Insert(i, i*i)
	}
	assert.GreaterOrEqual(t, x.grows, 2)
	assert.Equal(t, 1000, x.Len())
	assert.Greater(t, x.Cap(), 4)
	for i := 1; i <= 1000; i++ {
		v, ok := x.Lookup(i)
		if !ok || v != i*i {
			t.Fatalf(`key %d: got %d, %v`, i, v, ok)
		}
	}
}

func TestTable_growthRelinksNodes(t *testing.T) {
	x := newIntTable(t, nil, WithInitialExponent(1))
	x.Insert(1, 1)
	before := x.slots[x.index(x.hash(1))]
	require.NotNil(t, before)
	for i := 2; i <= 64; i++ {
		x.Insert(i, i)
	}
	_, after := x.find(1)
	assert.Same(t, before, after)
}

func TestTable_thresholdTiers(t *testing.T) {
	x := newIntTable(t, nil)
	for _, tc := range []struct {
		mod  uint8
		want int
	}{
		{2, 3},
		{3, 6},
		{7, 96},
		{8, 256},
		{15, 1 << 15},
		{16, 1 << 17},
	} {
		x.mod = tc.mod
		x.slots = make([]*bucket[int, int], 1<<tc.mod)
		assert.Equal(t, tc.want, x.threshold(), `mod %d`, tc.mod)
	}
}

func TestTable_capacityCeiling(t *testing.T) {
	var buf bytes.Buffer
	sink := logging.New(logging.NewDefault(&buf, logiface.LevelWarning), nil)
	x, err := New[int, int](Integer[int], nil, WithInitialExponent(1), WithMaxExponent(2), WithSink(sink))
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		x.Insert(i, -i)
	}
	assert.Equal(t, 4, x.Cap())
	assert.Equal(t, 100, x.Len())
	for i := 0; i < 100; i++ {
		v, ok := x.Lookup(i)
		require.True(t, ok)
		require.Equal(t, -i, v)
	}
	assert.Contains(t, buf.String(), `capacity ceiling reached`)
}

func TestTable_modelCheck(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	model := make(map[int]int)
	x := newIntTable(t, nil, WithInitialExponent(0))
	for i := 0; i < 20000; i++ {
		k := rng.Intn(512)
		switch rng.Intn(3) {
		case 0, 1:
			v := rng.Int()
			x.Insert(k, v)
			model[k] = v
		case 2:
			_, want := model[k]
			delete(model, k)
			require.Equal(t, want, x.Remove(k))
		}
		require.Equal(t, len(model), x.Len())
	}
	for k, want := range model {
		v, ok := x.Lookup(k)
		require.True(t, ok)
		require.Equal(t, want, v)
	}
	seen := make(map[int]int)
	for k, v := range x.All() {
		seen[k] = v
	}
	assert.Equal(t, model, seen)
}

func TestTable_All_earlyStop(t *testing.T) {
	x := newIntTable(t, nil)
	for i := 0; i < 10; i++ {
		x.Insert(i, i)
	}
	var n int
	x.Range(func(int, int) bool {
		n++
		return n < 3
	})
	assert.Equal(t, 3, n)
}

func TestTable_All_mutationPanics(t *testing.T) {
	x := newIntTable(t, nil)
	for i := 0; i < 10; i++ {
		x.Insert(i, i)
	}
	assert.Panics(t, func() {
		for k := range x.All() {
			x.Insert(k+100, 0)
		}
	})
	assert.Equal(t, int32(0), x.iterating.Load())
}

func TestTable_All_lookupDoesNotReorder(t *testing.T) {
	x, err := New[int, int](constHash[int], nil, WithSink(nil))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		x.Insert(i, i)
	}
	var visited []int
	for k := range x.All() {
		visited = append(visited, k)
		_, _ = x.Lookup(0)
	}
	assert.Equal(t, []int{4, 3, 2, 1, 0}, visited)
}

func TestTable_concurrentReaders(t *testing.T) {
	x, err := New[int, int](constHash[int], nil, WithSink(nil))
	require.NoError(t, err)
	for i := 0; i < 64; i++ {
		x.Insert(i, i*2)
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 50; n++ {
				var sum int
				for k, v := range x.All() {
					if !assert.Equal(t, k*2, v) {
						return
					}
					sum += v
				}
				assert.Equal(t, 63*64, sum)
				v, ok := x.Peek(n)
				assert.True(t, ok)
				assert.Equal(t, n*2, v)
				assert.True(t, x.Contains(n))
			}
		}()
	}
	wg.Wait()

	// the iteration count has unwound, so lookups reorder again
	_, ok := x.Lookup(0)
	require.True(t, ok)
	for k := range x.All() {
		assert.Equal(t, 0, k)
		break
	}
}

func TestTable_nilReceiver(t *testing.T) {
	var x *Table[int, int]
	assert.NotPanics(t, func() {
		assert.Zero(t, x.Len())
		assert.Zero(t, x.Cap())
		x.Insert(1, 1)
		_, ok := x.Lookup(1)
		assert.False(t, ok)
		_, ok = x.Peek(1)
		assert.False(t, ok)
		assert.False(t, x.Contains(1))
		assert.False(t, x.Remove(1))
		_, ok = x.Steal(1)
		assert.False(t, ok)
		x.Clear()
		for range x.All() {
			t.Error(`unexpected entry`)
		}
		x.Range(func(int, int) bool {
			t.Error(`unexpected entry`)
			return true
		})
		assert.Nil(t, x.Ref())
		assert.False(t, x.Unref())
		assert.Zero(t, x.RefCount())
	})
}

func TestTable_Clear(t *testing.T) {
	var freed int
	x := newIntTable(t, func(int) { freed++ })
	for i := 0; i < 20; i++ {
		x.Insert(i, i)
	}
	c := x.Cap()
	x.Clear()
	assert.Equal(t, 20, freed)
	assert.Equal(t, 0, x.Len())
	assert.Equal(t, c, x.Cap())
	x.Insert(1, 1)
	assert.Equal(t, 1, x.Len())
}

func TestTable_RefUnref(t *testing.T) {
	var freed int
	x := newIntTable(t, func(int) { freed++ })
	x.Insert(1, 1)
	x.Insert(2, 2)

	assert.Same(t, x, x.Ref())
	assert.Equal(t, int32(2), x.RefCount())
	assert.False(t, x.Unref())
	assert.Equal(t, 0, freed)

	assert.True(t, x.Unref())
	assert.Equal(t, 2, freed)
	assert.Equal(t, 0, x.Len())

	// torn down: operations are no-ops
	x.Insert(3, 3)
	assert.Equal(t, 0, x.Len())
	_, ok := x.Lookup(1)
	assert.False(t, ok)
	assert.False(t, x.Unref())
	assert.Equal(t, int32(0), x.RefCount())
}

func TestHashHelpers(t *testing.T) {
	assert.Equal(t, String(`abc`), Bytes([]byte(`abc`)))
	assert.NotEqual(t, String(`abc`), String(`abd`))
	assert.NotEqual(t, Integer(1), Integer(2))
	assert.Equal(t, Integer[int64](5), Integer[uint64](5))
	assert.Equal(t, uint64(9), Identity(9))
}
