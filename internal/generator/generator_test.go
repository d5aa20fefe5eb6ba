package generator

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource 按顺序返回预设值
type scriptedSource struct {
	values []int
	calls  []int
}

func (s *scriptedSource) Intn(n int) int {
	s.calls = append(s.calls, n)
	v := s.values[0]
	s.values = s.values[1:]
	return v
}

var addressPattern = regexp.MustCompile(`^([a-z.]+)(\d{1,3})@([a-z.]+)$`)

func TestGenerator_Generate(t *testing.T) {
	t.Run("注入随机源得到确定结果", func(t *testing.T) {
		src := &scriptedSource{values: []int{3, 1, 42}}
		gen := New(src)

		assert.Equal(t, "lisa.davis42@securemail.space", gen.Generate())
		assert.Equal(t, []int{len(Names), len(Domains), SuffixRange}, src.calls)
	})

	t.Run("边界值", func(t *testing.T) {
		gen := New(&scriptedSource{values: []int{0, 0, 0, 5, 2, 998}})

		assert.Equal(t, "alex.johnson0@privateinbox.net", gen.Generate())
		assert.Equal(t, "emma.taylor998@privacybox.io", gen.Generate())
	})

	t.Run("相同种子序列一致", func(t *testing.T) {
		a := NewSeeded(7)
		b := NewSeeded(7)
		for i := 0; i < 20; i++ {
			assert.Equal(t, a.Generate(), b.Generate())
		}
	})

	t.Run("地址格式符合词表与范围", func(t *testing.T) {
		gen := NewSeeded(20241018)
		for i := 0; i < 2000; i++ {
			addr := gen.Generate()
			m := addressPattern.FindStringSubmatch(addr)
			require.NotNil(t, m, addr)

			assert.Contains(t, Names, m[1])
			assert.Contains(t, Domains, m[3])

			n, err := strconv.Atoi(m[2])
			require.NoError(t, err)
			assert.GreaterOrEqual(t, n, 0)
			assert.Less(t, n, SuffixRange)
			assert.Equal(t, 1, strings.Count(addr, "@"))
		}
	})

	t.Run("并发调用", func(t *testing.T) {
		gen := NewDefault()
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					assert.Regexp(t, addressPattern, gen.Generate())
				}
			}()
		}
		wg.Wait()
	})
}

func TestVocabularySizes(t *testing.T) {
	assert.GreaterOrEqual(t, len(Names), 6)
	assert.GreaterOrEqual(t, len(Domains), 3)
}
