package generator

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Source 随机数来源，*rand.Rand 即满足该接口。测试中可注入确定性实现。
type Source interface {
	// Intn 返回 [0, n) 区间内的整数
	Intn(n int) int
}

// 地址词表
var (
	Names = []string{
		"alex.johnson",
		"sarah.wilson",
		"mike.brown",
		"lisa.davis",
		"john.smith",
		"emma.taylor",
	}
	Domains = []string{
		"privateinbox.net",
		"securemail.space",
		"privacybox.io",
	}
)

// SuffixRange 数字后缀取值范围 [0, SuffixRange)
const SuffixRange = 999

// Generator 生成形如 <name><n>@<domain> 的随机邮箱地址。
//
// 不做唯一性检查，也不会返回错误。
type Generator struct {
	mu      sync.Mutex
	src     Source
	names   []string
	domains []string
}

// New 使用指定的随机源创建生成器
func New(src Source) *Generator {
	return &Generator{
		src:     src,
		names:   Names,
		domains: Domains,
	}
}

// NewSeeded 使用固定种子创建生成器，相同种子产生相同序列
func NewSeeded(seed int64) *Generator {
	return New(rand.New(rand.NewSource(seed)))
}

// NewDefault 创建以当前时间为种子的生成器
func NewDefault() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// Generate 生成一个随机地址。并发安全。
func (g *Generator) Generate() string {
	g.mu.Lock()
	name := g.names[g.src.Intn(len(g.names))]
	domain := g.domains[g.src.Intn(len(g.domains))]
	suffix := g.src.Intn(SuffixRange)
	g.mu.Unlock()

	return fmt.Sprintf("%s%d@%s", name, suffix, domain)
}
