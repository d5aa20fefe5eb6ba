package redis

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// releaseScript 仅当值仍为自己的 owner 时才删除，避免释放别人的租约
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// leaseBackend 租约用到的 Redis 命令，*goredis.Client 满足该接口
type leaseBackend interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *goredis.Cmd
}

// Lease 基于 SET NX PX 的互斥租约，多副本部署时保证同一周期只有一个实例执行清理。
type Lease struct {
	backend leaseBackend
	key     string
	owner   string
}

// NewLease 创建租约，owner 由主机名与随机串组成
func NewLease(client *Client, key string) *Lease {
	return newLease(client.rdb, key)
}

func newLease(backend leaseBackend, key string) *Lease {
	host, _ := os.Hostname()
	return &Lease{
		backend: backend,
		key:     key,
		owner:   fmt.Sprintf("%s-%s", host, uuid.NewString()),
	}
}

// Acquire 尝试获取租约，ttl 到期后自动失效
func (l *Lease) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	return l.backend.SetNX(ctx, l.key, l.owner, ttl).Result()
}

// Release 释放自己持有的租约；租约已过期或被他人持有时不做任何事
func (l *Lease) Release(ctx context.Context) error {
	return l.backend.Eval(ctx, releaseScript, []string{l.key}, l.owner).Err()
}

// Key 返回租约键名
func (l *Lease) Key() string {
	return l.key
}
