package logstream

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"vod-packager/ddd/domain/gateway"
)

// RedisLogGateway 用Redis实现有序日志流服务。流是一个list，写游标
// 是追加前的list长度（十进制字符串，空流游标为空串）。追加用Lua脚本
// 原子校验游标，失步的写入被拒绝，对齐日志服务的序列令牌语义。
type RedisLogGateway struct {
	client *redis.Client
}

const sequenceConflictReply = "SEQUENCE_CONFLICT"

// appendScript 校验游标后原子追加，返回新的list长度。
var appendScript = redis.NewScript(`
local n = redis.call('LLEN', KEYS[1])
local expected = ARGV[1]
if expected == '' then expected = '0' end
if tostring(n) ~= expected then
  return redis.error_reply('` + sequenceConflictReply + `')
end
for i = 2, #ARGV do
  redis.call('RPUSH', KEYS[1], ARGV[i])
end
return redis.call('LLEN', KEYS[1])
`)

// NewRedisLogGateway 创建Redis日志流网关
func NewRedisLogGateway(client *redis.Client) gateway.LogStreamGateway {
	return &RedisLogGateway{client: client}
}

func groupKey(group string) string {
	return fmt.Sprintf("logs:%s:streams", group)
}

func streamKey(group, stream string) string {
	return fmt.Sprintf("logs:%s:stream:%s", group, stream)
}

// CreateLogGroupIfAbsent 幂等创建日志组
func (g *RedisLogGateway) CreateLogGroupIfAbsent(ctx context.Context, group string) error {
	if err := g.client.SAdd(ctx, "logs:groups", group).Err(); err != nil {
		return fmt.Errorf("create log group: %w", err)
	}
	return nil
}

// CreateLogStreamIfAbsent 幂等创建日志流
func (g *RedisLogGateway) CreateLogStreamIfAbsent(ctx context.Context, group, stream string) error {
	if err := g.client.SAdd(ctx, groupKey(group), stream).Err(); err != nil {
		return fmt.Errorf("create log stream: %w", err)
	}
	return nil
}

// DescribeStream 返回流当前写游标；流为空时返回空串。
func (g *RedisLogGateway) DescribeStream(ctx context.Context, group, stream string) (string, error) {
	n, err := g.client.LLen(ctx, streamKey(group, stream)).Result()
	if err != nil {
		return "", fmt.Errorf("describe stream: %w", err)
	}
	if n == 0 {
		return "", nil
	}
	return strconv.FormatInt(n, 10), nil
}

// AppendEvents 以cursor为序追加事件，返回下一个游标。
func (g *RedisLogGateway) AppendEvents(ctx context.Context, group, stream string, events []gateway.LogEvent, cursor string) (string, error) {
	if len(events) == 0 {
		return cursor, nil
	}

	argv := make([]interface{}, 0, len(events)+1)
	argv = append(argv, cursor)
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return "", fmt.Errorf("marshal log event: %w", err)
		}
		argv = append(argv, string(payload))
	}

	res, err := appendScript.Run(ctx, g.client, []string{streamKey(group, stream)}, argv...).Result()
	if err != nil {
		if strings.Contains(err.Error(), sequenceConflictReply) {
			return "", gateway.ErrSequenceConflict
		}
		return "", fmt.Errorf("append events: %w", err)
	}

	next, ok := res.(int64)
	if !ok {
		return "", fmt.Errorf("unexpected append reply type %T", res)
	}
	return strconv.FormatInt(next, 10), nil
}
