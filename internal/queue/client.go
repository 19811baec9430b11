package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/edupass/internal/config"
	"github.com/edupass/internal/constants"
	"github.com/edupass/internal/logger"

	"github.com/hibiken/asynq"
)

// Client 异步任务客户端
// Queue 未启用时为空壳，投递调用直接变成 no-op
type Client struct {
	inner *asynq.Client
}

// NewClient 创建任务客户端
func NewClient(cfg *config.QueueConfig) *Client {
	if cfg == nil || !cfg.Enabled {
		return &Client{}
	}
	return &Client{
		inner: asynq.NewClient(buildRedisOpt(cfg)),
	}
}

// Enabled 判断队列是否可用
func (c *Client) Enabled() bool {
	return c != nil && c.inner != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.inner.Close()
}

// EnqueueWelcomeEmail 投递欢迎邮件任务
func (c *Client) EnqueueWelcomeEmail(email string) error {
	if !c.Enabled() {
		return nil
	}
	payload, err := json.Marshal(WelcomeEmailPayload{Email: email})
	if err != nil {
		return err
	}
	task := asynq.NewTask(constants.TaskWelcomeEmail, payload)
	info, err := c.inner.Enqueue(task,
		asynq.Queue(constants.QueueDefault),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}
	logger.Infow("task_enqueued", "type", constants.TaskWelcomeEmail, "task_id", info.ID)
	return nil
}

// EnqueueCodeExpirySweep 投递延迟的验证码过期回填任务
// 在验证码写入时按其有效期预约，到期后把逾期记录标记为终态
func (c *Client) EnqueueCodeExpirySweep(codeID uint, delay time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	payload, err := json.Marshal(CodeExpirySweepPayload{CodeID: codeID})
	if err != nil {
		return err
	}
	task := asynq.NewTask(constants.TaskCodeExpirySweep, payload)
	opts := []asynq.Option{
		asynq.Queue(constants.QueueDefault),
		asynq.MaxRetry(3),
	}
	if delay > 0 {
		opts = append(opts, asynq.ProcessIn(delay))
	}
	info, err := c.inner.Enqueue(task, opts...)
	if err != nil {
		return err
	}
	logger.Infow("task_enqueued", "type", constants.TaskCodeExpirySweep, "task_id", info.ID, "delay", delay.String())
	return nil
}

// BuildServerConfig 构建 asynq 服务端配置
func BuildServerConfig(cfg *config.QueueConfig) asynq.Config {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	queues := cfg.Queues
	if len(queues) == 0 {
		queues = map[string]int{constants.QueueDefault: 10}
	}
	return asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

// BuildRedisOpt 构建队列 Redis 连接参数
func BuildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	return buildRedisOpt(cfg)
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}
