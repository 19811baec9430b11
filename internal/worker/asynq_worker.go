package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/edupass/internal/constants"
	"github.com/edupass/internal/logger"
	"github.com/edupass/internal/provider"
	"github.com/edupass/internal/queue"
	"github.com/edupass/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(constants.TaskWelcomeEmail, c.handleWelcomeEmail)
	mux.HandleFunc(constants.TaskCodeExpirySweep, c.handleCodeExpirySweep)
}

func (c *Consumer) handleWelcomeEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_welcome_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.WelcomeEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_welcome_email_unmarshal_failed", "error", err)
		return err
	}
	email := strings.TrimSpace(payload.Email)
	if email == "" {
		logger.Debugw("worker_welcome_email_skip_empty_receiver")
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_welcome_email_skip_email_service_nil", "email", email)
		return nil
	}

	err := c.EmailService.SendWelcome(email)
	if err == nil {
		logger.Infow("worker_welcome_email_sent", "email", email)
		return nil
	}
	// 邮件通道未启用属于部署形态，不值得重试
	if errors.Is(err, service.ErrEmailServiceDisabled) || errors.Is(err, service.ErrEmailServiceNotConfigured) {
		logger.Debugw("worker_welcome_email_skip_disabled", "email", email)
		return nil
	}
	logger.Warnw("worker_welcome_email_send_failed", "email", email, "error", err)
	return err
}

// handleCodeExpirySweep 回填逾期验证码的终态标记
// 按记录预约触发，但每次执行都做一次全量逾期扫描，
// 漏投或重复投递都不影响最终状态（幂等）
func (c *Consumer) handleCodeExpirySweep(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_expiry_sweep_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CodeExpirySweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_expiry_sweep_unmarshal_failed", "error", err)
		return err
	}
	if c.CodeRepo == nil {
		logger.Warnw("worker_expiry_sweep_skip_repo_nil")
		return nil
	}

	affected, err := c.CodeRepo.ExpireOverdue(time.Now())
	if err != nil {
		logger.Warnw("worker_expiry_sweep_failed", "code_id", payload.CodeID, "error", err)
		return err
	}
	if affected > 0 {
		logger.Infow("worker_expiry_sweep_done", "code_id", payload.CodeID, "expired_count", affected)
	}
	return nil
}
