package app

import (
	"errors"

	"github.com/edupass/internal/config"
	"github.com/edupass/internal/logger"
	"github.com/edupass/internal/provider"
	"github.com/edupass/internal/router"
	"github.com/edupass/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)

	var services []Service

	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services, NewHTTPService(addr, engine))
	}

	if mode == ModeAll || mode == ModeWorker {
		if cfg.Queue.Enabled {
			consumer := worker.NewConsumer(container)
			workerService, err := worker.NewService(&cfg.Queue, consumer)
			if err != nil {
				return nil, err
			}
			services = append(services, workerService)
		} else if mode == ModeWorker {
			return nil, errors.New("worker mode requires queue.enabled=true")
		} else {
			logger.Warnw("worker_disabled_queue_off")
		}
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
