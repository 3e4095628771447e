package bootstrap

import (
	"clinicalintel/internal/audio"
	"clinicalintel/internal/config"
	"clinicalintel/internal/logging"
	"clinicalintel/internal/ports"
	"clinicalintel/internal/providers/engine"
	"clinicalintel/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.WorkflowController
	Store      ports.SessionStore
	Config     config.Config
}

// Build wires all backend dependencies for the current runtime.
func Build(eventSink ports.EventSink) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	client := engine.NewClient(engine.Config{
		BaseURL: cfg.Engine.BaseURL,
		Timeout: cfg.Engine.Timeout,
	})

	controller := usecase.NewWorkflowController(
		audio.NewCapture(cfg.Audio.RecorderCommand),
		client,
		client,
		client,
		eventSink,
		usecase.Config{
			Audio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			ChunkSize: cfg.Session.ChunkSize,
			OrgID:     cfg.Org.OrgID,
			ClientID:  cfg.Org.ClientID,
		},
	)

	return Services{Controller: controller, Store: client, Config: cfg}, nil
}
