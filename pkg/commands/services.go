package commands

import (
	"github.com/grovetools/scribe/config"
	"github.com/grovetools/scribe/pkg/files"
	"github.com/grovetools/scribe/pkg/settings"
	"github.com/grovetools/scribe/pkg/upload"
	"github.com/grovetools/scribe/pkg/workspace"
	"github.com/grovetools/scribe/state"
)

// Services bundles the components the command handlers call into.
type Services struct {
	Store     *state.Manager
	Settings  *settings.Store
	Workspace *workspace.Store
	Images    *files.ImageSaver
	Picker    files.FolderPicker
	Tree      files.TreeOptions
	S3Configs *upload.ConfigStore
	Uploader  *upload.Uploader
}

// NewServices wires the services for stores under mgr, configured by cfg.
// A nil cfg uses config.Default().
func NewServices(mgr *state.Manager, cfg *config.Config, uploadOpts ...upload.Option) *Services {
	if cfg == nil {
		cfg = config.Default()
	}

	s3Configs := upload.NewConfigStore(mgr)
	opts := append([]upload.Option{upload.WithTimeout(cfg.UploadTimeout())}, uploadOpts...)

	return &Services{
		Store:     mgr,
		Settings:  settings.New(mgr),
		Workspace: workspace.New(mgr),
		Images:    files.NewImageSaver(cfg.Files.AssetsDir),
		Picker:    files.PickerFor(cfg.Files.Picker),
		Tree: files.TreeOptions{
			MaxDepth: cfg.Files.MaxDepth,
			MaxNodes: cfg.Files.MaxNodes,
			Ignore:   cfg.Files.Ignore,
		},
		S3Configs: s3Configs,
		Uploader:  upload.NewUploader(s3Configs, opts...),
	}
}

// NewDefault builds a registry with every command, using the default store
// location and the loaded application config.
func NewDefault() (*Registry, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, err
	}
	return NewWithServices(NewServices(state.DefaultManager(), cfg)), nil
}
