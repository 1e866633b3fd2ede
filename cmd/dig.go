package cmd

import (
	"go.uber.org/dig"

	"github.com/computersalat/obs-service-github-tarballs/application"
	"github.com/computersalat/obs-service-github-tarballs/config"
	"github.com/computersalat/obs-service-github-tarballs/domain"
	"github.com/computersalat/obs-service-github-tarballs/infrastructure/archive"
	ghForge "github.com/computersalat/obs-service-github-tarballs/infrastructure/forge/github"
)

// injectService assembles the orchestrator and its collaborators through a
// DIG container (bottom-up: config -> infrastructure -> application).
func injectService(cfg *config.Config) (*application.Service, error) {
	container := dig.New()

	providers := []interface{}{
		func() *config.Config { return cfg },
		newForgeClient,
		archive.New,
		newVersionTranslator,
		application.NewService,
	}
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	var svc *application.Service
	if err := container.Invoke(func(s *application.Service) {
		svc = s
	}); err != nil {
		return nil, err
	}
	return svc, nil
}

func newForgeClient(cfg *config.Config) (domain.ForgeClient, error) {
	user, token := "", ""
	if cfg.Credential != nil {
		user, token = cfg.Credential.User, cfg.Credential.Token
	}
	return ghForge.New(cfg.APIHost, cfg.RepoURL, user, token)
}

func newVersionTranslator() domain.VersionTranslator {
	return domain.NoopTranslator{}
}
