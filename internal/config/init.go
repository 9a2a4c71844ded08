package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/repstack/repstack/internal/reperrors"
)

// Init writes an example configuration file to path. Secrets are referenced
// as ${VAR} placeholders so the file can be committed as-is.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return reperrors.ConfigError("configuration file already exists").
			WithContext("path", path).
			UserAction().
			Build()
	}

	example := Config{
		Server: ServerConfig{
			Addr:       ":8080",
			CORSOrigin: "http://localhost:5173",
		},
		Site: SiteConfig{
			Host: "blog.example.com",
		},
		Store: StoreConfig{
			Backend:  "github",
			PostsDir: "content/posts",
			PagesDir: "content/pages",
			GitHub: &GitHubStoreConfig{
				Owner:          "example",
				Repo:           "fitness-blog",
				Branch:         "main",
				Token:          "${GITHUB_TOKEN}",
				CommitterName:  "repstack",
				CommitterEmail: "repstack@example.com",
			},
		},
		Auth: AuthConfig{
			OperatorEmail: "you@example.com",
			SessionSecret: "${SESSION_SECRET}",
			BaseURL:       "http://localhost:5173",
			TokenDB:       "repstack.db",
		},
		Notify: NotifyConfig{
			URL:     "nats://localhost:4222",
			Subject: "repstack.content",
		},
		Publisher: PublisherConfig{
			SweepInterval: "5m",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return reperrors.Wrap(err, reperrors.CategoryConfig, "marshal example configuration").Build()
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return reperrors.Wrap(err, reperrors.CategoryConfig, "write configuration file").
			WithContext("path", path).
			Build()
	}
	return nil
}
