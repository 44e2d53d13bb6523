package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() *Config {
	return &Config{
		Bible: BibleConfig{
			DatasetFile: filepath.Join("data", "reina_valera.json"),
			CatalogFile: filepath.Join("data", "characters.json"),
		},
		Storage: StorageConfig{
			Driver:           "file",
			Directory:        filepath.Join("data", "storage"),
			FallbackToMemory: true,
			SQLite:           SQLiteConfig{Path: filepath.Join("data", "biblia.db")},
			Database: DatabaseConfig{
				Host:     "localhost",
				Port:     3306,
				Database: "biblia",
				Username: "user",
			},
			Remote: RemoteConfig{
				RetryAttempts: 3,
				Timeout:       10 * time.Second,
			},
		},
		Reading:   ReadingConfig{MinDwell: 3 * time.Second},
		Prayers:   PrayersConfig{Bitrate: 128000, ChunkSize: 4096},
		Catalog:   CatalogConfig{GenerateLimit: 1700},
		Outputs:   OutputsConfig{ReportDirectory: filepath.Join("outputs", "reports")},
		Templates: TemplatesConfig{ReportTemplate: ""},
		Server: ServerConfig{
			Port: 8080,
			CORS: CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		},
	}
}

func TestConfigLoader_Load(t *testing.T) {
	tests := []struct {
		name              string
		configContent     string
		useExplicitPath   bool
		env               map[string]string
		wantErr           bool
		want              func() *Config
		wantErrorContains []string
	}{
		{
			name: "valid config file with custom values",
			configContent: `bible:
  dataset_file: custom/bible.json
  catalog_file: custom/characters.yml
storage:
  driver: sqlite
  sqlite:
    path: custom/biblia.db
reading:
  min_dwell: 5s
prayers:
  bitrate: 64000
`,
			want: func() *Config {
				cfg := defaultConfig()
				cfg.Bible = BibleConfig{DatasetFile: "custom/bible.json", CatalogFile: "custom/characters.yml"}
				cfg.Storage.Driver = "sqlite"
				cfg.Storage.SQLite.Path = "custom/biblia.db"
				cfg.Reading.MinDwell = 5 * time.Second
				cfg.Prayers.Bitrate = 64000
				return cfg
			},
		},
		{
			name: "invalid YAML format",
			configContent: `bible:
  dataset_file: custom/bible.json
  invalid yaml format here [[[
`,
			wantErr: true,
			wantErrorContains: []string{
				"configuration file found but could not be read",
				"Please check the file format and permissions",
			},
		},
		{
			name: "unknown keys use defaults",
			configContent: `wrong_key:
  some_value: test
`,
			want: defaultConfig,
		},
		{
			name:            "explicit config file path",
			useExplicitPath: true,
			configContent: `storage:
  driver: memory
server:
  port: 9090
`,
			want: func() *Config {
				cfg := defaultConfig()
				cfg.Storage.Driver = "memory"
				cfg.Server.Port = 9090
				return cfg
			},
		},
		{
			name:          "environment variables",
			configContent: "",
			env: map[string]string{
				"BIBLIA_USER":       "maria",
				"DB_PASSWORD":       "secret",
				"DATABASE_URL":      "postgres://localhost/biblia",
				"BIBLIA_REMOTE_URL": "http://localhost:8080",
			},
			want: func() *Config {
				cfg := defaultConfig()
				cfg.User = "maria"
				cfg.Storage.Database.Password = "secret"
				cfg.Storage.Postgres.URL = "postgres://localhost/biblia"
				cfg.Storage.Remote.BaseURL = "http://localhost:8080"
				return cfg
			},
		},
		{
			name: "unsupported storage driver",
			configContent: `storage:
  driver: redis
`,
			wantErr:           true,
			wantErrorContains: []string{"invalid configuration", "driver"},
		},
		{
			name: "missing report template",
			configContent: `templates:
  report_template: does/not/exist.md.go.tmpl
`,
			wantErr:           true,
			wantErrorContains: []string{"templates.report_template must be an existing and readable file"},
		},
		{
			name: "non positive bitrate",
			configContent: `prayers:
  bitrate: 0
`,
			wantErr:           true,
			wantErrorContains: []string{"bitrate"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.env {
				t.Setenv(key, value)
			}
			tempDir := t.TempDir()

			var configPath string
			if tt.useExplicitPath {
				configPath = filepath.Join(tempDir, "biblia.yml")
				require.NoError(t, os.WriteFile(configPath, []byte(tt.configContent), 0644))
			} else {
				if tt.configContent != "" {
					require.NoError(t, os.WriteFile(filepath.Join(tempDir, "config.yml"), []byte(tt.configContent), 0644))
				}
				t.Chdir(tempDir)
			}

			loader, err := NewConfigLoader(configPath)
			require.NoError(t, err)
			got, err := loader.Load()

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				for _, wantMsg := range tt.wantErrorContains {
					assert.Contains(t, err.Error(), wantMsg)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want(), got)
		})
	}
}

func TestIsNotRegularFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	validate, _, err := newValidator()
	require.NoError(t, err)

	type target struct {
		Path string `mapstructure:"path" validate:"notfile"`
	}
	assert.NoError(t, validate.Struct(target{Path: dir}))
	assert.NoError(t, validate.Struct(target{Path: filepath.Join(dir, "missing")}))
	assert.Error(t, validate.Struct(target{Path: file}))
}
