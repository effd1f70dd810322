// Package config loads service configuration from config.yml, an optional
// .env file and the process environment using viper.
package config

import (
	"fmt"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem abstracts file lookups so the resolver can be tested.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem reads the local disk.
type RealFileSystem struct{}

func (RealFileSystem) Exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// LoadEnv never overrides variables that are already set.
func (RealFileSystem) LoadEnv(p string) error { return godotenv.Load(p) }

// Resolver locates config.yml and .env for a service.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles holds the files LoadConfig will read. Empty means none.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// searchDirs lists where a service's files may live, relative to a working
// directory that is the repo root, cmd/<name> or a package under internal/.
func searchDirs(serviceName string) []string {
	var dirs []string
	for _, up := range []string{".", "..", "../.."} {
		dirs = append(dirs, path.Join(up, "cmd", serviceName))
	}
	for _, up := range []string{".", ".."} {
		dirs = append(dirs, path.Join(up, "config", serviceName), path.Join(up, "config"))
	}
	return append(dirs, ".", "..", "../..")
}

// ResolveFiles returns explicit paths from opts when given and searches
// for the rest.
func (r *Resolver) ResolveFiles(serviceName string, opts LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = r.first(searchDirs(serviceName), "config.yml")
	}
	if files.EnvFile == "" {
		files.EnvFile = r.first(searchDirs(serviceName), ".env."+serviceName, ".env")
	}
	return files
}

// first returns the first existing dir/name, trying names in order of
// preference across every dir.
func (r *Resolver) first(dirs []string, names ...string) string {
	for _, name := range names {
		for _, dir := range dirs {
			candidate := "./" + path.Join(dir, name)
			if strings.HasPrefix(dir, "..") {
				candidate = path.Join(dir, name)
			}
			if r.FileSystem.Exists(candidate) {
				return candidate
			}
		}
	}
	return ""
}

// LoaderConfig holds the loader's dependencies and optional explicit paths.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption configures LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem replaces the disk, for tests.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile skips the search for config.yml.
func WithConfigFile(p string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = p }
}

// WithEnvFile skips the search for .env.
func WithEnvFile(p string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = p }
}

// LoadConfig fills cfg from, lowest precedence first: config.yml, the .env
// file, the process environment. Missing files are skipped; a malformed
// config.yml is an error.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: RealFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}

	files := (&Resolver{FileSystem: lc.FileSystem}).ResolveFiles(serviceName, lc)
	v := viper.New()

	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", files.ConfigFile, err)
		}
	}
	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			return fmt.Errorf("loading env file %s: %w", files.EnvFile, err)
		}
	}

	v.AutomaticEnv()
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		for _, variant := range generateEnvKeyVariants(key) {
			v.Set(variant, value)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for service %s: %w", serviceName, err)
	}
	return nil
}

// maxNestedParts caps the variant expansion below; longer variable names
// only get their flat and fully dotted forms.
const maxNestedParts = 6

// generateEnvKeyVariants maps an environment variable to every viper key
// it could mean, since underscores separate both nesting levels and words:
//
//	AUTH_JWT_SECRET_KEY -> auth_jwt_secret_key, auth.jwt.secret.key,
//	                       auth.jwt.secret_key, auth.jwt_secret_key, ...
func generateEnvKeyVariants(envKey string) []string {
	parts := strings.Split(strings.ToLower(envKey), "_")
	flat := strings.Join(parts, "_")
	if len(parts) == 1 || slices.Contains(parts, "") {
		return []string{flat}
	}
	if len(parts) > maxNestedParts {
		return []string{flat, strings.Join(parts, ".")}
	}

	// Each gap between parts is either "." or "_".
	gaps := len(parts) - 1
	seen := make(map[string]struct{}, 1<<gaps)
	variants := make([]string, 0, 1<<gaps)
	for mask := 0; mask < 1<<gaps; mask++ {
		var b strings.Builder
		b.WriteString(parts[0])
		for i := 1; i < len(parts); i++ {
			if mask&(1<<(i-1)) != 0 {
				b.WriteByte('.')
			} else {
				b.WriteByte('_')
			}
			b.WriteString(parts[i])
		}
		key := b.String()
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			variants = append(variants, key)
		}
	}
	return variants
}
