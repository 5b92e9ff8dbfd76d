package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"yashubustudio/namematch/matcher"
)

// Service holds the state behind the desktop window: the loaded catalog,
// the pending usernames and the scoring configuration.
type Service struct {
	mu         sync.RWMutex
	cfg        matcher.Config
	configPath string
	logger     zerolog.Logger
	model      *matcher.ModelHandle

	catalog     []matcher.EmployeeRecord
	catalogName string
	usernames   []string
	results     []matcher.Result
}

func NewService(cfg matcher.Config, configPath string, logger zerolog.Logger) *Service {
	s := &Service{cfg: cfg.Clone(), configPath: configPath, logger: logger}
	s.resetModel()
	return s
}

func (s *Service) resetModel() {
	if s.model != nil {
		_ = s.model.Close()
		s.model = nil
	}
	if s.cfg.Refiner.Enabled {
		s.model = matcher.NewModelHandle(matcher.OrtModelLoader(s.cfg.Refiner), s.logger)
	}
}

func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model != nil {
		_ = s.model.Close()
	}
}

func (s *Service) Config() matcher.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// UpdateConfig validates cfg, swaps it in and persists it.
func (s *Service) UpdateConfig(cfg matcher.Config) (matcher.Config, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return s.Config(), err
	}
	s.mu.Lock()
	refinerChanged := cfg.Refiner != s.cfg.Refiner
	s.cfg = cfg.Clone()
	if refinerChanged {
		s.resetModel()
	}
	path := s.configPath
	s.mu.Unlock()

	if err := matcher.SaveConfig(path, cfg); err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("設定の保存に失敗しました")
	}
	return cfg, nil
}

// LoadCatalog reads and normalizes an employee file.
func (s *Service) LoadCatalog(r io.Reader, name string) (int, error) {
	table, err := matcher.ReadTableFrom(r, name)
	if err != nil {
		return 0, err
	}
	catalog, err := matcher.NormalizeCatalog(table, s.Config().Columns)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.catalog = catalog
	s.catalogName = filepath.Base(name)
	s.results = nil
	s.mu.Unlock()
	s.logger.Info().Str("file", filepath.Base(name)).Int("employees", len(catalog)).Msg("社員データを読み込みました")
	return len(catalog), nil
}

// LoadUsernames reads a username file.
func (s *Service) LoadUsernames(r io.Reader, name string) (int, error) {
	table, err := matcher.ReadTableFrom(r, name)
	if err != nil {
		return 0, err
	}
	usernames, err := matcher.ParseUsernames(table, s.Config().Columns)
	if err != nil {
		return 0, err
	}
	s.SetUsernames(usernames)
	s.logger.Info().Str("file", filepath.Base(name)).Int("usernames", len(usernames)).Msg("ユーザー名を読み込みました")
	return len(usernames), nil
}

func (s *Service) SetUsernames(usernames []string) {
	s.mu.Lock()
	s.usernames = append([]string(nil), usernames...)
	s.mu.Unlock()
}

func (s *Service) Usernames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.usernames...)
}

// CatalogStats reports the loaded catalog file and size.
func (s *Service) CatalogStats() (string, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalogName, len(s.catalog)
}

// RefinerAvailable reports whether the tie-break model is loaded.
func (s *Service) RefinerAvailable() bool {
	s.mu.RLock()
	model := s.model
	s.mu.RUnlock()
	return model != nil && model.Available()
}

var errNoCatalog = errors.New("社員データが読み込まれていません")

// MatchAll resolves the pending usernames against the loaded catalog.
func (s *Service) MatchAll(ctx context.Context, progress func(done, total int)) ([]matcher.Result, error) {
	s.mu.RLock()
	catalog := s.catalog
	usernames := s.usernames
	cfg := s.cfg.Clone()
	model := s.model
	s.mu.RUnlock()

	if len(catalog) == 0 {
		return nil, errNoCatalog
	}
	opts := []matcher.Option{matcher.WithLogger(s.logger)}
	if progress != nil {
		opts = append(opts, matcher.WithProgress(progress))
	}
	if model != nil {
		opts = append(opts, matcher.WithRefiner(matcher.NewRefiner(model)))
	}
	engine, err := matcher.NewEngine(catalog, cfg, opts...)
	if err != nil {
		return nil, err
	}
	results, err := engine.MatchAll(ctx, usernames)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.results = results
	s.mu.Unlock()
	return results, nil
}

func (s *Service) Results() []matcher.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.results
}

// Export writes the last results as a report in the given format.
func (s *Service) Export(w io.Writer, format string) error {
	results := s.Results()
	if len(results) == 0 {
		return errors.New("出力データがありません")
	}
	rows := matcher.BuildReport(results)
	switch format {
	case "xlsx":
		return matcher.WriteReportXLSX(w, rows)
	case "csv", "":
		return matcher.WriteReportCSV(w, rows)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
