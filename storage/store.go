package storage

import (
	"database/sql"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/teranos/qlint/db"
	"github.com/teranos/qlint/errors"
	"github.com/teranos/qlint/logger"
	"github.com/teranos/qlint/rules"
)

// Store is the sqlite-backed rule and profile storage.
type Store struct {
	db    *sql.DB
	owned bool
	log   *zap.SugaredLogger
}

// NewStore uses an already migrated database. The caller keeps ownership of
// database.
func NewStore(database *sql.DB, log *zap.SugaredLogger) *Store {
	return &Store{db: database, log: logger.Component(log, "storage")}
}

// Open opens (and migrates) the storage database at path.
func Open(path string, log *zap.SugaredLogger) (*Store, error) {
	database, err := db.OpenWithMigrations(path, log)
	if err != nil {
		return nil, err
	}
	s := NewStore(database, log)
	s.owned = true
	return s, nil
}

// Close closes the database if the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// Stop implements container.Stopper.
func (s *Store) Stop() error {
	return s.Close()
}

// ReadRules implements Reader.
func (s *Store) ReadRules() (*Rules, error) {
	rows, err := s.db.Query(`SELECT repository, rule, name, language, severity, type, description, template_key, params
		FROM rules ORDER BY rule_key`)
	if err != nil {
		return nil, s.readError(err, "failed to read rule definitions")
	}
	defer rows.Close()

	var defs []*rules.Definition
	for rows.Next() {
		var (
			def    rules.Definition
			params string
		)
		if err := rows.Scan(&def.Key.Repository, &def.Key.Rule, &def.Name, &def.Language,
			&def.Severity, &def.Type, &def.Description, &def.TemplateKey, &params); err != nil {
			return nil, errors.Wrap(err, "failed to scan rule definition")
		}
		if def.Params, err = decodeParams(params); err != nil {
			return nil, errors.Wrapf(err, "rule %s", def.Key)
		}
		defs = append(defs, &def)
	}
	if err := rows.Err(); err != nil {
		return nil, s.readError(err, "failed to read rule definitions")
	}

	s.log.Debugw("Read rule definitions", logger.FieldCount, len(defs))
	return NewRules(defs...), nil
}

// ReadQualityProfiles implements Reader.
func (s *Store) ReadQualityProfiles() (*QProfiles, error) {
	rows, err := s.db.Query(`SELECT profile_key, name, language, active_rule_count, is_default
		FROM quality_profiles ORDER BY profile_key`)
	if err != nil {
		return nil, s.readError(err, "failed to read quality profiles")
	}
	defer rows.Close()

	var profiles []QualityProfile
	for rows.Next() {
		var p QualityProfile
		if err := rows.Scan(&p.Key, &p.Name, &p.Language, &p.ActiveRuleCount, &p.Default); err != nil {
			return nil, errors.Wrap(err, "failed to scan quality profile")
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.readError(err, "failed to read quality profiles")
	}

	s.log.Debugw("Read quality profiles", logger.FieldCount, len(profiles))
	return NewQProfiles(profiles...), nil
}

// ReadActiveRules implements Reader.
func (s *Store) ReadActiveRules(profileKey string) ([]ActiveRuleRecord, error) {
	rows, err := s.db.Query(`SELECT repository, rule, severity, params
		FROM active_rules WHERE profile_key = ? ORDER BY repository, rule`, profileKey)
	if err != nil {
		return nil, s.readError(err, "failed to read active rules of %s", profileKey)
	}
	defer rows.Close()

	var records []ActiveRuleRecord
	for rows.Next() {
		var (
			r      ActiveRuleRecord
			params string
		)
		if err := rows.Scan(&r.Repository, &r.Rule, &r.Severity, &params); err != nil {
			return nil, errors.Wrap(err, "failed to scan active rule")
		}
		if r.Params, err = decodeParams(params); err != nil {
			return nil, errors.Wrapf(err, "active rule %s of %s", r.Key(), profileKey)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, s.readError(err, "failed to read active rules of %s", profileKey)
	}
	return records, nil
}

// ReadProjectConfig implements Reader. A project with no stored profile
// mapping is ErrNotFound.
func (s *Store) ReadProjectConfig(projectKey string) (ProjectConfiguration, error) {
	cfg := ProjectConfiguration{ProjectKey: projectKey, ProfilesByLanguage: make(map[string]string)}

	rows, err := s.db.Query(`SELECT language, profile_key FROM project_profiles WHERE project_key = ?`, projectKey)
	if err != nil {
		return cfg, s.readError(err, "failed to read configuration of project %s", projectKey)
	}
	defer rows.Close()

	for rows.Next() {
		var lang, profile string
		if err := rows.Scan(&lang, &profile); err != nil {
			return cfg, errors.Wrap(err, "failed to scan project profile")
		}
		cfg.ProfilesByLanguage[lang] = profile
	}
	if err := rows.Err(); err != nil {
		return cfg, s.readError(err, "failed to read configuration of project %s", projectKey)
	}

	if len(cfg.ProfilesByLanguage) == 0 {
		return cfg, errors.WithHint(
			errors.NewNotFoundError("project %s has no stored configuration", projectKey),
			"Import or synchronize the project's quality profiles first.")
	}
	return cfg, nil
}

func (s *Store) readError(err error, format string, args ...interface{}) error {
	if db.IsDatabaseClosed(err) {
		err = errors.Mark(err, db.ErrDatabaseClosed)
	}
	return errors.Wrapf(err, format, args...)
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// PutRule inserts or replaces a rule definition.
func (s *Store) PutRule(def *rules.Definition) error {
	return putRule(s.db, def)
}

// PutQualityProfile inserts or replaces a quality profile.
func (s *Store) PutQualityProfile(p QualityProfile) error {
	return putQualityProfile(s.db, p)
}

// PutActiveRule inserts or replaces an active rule of a profile.
func (s *Store) PutActiveRule(profileKey string, r ActiveRuleRecord) error {
	return putActiveRule(s.db, profileKey, r)
}

// PutProjectConfig replaces the stored profile mapping of a project.
func (s *Store) PutProjectConfig(cfg ProjectConfiguration) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	if err := putProjectConfig(tx, cfg); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "failed to commit project configuration")
}

func putRule(x execer, def *rules.Definition) error {
	params, err := encodeParams(def.Params)
	if err != nil {
		return err
	}
	_, err = x.Exec(`INSERT OR REPLACE INTO rules
		(rule_key, repository, rule, name, language, severity, type, description, template_key, params)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		def.Key.String(), def.Key.Repository, def.Key.Rule, def.Name, def.Language,
		def.Severity, def.Type, def.Description, def.TemplateKey, params)
	return errors.Wrapf(err, "failed to store rule %s", def.Key)
}

func putQualityProfile(x execer, p QualityProfile) error {
	_, err := x.Exec(`INSERT OR REPLACE INTO quality_profiles
		(profile_key, name, language, active_rule_count, is_default)
		VALUES (?, ?, ?, ?, ?)`,
		p.Key, p.Name, p.Language, p.ActiveRuleCount, p.Default)
	return errors.Wrapf(err, "failed to store quality profile %s", p.Key)
}

func putActiveRule(x execer, profileKey string, r ActiveRuleRecord) error {
	params, err := encodeParams(r.Params)
	if err != nil {
		return err
	}
	_, err = x.Exec(`INSERT OR REPLACE INTO active_rules
		(profile_key, repository, rule, severity, params)
		VALUES (?, ?, ?, ?, ?)`,
		profileKey, r.Repository, r.Rule, r.Severity, params)
	return errors.Wrapf(err, "failed to store active rule %s of %s", r.Key(), profileKey)
}

func putProjectConfig(x execer, cfg ProjectConfiguration) error {
	if _, err := x.Exec(`DELETE FROM project_profiles WHERE project_key = ?`, cfg.ProjectKey); err != nil {
		return errors.Wrapf(err, "failed to clear configuration of project %s", cfg.ProjectKey)
	}
	for lang, profile := range cfg.ProfilesByLanguage {
		if _, err := x.Exec(`INSERT INTO project_profiles (project_key, language, profile_key) VALUES (?, ?, ?)`,
			cfg.ProjectKey, lang, profile); err != nil {
			return errors.Wrapf(err, "failed to store %s profile of project %s", lang, cfg.ProjectKey)
		}
	}
	return nil
}

func encodeParams(params map[string]string) (string, error) {
	if len(params) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(params)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode params")
	}
	return string(b), nil
}

func decodeParams(s string) (map[string]string, error) {
	if s == "" || s == "{}" {
		return nil, nil
	}
	var params map[string]string
	if err := json.Unmarshal([]byte(s), &params); err != nil {
		return nil, errors.Wrap(err, "failed to decode params")
	}
	return params, nil
}
