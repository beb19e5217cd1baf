package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// BoardFile はボード設定ファイル（YAML）の内容。
// 指定されたキーだけが環境変数の値を上書きする。
type BoardFile struct {
	Title         string   `yaml:"title"`
	PrivilegedIDs []string `yaml:"privileged_ids"`
	NoticeTTL     string   `yaml:"notice_ttl"`
}

// ReadBoardFile はボード設定ファイルを読み込んで検証する。
func ReadBoardFile(path string) (*BoardFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read board config %s: %w", path, err)
	}

	var f BoardFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse board config %s: %w", path, err)
	}
	if f.NoticeTTL != "" {
		if _, err := time.ParseDuration(f.NoticeTTL); err != nil {
			return nil, fmt.Errorf("invalid notice_ttl %q: %w", f.NoticeTTL, err)
		}
	}
	return &f, nil
}

// BoardSettings はボード設定ファイルで上書きできる値。
type BoardSettings struct {
	Title         string
	PrivilegedIDs []string
	NoticeTTL     time.Duration
}

// Resolve はbaseにファイルで指定された値を重ねた結果を返す。
// ファイルにないキーはbaseの値になる。
func (f *BoardFile) Resolve(base BoardSettings) BoardSettings {
	out := base
	if f.Title != "" {
		out.Title = f.Title
	}
	if f.PrivilegedIDs != nil {
		out.PrivilegedIDs = f.PrivilegedIDs
	}
	if d, err := time.ParseDuration(f.NoticeTTL); err == nil {
		out.NoticeTTL = d
	}
	return out
}

// ApplyTo はファイルで指定された値をcfgに上書きする。
func (f *BoardFile) ApplyTo(cfg *Config) {
	s := f.Resolve(cfg.boardSettings())
	cfg.Title = s.Title
	cfg.PrivilegedIDs = s.PrivilegedIDs
	cfg.NoticeTTL = s.NoticeTTL
}
