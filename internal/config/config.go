// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// RuntimeState carries values produced during a run rather than read
// from the config file. It is owned by the orchestrator and passed by
// reference into every step.
type RuntimeState struct {
	// The Action that will be performed
	// This can be one of the following:
	// - install
	// - uninstall
	// - verify
	// - diagnose
	Action string `yaml:"action"`

	// The directory where the logs will be saved
	LogDir  string `yaml:"logDir"`
	LogFile string `yaml:"logFile"`
	RunID   string `yaml:"runId"`

	KubeConfig string `yaml:"kubeConfig"`
	DryRun     bool   `yaml:"dryRun"`
}

// ComponentConfig holds the per-component override surface. All values
// are substituted into the component's chart install as named fields;
// free-form key/value maps are deliberately not supported.
type ComponentConfig struct {
	Chart        string `yaml:"chart"`
	ChartVersion string `yaml:"chartVersion"`
	Image        string `yaml:"image,omitempty"`
	Tag          string `yaml:"tag,omitempty"`
	Replicas     int    `yaml:"replicas,omitempty"`
}

type HelmRepository struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type InstallerConfig struct {
	Version   int          `yaml:"version"`
	Generated RuntimeState `yaml:"generated"`

	Global struct {
		Environment  string `yaml:"environment"` // deployment name, lowercase or digit
		Namespace    string `yaml:"namespace"`
		StorageClass string `yaml:"storageClass"`
		DNSProtocol  string `yaml:"dnsProtocol"` // http or https
		Domain       string `yaml:"domain"`
	} `yaml:"global"`

	Helm struct {
		Repositories []HelmRepository `yaml:"repositories"`
	} `yaml:"helm"`

	Database struct {
		Chart        string   `yaml:"chart"`
		ChartVersion string   `yaml:"chartVersion"`
		Host         string   `yaml:"host"`
		Port         int      `yaml:"port"`
		Name         string   `yaml:"name"`
		Username     string   `yaml:"username"`
		Password     string   `yaml:"password"`
		Schemas      []string `yaml:"schemas"`
	} `yaml:"database"`

	Operator      ComponentConfig `yaml:"operator"`
	CertManager   ComponentConfig `yaml:"certManager"`
	Elasticsearch ComponentConfig `yaml:"elasticsearch"`
	Solr          ComponentConfig `yaml:"solr"`

	Lightning struct {
		Server   ComponentConfig `yaml:"server"`
		API      ComponentConfig `yaml:"api"`
		GUI      ComponentConfig `yaml:"gui"`
		Zeppelin ComponentConfig `yaml:"zeppelin"`
		Assist   ComponentConfig `yaml:"assist"`
		Indexer  ComponentConfig `yaml:"indexer"`
	} `yaml:"lightning"`

	Airflow struct {
		Enabled      bool   `yaml:"enabled"`
		Chart        string `yaml:"chart"`
		ChartVersion string `yaml:"chartVersion"`
	} `yaml:"airflow,omitempty"`

	Encryption struct {
		// Base64-encoded DER key material for the Lightning Server
		// keystore secret. Treated as an opaque string.
		KeyMaterial string `yaml:"keyMaterial,omitempty"`
	} `yaml:"encryption,omitempty"`

	Keycloak struct {
		URL          string `yaml:"url"`
		Realm        string `yaml:"realm"`
		AdminUser    string `yaml:"adminUser"`
		AdminSecret  string `yaml:"adminSecret"`
		ClientID     string `yaml:"clientId,omitempty"`
		ClientSecret string `yaml:"clientSecret,omitempty"`
	} `yaml:"keycloak,omitempty"`

	InitialUser struct {
		Email        string `yaml:"email"`
		Password     string `yaml:"password"`
		Organization string `yaml:"organization"`
	} `yaml:"initialUser"`
}

// Load reads an installer config from a YAML or JSON file, selected by
// extension.
func Load(path string) (*InstallerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var parser koanf.Parser = yaml.Parser()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		parser = json.Parser()
	}

	cfg := &InstallerConfig{}
	if err := Deserialize(cfg, data, parser); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config back out as YAML.
func Save(cfg *InstallerConfig, path string) error {
	data, err := Serialize(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func Serialize(cfg any) ([]byte, error) {
	k := koanf.New(".")
	// NOTE: parser is nil since we are loading from a go struct
	if err := k.Load(structs.Provider(cfg, "yaml"), nil); err != nil {
		return nil, err
	}
	return k.Marshal(yaml.Parser())
}

func Deserialize(cfg any, data []byte, parser koanf.Parser) error {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return err
	}
	return k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "yaml",
	})
}
