// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package provision

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/searchrag/core"
)

const (
	DefaultRegion        = "eu-central-1"
	DefaultDomainName    = "rag"
	DefaultEngineVersion = "OpenSearch_2.13"
	DefaultInstanceType  = "t3.medium.search"
	DefaultVolumeSize    = 10
	DefaultVolumeType    = "gp3"
	DefaultTLSPolicy     = "Policy-Min-TLS-1-2-2019-07"
	DefaultMasterUser    = "rag"

	minVolumeSize = 10
)

// DomainConfig is the desired shape of the search domain and its master credential.
type DomainConfig struct {
	Region        string `yaml:"region"`
	DomainName    string `yaml:"domain_name"`
	EngineVersion string `yaml:"engine_version"`

	InstanceType  string `yaml:"instance_type"`
	InstanceCount int32  `yaml:"instance_count"`

	DedicatedMaster bool   `yaml:"dedicated_master"`
	MasterType      string `yaml:"master_type,omitempty"`
	MasterCount     int32  `yaml:"master_count,omitempty"`

	WarmEnabled bool   `yaml:"warm_enabled"`
	WarmType    string `yaml:"warm_type,omitempty"`
	WarmCount   int32  `yaml:"warm_count,omitempty"`

	ZoneAwareness bool `yaml:"zone_awareness"`

	VolumeSize int32  `yaml:"volume_size"`
	VolumeType string `yaml:"volume_type"`

	EncryptAtRest        bool   `yaml:"encrypt_at_rest"`
	NodeToNodeEncryption bool   `yaml:"node_to_node_encryption"`
	EnforceHTTPS         bool   `yaml:"enforce_https"`
	TLSPolicy            string `yaml:"tls_policy"`

	FineGrainedAccess    bool   `yaml:"fine_grained_access"`
	InternalUserDatabase bool   `yaml:"internal_user_database"`
	MasterUserName       string `yaml:"master_user_name"`

	// SecretName names the master credential secret.
	// Empty means "<domain>-master-credential".
	SecretName string `yaml:"secret_name,omitempty"`

	Tags map[string]string `yaml:"tags,omitempty"`
}

// DefaultDomainConfig returns a single-node domain with encryption and
// fine-grained access control backed by the internal user database.
func DefaultDomainConfig() DomainConfig {
	return DomainConfig{
		Region:               DefaultRegion,
		DomainName:           DefaultDomainName,
		EngineVersion:        DefaultEngineVersion,
		InstanceType:         DefaultInstanceType,
		InstanceCount:        1,
		VolumeSize:           DefaultVolumeSize,
		VolumeType:           DefaultVolumeType,
		EncryptAtRest:        true,
		NodeToNodeEncryption: true,
		EnforceHTTPS:         true,
		TLSPolicy:            DefaultTLSPolicy,
		FineGrainedAccess:    true,
		InternalUserDatabase: true,
		MasterUserName:       DefaultMasterUser,
	}
}

// EffectiveSecretName returns SecretName or the name derived from the domain.
func (c DomainConfig) EffectiveSecretName() string {
	if c.SecretName != "" {
		return c.SecretName
	}
	return c.DomainName + "-master-credential"
}

// UsesMasterPassword reports whether the domain is created with an internal
// master user whose password lives in the secret.
func (c DomainConfig) UsesMasterPassword() bool {
	return c.FineGrainedAccess && c.InternalUserDatabase
}

// Validate checks the combinations AWS would reject.
func (c DomainConfig) Validate() error {
	if c.Region == "" {
		return fmt.Errorf("%w: region is required", ErrInvalidConfig)
	}
	if err := core.ValidateDomainName(c.DomainName); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.EngineVersion == "" {
		return fmt.Errorf("%w: engine version is required", ErrInvalidConfig)
	}
	if c.InstanceType == "" {
		return fmt.Errorf("%w: instance type is required", ErrInvalidConfig)
	}
	if c.InstanceCount < 1 {
		return fmt.Errorf("%w: instance count must be at least 1", ErrInvalidConfig)
	}
	if c.ZoneAwareness && c.InstanceCount%2 != 0 {
		return fmt.Errorf("%w: zone awareness needs an even instance count", ErrInvalidConfig)
	}
	if c.VolumeSize < minVolumeSize {
		return fmt.Errorf("%w: volume size must be at least %d GiB", ErrInvalidConfig, minVolumeSize)
	}
	if c.VolumeType == "" {
		return fmt.Errorf("%w: volume type is required", ErrInvalidConfig)
	}

	if c.DedicatedMaster {
		if c.MasterType == "" {
			return fmt.Errorf("%w: dedicated master needs a master type", ErrInvalidConfig)
		}
		if c.MasterCount != 3 && c.MasterCount != 5 {
			return fmt.Errorf("%w: dedicated master count must be 3 or 5", ErrInvalidConfig)
		}
	}

	if c.WarmEnabled {
		if !c.DedicatedMaster {
			return fmt.Errorf("%w: warm nodes need a dedicated master", ErrInvalidConfig)
		}
		if c.WarmType == "" {
			return fmt.Errorf("%w: warm nodes need a warm type", ErrInvalidConfig)
		}
		if c.WarmCount < 2 {
			return fmt.Errorf("%w: warm count must be at least 2", ErrInvalidConfig)
		}
	}

	if c.FineGrainedAccess {
		if !c.EnforceHTTPS || !c.NodeToNodeEncryption || !c.EncryptAtRest {
			return fmt.Errorf("%w: fine-grained access control needs HTTPS enforcement, node-to-node encryption and encryption at rest", ErrInvalidConfig)
		}
		if c.InternalUserDatabase && c.MasterUserName == "" {
			return fmt.Errorf("%w: internal user database needs a master user name", ErrInvalidConfig)
		}
	}

	return nil
}

// Digest returns the content ID of the configuration's canonical JSON form.
// Map keys are sorted by the encoder, so equal configurations share a digest.
func (c DomainConfig) Digest() (core.ID, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return 0, fmt.Errorf("failed to encode domain config: %w", err)
	}
	return core.IDFromContent(string(data)), nil
}
