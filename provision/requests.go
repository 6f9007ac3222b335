package provision

import (
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/opensearch"
	ostypes "github.com/aws/aws-sdk-go-v2/service/opensearch/types"
)

func (c DomainConfig) clusterConfig() *ostypes.ClusterConfig {
	cc := &ostypes.ClusterConfig{
		InstanceType:           ostypes.OpenSearchPartitionInstanceType(c.InstanceType),
		InstanceCount:          aws.Int32(c.InstanceCount),
		DedicatedMasterEnabled: aws.Bool(c.DedicatedMaster),
		WarmEnabled:            aws.Bool(c.WarmEnabled),
		ZoneAwarenessEnabled:   aws.Bool(c.ZoneAwareness),
	}
	if c.DedicatedMaster {
		cc.DedicatedMasterType = ostypes.OpenSearchPartitionInstanceType(c.MasterType)
		cc.DedicatedMasterCount = aws.Int32(c.MasterCount)
	}
	if c.WarmEnabled {
		cc.WarmType = ostypes.OpenSearchWarmPartitionInstanceType(c.WarmType)
		cc.WarmCount = aws.Int32(c.WarmCount)
	}
	return cc
}

func (c DomainConfig) ebsOptions() *ostypes.EBSOptions {
	return &ostypes.EBSOptions{
		EBSEnabled: aws.Bool(true),
		VolumeSize: aws.Int32(c.VolumeSize),
		VolumeType: ostypes.VolumeType(c.VolumeType),
	}
}

func (c DomainConfig) encryptionAtRest() *ostypes.EncryptionAtRestOptions {
	return &ostypes.EncryptionAtRestOptions{Enabled: aws.Bool(c.EncryptAtRest)}
}

func (c DomainConfig) nodeToNode() *ostypes.NodeToNodeEncryptionOptions {
	return &ostypes.NodeToNodeEncryptionOptions{Enabled: aws.Bool(c.NodeToNodeEncryption)}
}

func (c DomainConfig) endpointOptions() *ostypes.DomainEndpointOptions {
	opts := &ostypes.DomainEndpointOptions{EnforceHTTPS: aws.Bool(c.EnforceHTTPS)}
	if c.TLSPolicy != "" {
		opts.TLSSecurityPolicy = ostypes.TLSSecurityPolicy(c.TLSPolicy)
	}
	return opts
}

// advancedSecurity builds the fine-grained access control settings.
// The master user is only sent when a password is available.
func (c DomainConfig) advancedSecurity(password string) *ostypes.AdvancedSecurityOptionsInput {
	in := &ostypes.AdvancedSecurityOptionsInput{
		Enabled:                     aws.Bool(c.FineGrainedAccess),
		InternalUserDatabaseEnabled: aws.Bool(c.FineGrainedAccess && c.InternalUserDatabase),
	}
	if c.UsesMasterPassword() && password != "" {
		in.MasterUserOptions = &ostypes.MasterUserOptions{
			MasterUserName:     aws.String(c.MasterUserName),
			MasterUserPassword: aws.String(password),
		}
	}
	return in
}

func (c DomainConfig) domainTags() []ostypes.Tag {
	keys := make([]string, 0, len(c.Tags))
	for k := range c.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tags := make([]ostypes.Tag, 0, len(keys))
	for _, k := range keys {
		tags = append(tags, ostypes.Tag{Key: aws.String(k), Value: aws.String(c.Tags[k])})
	}
	return tags
}

func (c DomainConfig) createDomainInput(policy, password string) *opensearch.CreateDomainInput {
	in := &opensearch.CreateDomainInput{
		DomainName:                  aws.String(c.DomainName),
		EngineVersion:               aws.String(c.EngineVersion),
		ClusterConfig:               c.clusterConfig(),
		EBSOptions:                  c.ebsOptions(),
		AccessPolicies:              aws.String(policy),
		EncryptionAtRestOptions:     c.encryptionAtRest(),
		NodeToNodeEncryptionOptions: c.nodeToNode(),
		DomainEndpointOptions:       c.endpointOptions(),
		AdvancedSecurityOptions:     c.advancedSecurity(password),
	}
	if len(c.Tags) > 0 {
		in.TagList = c.domainTags()
	}
	return in
}

// updateDomainInput sends only the sections that differ.
func (c DomainConfig) updateDomainInput(sections map[section]bool, policy, password string) *opensearch.UpdateDomainConfigInput {
	in := &opensearch.UpdateDomainConfigInput{DomainName: aws.String(c.DomainName)}
	if sections[sectionCluster] {
		in.ClusterConfig = c.clusterConfig()
	}
	if sections[sectionStorage] {
		in.EBSOptions = c.ebsOptions()
	}
	if sections[sectionEncryption] {
		in.EncryptionAtRestOptions = c.encryptionAtRest()
	}
	if sections[sectionNodeToNode] {
		in.NodeToNodeEncryptionOptions = c.nodeToNode()
	}
	if sections[sectionEndpoint] {
		in.DomainEndpointOptions = c.endpointOptions()
	}
	if sections[sectionSecurity] {
		in.AdvancedSecurityOptions = c.advancedSecurity(password)
	}
	if sections[sectionPolicy] {
		in.AccessPolicies = aws.String(policy)
	}
	return in
}

func upgradeInput(domain, target string) *opensearch.UpgradeDomainInput {
	return &opensearch.UpgradeDomainInput{
		DomainName:    aws.String(domain),
		TargetVersion: aws.String(target),
	}
}
