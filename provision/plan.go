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
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/opensearch"
	ostypes "github.com/aws/aws-sdk-go-v2/service/opensearch/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/poiesic/searchrag/cloud"
	"github.com/poiesic/searchrag/core"
)

// Resource names a managed resource kind.
type Resource string

const (
	ResourceSecret Resource = "secret"
	ResourceDomain Resource = "domain"
)

// Action is what apply will do to a resource.
type Action string

const (
	ActionNoOp    Action = "no-op"
	ActionCreate  Action = "create"
	ActionRestore Action = "restore"
	ActionUpdate  Action = "update"
	ActionUpgrade Action = "upgrade"
)

// section groups fields the way UpdateDomainConfig accepts them.
type section int

const (
	sectionCluster section = iota
	sectionStorage
	sectionEncryption
	sectionNodeToNode
	sectionEndpoint
	sectionSecurity
	sectionPolicy
	sectionEngine
)

// FieldDiff is one differing setting.
type FieldDiff struct {
	Field string
	From  string
	To    string

	section section
}

// Change is a planned action on one resource.
type Change struct {
	Resource Resource
	Name     string
	Action   Action
	Diffs    []FieldDiff
}

// Plan is the difference between the desired configuration and what exists.
type Plan struct {
	Config   DomainConfig
	Digest   core.ID
	Identity cloud.Identity
	Policy   string
	State    *core.DomainState
	Changes  []Change

	secretARN string
}

// HasChanges reports whether applying the plan would call any mutating API.
func (p *Plan) HasChanges() bool {
	for _, c := range p.Changes {
		if c.Action != ActionNoOp {
			return true
		}
	}
	return false
}

// Find returns the change for resource with the given action.
func (p *Plan) Find(resource Resource, action Action) (Change, bool) {
	for _, c := range p.Changes {
		if c.Resource == resource && c.Action == action {
			return c, true
		}
	}
	return Change{}, false
}

// Counts returns how many resources will be added and changed.
func (p *Plan) Counts() (add, change int) {
	for _, c := range p.Changes {
		switch c.Action {
		case ActionCreate, ActionRestore:
			add++
		case ActionUpdate, ActionUpgrade:
			change++
		}
	}
	return add, change
}

func (p *Plan) domainSections() map[section]bool {
	sections := map[section]bool{}
	if c, ok := p.Find(ResourceDomain, ActionUpdate); ok {
		for _, d := range c.Diffs {
			sections[d.section] = true
		}
	}
	return sections
}

// Plan compares the desired configuration with the live domain and secret.
func (p *Provisioner) Plan(ctx context.Context) (*Plan, error) {
	cfg := p.config

	state, err := p.states.LoadState(ctx, cfg.DomainName)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	identity, err := cloud.CallerIdentity(ctx, p.clients.Identity)
	if err != nil {
		return nil, err
	}

	digest, err := cfg.Digest()
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Config:   cfg,
		Digest:   digest,
		Identity: identity,
		Policy:   AccessPolicy(identity.Partition, cfg.Region, identity.Account, cfg.DomainName),
		State:    state,
	}

	secretChange, err := p.planSecret(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.Changes = append(plan.Changes, secretChange)

	domainChanges, err := p.planDomain(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.Changes = append(plan.Changes, domainChanges...)

	add, change := plan.Counts()
	p.logger.Info("plan complete", "domain", cfg.DomainName, "add", add, "change", change)
	return plan, nil
}

func (p *Provisioner) planSecret(ctx context.Context, plan *Plan) (Change, error) {
	name := plan.Config.EffectiveSecretName()
	change := Change{Resource: ResourceSecret, Name: name, Action: ActionNoOp}

	out, err := p.clients.Secrets.DescribeSecret(ctx, &secretsmanager.DescribeSecretInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		if cloud.IsSecretNotFound(err) {
			change.Action = ActionCreate
			return change, nil
		}
		return change, fmt.Errorf("failed to describe secret %s: %w", name, err)
	}

	plan.secretARN = aws.ToString(out.ARN)
	if out.DeletedDate != nil {
		change.Action = ActionRestore
		change.Diffs = []FieldDiff{{
			Field: "deletion",
			From:  "scheduled " + out.DeletedDate.UTC().Format("2006-01-02"),
			To:    "cancelled",
		}}
	}
	return change, nil
}

func (p *Provisioner) planDomain(ctx context.Context, plan *Plan) ([]Change, error) {
	cfg := plan.Config
	live, err := p.describeDomain(ctx)
	if err != nil {
		return nil, err
	}

	if live == nil {
		return []Change{{Resource: ResourceDomain, Name: cfg.DomainName, Action: ActionCreate}}, nil
	}
	if aws.ToBool(live.Deleted) {
		return nil, fmt.Errorf("%w: %s", ErrDomainDeleting, cfg.DomainName)
	}

	diffs, err := diffDomain(cfg, live, plan.Policy)
	if err != nil {
		return nil, err
	}

	var updates, upgrades []FieldDiff
	for _, d := range diffs {
		if d.section == sectionEngine {
			upgrades = append(upgrades, d)
		} else {
			updates = append(updates, d)
		}
	}

	var changes []Change
	if len(updates) > 0 {
		changes = append(changes, Change{Resource: ResourceDomain, Name: cfg.DomainName, Action: ActionUpdate, Diffs: updates})
	}
	if len(upgrades) > 0 {
		changes = append(changes, Change{Resource: ResourceDomain, Name: cfg.DomainName, Action: ActionUpgrade, Diffs: upgrades})
	}
	if len(changes) == 0 {
		changes = append(changes, Change{Resource: ResourceDomain, Name: cfg.DomainName, Action: ActionNoOp})
	}
	return changes, nil
}

// describeDomain returns the live domain status, or nil when the domain does not exist.
func (p *Provisioner) describeDomain(ctx context.Context) (*ostypes.DomainStatus, error) {
	out, err := p.clients.Domains.DescribeDomain(ctx, &opensearch.DescribeDomainInput{
		DomainName: aws.String(p.config.DomainName),
	})
	if err != nil {
		if cloud.IsDomainNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to describe domain %s: %w", p.config.DomainName, err)
	}
	return out.DomainStatus, nil
}

type differ struct {
	diffs []FieldDiff
}

func (d *differ) add(sec section, field, from, to string) {
	if from != to {
		d.diffs = append(d.diffs, FieldDiff{Field: field, From: from, To: to, section: sec})
	}
}

func fmtBool(b *bool) string {
	return strconv.FormatBool(aws.ToBool(b))
}

func fmtInt(n *int32) string {
	return strconv.Itoa(int(aws.ToInt32(n)))
}

// diffDomain lists the settings where live differs from desired.
func diffDomain(desired DomainConfig, live *ostypes.DomainStatus, policy string) ([]FieldDiff, error) {
	d := &differ{}

	cc := live.ClusterConfig
	if cc == nil {
		cc = &ostypes.ClusterConfig{}
	}
	d.add(sectionCluster, "instance_type", string(cc.InstanceType), desired.InstanceType)
	d.add(sectionCluster, "instance_count", fmtInt(cc.InstanceCount), strconv.Itoa(int(desired.InstanceCount)))
	d.add(sectionCluster, "dedicated_master", fmtBool(cc.DedicatedMasterEnabled), strconv.FormatBool(desired.DedicatedMaster))
	if desired.DedicatedMaster {
		d.add(sectionCluster, "master_type", string(cc.DedicatedMasterType), desired.MasterType)
		d.add(sectionCluster, "master_count", fmtInt(cc.DedicatedMasterCount), strconv.Itoa(int(desired.MasterCount)))
	}
	d.add(sectionCluster, "warm_enabled", fmtBool(cc.WarmEnabled), strconv.FormatBool(desired.WarmEnabled))
	if desired.WarmEnabled {
		d.add(sectionCluster, "warm_type", string(cc.WarmType), desired.WarmType)
		d.add(sectionCluster, "warm_count", fmtInt(cc.WarmCount), strconv.Itoa(int(desired.WarmCount)))
	}
	d.add(sectionCluster, "zone_awareness", fmtBool(cc.ZoneAwarenessEnabled), strconv.FormatBool(desired.ZoneAwareness))

	ebs := live.EBSOptions
	if ebs == nil {
		ebs = &ostypes.EBSOptions{}
	}
	d.add(sectionStorage, "volume_size", fmtInt(ebs.VolumeSize), strconv.Itoa(int(desired.VolumeSize)))
	d.add(sectionStorage, "volume_type", string(ebs.VolumeType), desired.VolumeType)

	var atRest, n2n *bool
	if live.EncryptionAtRestOptions != nil {
		atRest = live.EncryptionAtRestOptions.Enabled
	}
	if live.NodeToNodeEncryptionOptions != nil {
		n2n = live.NodeToNodeEncryptionOptions.Enabled
	}
	d.add(sectionEncryption, "encrypt_at_rest", fmtBool(atRest), strconv.FormatBool(desired.EncryptAtRest))
	d.add(sectionNodeToNode, "node_to_node_encryption", fmtBool(n2n), strconv.FormatBool(desired.NodeToNodeEncryption))

	endpoint := live.DomainEndpointOptions
	if endpoint == nil {
		endpoint = &ostypes.DomainEndpointOptions{}
	}
	d.add(sectionEndpoint, "enforce_https", fmtBool(endpoint.EnforceHTTPS), strconv.FormatBool(desired.EnforceHTTPS))
	if desired.TLSPolicy != "" {
		d.add(sectionEndpoint, "tls_policy", string(endpoint.TLSSecurityPolicy), desired.TLSPolicy)
	}

	security := live.AdvancedSecurityOptions
	if security == nil {
		security = &ostypes.AdvancedSecurityOptions{}
	}
	d.add(sectionSecurity, "fine_grained_access", fmtBool(security.Enabled), strconv.FormatBool(desired.FineGrainedAccess))
	d.add(sectionSecurity, "internal_user_database", fmtBool(security.InternalUserDatabaseEnabled),
		strconv.FormatBool(desired.FineGrainedAccess && desired.InternalUserDatabase))

	equal, err := PoliciesEqual(aws.ToString(live.AccessPolicies), policy)
	if err != nil {
		return nil, err
	}
	if !equal {
		d.diffs = append(d.diffs, FieldDiff{Field: "access_policy", From: "(current)", To: "(open es:* policy)", section: sectionPolicy})
	}

	d.add(sectionEngine, "engine_version", aws.ToString(live.EngineVersion), desired.EngineVersion)

	return d.diffs, nil
}
